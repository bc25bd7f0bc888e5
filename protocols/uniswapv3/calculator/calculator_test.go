package uniswapv3

import (
	"testing"

	uniswapv3 "github.com/defistate/defistate-cycles-go/protocols/uniswapv3"
	"github.com/defistate/defistate-cycles-go/protocols/uniswapv3/calculator/sqrtpricemath"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usdc = common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	weth = common.HexToAddress("0xc02aaa39b223fe8d0a4e5c4f27ead9083c756cc2")
)

// createRealisticV3Pool is a USDC/WETH 0.3% pool around tick 193540.
func createRealisticV3Pool() uniswapv3.Pool {
	return uniswapv3.Pool{
		Address:      common.HexToAddress("0x8ad599c3a0ff1de082011efddc58f1908eb6e6d8"),
		Token0:       usdc,
		Token1:       weth,
		Fee:          3000,
		TickSpacing:  10,
		Tick:         193540,
		Liquidity:    uint256.MustFromDecimal("4411461329627947710"),
		SqrtPriceX96: uint256.MustFromDecimal("1262831046415630070062062910819682"),
	}
}

// priceOnePool has sqrt price 1 and liquidity 1e18 at tick 0.
func priceOnePool(fee uint32, spacing int32) uniswapv3.Pool {
	return uniswapv3.Pool{
		Address:      common.HexToAddress("0x01"),
		Token0:       common.HexToAddress("0x0a"),
		Token1:       common.HexToAddress("0x0b"),
		Fee:          fee,
		TickSpacing:  spacing,
		Tick:         0,
		Liquidity:    uint256.NewInt(1e18),
		SqrtPriceX96: new(uint256.Int).Set(sqrtpricemath.Q96),
	}
}

func TestSimulateSwap_ExactInput_WithRealisticPool(t *testing.T) {
	pool := createRealisticV3Pool()

	testCases := []struct {
		description string
		tokenIn     common.Address
		amountIn    *uint256.Int
		expectedOut string
		expectedTo  string
	}{
		{
			description: "Swap tiny amount: 1 USDC for WETH",
			tokenIn:     usdc,
			amountIn:    uint256.NewInt(1e6),
			expectedOut: "253294925960028",
			expectedTo:  "1262831041866549831452742327615771",
		},
		{
			description: "Swap small amount: 1,000 USDC for WETH",
			tokenIn:     usdc,
			amountIn:    uint256.NewInt(1_000e6),
			expectedOut: "253294014434655388",
			expectedTo:  "1262826497351762108697948044172007",
		},
		{
			description: "Swap tiny amount: 0.0001 WETH for USDC",
			tokenIn:     weth,
			amountIn:    uint256.NewInt(1e14),
			expectedOut: "392431",
			expectedTo:  "1262831048206204034662210862704867",
		},
		{
			description: "Swap small amount: 0.1 WETH for USDC",
			tokenIn:     weth,
			amountIn:    uint256.NewInt(1e17),
			expectedOut: "392430911",
			expectedTo:  "1262832836989594670210014796005044",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			amountOut, newPoolState, err := SimulateExactInSwap(tc.amountIn, tc.tokenIn, pool)
			require.NoError(t, err)

			assert.Equal(t, tc.expectedOut, amountOut.Dec())
			assert.Equal(t, tc.expectedTo, newPoolState.SqrtPriceX96.Dec())
			assert.Equal(t, int32(193540), newPoolState.Tick)
		})
	}
}

func TestSimulateSwap_CappedByRange(t *testing.T) {
	pool := createRealisticV3Pool()

	t.Run("token0 in stops at the lower boundary", func(t *testing.T) {
		amountOut, newPoolState, err := SimulateExactInSwap(uint256.NewInt(1e12), usdc, pool)
		require.NoError(t, err)
		assert.Equal(t, "1308942266332580641", amountOut.Dec())
		assert.Equal(t, "1262807538311886240255824847321611", newPoolState.SqrtPriceX96.Dec())
		assert.Equal(t, int32(193539), newPoolState.Tick)
	})

	t.Run("token1 in stops at the upper boundary", func(t *testing.T) {
		amountOut, newPoolState, err := SimulateExactInSwap(uint256.MustFromDecimal("10000000000000000000000"), weth, pool)
		require.NoError(t, err)
		assert.Equal(t, "133193113794", amountOut.Dec())
		assert.Equal(t, "1263439068374424721364092879056554", newPoolState.SqrtPriceX96.Dec())
		assert.Equal(t, int32(193550), newPoolState.Tick)
	})

	t.Run("output never exceeds the range capacity", func(t *testing.T) {
		small, err := GetAmountOut(uint256.NewInt(1e12), usdc, pool)
		require.NoError(t, err)
		large, err := GetAmountOut(uint256.NewInt(1e15), usdc, pool)
		require.NoError(t, err)
		assert.Equal(t, small, large)
	})
}

func TestGetAmountOut_PriceOne(t *testing.T) {
	testCases := []struct {
		name     string
		fee      uint32
		spacing  int32
		tokenIn  common.Address
		amountIn *uint256.Int
		expected string
	}{
		// L*a/(L+a) for a = 1e15 and L = 1e18
		{"token1 in, no fee", 0, 60, common.HexToAddress("0x0b"), uint256.NewInt(1e15), "999000999000999"},
		{"token0 in from the lower boundary", 0, 60, common.HexToAddress("0x0a"), uint256.NewInt(1e15), "999000999000999"},
		{"token0 in, 0.3% fee", 3000, 60, common.HexToAddress("0x0a"), uint256.NewInt(1e15), "996006981039903"},
		{"token1 in, range capped", 0, 60, common.HexToAddress("0x0b"), uint256.NewInt(1e18), "2995354955910780"},
		{"token0 in, range capped", 0, 60, common.HexToAddress("0x0a"), uint256.NewInt(1e18), "2995354955910780"},
		{"no spacing uses the full price range", 0, 0, common.HexToAddress("0x0a"), uint256.NewInt(1e18), "500000000000000000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amountOut, err := GetAmountOut(tc.amountIn, tc.tokenIn, priceOnePool(tc.fee, tc.spacing))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, amountOut.Dec())
		})
	}
}

func TestGetAmountOut_Errors(t *testing.T) {
	pool := priceOnePool(3000, 60)

	_, err := GetAmountOut(nil, pool.Token0, pool)
	assert.ErrorIs(t, err, ErrInvalidAmountIn)

	_, err = GetAmountOut(new(uint256.Int), pool.Token0, pool)
	assert.ErrorIs(t, err, ErrInvalidAmountIn)

	_, err = GetAmountOut(uint256.NewInt(1), common.HexToAddress("0xdead"), pool)
	assert.ErrorIs(t, err, ErrTokenMismatch)

	badFee := pool
	badFee.Fee = uniswapv3.FeeDenominator
	_, err = GetAmountOut(uint256.NewInt(1), pool.Token0, badFee)
	assert.ErrorIs(t, err, ErrInvalidFee)

	empty := pool
	empty.Liquidity = new(uint256.Int)
	_, err = GetAmountOut(uint256.NewInt(1), pool.Token0, empty)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	noPrice := pool
	noPrice.SqrtPriceX96 = uint256.NewInt(1)
	_, err = GetAmountOut(uint256.NewInt(1), pool.Token0, noPrice)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestSimulateSwap_IdempotencyAndStateIsolation(t *testing.T) {
	originalPool := createRealisticV3Pool()
	originalPrice := originalPool.SqrtPriceX96.Clone()
	amountIn := uint256.NewInt(1_000e6)

	amountOut1, newPoolState1, err := SimulateExactInSwap(amountIn, usdc, originalPool)
	require.NoError(t, err)
	amountOut2, newPoolState2, err := SimulateExactInSwap(amountIn, usdc, originalPool)
	require.NoError(t, err)

	assert.Equal(t, amountOut1, amountOut2)
	assert.Equal(t, newPoolState1, newPoolState2)
	assert.Equal(t, originalPrice, originalPool.SqrtPriceX96, "input pool must not be mutated")
	assert.NotSame(t, originalPool.SqrtPriceX96, newPoolState1.SqrtPriceX96)
	assert.NotSame(t, newPoolState1.SqrtPriceX96, newPoolState2.SqrtPriceX96)
}

func TestRangeTicks(t *testing.T) {
	testCases := []struct {
		tick, spacing int32
		lower, upper  int32
		ok            bool
	}{
		{193540, 10, 193540, 193550, true},
		{193545, 10, 193540, 193550, true},
		{-5, 10, -10, 0, true},
		{-10, 10, -10, 0, true},
		{0, 60, 0, 60, true},
		{7, 0, 0, 0, false},
	}
	for _, tc := range testCases {
		lower, upper, ok := uniswapv3.Pool{Tick: tc.tick, TickSpacing: tc.spacing}.RangeTicks()
		assert.Equal(t, tc.ok, ok)
		assert.Equal(t, tc.lower, lower)
		assert.Equal(t, tc.upper, upper)
	}
}

func BenchmarkGetAmountOut(b *testing.B) {
	pool := createRealisticV3Pool()
	amountIn := uint256.NewInt(1_000e6)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = GetAmountOut(amountIn, usdc, pool)
	}
}
