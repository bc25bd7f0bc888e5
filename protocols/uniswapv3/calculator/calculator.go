package uniswapv3

import (
	"errors"
	"fmt"
	"sync"

	uniswapv3 "github.com/defistate/defistate-cycles-go/protocols/uniswapv3"
	"github.com/defistate/defistate-cycles-go/protocols/uniswapv3/calculator/sqrtpricemath"
	"github.com/defistate/defistate-cycles-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInvalidAmountIn       = errors.New("amountIn must be greater than zero")
	ErrTokenMismatch         = errors.New("token mismatch")
	ErrInvalidFee            = errors.New("fee must be below 100%")
	ErrInsufficientLiquidity = errors.New("pool has no active liquidity")
	ErrInvalidPrice          = errors.New("sqrt price outside the valid range")

	feeDenominator = uint256.NewInt(uniswapv3.FeeDenominator)
)

// swapState holds the temporaries of one in-range swap.
type swapState struct {
	amountLessFee uint256.Int
	feeComplement uint256.Int
	target        uint256.Int
	maxIn         uint256.Int
	sqrtPriceNext uint256.Int
	amountOut     uint256.Int
}

var swapStatePool = sync.Pool{
	New: func() any {
		return new(swapState)
	},
}

// GetAmountOut quotes an exact-input swap that stays inside the pool's
// active range. Input beyond what the range can absorb is not filled, so
// the output is capped by in-range liquidity.
func GetAmountOut(amountIn *uint256.Int, tokenIn common.Address, pool uniswapv3.Pool) (*uint256.Int, error) {
	amountOut, _, err := SimulateExactInSwap(amountIn, tokenIn, pool)
	return amountOut, err
}

// SimulateExactInSwap returns the output of an in-range exact-input swap
// and the pool state after it.
func SimulateExactInSwap(
	amountIn *uint256.Int,
	tokenIn common.Address,
	pool uniswapv3.Pool,
) (*uint256.Int, uniswapv3.Pool, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, uniswapv3.Pool{}, ErrInvalidAmountIn
	}

	zeroForOne := tokenIn == pool.Token0
	if !zeroForOne && tokenIn != pool.Token1 {
		return nil, uniswapv3.Pool{}, fmt.Errorf("%w: token %s is not in pool %s", ErrTokenMismatch, tokenIn, pool.Address)
	}
	if pool.Fee >= uniswapv3.FeeDenominator {
		return nil, uniswapv3.Pool{}, ErrInvalidFee
	}
	if pool.Liquidity == nil || pool.Liquidity.IsZero() {
		return nil, uniswapv3.Pool{}, ErrInsufficientLiquidity
	}
	if pool.SqrtPriceX96 == nil ||
		pool.SqrtPriceX96.Lt(tickmath.MinSqrtRatio) ||
		!pool.SqrtPriceX96.Lt(tickmath.MaxSqrtRatio) {
		return nil, uniswapv3.Pool{}, ErrInvalidPrice
	}

	state := swapStatePool.Get().(*swapState)
	defer swapStatePool.Put(state)

	if err := state.swap(amountIn, pool, zeroForOne); err != nil {
		return nil, uniswapv3.Pool{}, err
	}

	newPoolState := pool
	newPoolState.SqrtPriceX96 = new(uint256.Int).Set(&state.sqrtPriceNext)
	tick, err := tickmath.GetTickAtSqrtRatio(newPoolState.SqrtPriceX96)
	switch {
	case errors.Is(err, tickmath.ErrSqrtPriceOutOfBounds):
		tick = tickmath.MaxTick
	case err != nil:
		return nil, uniswapv3.Pool{}, err
	}
	// a price resting on the lower boundary after a zeroForOne swap belongs to the tick below
	if zeroForOne && state.sqrtPriceNext.Eq(&state.target) && !state.sqrtPriceNext.Eq(pool.SqrtPriceX96) {
		tick--
	}
	newPoolState.Tick = tick

	return new(uint256.Int).Set(&state.amountOut), newPoolState, nil
}

func (s *swapState) swap(amountIn *uint256.Int, pool uniswapv3.Pool, zeroForOne bool) error {
	s.amountOut.Clear()

	s.feeComplement.SetUint64(uint64(uniswapv3.FeeDenominator - pool.Fee))
	if _, overflow := s.amountLessFee.MulDivOverflow(amountIn, &s.feeComplement, feeDenominator); overflow {
		return sqrtpricemath.ErrOverflow
	}

	if err := s.rangeTarget(pool, zeroForOne); err != nil {
		return err
	}

	sqrtPrice := pool.SqrtPriceX96
	var err error
	if zeroForOne {
		err = sqrtpricemath.GetAmount0Delta(&s.maxIn, &s.target, sqrtPrice, pool.Liquidity, true)
	} else {
		err = sqrtpricemath.GetAmount1Delta(&s.maxIn, sqrtPrice, &s.target, pool.Liquidity, true)
	}
	if err != nil {
		return err
	}

	if !s.amountLessFee.Lt(&s.maxIn) {
		s.sqrtPriceNext.Set(&s.target)
	} else if err := sqrtpricemath.GetNextSqrtPriceFromInput(&s.sqrtPriceNext, sqrtPrice, pool.Liquidity, &s.amountLessFee, zeroForOne); err != nil {
		return err
	}

	if zeroForOne {
		return sqrtpricemath.GetAmount1Delta(&s.amountOut, &s.sqrtPriceNext, sqrtPrice, pool.Liquidity, false)
	}
	if s.sqrtPriceNext.IsZero() {
		return ErrInvalidPrice
	}
	return sqrtpricemath.GetAmount0Delta(&s.amountOut, sqrtPrice, &s.sqrtPriceNext, pool.Liquidity, false)
}

// rangeTarget sets s.target to the price boundary the swap moves toward,
// never on the wrong side of the current price.
func (s *swapState) rangeTarget(pool uniswapv3.Pool, zeroForOne bool) error {
	lower, upper, ok := pool.RangeTicks()
	switch {
	case !ok && zeroForOne:
		s.target.Set(tickmath.MinSqrtRatio)
	case !ok:
		s.target.Set(tickmath.MaxSqrtRatio)
	case zeroForOne:
		if err := tickmath.GetSqrtRatioAtTick(&s.target, max(lower, tickmath.MinTick)); err != nil {
			return err
		}
		// resting on the lower boundary, the active range is the one below
		if s.target.Eq(pool.SqrtPriceX96) && lower-pool.TickSpacing >= tickmath.MinTick {
			if err := tickmath.GetSqrtRatioAtTick(&s.target, lower-pool.TickSpacing); err != nil {
				return err
			}
		}
	default:
		if err := tickmath.GetSqrtRatioAtTick(&s.target, min(upper, tickmath.MaxTick)); err != nil {
			return err
		}
	}

	if zeroForOne && s.target.Gt(pool.SqrtPriceX96) {
		s.target.Set(pool.SqrtPriceX96)
	}
	if !zeroForOne && s.target.Lt(pool.SqrtPriceX96) {
		s.target.Set(pool.SqrtPriceX96)
	}
	return nil
}
