package uniswapv2

import (
	"errors"
	"fmt"
	"sync"

	uniswapv2 "github.com/defistate/defistate-cycles-go/protocols/uniswapv2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// basisPointDivisor is a constant representing 100% in basis points (10000).
	basisPointDivisor = uint256.NewInt(10000)

	one = uint256.NewInt(1)

	// ErrNilAmount is returned when a nil pointer is passed for an amount.
	ErrNilAmount = errors.New("nil pointer passed as amount")
	// ErrTokenMismatch is returned when the specified input/output tokens do not match the pool's tokens.
	ErrTokenMismatch = errors.New("token mismatch")
	// ErrInvalidState is returned for internal calculation errors, like division by zero.
	ErrInvalidState = errors.New("invalid internal state")
	// ErrInsufficientLiquidity is returned when an amountOut is requested that is greater than or equal to the available reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
	// ErrOverflow is returned when an intermediate product does not fit in 256 bits.
	ErrOverflow = errors.New("uint256 overflow")
)

// Calculator holds reusable uint256 values to avoid allocations during calculations.
// Instances are NOT safe for concurrent use by themselves; they are handed out by calculatorPool.
type Calculator struct {
	feeMultiplier   uint256.Int
	amountInWithFee uint256.Int
	denominator     uint256.Int

	numeratorIn   uint256.Int
	denominatorIn uint256.Int
}

var calculatorPool = sync.Pool{
	New: func() any {
		return new(Calculator)
	},
}

// GetAmountOut calculates the output amount of an exact-input swap.
func GetAmountOut(
	amountIn *uint256.Int,
	tokenIn common.Address,
	tokenOut common.Address,
	pool uniswapv2.Pool,
) (*uint256.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.getAmountOut(amountIn, tokenIn, tokenOut, pool)
}

// GetAmountIn calculates the required input amount for a desired output.
func GetAmountIn(
	amountOut *uint256.Int,
	tokenIn common.Address,
	tokenOut common.Address,
	pool uniswapv2.Pool,
) (*uint256.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.getAmountIn(amountOut, tokenIn, tokenOut, pool)
}

// SimulateSwap returns the output of a swap and the pool state after it.
func SimulateSwap(
	amountIn *uint256.Int,
	tokenIn common.Address,
	tokenOut common.Address,
	pool uniswapv2.Pool,
) (*uint256.Int, uniswapv2.Pool, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.simulateSwap(amountIn, tokenIn, tokenOut, pool)
}

func (c *Calculator) setFee(pool uniswapv2.Pool) error {
	if uint64(pool.FeeBps) >= basisPointDivisor.Uint64() {
		return fmt.Errorf("%w: fee %d bps leaves nothing to swap", ErrInvalidState, pool.FeeBps)
	}
	c.feeMultiplier.SetUint64(basisPointDivisor.Uint64() - uint64(pool.FeeBps))
	return nil
}

// getAmountOut computes (in * (10000-fee) * reserveOut) / (reserveIn * 10000 + in * (10000-fee)).
func (c *Calculator) getAmountOut(
	amountIn *uint256.Int,
	tokenIn common.Address,
	tokenOut common.Address,
	pool uniswapv2.Pool,
) (*uint256.Int, error) {
	if amountIn == nil {
		return nil, ErrNilAmount
	}

	reserveIn, reserveOut, err := GetReserves(tokenIn, tokenOut, pool)
	if err != nil {
		return nil, err
	}

	if reserveIn.IsZero() || reserveOut.IsZero() {
		return new(uint256.Int), nil
	}
	if err := c.setFee(pool); err != nil {
		return nil, err
	}

	if _, overflow := c.amountInWithFee.MulOverflow(amountIn, &c.feeMultiplier); overflow {
		return nil, fmt.Errorf("%w: amountIn * fee", ErrOverflow)
	}
	if _, overflow := c.denominator.MulOverflow(reserveIn, basisPointDivisor); overflow {
		return nil, fmt.Errorf("%w: reserveIn * 10000", ErrOverflow)
	}
	if _, overflow := c.denominator.AddOverflow(&c.denominator, &c.amountInWithFee); overflow {
		return nil, fmt.Errorf("%w: denominator", ErrOverflow)
	}

	// the quotient is bounded by reserveOut, so it always fits
	amountOut, _ := new(uint256.Int).MulDivOverflow(reserveOut, &c.amountInWithFee, &c.denominator)
	return amountOut, nil
}

// getAmountIn computes (reserveIn * amountOut * 10000) / ((reserveOut - amountOut) * (10000-fee)) + 1.
func (c *Calculator) getAmountIn(
	amountOut *uint256.Int,
	tokenIn common.Address,
	tokenOut common.Address,
	pool uniswapv2.Pool,
) (*uint256.Int, error) {
	if amountOut == nil {
		return nil, ErrNilAmount
	}

	reserveIn, reserveOut, err := GetReserves(tokenIn, tokenOut, pool)
	if err != nil {
		return nil, err
	}

	if reserveIn.IsZero() || reserveOut.IsZero() || !amountOut.Lt(reserveOut) {
		return nil, fmt.Errorf("%w: requested amountOut (%s) is >= reserveOut (%s)", ErrInsufficientLiquidity, amountOut.Dec(), reserveOut.Dec())
	}
	if err := c.setFee(pool); err != nil {
		return nil, err
	}

	if _, overflow := c.numeratorIn.MulOverflow(amountOut, basisPointDivisor); overflow {
		return nil, fmt.Errorf("%w: amountOut * 10000", ErrOverflow)
	}
	c.denominatorIn.Sub(reserveOut, amountOut)
	if _, overflow := c.denominatorIn.MulOverflow(&c.denominatorIn, &c.feeMultiplier); overflow {
		return nil, fmt.Errorf("%w: denominator", ErrOverflow)
	}

	amountIn, overflow := new(uint256.Int).MulDivOverflow(reserveIn, &c.numeratorIn, &c.denominatorIn)
	if overflow {
		return nil, fmt.Errorf("%w: amountIn", ErrOverflow)
	}
	if _, overflow := amountIn.AddOverflow(amountIn, one); overflow {
		return nil, fmt.Errorf("%w: amountIn", ErrOverflow)
	}
	return amountIn, nil
}

func (c *Calculator) simulateSwap(
	amountIn *uint256.Int,
	tokenIn common.Address,
	tokenOut common.Address,
	pool uniswapv2.Pool,
) (*uint256.Int, uniswapv2.Pool, error) {
	amountOut, err := c.getAmountOut(amountIn, tokenIn, tokenOut, pool)
	if err != nil {
		return nil, uniswapv2.Pool{}, err
	}

	reserveIn, reserveOut, err := GetReserves(tokenIn, tokenOut, pool)
	if err != nil {
		return nil, uniswapv2.Pool{}, err
	}

	newPoolState := pool
	newReserveIn := new(uint256.Int)
	newReserveOut := new(uint256.Int).Sub(reserveOut, amountOut)
	if _, overflow := newReserveIn.AddOverflow(reserveIn, amountIn); overflow {
		return nil, uniswapv2.Pool{}, fmt.Errorf("%w: reserve after swap", ErrOverflow)
	}

	newReserve0, newReserve1 := newReserveIn, newReserveOut
	if tokenIn == pool.Token1 {
		newReserve0, newReserve1 = newReserveOut, newReserveIn
	}

	newPoolState.Reserve0 = newReserve0
	newPoolState.Reserve1 = newReserve1
	return amountOut, newPoolState, nil
}

// GetReserves returns the reserves ordered as (in, out) for the given pair.
func GetReserves(tokenIn, tokenOut common.Address, pool uniswapv2.Pool) (reserveIn, reserveOut *uint256.Int, err error) {
	var r0, r1 *uint256.Int = pool.Reserve0, pool.Reserve1
	if r0 == nil {
		r0 = new(uint256.Int)
	}
	if r1 == nil {
		r1 = new(uint256.Int)
	}

	if tokenIn == pool.Token0 && tokenOut == pool.Token1 {
		return r0, r1, nil
	} else if tokenIn == pool.Token1 && tokenOut == pool.Token0 {
		return r1, r0, nil
	}
	return nil, nil, fmt.Errorf("%w: pool %s does not contain the pair %s -> %s", ErrTokenMismatch, pool.Address.Hex(), tokenIn.Hex(), tokenOut.Hex())
}
