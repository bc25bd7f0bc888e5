// Package uniswapv4 quotes v4 pools. The swap math inside one liquidity
// range is the same as v3, so the pool is viewed as a v3 pool.
package uniswapv4

import (
	uniswapv3 "github.com/defistate/defistate-cycles-go/protocols/uniswapv3"
	v3calculator "github.com/defistate/defistate-cycles-go/protocols/uniswapv3/calculator"
	uniswapv4 "github.com/defistate/defistate-cycles-go/protocols/uniswapv4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GetAmountOut quotes an exact-input swap inside the pool's active range.
func GetAmountOut(amountIn *uint256.Int, tokenIn common.Address, pool uniswapv4.Pool) (*uint256.Int, error) {
	return v3calculator.GetAmountOut(amountIn, tokenIn, AsV3(pool))
}

// SimulateExactInSwap returns the output of an in-range exact-input swap
// and the pool state after it.
func SimulateExactInSwap(amountIn *uint256.Int, tokenIn common.Address, pool uniswapv4.Pool) (*uint256.Int, uniswapv4.Pool, error) {
	amountOut, next, err := v3calculator.SimulateExactInSwap(amountIn, tokenIn, AsV3(pool))
	if err != nil {
		return nil, uniswapv4.Pool{}, err
	}
	newPoolState := pool
	newPoolState.Tick = next.Tick
	newPoolState.SqrtPriceX96 = next.SqrtPriceX96
	return amountOut, newPoolState, nil
}

// AsV3 returns the v3 view of a v4 pool with the effective LP fee.
func AsV3(pool uniswapv4.Pool) uniswapv3.Pool {
	return uniswapv3.Pool{
		Address:      pool.Manager,
		Token0:       pool.Key.Currency0,
		Token1:       pool.Key.Currency1,
		Fee:          pool.Fee(),
		TickSpacing:  pool.Key.TickSpacing,
		Tick:         pool.Tick,
		Liquidity:    pool.Liquidity,
		SqrtPriceX96: pool.SqrtPriceX96,
	}
}
