package uniswapv3

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// FeeDenominator is 100% in the pool fee unit (hundredths of a bip).
const FeeDenominator = 1_000_000

// Pool is the current-range state of a concentrated-liquidity pool.
// Liquidity is the active liquidity at Tick; ticks beyond the spacing
// range around Tick are not modelled.
type Pool struct {
	Address      common.Address `json:"address"`
	Token0       common.Address `json:"token0"`
	Token1       common.Address `json:"token1"`
	Fee          uint32         `json:"fee"`
	TickSpacing  int32          `json:"tickSpacing"`
	Tick         int32          `json:"tick"`
	Liquidity    *uint256.Int   `json:"liquidity"`
	SqrtPriceX96 *uint256.Int   `json:"sqrtPriceX96"`
}

// RangeTicks returns the initialized-tick boundaries enclosing Tick,
// assuming the nearest multiples of TickSpacing bound the active range.
// ok is false when the pool carries no spacing.
func (p Pool) RangeTicks() (lower, upper int32, ok bool) {
	if p.TickSpacing <= 0 {
		return 0, 0, false
	}
	lower = p.Tick / p.TickSpacing * p.TickSpacing
	if p.Tick < 0 && p.Tick%p.TickSpacing != 0 {
		lower -= p.TickSpacing
	}
	return lower, lower + p.TickSpacing, true
}
