package normalizer

import (
	"github.com/defistate/defistate-cycles-go/graph"
	"github.com/holiman/uint256"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// PoolKind is the pricing mechanism of a pool.
type PoolKind uint8

const (
	V2 PoolKind = iota + 1
	V3
	V4
)

func (k PoolKind) String() string {
	switch k {
	case V2:
		return "uniswapv2"
	case V3:
		return "uniswapv3"
	case V4:
		return "uniswapv4"
	default:
		return "unknown"
	}
}

// Pool is a liquidity source that can quote both of its directions.
// AtoB swaps the first token returned by Tokens into the second.
type Pool interface {
	ID() graph.PoolID
	Kind() PoolKind
	Tokens() (a, b graph.TokenKey)
	Quote(amountIn *uint256.Int, dir graph.Direction) (*uint256.Int, error)
}

// Graph is the write side of the liquidity graph the Feeder maintains.
type Graph interface {
	ReplacePool(pool graph.PoolID, edges []graph.Edge)
	RemovePool(pool graph.PoolID)
}
