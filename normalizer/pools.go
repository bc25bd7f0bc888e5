package normalizer

import (
	"github.com/defistate/defistate-cycles-go/graph"
	uniswapv2 "github.com/defistate/defistate-cycles-go/protocols/uniswapv2"
	v2calculator "github.com/defistate/defistate-cycles-go/protocols/uniswapv2/calculator"
	uniswapv3 "github.com/defistate/defistate-cycles-go/protocols/uniswapv3"
	v3calculator "github.com/defistate/defistate-cycles-go/protocols/uniswapv3/calculator"
	uniswapv4 "github.com/defistate/defistate-cycles-go/protocols/uniswapv4"
	v4calculator "github.com/defistate/defistate-cycles-go/protocols/uniswapv4/calculator"
	"github.com/holiman/uint256"
)

// V2Pool adapts a constant-product pair.
type V2Pool struct {
	uniswapv2.Pool
}

func (p V2Pool) ID() graph.PoolID { return graph.PoolID{Address: p.Address} }

func (p V2Pool) Kind() PoolKind { return V2 }

func (p V2Pool) Tokens() (a, b graph.TokenKey) { return p.Token0, p.Token1 }

func (p V2Pool) Quote(amountIn *uint256.Int, dir graph.Direction) (*uint256.Int, error) {
	in, out := p.Token0, p.Token1
	if dir == graph.BtoA {
		in, out = out, in
	}
	return v2calculator.GetAmountOut(amountIn, in, out, p.Pool)
}

// SameState compares the fields a quote depends on.
func (p V2Pool) SameState(other Pool) bool {
	o, ok := other.(V2Pool)
	return ok &&
		p.Token0 == o.Token0 && p.Token1 == o.Token1 && p.FeeBps == o.FeeBps &&
		equalAmounts(p.Reserve0, o.Reserve0) && equalAmounts(p.Reserve1, o.Reserve1)
}

// V3Pool adapts a concentrated-liquidity pool.
type V3Pool struct {
	uniswapv3.Pool
}

func (p V3Pool) ID() graph.PoolID { return graph.PoolID{Address: p.Address} }

func (p V3Pool) Kind() PoolKind { return V3 }

func (p V3Pool) Tokens() (a, b graph.TokenKey) { return p.Token0, p.Token1 }

func (p V3Pool) Quote(amountIn *uint256.Int, dir graph.Direction) (*uint256.Int, error) {
	in := p.Token0
	if dir == graph.BtoA {
		in = p.Token1
	}
	return v3calculator.GetAmountOut(amountIn, in, p.Pool)
}

// SameState compares the fields a quote depends on.
func (p V3Pool) SameState(other Pool) bool {
	o, ok := other.(V3Pool)
	return ok &&
		p.Token0 == o.Token0 && p.Token1 == o.Token1 &&
		p.Fee == o.Fee && p.TickSpacing == o.TickSpacing && p.Tick == o.Tick &&
		equalAmounts(p.Liquidity, o.Liquidity) && equalAmounts(p.SqrtPriceX96, o.SqrtPriceX96)
}

// V4Pool adapts a pool of the singleton pool manager. The pool id hash is
// computed once on construction.
type V4Pool struct {
	uniswapv4.Pool
	id graph.PoolID
}

// NewV4Pool validates the pool key and derives the pool id.
func NewV4Pool(pool uniswapv4.Pool) (V4Pool, error) {
	if err := pool.Key.Validate(); err != nil {
		return V4Pool{}, err
	}
	key, err := pool.Key.ID()
	if err != nil {
		return V4Pool{}, err
	}
	return V4Pool{Pool: pool, id: graph.PoolID{Address: pool.Manager, Key: key}}, nil
}

func (p V4Pool) ID() graph.PoolID { return p.id }

func (p V4Pool) Kind() PoolKind { return V4 }

func (p V4Pool) Tokens() (a, b graph.TokenKey) { return p.Key.Currency0, p.Key.Currency1 }

func (p V4Pool) Quote(amountIn *uint256.Int, dir graph.Direction) (*uint256.Int, error) {
	in := p.Key.Currency0
	if dir == graph.BtoA {
		in = p.Key.Currency1
	}
	return v4calculator.GetAmountOut(amountIn, in, p.Pool)
}

// SameState compares the fields a quote depends on. Equal ids imply equal keys.
func (p V4Pool) SameState(other Pool) bool {
	o, ok := other.(V4Pool)
	return ok &&
		p.id == o.id && p.Fee() == o.Fee() && p.Tick == o.Tick &&
		equalAmounts(p.Liquidity, o.Liquidity) && equalAmounts(p.SqrtPriceX96, o.SqrtPriceX96)
}

// equalAmounts treats nil as zero.
func equalAmounts(a, b *uint256.Int) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil:
		return b.IsZero()
	case b == nil:
		return a.IsZero()
	default:
		return a.Eq(b)
	}
}
