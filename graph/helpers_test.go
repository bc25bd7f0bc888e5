package graph

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func tok(n int64) TokenKey {
	return common.BigToAddress(big.NewInt(n))
}

func poolID(n int64) PoolID {
	return PoolID{Address: common.BigToAddress(big.NewInt(0x10000 + n))}
}

// edge builds a quote through a pool numbered n in direction AtoB.
func edge(n int64, from, to TokenKey, value uint64) Edge {
	return NewEdge(poolID(n), AtoB, from, to, uint256.NewInt(value))
}

func maxUint256() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}

// graphOf builds a graph holding each edge under its own pool and direction.
func graphOf(edges ...Edge) *LiquidityGraph {
	g := NewLiquidityGraph(0)
	for _, e := range edges {
		g.UpsertEdge(e.Pool, e.Direction, e)
	}
	return g
}
