package graph

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrOverflow is returned when a path total no longer fits in 256 bits.
var ErrOverflow = errors.New("path total overflows uint256")

// TokenKey identifies a token (graph node) by its contract address.
type TokenKey = common.Address

// PoolID uniquely identifies a liquidity source. Key is the pool
// configuration hash for singleton-style (v4) pools and zero otherwise.
type PoolID struct {
	Address common.Address `json:"address"`
	Key     common.Hash    `json:"key,omitempty"`
}

func (p PoolID) String() string {
	if p.Key == (common.Hash{}) {
		return p.Address.Hex()
	}
	return fmt.Sprintf("%s/%s", p.Address.Hex(), p.Key.Hex())
}

// Direction is the swap direction through a pool, relative to its token ordering.
type Direction uint8

const (
	AtoB Direction = iota
	BtoA
)

func (d Direction) String() string {
	switch d {
	case AtoB:
		return "AtoB"
	case BtoA:
		return "BtoA"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == AtoB {
		return BtoA
	}
	return AtoB
}

// Edge is a directed quote: swapping the reference input of From through
// Pool yields Value of To. Edges are immutable values; the graph replaces
// an edge wholesale when its pool is re-quoted.
type Edge struct {
	From      TokenKey    `json:"from"`
	To        TokenKey    `json:"to"`
	Value     uint256.Int `json:"value"`
	Pool      PoolID      `json:"pool"`
	Direction Direction   `json:"direction"`
}

// NewEdge builds an edge quoting value units of to.
func NewEdge(pool PoolID, dir Direction, from, to TokenKey, value *uint256.Int) Edge {
	e := Edge{
		From:      from,
		To:        to,
		Pool:      pool,
		Direction: dir,
	}
	if value != nil {
		e.Value.Set(value)
	}
	return e
}

// IsSelfLoop reports whether the edge starts and ends at the same token.
func (e Edge) IsSelfLoop() bool {
	return e.From == e.To
}

func (e Edge) String() string {
	return fmt.Sprintf("%s->%s(%s via %s)", e.From.Hex(), e.To.Hex(), e.Value.Dec(), e.Pool)
}

type edgeKey struct {
	pool PoolID
	dir  Direction
}
