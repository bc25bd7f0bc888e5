package normalizer

import (
	"errors"
	"fmt"

	"github.com/defistate/defistate-cycles-go/graph"
	"github.com/holiman/uint256"
)

var (
	ErrNilPool         = errors.New("nil pool")
	ErrSameToken       = errors.New("pool tokens are identical")
	ErrReferenceAmount = errors.New("reference amount must be greater than zero")
	// ErrZeroQuote marks a direction whose output rounds to zero.
	ErrZeroQuote = errors.New("zero quote")
)

// Normalizer turns a pool into directed graph edges by quoting both
// directions at one global reference input size, so edge values from
// different mechanisms are comparable.
type Normalizer struct {
	referenceAmount uint256.Int
}

// NewNormalizer returns a Normalizer quoting at referenceAmount.
func NewNormalizer(referenceAmount *uint256.Int) (*Normalizer, error) {
	if referenceAmount == nil || referenceAmount.IsZero() {
		return nil, ErrReferenceAmount
	}
	n := &Normalizer{}
	n.referenceAmount.Set(referenceAmount)
	return n, nil
}

// ReferenceAmount returns a copy of the input size used for every quote.
func (n *Normalizer) ReferenceAmount() *uint256.Int {
	return n.referenceAmount.Clone()
}

// Normalize quotes both directions of pool. A direction that fails to
// quote, or quotes zero, yields no edge; the failures are joined into the
// returned error, which may accompany a non-empty edge slice.
func (n *Normalizer) Normalize(pool Pool) ([]graph.Edge, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	a, b := pool.Tokens()
	if a == b {
		return nil, fmt.Errorf("%w: pool %s", ErrSameToken, pool.ID())
	}

	id := pool.ID()
	edges := make([]graph.Edge, 0, 2)
	var errs []error
	for _, dir := range []graph.Direction{graph.AtoB, graph.BtoA} {
		from, to := a, b
		if dir == graph.BtoA {
			from, to = b, a
		}

		out, err := pool.Quote(&n.referenceAmount, dir)
		if err != nil {
			errs = append(errs, fmt.Errorf("pool %s %s: %w", id, dir, err))
			continue
		}
		if out == nil || out.IsZero() {
			errs = append(errs, fmt.Errorf("pool %s %s: %w", id, dir, ErrZeroQuote))
			continue
		}
		edges = append(edges, graph.NewEdge(id, dir, from, to, out))
	}
	return edges, errors.Join(errs...)
}
