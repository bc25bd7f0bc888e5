package graph

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"
)

// Path is an ordered sequence of edges with its running total.
//
// A path is either a Head, still open for extension, or Done, closed into a
// cycle by an edge whose destination had already been visited. Path is a
// value type: Extend never mutates the receiver, and sibling extensions of the
// same path share no mutable state.
type Path struct {
	origin  TokenKey
	edges   []Edge
	total   uint256.Int
	visited mapset.Set[TokenKey] // nil once done
	done    bool
}

// NewPath returns the empty Head path: no edges, total zero, nothing visited.
func NewPath() Path {
	return Path{visited: mapset.NewThreadUnsafeSet[TokenKey]()}
}

// NewPathFrom returns an empty Head path whose origin token counts as visited,
// so the first edge leading back to origin closes the cycle.
func NewPathFrom(origin TokenKey) Path {
	return Path{
		origin:  origin,
		visited: mapset.NewThreadUnsafeSet(origin),
	}
}

// Extend appends e and returns the resulting path.
//
// If e.To was already visited the result is Done. Otherwise it is a Head with
// e.To added to the visited set. Extending a Done path returns it unchanged.
// On overflow of the running total the receiver is returned with ErrOverflow.
func (p Path) Extend(e Edge) (Path, error) {
	if p.done {
		return p, nil
	}

	var total uint256.Int
	if _, overflow := total.AddOverflow(&p.total, &e.Value); overflow {
		return p, ErrOverflow
	}

	edges := make([]Edge, len(p.edges)+1)
	copy(edges, p.edges)
	edges[len(p.edges)] = e

	if p.visited != nil && p.visited.Contains(e.To) {
		return Path{
			origin: p.origin,
			edges:  edges,
			total:  total,
			done:   true,
		}, nil
	}

	var visited mapset.Set[TokenKey]
	if p.visited != nil {
		visited = p.visited.Clone()
	} else {
		visited = mapset.NewThreadUnsafeSet[TokenKey]()
	}
	visited.Add(e.To)

	return Path{
		origin:  p.origin,
		edges:   edges,
		total:   total,
		visited: visited,
	}, nil
}

// IsDone reports whether the path has closed into a cycle.
func (p Path) IsDone() bool {
	return p.done
}

// Len is the number of edges.
func (p Path) Len() int {
	return len(p.edges)
}

// Edges returns a copy of the path's edges in traversal order.
func (p Path) Edges() []Edge {
	out := make([]Edge, len(p.edges))
	copy(out, p.edges)
	return out
}

// Total returns a copy of the summed edge values.
func (p Path) Total() *uint256.Int {
	return new(uint256.Int).Set(&p.total)
}

// Origin is the token the path was started from, zero for NewPath.
func (p Path) Origin() TokenKey {
	return p.origin
}

// Last is the destination of the last edge, or the origin of an empty path.
// For a Done path this is the revisited token that closed the cycle.
func (p Path) Last() TokenKey {
	if len(p.edges) == 0 {
		return p.origin
	}
	return p.edges[len(p.edges)-1].To
}

// Visited reports whether token is in the Head path's visited set.
// Done paths retain no visited set and always report false.
func (p Path) Visited(token TokenKey) bool {
	return p.visited != nil && p.visited.Contains(token)
}

// VisitedTokens returns the visited set as a slice, nil for Done paths.
func (p Path) VisitedTokens() []TokenKey {
	if p.visited == nil {
		return nil
	}
	return p.visited.ToSlice()
}

// Compare orders paths by total alone: -1, 0 or +1.
func (p Path) Compare(o Path) int {
	return p.total.Cmp(&o.total)
}
