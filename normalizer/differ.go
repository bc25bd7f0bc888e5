package normalizer

import "github.com/defistate/defistate-cycles-go/graph"

// PoolSetDiff is what changed between two pool sets.
type PoolSetDiff struct {
	Changed []Pool         // added, or state that quotes differently
	Removed []Pool // present before, gone now
}

// IsEmpty returns true if the diff contains no changes.
func (d PoolSetDiff) IsEmpty() bool {
	return len(d.Changed) == 0 && len(d.Removed) == 0
}

// sameStater is implemented by adapters that can tell whether another pool
// holds the state they would quote from.
type sameStater interface {
	SameState(other Pool) bool
}

// Differ compares two pool sets by pool id. Pools that cannot compare their
// state are always reported as changed. Changed keeps the order of next;
// Removed keeps the order of prev.
func Differ(prev, next []Pool) PoolSetDiff {
	prevByID := make(map[graph.PoolID]Pool, len(prev))
	for _, p := range prev {
		prevByID[p.ID()] = p
	}
	nextIDs := make(map[graph.PoolID]struct{}, len(next))

	var diff PoolSetDiff
	for _, p := range next {
		id := p.ID()
		nextIDs[id] = struct{}{}

		old, exists := prevByID[id]
		if !exists {
			diff.Changed = append(diff.Changed, p)
			continue
		}
		if s, ok := p.(sameStater); !ok || !s.SameState(old) {
			diff.Changed = append(diff.Changed, p)
		}
	}

	for _, p := range prev {
		if _, exists := nextIDs[p.ID()]; !exists {
			diff.Removed = append(diff.Removed, p)
		}
	}
	return diff
}
