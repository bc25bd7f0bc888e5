package graph

import (
	"bytes"
	"slices"
	"time"
)

// SearchBudget bounds one Explore call. A zero field means no limit.
// Limits are checked once per popped queue item.
type SearchBudget struct {
	MaxIterations int       `json:"maxIterations" yaml:"max_iterations"`
	MaxQueueSize  int       `json:"maxQueueSize" yaml:"max_queue_size"`
	Deadline      time.Time `json:"deadline" yaml:"-"`
}

// Unlimited drains the queue to exhaustion.
var Unlimited = SearchBudget{}

// DefaultBudget bounds a search to a size a single core finishes in well
// under a second on a dense graph.
func DefaultBudget() SearchBudget {
	return SearchBudget{
		MaxIterations: 1_000_000,
		MaxQueueSize:  4_000_000,
	}
}

// WithDeadline returns b with its deadline moved to d if d is earlier, or
// set if b has none.
func (b SearchBudget) WithDeadline(d time.Time) SearchBudget {
	if d.IsZero() {
		return b
	}
	if b.Deadline.IsZero() || d.Before(b.Deadline) {
		b.Deadline = d
	}
	return b
}

// StopReason says why a search stopped.
type StopReason uint8

const (
	Exhausted StopReason = iota
	MaxIterations
	MaxQueueSize
	Deadline
)

func (r StopReason) String() string {
	switch r {
	case Exhausted:
		return "exhausted"
	case MaxIterations:
		return "max_iterations"
	case MaxQueueSize:
		return "max_queue_size"
	case Deadline:
		return "deadline"
	default:
		return "unknown"
	}
}

func (b SearchBudget) exceeded(iterations, queued int) (StopReason, bool) {
	if b.MaxIterations > 0 && iterations >= b.MaxIterations {
		return MaxIterations, true
	}
	if b.MaxQueueSize > 0 && queued > b.MaxQueueSize {
		return MaxQueueSize, true
	}
	if !b.Deadline.IsZero() && !time.Now().Before(b.Deadline) {
		return Deadline, true
	}
	return Exhausted, false
}

// SearchStats counts the work done by one search.
type SearchStats struct {
	Iterations int // items popped
	Pushed     int
	MaxQueue   int
	Overflows  int // extensions pruned on total overflow
	DeadEnds   int // heads not queued because their last token has no way out
}

// Result maps each token reached by a closed path to the best Done path
// closing at it. Partial is set when the budget stopped the search before the
// queue drained; the recorded paths are then not guaranteed to be the best.
type Result struct {
	Source  TokenKey
	Paths   map[TokenKey]Path
	Partial bool
	Reason  StopReason
	Stats   SearchStats
}

// Best returns the Done path with the greatest total. Ties go to the lower token key.
func (r *Result) Best() (Path, bool) {
	cycles := r.Cycles()
	if len(cycles) == 0 {
		return Path{}, false
	}
	return cycles[0], true
}

// Cycles returns the recorded paths ordered by descending total, ties by token key.
func (r *Result) Cycles() []Path {
	out := make([]Path, 0, len(r.Paths))
	for _, p := range r.Paths {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Path) int {
		if c := b.Compare(a); c != 0 {
			return c
		}
		ka, kb := a.Last(), b.Last()
		return bytes.Compare(ka[:], kb[:])
	})
	return out
}

// Explore performs a best-first search from source and returns, for every
// token reached by a closed path, the highest-total Done path closing there.
//
// The queue is a max-heap on total with ties popped in push order, so the
// first Done path recorded for a token wins against later equal ones. A
// recorded path is only final once every queued path with a greater total has
// been drained, hence the search runs to exhaustion unless budget stops it.
func (s *Snapshot) Explore(source TokenKey, budget SearchBudget) *Result {
	return s.explore(source, budget, nil)
}

func (s *Snapshot) explore(source TokenKey, budget SearchBudget, onPop func(Path, *pathQueue)) *Result {
	res := &Result{
		Source: source,
		Paths:  make(map[TokenKey]Path),
		Reason: Exhausted,
	}

	q := newPathQueue(len(s.outgoing(source)))
	origin := NewPathFrom(source)
	for _, e := range s.outgoing(source) {
		s.enqueue(q, origin, e, res)
	}

	for q.Len() > 0 {
		if reason, stop := budget.exceeded(res.Stats.Iterations, q.Len()); stop {
			res.Partial = true
			res.Reason = reason
			break
		}

		p := q.pop()
		res.Stats.Iterations++
		if onPop != nil {
			onPop(p, q)
		}

		if p.IsDone() {
			key := p.Last()
			if best, ok := res.Paths[key]; !ok || p.Compare(best) > 0 {
				res.Paths[key] = p
			}
			continue
		}

		for _, e := range s.outgoing(p.Last()) {
			s.enqueue(q, p, e, res)
		}
	}

	return res
}

// enqueue pushes p extended by e, pruning self-loops, overflowing totals and
// heads that cannot be extended any further.
func (s *Snapshot) enqueue(q *pathQueue, p Path, e Edge, res *Result) {
	if e.IsSelfLoop() {
		return
	}
	next, err := p.Extend(e)
	if err != nil {
		res.Stats.Overflows++
		return
	}
	if !next.IsDone() && s.isDeadEnd(next.Last()) {
		res.Stats.DeadEnds++
		return
	}
	q.push(next)
	res.Stats.Pushed++
	if n := q.Len(); n > res.Stats.MaxQueue {
		res.Stats.MaxQueue = n
	}
}
