package graph

import (
	"sync"
	"sync/atomic"
)

const defaultCompactionThreshold = 1000

// LiquidityGraph holds, per token, the directed quotes currently known.
//
// Edges live in a slot slice indexed by an adjacency list per token, so that
// re-quoting a pool overwrites its slot in place. Removed edges leave a
// tombstoned slot behind until the tombstone count passes the compaction
// threshold. LiquidityGraph is safe for concurrent use; searches run on
// immutable snapshots so writers are never blocked for the length of a search.
type LiquidityGraph struct {
	mu sync.RWMutex

	tokenToIndex map[TokenKey]int
	tokens       []TokenKey
	adjacency    [][]int // token index -> edge slots

	edges      []Edge
	live       []bool
	edgeToSlot map[edgeKey]int

	deadSlots           int
	compactionThreshold int

	version  uint64
	snapshot atomic.Pointer[Snapshot]
}

// NewLiquidityGraph returns an empty graph. A non-positive compactionThreshold
// selects the default.
func NewLiquidityGraph(compactionThreshold int) *LiquidityGraph {
	if compactionThreshold <= 0 {
		compactionThreshold = defaultCompactionThreshold
	}
	return &LiquidityGraph{
		tokenToIndex:        make(map[TokenKey]int),
		edgeToSlot:          make(map[edgeKey]int),
		compactionThreshold: compactionThreshold,
	}
}

// --- Write Methods ---

// UpsertEdge stores e as the quote of pool in direction dir, replacing any
// earlier quote for the same (pool, dir).
func (g *LiquidityGraph) UpsertEdge(pool PoolID, dir Direction, e Edge) {
	e.Pool = pool
	e.Direction = dir

	g.mu.Lock()
	defer g.mu.Unlock()

	g.upsert(edgeKey{pool: pool, dir: dir}, e)
	g.version++
}

// UpsertEdges applies several quotes under a single lock acquisition.
func (g *LiquidityGraph) UpsertEdges(edges []Edge) {
	if len(edges) == 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, e := range edges {
		g.upsert(edgeKey{pool: e.Pool, dir: e.Direction}, e)
	}
	g.version++
}

// RemovePool drops both directed quotes of pool. Tokens stay in the graph.
func (g *LiquidityGraph) RemovePool(pool PoolID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := false
	for _, dir := range []Direction{AtoB, BtoA} {
		if g.remove(edgeKey{pool: pool, dir: dir}) {
			removed = true
		}
	}
	if !removed {
		return
	}
	g.version++

	if g.deadSlots > g.compactionThreshold {
		g.compact()
	}
}

// ReplacePool swaps the quotes of pool for edges in one step: directions
// missing from edges are removed. Edges are re-keyed to pool.
func (g *LiquidityGraph) ReplacePool(pool PoolID, edges []Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	keep := make(map[Direction]bool, len(edges))
	for _, e := range edges {
		e.Pool = pool
		g.upsert(edgeKey{pool: pool, dir: e.Direction}, e)
		keep[e.Direction] = true
	}
	for _, dir := range []Direction{AtoB, BtoA} {
		if !keep[dir] {
			g.remove(edgeKey{pool: pool, dir: dir})
		}
	}
	g.version++

	if g.deadSlots > g.compactionThreshold {
		g.compact()
	}
}

func (g *LiquidityGraph) tokenIndex(token TokenKey) int {
	idx, ok := g.tokenToIndex[token]
	if !ok {
		idx = len(g.tokens)
		g.tokens = append(g.tokens, token)
		g.tokenToIndex[token] = idx
		g.adjacency = append(g.adjacency, nil)
	}
	return idx
}

func (g *LiquidityGraph) upsert(key edgeKey, e Edge) {
	fromIndex := g.tokenIndex(e.From)
	g.tokenIndex(e.To)

	slot, exists := g.edgeToSlot[key]
	if !exists {
		slot = len(g.edges)
		g.edges = append(g.edges, e)
		g.live = append(g.live, true)
		g.edgeToSlot[key] = slot
		g.adjacency[fromIndex] = append(g.adjacency[fromIndex], slot)
		return
	}

	prev := g.edges[slot]
	g.edges[slot] = e
	if prev.From != e.From {
		g.unlink(g.tokenToIndex[prev.From], slot)
		g.adjacency[fromIndex] = append(g.adjacency[fromIndex], slot)
	}
}

func (g *LiquidityGraph) remove(key edgeKey) bool {
	slot, exists := g.edgeToSlot[key]
	if !exists {
		return false
	}
	g.unlink(g.tokenToIndex[g.edges[slot].From], slot)
	delete(g.edgeToSlot, key)
	g.edges[slot] = Edge{}
	g.live[slot] = false
	g.deadSlots++
	return true
}

// unlink removes slot from a token's adjacency list, preserving order.
func (g *LiquidityGraph) unlink(tokenIndex, slot int) {
	adj := g.adjacency[tokenIndex]
	for i, s := range adj {
		if s == slot {
			g.adjacency[tokenIndex] = append(adj[:i:i], adj[i+1:]...)
			return
		}
	}
}

// compact rebuilds the slot slice without tombstones and remaps all indices.
func (g *LiquidityGraph) compact() {
	if g.deadSlots == 0 {
		return
	}

	oldToNew := make([]int, len(g.edges))
	edges := make([]Edge, 0, len(g.edges)-g.deadSlots)
	for i, e := range g.edges {
		if !g.live[i] {
			oldToNew[i] = -1
			continue
		}
		oldToNew[i] = len(edges)
		edges = append(edges, e)
	}

	for i, adj := range g.adjacency {
		newAdj := make([]int, 0, len(adj))
		for _, slot := range adj {
			if n := oldToNew[slot]; n >= 0 {
				newAdj = append(newAdj, n)
			}
		}
		g.adjacency[i] = newAdj
	}
	for key, slot := range g.edgeToSlot {
		g.edgeToSlot[key] = oldToNew[slot]
	}

	live := make([]bool, len(edges))
	for i := range live {
		live[i] = true
	}

	g.edges = edges
	g.live = live
	g.deadSlots = 0
}

// --- Read Methods ---

// EdgesOf returns a copy of the current outgoing edges of token, empty if the
// token is unknown or has no pools.
func (g *LiquidityGraph) EdgesOf(token TokenKey) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.tokenToIndex[token]
	if !ok {
		return []Edge{}
	}
	out := make([]Edge, 0, len(g.adjacency[idx]))
	for _, slot := range g.adjacency[idx] {
		out = append(out, g.edges[slot])
	}
	return out
}

// Tokens returns every token known to the graph, in first-seen order.
func (g *LiquidityGraph) Tokens() []TokenKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]TokenKey, len(g.tokens))
	copy(out, g.tokens)
	return out
}

func (g *LiquidityGraph) TokenCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.tokens)
}

// EdgeCount is the number of live edges.
func (g *LiquidityGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edgeToSlot)
}

// Version increases with every mutation.
func (g *LiquidityGraph) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Snapshot returns an immutable point-in-time copy of the adjacency. The copy
// is cached until the next mutation, so repeated searches between updates
// share one snapshot.
func (g *LiquidityGraph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if s := g.snapshot.Load(); s != nil && s.version == g.version {
		return s
	}

	s := newSnapshot(g.version, g.tokens, g.adjacency, g.edges)
	g.snapshot.Store(s)
	return s
}

// Explore runs a cycle search from source on a fresh snapshot.
func (g *LiquidityGraph) Explore(source TokenKey, budget SearchBudget) *Result {
	return g.Snapshot().Explore(source, budget)
}

// Propagate expands path through node on a fresh snapshot.
func (g *LiquidityGraph) Propagate(node TokenKey, path Path) []Path {
	return g.Snapshot().Propagate(node, path)
}
