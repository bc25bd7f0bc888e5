package graph

import "github.com/defistate/defistate-cycles-go/bitset"

// Snapshot is an immutable copy of the graph's adjacency at one version.
// Snapshots hold no references into the live graph, so searches on them are
// unaffected by concurrent writes and may run in parallel.
type Snapshot struct {
	version      uint64
	tokenToIndex map[TokenKey]int
	tokens       []TokenKey
	adjacency    [][]Edge

	// deadEnds marks tokens with no outgoing edge other than self-loops.
	deadEnds  bitset.BitSet
	edgeCount int
}

func newSnapshot(version uint64, tokens []TokenKey, adjacency [][]int, edges []Edge) *Snapshot {
	s := &Snapshot{
		version:      version,
		tokenToIndex: make(map[TokenKey]int, len(tokens)),
		tokens:       make([]TokenKey, len(tokens)),
		adjacency:    make([][]Edge, len(tokens)),
		deadEnds:     bitset.NewBitSet(uint64(len(tokens))),
	}
	copy(s.tokens, tokens)

	for i, token := range tokens {
		s.tokenToIndex[token] = i

		out := make([]Edge, len(adjacency[i]))
		expandable := false
		for j, slot := range adjacency[i] {
			out[j] = edges[slot]
			if !out[j].IsSelfLoop() {
				expandable = true
			}
		}
		s.adjacency[i] = out
		s.edgeCount += len(out)

		if !expandable {
			s.deadEnds.Set(uint64(i))
		}
	}
	return s
}

// Version is the graph version the snapshot was taken at.
func (s *Snapshot) Version() uint64 {
	return s.version
}

func (s *Snapshot) TokenCount() int {
	return len(s.tokens)
}

func (s *Snapshot) EdgeCount() int {
	return s.edgeCount
}

// EdgesOf returns a copy of the outgoing edges of token.
func (s *Snapshot) EdgesOf(token TokenKey) []Edge {
	adj := s.outgoing(token)
	out := make([]Edge, len(adj))
	copy(out, adj)
	return out
}

// outgoing returns the snapshot's own edge slice for token; callers must not modify it.
func (s *Snapshot) outgoing(token TokenKey) []Edge {
	idx, ok := s.tokenToIndex[token]
	if !ok {
		return nil
	}
	return s.adjacency[idx]
}

// isDeadEnd reports whether a Head path ending at token can never be extended.
func (s *Snapshot) isDeadEnd(token TokenKey) bool {
	idx, ok := s.tokenToIndex[token]
	if !ok {
		return true
	}
	return s.deadEnds.IsSet(uint64(idx))
}

// Propagate expands path by every outgoing edge of node, the token path's last
// edge ends at. Extensions that close the path are listed twice, so callers
// that only collect closed paths need not re-derive closure. A Done path is
// returned unchanged as the only element. Self-loops and overflowing
// extensions are skipped.
func (s *Snapshot) Propagate(node TokenKey, path Path) []Path {
	if path.IsDone() {
		return []Path{path}
	}

	adj := s.outgoing(node)
	out := make([]Path, 0, len(adj))
	for _, e := range adj {
		if e.IsSelfLoop() {
			continue
		}
		next, err := path.Extend(e)
		if err != nil {
			continue
		}
		out = append(out, next)
		if next.IsDone() {
			out = append(out, next)
		}
	}
	return out
}
