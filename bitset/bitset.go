// Package bitset is a fixed-capacity set of small non-negative integers,
// used by graph snapshots to mark token indices.
package bitset

import "math/bits"

// BitSet stores one bit per index in 64-bit words.
type BitSet []uint64

// NewBitSet returns a BitSet able to hold indices in [0, n).
func NewBitSet(n uint64) BitSet {
	return make(BitSet, (n+63)/64)
}

// Cap is the number of indices the set can hold.
func (b BitSet) Cap() uint64 {
	return uint64(len(b)) * 64
}

// IsSet reports whether index is in the set. Indices beyond capacity are never set.
func (b BitSet) IsSet(index uint64) bool {
	word := index / 64
	if word >= uint64(len(b)) {
		return false
	}
	return b[word]&(uint64(1)<<(index%64)) != 0
}

// Set adds index to the set. It panics if index is beyond capacity.
func (b BitSet) Set(index uint64) {
	b[index/64] |= uint64(1) << (index % 64)
}

// Unset removes index from the set. Indices beyond capacity are ignored.
func (b BitSet) Unset(index uint64) {
	word := index / 64
	if word >= uint64(len(b)) {
		return
	}
	b[word] &^= uint64(1) << (index % 64)
}

// Count returns the number of indices in the set.
func (b BitSet) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

func (b BitSet) Clear() {
	clear(b)
}
