// SPDX-License-Identifier: MIT
package gvar

import "github.com/bits-and-blooms/bitset"

// Neighbors is a read-only view of one node's successor (or predecessor) set
// in one layer. Iteration is in ascending node order and restartable: callers
// may run First/Next any number of times. The view reflects later mutations.
type Neighbors struct {
	set *bitset.BitSet
}

// First returns the smallest member, or -1 when the set is empty.
func (s Neighbors) First() int {
	v, ok := s.set.NextSet(0)
	if !ok {
		return -1
	}
	return int(v)
}

// Next returns the smallest member strictly greater than after, or -1.
func (s Neighbors) Next(after int) int {
	if after < -1 {
		after = -1
	}
	v, ok := s.set.NextSet(uint(after + 1))
	if !ok {
		return -1
	}
	return int(v)
}

// Size returns the cardinality of the set.
func (s Neighbors) Size() int { return int(s.set.Count()) }

// Contains reports membership of v.
func (s Neighbors) Contains(v int) bool {
	if v < 0 {
		return false
	}
	return s.set.Test(uint(v))
}

// Each calls fn for every member in ascending order until fn returns false.
func (s Neighbors) Each(fn func(v int) bool) {
	for v, ok := s.set.NextSet(0); ok; v, ok = s.set.NextSet(v + 1) {
		if !fn(int(v)) {
			return
		}
	}
}

// Slice returns the members in ascending order.
func (s Neighbors) Slice() []int {
	out := make([]int, 0, s.set.Count())
	s.Each(func(v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

// UnionSize returns |s ∪ o| without allocating.
func (s Neighbors) UnionSize(o Neighbors) int {
	return int(s.set.UnionCardinality(o.set))
}
