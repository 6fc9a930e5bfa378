// SPDX-License-Identifier: MIT
// Package tour — closed Hamiltonian tours read from instantiated graph domains.
//
// A tour over n nodes is a slice of length n+1 with tour[0] == tour[n] == start
// and every node exactly once in tour[0..n-1].
//
// Provided helpers:
//   - FromDomain: walk the kernel of a domain into a tour.
//   - Validate: enforce the tour invariants.
//   - CanonicalizeOrientationInPlace: unique direction for undirected tours.
//
// Design:
//   - No logging, no panics on user input; only sentinel errors.
//   - O(n) time for every helper.
package tour

import (
	"errors"

	"github.com/katalvlaran/hamgraph/gvar"
)

// Sentinel errors.
var (
	// ErrDimensionMismatch indicates a tour of the wrong shape.
	ErrDimensionMismatch = errors.New("tour: dimension mismatch")

	// ErrStartOutOfRange indicates a start node outside [0, n).
	ErrStartOutOfRange = errors.New("tour: start out of range")

	// ErrNotHamiltonian indicates a kernel that is not a single n-cycle.
	ErrNotHamiltonian = errors.New("tour: kernel is not a Hamiltonian cycle")
)

// FromDomain follows mandatory arcs from start and returns the closed tour.
// Undirected domains are walked towards the smaller neighbor of start first.
//
// Complexity: O(n · n/64).
func FromDomain(g *gvar.Domain, start int) ([]int, error) {
	n := g.N()
	if start < 0 || start >= n {
		return nil, ErrStartOutOfRange
	}
	if n == 1 {
		return []int{start, start}, nil
	}
	var (
		out  = make([]int, 0, n+1)
		seen = make([]bool, n)
		prev = -1
		x    = start
		next int
		i    int
	)
	for i = 0; i < n; i++ {
		if seen[x] {
			return nil, ErrNotHamiltonian
		}
		seen[x] = true
		out = append(out, x)

		ks := g.KernelSuccessors(x)
		if g.Directed() && ks.Size() != 1 {
			return nil, ErrNotHamiltonian
		}
		if !g.Directed() && ks.Size() != 2 && n > 2 {
			return nil, ErrNotHamiltonian
		}
		next = -1
		for y := ks.First(); y != -1; y = ks.Next(y) {
			if g.Directed() || y != prev {
				next = y
				break
			}
		}
		if next == -1 && n == 2 && !g.Directed() {
			next = prev // the single edge is walked both ways
		}
		if next == -1 {
			return nil, ErrNotHamiltonian
		}
		prev, x = x, next
	}
	if x != start {
		return nil, ErrNotHamiltonian
	}
	return append(out, start), nil
}

// Validate enforces len(tour) == n+1, tour[0] == tour[n] == start and that
// every node appears exactly once in tour[0..n-1].
//
// Complexity: O(n) time, O(n) space.
func Validate(tour []int, n int, start int) error {
	if n <= 0 || len(tour) != n+1 {
		return ErrDimensionMismatch
	}
	if start < 0 || start >= n {
		return ErrStartOutOfRange
	}
	if tour[0] != start || tour[n] != start {
		return ErrDimensionMismatch
	}
	seen := make([]bool, n)

	var (
		i int
		v int
	)
	for i = 0; i < n; i++ {
		v = tour[i]
		if v < 0 || v >= n || seen[v] {
			return ErrDimensionMismatch
		}
		seen[v] = true
	}
	return nil
}

// CanonicalizeOrientationInPlace reverses tour[1..n-1] when the right
// neighbor of start is larger than the left one, giving every undirected
// cycle a single representation.
//
// Complexity: O(n) time, O(1) space.
func CanonicalizeOrientationInPlace(tour []int) error {
	if len(tour) < 3 {
		return ErrDimensionMismatch
	}
	var n = len(tour) - 1
	if tour[0] != tour[n] {
		return ErrDimensionMismatch
	}
	if tour[1] > tour[n-1] {
		var i, k = 1, n - 1
		for i < k {
			tour[i], tour[k] = tour[k], tour[i]
			i++
			k--
		}
	}
	return nil
}
