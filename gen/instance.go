// SPDX-License-Identifier: MIT
// Package gen — deterministic instance generators for Hamiltonian search.
//
// Generators:
//   - RandomHamiltonian: a planted Hamiltonian cycle plus random extra arcs;
//   - KingTour: the king's graph of a size×size board;
//   - Complete: every arc between distinct nodes;
//   - EuclideanCosts: rounded distances between random points.
//
// Instances are plain sorted arc lists. Domain loads one into a fresh
// gvar.Domain, ready for propagators and a strategy.
//
// Determinism:
//   - seed==0 maps to a fixed default; equal seeds give identical instances.
//   - Arc order is (From asc, To asc); undirected arcs have From < To.
package gen

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/katalvlaran/hamgraph/costs"
	"github.com/katalvlaran/hamgraph/gvar"
	"github.com/katalvlaran/hamgraph/trail"
)

// Sentinel errors.
var (
	// ErrTooFewNodes indicates an instance too small to hold a Hamiltonian cycle.
	ErrTooFewNodes = errors.New("gen: too few nodes")

	// ErrNegativeExtra indicates a negative number of extra arcs per node.
	ErrNegativeExtra = errors.New("gen: extra arcs per node must be non-negative")
)

const (
	minNodes = 3
	minBoard = 2

	// coordinate range of EuclideanCosts points
	planeSide = 1000.0

	streamPoints uint64 = 1
)

// Instance is a graph over nodes 0..N-1.
type Instance struct {
	N    int
	Kind gvar.Kind
	Arcs []gvar.Arc
	// Planted is the closed tour hidden by RandomHamiltonian, starting at 0;
	// nil for the other generators.
	Planted []int
}

// Domain creates a domain over tr whose envelope holds the instance arcs.
func (in Instance) Domain(tr *trail.Trail) (*gvar.Domain, error) {
	g, err := gvar.New(in.N, in.Kind, tr)
	if err != nil {
		return nil, err
	}
	for _, a := range in.Arcs {
		if err = g.AddPossible(a.From, a.To); err != nil {
			return nil, fmt.Errorf("gen: arc (%d,%d): %w", a.From, a.To, err)
		}
	}
	return g, nil
}

// arcSet accumulates unique arcs in an n×n mask.
type arcSet struct {
	n    int
	kind gvar.Kind
	has  []bool
	arcs []gvar.Arc
}

func newArcSet(n int, kind gvar.Kind) *arcSet {
	return &arcSet{n: n, kind: kind, has: make([]bool, n*n)}
}

func (s *arcSet) add(u, v int) {
	if u == v {
		return
	}
	if s.kind == gvar.Undirected && u > v {
		u, v = v, u
	}
	if s.has[u*s.n+v] {
		return
	}
	s.has[u*s.n+v] = true
	s.arcs = append(s.arcs, gvar.Arc{From: u, To: v})
}

func (s *arcSet) sorted() []gvar.Arc {
	sort.Slice(s.arcs, func(i, j int) bool {
		if s.arcs[i].From != s.arcs[j].From {
			return s.arcs[i].From < s.arcs[j].From
		}
		return s.arcs[i].To < s.arcs[j].To
	})
	return s.arcs
}

// RandomHamiltonian plants a random Hamiltonian cycle through n nodes and
// adds up to extraPerNode random arcs leaving each node (duplicates and
// self-loops are dropped, so the count is an upper bound).
//
// Complexity: O(n² + n·extraPerNode).
func RandomHamiltonian(n, extraPerNode int, kind gvar.Kind, seed int64) (Instance, error) {
	if n < minNodes {
		return Instance{}, fmt.Errorf("RandomHamiltonian: n=%d < %d: %w", n, minNodes, ErrTooFewNodes)
	}
	if extraPerNode < 0 {
		return Instance{}, fmt.Errorf("RandomHamiltonian: extra=%d: %w", extraPerNode, ErrNegativeExtra)
	}
	var (
		rng  = rngFromSeed(seed)
		perm = permRange(n, rng)
		set  = newArcSet(n, kind)
		rot  int
		i, k int
		u, v int
	)

	// rotate so that the planted tour starts at node 0
	for i = range perm {
		if perm[i] == 0 {
			rot = i
			break
		}
	}
	planted := make([]int, 0, n+1)
	planted = append(planted, perm[rot:]...)
	planted = append(planted, perm[:rot]...)
	planted = append(planted, 0)

	for i = 0; i < n; i++ {
		set.add(planted[i], planted[i+1])
	}
	for u = 0; u < n; u++ {
		for k = 0; k < extraPerNode; k++ {
			v = rng.Intn(n)
			set.add(u, v)
		}
	}
	return Instance{N: n, Kind: kind, Arcs: set.sorted(), Planted: planted}, nil
}

// KingTour returns the undirected king's graph of a size×size board:
// square r*size+c touches its (up to) eight neighbors.
//
// Complexity: O(size²).
func KingTour(size int) (Instance, error) {
	if size < minBoard {
		return Instance{}, fmt.Errorf("KingTour: size=%d < %d: %w", size, minBoard, ErrTooFewNodes)
	}
	var (
		n      = size * size
		set    = newArcSet(n, gvar.Undirected)
		r, c   int
		dr, dc int
	)
	for r = 0; r < size; r++ {
		for c = 0; c < size; c++ {
			for dr = -1; dr <= 1; dr++ {
				for dc = -1; dc <= 1; dc++ {
					if r+dr < 0 || r+dr >= size || c+dc < 0 || c+dc >= size {
						continue
					}
					set.add(r*size+c, (r+dr)*size+c+dc)
				}
			}
		}
	}
	return Instance{N: n, Kind: gvar.Undirected, Arcs: set.sorted()}, nil
}

// Complete returns every arc between distinct nodes.
func Complete(n int, kind gvar.Kind) (Instance, error) {
	if n < minNodes {
		return Instance{}, fmt.Errorf("Complete: n=%d < %d: %w", n, minNodes, ErrTooFewNodes)
	}
	set := newArcSet(n, kind)

	var u, v int
	for u = 0; u < n; u++ {
		for v = 0; v < n; v++ {
			set.add(u, v)
		}
	}
	return Instance{N: n, Kind: kind, Arcs: set.sorted()}, nil
}

// EuclideanCosts draws n points in [0,1000)² and returns the symmetric
// matrix of their distances rounded to the nearest integer.
//
// Complexity: O(n²).
func EuclideanCosts(n int, seed int64) (costs.Matrix, error) {
	if n < 1 {
		return costs.Matrix{}, fmt.Errorf("EuclideanCosts: n=%d: %w", n, ErrTooFewNodes)
	}
	if seed == 0 {
		seed = defaultSeed
	}
	var (
		rng  = rand.New(rand.NewSource(deriveSeed(seed, streamPoints)))
		xs   = make([]float64, n)
		ys   = make([]float64, n)
		rows = make([][]float64, n)
		i, j int
	)
	for i = 0; i < n; i++ {
		xs[i] = rng.Float64() * planeSide
		ys[i] = rng.Float64() * planeSide
	}
	for i = 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j = 0; j < n; j++ {
			rows[i][j] = math.Round(math.Hypot(xs[i]-xs[j], ys[i]-ys[j]))
		}
	}
	return costs.New(rows)
}
