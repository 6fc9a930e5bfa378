// SPDX-License-Identifier: MIT
// Package relax — relaxation oracles consulted by arc-selection strategies.
//
// A relaxation (for example a Lagrangian 1-tree) produces a reference solution
// over the current envelope. For every arc it answers:
//   - whether the arc belongs to the reference solution ("support");
//   - for arcs outside it, the marginal cost of forcing the arc in;
//   - for arcs inside it, the replacement cost of forcing the arc out.
//
// Oracles that depend on the domain implement Refresher; the search driver
// calls Refresh before every decision so answers track the current node.
package relax

import (
	"errors"

	"github.com/katalvlaran/hamgraph/gvar"
)

// Sentinel errors.
var (
	// ErrDirectedDomain indicates a symmetric relaxation used on a directed domain.
	ErrDirectedDomain = errors.New("relax: directed domains are not supported")

	// ErrAsymmetric indicates an asymmetric cost matrix for a symmetric relaxation.
	ErrAsymmetric = errors.New("relax: cost matrix must be symmetric")

	// ErrDimensionMismatch indicates costs and domain of different order.
	ErrDimensionMismatch = errors.New("relax: dimension mismatch")

	// ErrRootOutOfRange indicates a 1-tree root outside [0, n).
	ErrRootOutOfRange = errors.New("relax: root out of range")

	// ErrTooFewNodes indicates an instance too small for a 1-tree (n < 3).
	ErrTooFewNodes = errors.New("relax: at least three nodes are required")

	// ErrIncompleteGraph indicates that the envelope admits no 1-tree.
	// It is always joined with a *gvar.Contradiction.
	ErrIncompleteGraph = errors.New("relax: envelope admits no 1-tree")
)

// Oracle answers reference-solution queries for arc (u,v).
type Oracle interface {
	// InReference reports whether (u,v) belongs to the reference solution.
	InReference(u, v int) bool
	// MarginalCost is the cost increase of forcing (u,v) into the reference
	// solution. Meaningful only for arcs outside it.
	MarginalCost(u, v int) float64
	// ReplacementCost is the cost increase of removing (u,v) from the reference
	// solution. Meaningful only for arcs inside it; never negative.
	ReplacementCost(u, v int) float64
}

// Refresher is implemented by oracles recomputed from the current domain.
type Refresher interface {
	Refresh(g *gvar.Domain) error
}

// Bounder is implemented by oracles that also yield a lower bound on the
// cost of any completion of the current domain.
type Bounder interface {
	LowerBound() float64
}

// Static is a fixed, table-backed Oracle. Missing entries read as "not in
// reference" with zero costs. Keys are ordered pairs; set both orders for
// undirected use.
type Static struct {
	Reference   map[gvar.Arc]bool
	Marginal    map[gvar.Arc]float64
	Replacement map[gvar.Arc]float64
}

// NewStatic returns an empty Static oracle.
func NewStatic() *Static {
	return &Static{
		Reference:   make(map[gvar.Arc]bool),
		Marginal:    make(map[gvar.Arc]float64),
		Replacement: make(map[gvar.Arc]float64),
	}
}

// InReference implements Oracle.
func (s *Static) InReference(u, v int) bool { return s.Reference[gvar.Arc{From: u, To: v}] }

// MarginalCost implements Oracle.
func (s *Static) MarginalCost(u, v int) float64 { return s.Marginal[gvar.Arc{From: u, To: v}] }

// ReplacementCost implements Oracle.
func (s *Static) ReplacementCost(u, v int) float64 {
	return s.Replacement[gvar.Arc{From: u, To: v}]
}
