// SPDX-License-Identifier: MIT
// Package degree — degree filtering for Hamiltonian cycle models.
//
// Every node of a Hamiltonian cycle has exactly two incident edges
// (undirected) or exactly one successor and one predecessor (directed).
// The Filter watches a gvar.Domain and keeps each node's envelope and kernel
// degrees compatible with that target:
//
//	kernel degree  > target → contradiction
//	envelope degree < target → contradiction
//	kernel degree == target → forbid the remaining envelope arcs
//	envelope degree == target → enforce the remaining envelope arcs
//
// Directed domains apply the rule separately to successor and predecessor sets.
//
// Complexity: O(n/64 + k) per event, k = arcs touched.
package degree

import (
	"errors"

	"github.com/katalvlaran/hamgraph/gvar"
)

// ErrNilDomain is returned by New for a nil domain.
var ErrNilDomain = errors.New("degree: domain is nil")

// Filter enforces the Hamiltonian degree constraints on one domain.
type Filter struct {
	g      *gvar.Domain
	target int
}

// New registers a Filter on g. Call Initial once before search.
func New(g *gvar.Domain) (*Filter, error) {
	if g == nil {
		return nil, ErrNilDomain
	}
	f := &Filter{g: g, target: 1}
	if !g.Directed() {
		f.target = 2
	}
	g.Watch(f)
	return f, nil
}

// Target returns the required degree per side.
func (f *Filter) Target() int { return f.target }

// Initial filters every node of the current domain.
func (f *Filter) Initial() error {
	var (
		u   int
		err error
	)
	for u = 0; u < f.g.N(); u++ {
		if err = f.filterOut(u); err != nil {
			return err
		}
		if f.g.Directed() {
			if err = f.filterIn(u); err != nil {
				return err
			}
		}
	}
	return nil
}

// ArcEnforced implements gvar.Watcher.
func (f *Filter) ArcEnforced(from, to int) error { return f.touch(from, to) }

// ArcForbidden implements gvar.Watcher.
func (f *Filter) ArcForbidden(from, to int) error { return f.touch(from, to) }

func (f *Filter) touch(from, to int) error {
	if err := f.filterOut(from); err != nil {
		return err
	}
	if f.g.Directed() {
		return f.filterIn(to)
	}
	return f.filterOut(to)
}

// filterOut applies the rule to the successor sets of u.
func (f *Filter) filterOut(u int) error {
	env := f.g.EnvelopeSuccessors(u)
	ker := f.g.KernelSuccessors(u)
	return f.apply(u, env, ker, func(v int) (int, int) { return u, v })
}

// filterIn applies the rule to the predecessor sets of v.
func (f *Filter) filterIn(v int) error {
	env := f.g.EnvelopePredecessors(v)
	ker := f.g.KernelPredecessors(v)
	return f.apply(v, env, ker, func(u int) (int, int) { return u, v })
}

func (f *Filter) apply(node int, env, ker gvar.Neighbors, arc func(int) (int, int)) error {
	var (
		ke = ker.Size()
		en = env.Size()
		w  int
	)
	switch {
	case ke > f.target:
		return gvar.NewContradiction(gvar.OpPropagate, node, -1, "too many mandatory arcs")
	case en < f.target:
		return gvar.NewContradiction(gvar.OpPropagate, node, -1, "too few possible arcs")
	case ke == f.target && en > ke:
		for w = env.First(); w != -1; w = env.Next(w) {
			if ker.Contains(w) {
				continue
			}
			if err := f.g.Forbid(arc(w)); err != nil {
				return err
			}
		}
	case en == f.target && ke < en:
		for w = env.First(); w != -1; w = env.Next(w) {
			if err := f.g.Enforce(arc(w)); err != nil {
				return err
			}
		}
	}
	return nil
}
