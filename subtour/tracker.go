// SPDX-License-Identifier: MIT
// Package subtour — incremental elimination of sub-cycles among mandatory arcs.
//
// The Tracker keeps, for every node, the opposite extremity of the simple path
// (segment) formed by mandatory arcs through it, and that segment's node count.
// When arc (i,j) becomes mandatory the two segments ending at i and j are joined
// and only the new extremities are rewritten; interior nodes are never touched.
//
// Rule after a merge of total length t over n nodes:
//   - t < n: the arc closing the merged segment on itself is forbidden
//     (undirected: only for t > 2, since for t == 2 it is the merged edge itself);
//   - t == n: the closing arc is enforced, completing the Hamiltonian cycle.
//
// Directed segments run head → tail; the closing arc goes tail → head.
//
// Contracts:
//   - Kernel arcs always form vertex-disjoint simple paths, or one cycle of length n.
//   - Every write is saved on the domain trail and reverted by WorldPop.
//
// Complexity: O(1) per enforced arc (two extremity reads, four writes).
package subtour

import (
	"errors"

	"github.com/katalvlaran/hamgraph/gvar"
	"github.com/katalvlaran/hamgraph/trail"
)

// Sentinel errors returned by New.
var (
	ErrNilDomain = errors.New("subtour: domain is nil")
	ErrNotAtRoot = errors.New("subtour: tracker must be built at the trail root")
)

// Tracker maintains path extremities over a gvar.Domain.
//
// For a node i, e1[i] == i in every reachable state; e2[i] is the opposite
// extremity when i is itself an extremity and is stale otherwise.
type Tracker struct {
	g    *gvar.Domain
	tr   *trail.Trail
	n    int
	e1   []int
	e2   []int
	size []int
}

// New builds a Tracker with every node a singleton segment, registers it on g
// and absorbs the arcs already mandatory in g. It must run at the trail root;
// on error g is left as it was and the tracker is not registered.
func New(g *gvar.Domain) (*Tracker, error) {
	if g == nil {
		return nil, ErrNilDomain
	}
	if g.Trail().Level() != 0 {
		return nil, ErrNotAtRoot
	}
	n := g.N()
	t := &Tracker{
		g:    g,
		tr:   g.Trail(),
		n:    n,
		e1:   make([]int, n),
		e2:   make([]int, n),
		size: make([]int, n),
	}
	var i int
	for i = 0; i < n; i++ {
		t.e1[i] = i
		t.e2[i] = i
		t.size[i] = 1
	}
	g.Watch(t)
	t.tr.WorldPush()
	if err := t.absorb(); err != nil {
		_ = t.tr.WorldPop()
		g.Unwatch(t)
		return nil, err
	}
	_ = t.tr.Commit()
	return t, nil
}

// absorb merges the kernel arcs added before the tracker was registered.
func (t *Tracker) absorb() error {
	for _, a := range t.g.Arcs(gvar.Kernel) {
		if err := t.merge(a.From, a.To); err != nil {
			return err
		}
	}
	return nil
}

// Extremity returns the opposite end of the segment ending at i.
// The result is meaningful only when i is a segment extremity.
func (t *Tracker) Extremity(i int) int {
	if t.e1[i] == i {
		return t.e2[i]
	}
	return t.e1[i]
}

// Size returns the node count of the segment ending at i.
func (t *Tracker) Size(i int) int { return t.size[i] }

// ArcEnforced implements gvar.Watcher.
func (t *Tracker) ArcEnforced(from, to int) error { return t.merge(from, to) }

// ArcForbidden implements gvar.Watcher. Envelope shrinkage never affects segments.
func (t *Tracker) ArcForbidden(int, int) error { return nil }

func (t *Tracker) merge(i, j int) error {
	if err := t.checkExtremities(i, j); err != nil {
		return err
	}

	ext1 := t.Extremity(i)
	ext2 := t.Extremity(j)
	if ext1 == j {
		// i and j already bound the same segment: (i,j) closes it.
		if t.size[ext1] == t.n {
			return nil
		}
		return gvar.NewContradiction(gvar.OpPropagate, i, j, "arc closes a sub-cycle")
	}

	total := t.size[ext1] + t.size[ext2]
	t.setExtremity(ext1, ext2)
	t.setExtremity(ext2, ext1)
	t.setSize(ext1, total)
	t.setSize(ext2, total)

	switch {
	case total == t.n:
		return t.g.Enforce(ext2, ext1)
	case total > 2 || (total == 2 && t.g.Directed()):
		return t.g.Forbid(ext2, ext1)
	}
	return nil
}

// checkExtremities rejects arcs that give a node a second successor (or
// predecessor), or a third neighbor: such a node cannot be a segment end.
func (t *Tracker) checkExtremities(i, j int) error {
	if t.g.Directed() {
		if t.g.KernelSuccessors(i).Size() > 1 {
			return gvar.NewContradiction(gvar.OpPropagate, i, j, "node has two mandatory successors")
		}
		if t.g.KernelPredecessors(j).Size() > 1 {
			return gvar.NewContradiction(gvar.OpPropagate, i, j, "node has two mandatory predecessors")
		}
		return nil
	}
	if t.g.KernelSuccessors(i).Size() > 2 || t.g.KernelSuccessors(j).Size() > 2 {
		return gvar.NewContradiction(gvar.OpPropagate, i, j, "node has three mandatory neighbors")
	}
	return nil
}

// undo opcodes: A = node, B = previous value.
const (
	undoE1 uint8 = iota + 1
	undoE2
	undoSize
)

func (t *Tracker) setExtremity(i, ext int) {
	if t.e1[i] == i {
		t.tr.Save(trail.Record{Owner: t, Op: undoE2, A: i, B: t.e2[i]})
		t.e2[i] = ext
		return
	}
	t.tr.Save(trail.Record{Owner: t, Op: undoE1, A: i, B: t.e1[i]})
	t.e1[i] = ext
}

func (t *Tracker) setSize(i, s int) {
	t.tr.Save(trail.Record{Owner: t, Op: undoSize, A: i, B: t.size[i]})
	t.size[i] = s
}

// Revert implements trail.Reverter.
func (t *Tracker) Revert(r trail.Record) {
	switch r.Op {
	case undoE1:
		t.e1[r.A] = r.B
	case undoE2:
		t.e2[r.A] = r.B
	case undoSize:
		t.size[r.A] = r.B
	}
}
