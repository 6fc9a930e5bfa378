// SPDX-License-Identifier: MIT
// Package gvar — reversible envelope/kernel graph domain.
//
// Storage:
//   - one bitset per node and layer for successors; directed domains keep a
//     mirrored predecessor bitset, undirected domains alias it to the successor set;
//   - arc counters per layer so Instantiated is O(1);
//   - an active-node bitset (the kernel node set).
//
// Every mutation performed below the trail root is recorded on the shared
// trail.Trail and reverted exactly by WorldPop. At the root, Enforce and Forbid
// run inside a transient level that is committed on success and popped on
// failure, so a failed root operation leaves no trace.
//
// Complexity:
//   - Enforce / Forbid / Activate / membership: O(1) plus watcher work.
//   - Neighbor iteration: O(n/64) per step.
//   - Memory: O(n²/8) bytes per layer (two layers, twice for directed).
package gvar

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/katalvlaran/hamgraph/trail"
)

// undo opcodes.
const (
	undoEnforce uint8 = iota + 1
	undoForbid
	undoActivate
)

// Domain is a bounded graph variable.
type Domain struct {
	n    int
	kind Kind
	tr   *trail.Trail

	envSucc []*bitset.BitSet
	envPred []*bitset.BitSet
	kerSucc []*bitset.BitSet
	kerPred []*bitset.BitSet
	active  *bitset.BitSet

	envArcs int
	kerArcs int
	sealed  bool

	watchers []Watcher
}

// New builds a Domain over n nodes with an empty envelope and kernel.
// Seed the envelope with AddPossible/AddAllPossible before searching.
func New(n int, kind Kind, tr *trail.Trail) (*Domain, error) {
	if n < 1 {
		return nil, ErrInvalidOrder
	}
	if tr == nil {
		return nil, ErrNilTrail
	}
	d := &Domain{
		n:       n,
		kind:    kind,
		tr:      tr,
		envSucc: make([]*bitset.BitSet, n),
		kerSucc: make([]*bitset.BitSet, n),
		active:  bitset.New(uint(n)),
	}
	var i int
	for i = 0; i < n; i++ {
		d.envSucc[i] = bitset.New(uint(n))
		d.kerSucc[i] = bitset.New(uint(n))
	}
	if kind == Directed {
		d.envPred = make([]*bitset.BitSet, n)
		d.kerPred = make([]*bitset.BitSet, n)
		for i = 0; i < n; i++ {
			d.envPred[i] = bitset.New(uint(n))
			d.kerPred[i] = bitset.New(uint(n))
		}
	} else {
		d.envPred = d.envSucc
		d.kerPred = d.kerSucc
	}
	return d, nil
}

// N returns the number of nodes.
func (d *Domain) N() int { return d.n }

// Kind returns the arc semantics.
func (d *Domain) Kind() Kind { return d.kind }

// Directed reports whether arcs are ordered.
func (d *Domain) Directed() bool { return d.kind == Directed }

// Trail returns the undo trail shared with propagators.
func (d *Domain) Trail() *trail.Trail { return d.tr }

// Sealed reports whether envelope construction is closed.
func (d *Domain) Sealed() bool { return d.sealed }

// Seal closes envelope construction. It is implied by the first Enforce,
// Forbid or Activate.
func (d *Domain) Seal() { d.sealed = true }

// Watch registers w for arc events. Watchers fire in registration order.
func (d *Domain) Watch(w Watcher) { d.watchers = append(d.watchers, w) }

// Unwatch removes w; the order of the remaining watchers is kept.
func (d *Domain) Unwatch(w Watcher) {
	for k := range d.watchers {
		if d.watchers[k] == w {
			d.watchers = append(d.watchers[:k], d.watchers[k+1:]...)
			return
		}
	}
}

func (d *Domain) check(u, v int) error {
	if u < 0 || u >= d.n || v < 0 || v >= d.n {
		return ErrNodeOutOfRange
	}
	if u == v {
		return ErrSelfLoop
	}
	return nil
}

// AddPossible adds arc (u,v) to the envelope. Only legal before sealing.
// Adding an existing arc is a no-op.
func (d *Domain) AddPossible(u, v int) error {
	if d.sealed {
		return ErrSealed
	}
	if err := d.check(u, v); err != nil {
		return err
	}
	if d.envSucc[u].Test(uint(v)) {
		return nil
	}
	d.envSucc[u].Set(uint(v))
	d.envPred[v].Set(uint(u))
	d.envArcs++
	return nil
}

// AddAllPossible fills the envelope with every arc u≠v.
func (d *Domain) AddAllPossible() error {
	var u, v int
	for u = 0; u < d.n; u++ {
		for v = 0; v < d.n; v++ {
			if u == v {
				continue
			}
			if err := d.AddPossible(u, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Activate marks node as mandatory. Idempotent; no effect on arcs.
func (d *Domain) Activate(node int) error {
	if node < 0 || node >= d.n {
		return ErrNodeOutOfRange
	}
	d.sealed = true
	d.activate(node)
	return nil
}

func (d *Domain) activate(node int) {
	if d.active.Test(uint(node)) {
		return
	}
	d.active.Set(uint(node))
	d.tr.Save(trail.Record{Owner: d, Op: undoActivate, A: node})
}

// IsActive reports whether node is in the kernel node set.
func (d *Domain) IsActive(node int) bool {
	if node < 0 || node >= d.n {
		return false
	}
	return d.active.Test(uint(node))
}

// Enforce moves arc (u,v) into the kernel and activates both endpoints.
//
// Outcomes:
//   - (u,v) outside the envelope → *Contradiction, state unchanged;
//   - (u,v) already mandatory → nil, no events;
//   - otherwise the kernel grows and watchers receive ArcEnforced(u,v);
//     a watcher error is returned, and at the root the whole operation is undone.
func (d *Domain) Enforce(u, v int) (err error) {
	if err = d.check(u, v); err != nil {
		return err
	}
	if !d.envSucc[u].Test(uint(v)) {
		return NewContradiction(OpEnforce, u, v, "arc not in envelope")
	}
	if d.kerSucc[u].Test(uint(v)) {
		return nil
	}
	if d.tr.Level() == 0 {
		d.tr.WorldPush()
		defer d.settle(&err)
	}
	d.sealed = true
	d.kerSucc[u].Set(uint(v))
	d.kerPred[v].Set(uint(u))
	d.kerArcs++
	d.tr.Save(trail.Record{Owner: d, Op: undoEnforce, A: u, B: v})
	d.activate(u)
	d.activate(v)

	for _, w := range d.watchers {
		if err = w.ArcEnforced(u, v); err != nil {
			return err
		}
	}
	return nil
}

// Forbid removes arc (u,v) from the envelope.
//
// Outcomes:
//   - (u,v) mandatory → *Contradiction, state unchanged;
//   - (u,v) already impossible → nil, no events;
//   - otherwise the envelope shrinks and watchers receive ArcForbidden(u,v);
//     a watcher error is returned, and at the root the whole operation is undone.
func (d *Domain) Forbid(u, v int) (err error) {
	if err = d.check(u, v); err != nil {
		return err
	}
	if d.kerSucc[u].Test(uint(v)) {
		return NewContradiction(OpForbid, u, v, "arc is mandatory")
	}
	if !d.envSucc[u].Test(uint(v)) {
		return nil
	}
	if d.tr.Level() == 0 {
		d.tr.WorldPush()
		defer d.settle(&err)
	}
	d.sealed = true
	d.envSucc[u].Clear(uint(v))
	d.envPred[v].Clear(uint(u))
	d.envArcs--
	d.tr.Save(trail.Record{Owner: d, Op: undoForbid, A: u, B: v})

	for _, w := range d.watchers {
		if err = w.ArcForbidden(u, v); err != nil {
			return err
		}
	}
	return nil
}

// settle closes the transient root level opened by Enforce or Forbid.
func (d *Domain) settle(err *error) {
	if *err != nil {
		_ = d.tr.WorldPop()
		return
	}
	_ = d.tr.Commit()
}

// Revert implements trail.Reverter.
func (d *Domain) Revert(r trail.Record) {
	switch r.Op {
	case undoEnforce:
		d.kerSucc[r.A].Clear(uint(r.B))
		d.kerPred[r.B].Clear(uint(r.A))
		d.kerArcs--
	case undoForbid:
		d.envSucc[r.A].Set(uint(r.B))
		d.envPred[r.B].Set(uint(r.A))
		d.envArcs++
	case undoActivate:
		d.active.Clear(uint(r.A))
	}
}

// Instantiated reports whether the kernel equals the envelope.
// Since kernel ⊆ envelope always holds, equal arc counts suffice.
func (d *Domain) Instantiated() bool { return d.envArcs == d.kerArcs }

// EnvelopeArcs returns the number of possible arcs (edges when undirected).
func (d *Domain) EnvelopeArcs() int { return d.envArcs }

// KernelArcs returns the number of mandatory arcs (edges when undirected).
func (d *Domain) KernelArcs() int { return d.kerArcs }

// EnvelopeHas reports whether (u,v) is possible. Out-of-range pairs are not.
func (d *Domain) EnvelopeHas(u, v int) bool {
	if u < 0 || u >= d.n || v < 0 || v >= d.n {
		return false
	}
	return d.envSucc[u].Test(uint(v))
}

// KernelHas reports whether (u,v) is mandatory. Out-of-range pairs are not.
func (d *Domain) KernelHas(u, v int) bool {
	if u < 0 || u >= d.n || v < 0 || v >= d.n {
		return false
	}
	return d.kerSucc[u].Test(uint(v))
}

// EnvelopeSuccessors returns the possible successors of u.
func (d *Domain) EnvelopeSuccessors(u int) Neighbors { return Neighbors{set: d.envSucc[u]} }

// EnvelopePredecessors returns the possible predecessors of v.
func (d *Domain) EnvelopePredecessors(v int) Neighbors { return Neighbors{set: d.envPred[v]} }

// KernelSuccessors returns the mandatory successors of u.
func (d *Domain) KernelSuccessors(u int) Neighbors { return Neighbors{set: d.kerSucc[u]} }

// KernelPredecessors returns the mandatory predecessors of v.
func (d *Domain) KernelPredecessors(v int) Neighbors { return Neighbors{set: d.kerPred[v]} }

// Successors returns the successor set of u in the given layer.
func (d *Domain) Successors(l Layer, u int) Neighbors {
	if l == Kernel {
		return d.KernelSuccessors(u)
	}
	return d.EnvelopeSuccessors(u)
}

// Predecessors returns the predecessor set of v in the given layer.
func (d *Domain) Predecessors(l Layer, v int) Neighbors {
	if l == Kernel {
		return d.KernelPredecessors(v)
	}
	return d.EnvelopePredecessors(v)
}

// Saturated reports whether every possible successor of u is mandatory.
func (d *Domain) Saturated(u int) bool {
	return d.envSucc[u].Count() == d.kerSucc[u].Count()
}

// Arcs lists the arcs of a layer in (From, To) ascending order.
// Undirected domains report each edge once with From < To.
func (d *Domain) Arcs(l Layer) []Arc {
	var (
		sets = d.envSucc
		out  []Arc
		u    int
	)
	if l == Kernel {
		sets = d.kerSucc
	}
	for u = 0; u < d.n; u++ {
		for v, ok := sets[u].NextSet(0); ok; v, ok = sets[u].NextSet(v + 1) {
			if d.kind == Undirected && int(v) < u {
				continue
			}
			out = append(out, Arc{From: u, To: int(v)})
		}
	}
	return out
}

// ActiveNodes lists active nodes in ascending order.
func (d *Domain) ActiveNodes() []int {
	return Neighbors{set: d.active}.Slice()
}
