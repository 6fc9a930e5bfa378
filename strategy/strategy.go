// SPDX-License-Identifier: MIT
// Package strategy — arc selection for graph-variable branch-and-bound.
//
// Next scores every undecided arc (i,j) (envelope but not kernel) under the
// configured Mode and returns a Decision on the best one.
//
// Scan order and ties:
//   - i ascending, then j ascending over the envelope successors of i;
//   - an arc replaces the incumbent only on strict improvement, so ties keep
//     the lowest i, then the lowest j. MinDegreeMaxReplacement breaks equal
//     degree scores by the larger replacement cost first.
//
// Refinements:
//   - Incremental: the node chosen last ("from") is scanned alone while it
//     still has undecided arcs; when no arc of it qualifies the full scan
//     runs. The restricted scan may pick a different arc than the full scan.
//   - Constructive: "from" is reset to the open end of the mandatory path
//     grown from Options.Start before each selection.
//
// Filtered modes (marginal, replacement) consider only arcs outside
// (respectively inside) the reference solution; when no arc qualifies in the
// full scan the first undecided arc in scan order is returned.
//
// Sparse selects a node rather than scoring arcs and keeps it as "from" until
// it is saturated; Incremental has no further effect on it.
//
// Complexity: O(n + m·s) per Next for m undecided arcs and score cost s
// (O(1) for most modes, O(n/64) for commonality); Sparse is O(n²).
package strategy

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/hamgraph/decision"
	"github.com/katalvlaran/hamgraph/gvar"
)

// Strategy produces branching decisions over one domain.
// It keeps no search state besides the "from" memo and its decision pool.
type Strategy struct {
	g    *gvar.Domain
	opts Options
	pool decision.Pool
	from int

	rng   *rand.Rand
	tight []int // Sparse: per node, constrained envelope predecessors
}

// key orders candidate arcs: v in the mode's direction, then tie, higher first.
type key struct {
	v, tie float64
}

// pick tracks the incumbent arc of one scan.
type pick struct {
	i, j   int
	score  key
	found  bool
	fi, fj int // first undecided arc (fallback for filtered modes)
}

func newPick() pick { return pick{i: -1, j: -1, fi: -1, fj: -1} }

// New validates the configuration against g.
//
// Errors: ErrNilDomain, ErrUnknownMode, ErrConstructiveWithoutIncremental,
// ErrStartOutOfRange, ErrMissingCosts, ErrCostDimension, ErrMissingOracle.
func New(g *gvar.Domain, opts ...Option) (*Strategy, error) {
	if g == nil {
		return nil, ErrNilDomain
	}
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if err := validate(g, o); err != nil {
		return nil, err
	}
	seed := o.Seed
	if seed == 0 {
		seed = 1
	}
	return &Strategy{
		g:     g,
		opts:  o,
		from:  -1,
		rng:   rand.New(rand.NewSource(seed)),
		tight: make([]int, g.N()),
	}, nil
}

func validate(g *gvar.Domain, o Options) error {
	if o.Mode >= modeCount {
		return fmt.Errorf("%w: %d", ErrUnknownMode, uint8(o.Mode))
	}
	if o.Constructive {
		if !o.Incremental {
			return ErrConstructiveWithoutIncremental
		}
		if o.Start < 0 || o.Start >= g.N() {
			return ErrStartOutOfRange
		}
	}
	if o.Mode.NeedsCosts() {
		if o.Costs.IsZero() {
			return ErrMissingCosts
		}
		if o.Costs.N() != g.N() {
			return ErrCostDimension
		}
	}
	if o.Mode.NeedsOracle() && o.Oracle == nil {
		return ErrMissingOracle
	}
	return nil
}

// Options returns the effective configuration.
func (s *Strategy) Options() Options { return s.opts }

// Pool exposes the decision pool (allocation statistics).
func (s *Strategy) Pool() *decision.Pool { return &s.pool }

// Release hands a decision back for reuse once its branches are closed.
func (s *Strategy) Release(d *decision.Decision) { s.pool.Put(d) }

// Reset forgets the incremental memo.
func (s *Strategy) Reset() { s.from = -1 }

// Next returns the next branching decision.
//
// Outcomes:
//   - (nil, nil): the domain is instantiated, search below this node is done;
//   - (*Decision, nil): branch on it, then Release it when both branches are closed;
//   - (nil, *gvar.Contradiction): no undecided arc on an uninstantiated domain;
//   - (nil, ErrInvalidOracleValue): the oracle reported an unusable cost.
func (s *Strategy) Next() (*decision.Decision, error) {
	if s.g.Instantiated() {
		return nil, nil
	}
	i, j, err := s.selectArc()
	if err != nil {
		return nil, err
	}
	if i < 0 {
		return nil, gvar.NewContradiction(gvar.OpSelect, -1, -1, "no undecided arc")
	}
	d := s.pool.Get()
	d.Set(i, j, s.opts.Operator)
	return d, nil
}

func (s *Strategy) selectArc() (int, int, error) {
	if s.opts.Mode == Sparse {
		i, j := s.selectSparse()
		return i, j, nil
	}
	var (
		p   pick
		err error
	)
	if s.opts.Incremental {
		if s.opts.Constructive {
			s.from = s.openEnd()
		}
		if s.from >= 0 && !s.g.Saturated(s.from) {
			p = newPick()
			if err = s.scanNode(s.from, &p); err != nil {
				return -1, -1, err
			}
			if p.found {
				s.from = p.i
				return p.i, p.j, nil
			}
		}
	}

	p = newPick()
	var i int
	for i = 0; i < s.g.N(); i++ {
		if err = s.scanNode(i, &p); err != nil {
			return -1, -1, err
		}
	}
	bi, bj := p.result()
	if s.opts.Incremental && bi >= 0 {
		s.from = bi
	}
	return bi, bj, nil
}

func (p *pick) result() (int, int) {
	if p.found {
		return p.i, p.j
	}
	return p.fi, p.fj
}

// scanNode offers every undecided arc (i, ·) to p in ascending j.
func (s *Strategy) scanNode(i int, p *pick) error {
	var (
		env = s.g.EnvelopeSuccessors(i)
		ker = s.g.KernelSuccessors(i)
		j   int
	)
	for j = env.First(); j != -1; j = env.Next(j) {
		if ker.Contains(j) {
			continue
		}
		if p.fi < 0 {
			p.fi, p.fj = i, j
		}
		ok, k, err := s.score(i, j)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !p.found || s.improves(k, p.score) {
			p.i, p.j, p.score, p.found = i, j, k, true
		}
	}
	return nil
}

func (s *Strategy) improves(k, incumbent key) bool {
	if k.v != incumbent.v {
		if s.opts.Mode.maximize() {
			return k.v > incumbent.v
		}
		return k.v < incumbent.v
	}
	return k.tie > incumbent.tie
}

// score evaluates arc (i,j). ok=false excludes the arc from filtered modes.
func (s *Strategy) score(i, j int) (ok bool, k key, err error) {
	g := s.g
	switch s.opts.Mode {
	case Lexicographic:
		return true, key{}, nil
	case MinEnvelopeDegree, MaxEnvelopeDegree:
		return true, key{v: s.envelopeDegree(i, j)}, nil
	case MinKernelDegree, MaxKernelDegree:
		return true, key{v: float64(g.KernelSuccessors(i).Size() + g.KernelPredecessors(j).Size())}, nil
	case MinCommon, MaxCommon:
		return true, key{v: float64(g.EnvelopePredecessors(i).UnionSize(g.EnvelopePredecessors(j)))}, nil
	case MinCost, MaxCost:
		return true, key{v: s.opts.Costs.At(i, j)}, nil
	case InSupport:
		if s.opts.Oracle.InReference(i, j) {
			return true, key{}, nil
		}
		return true, key{v: 1}, nil
	case OutOfSupport:
		if s.opts.Oracle.InReference(i, j) {
			return true, key{v: 1}, nil
		}
		return true, key{}, nil
	case MinMarginal, MaxMarginal:
		if s.opts.Oracle.InReference(i, j) {
			return false, key{}, nil
		}
		return true, key{v: s.opts.Oracle.MarginalCost(i, j)}, nil
	case MinReplacement, MaxReplacement:
		var x float64
		x, ok, err = s.replacement(i, j)
		return ok, key{v: x}, err
	case MinDegreeMaxReplacement:
		var x float64
		x, ok, err = s.replacement(i, j)
		return ok, key{v: s.envelopeDegree(i, j), tie: x}, err
	case Random:
		return true, key{v: s.rng.Float64()}, nil
	}
	return false, key{}, fmt.Errorf("%w: %d", ErrUnknownMode, uint8(s.opts.Mode))
}

func (s *Strategy) envelopeDegree(i, j int) float64 {
	return float64(s.g.EnvelopeSuccessors(i).Size() + s.g.EnvelopePredecessors(j).Size())
}

// replacement reads the replacement cost of a reference arc; ok=false for
// arcs outside the reference.
func (s *Strategy) replacement(i, j int) (float64, bool, error) {
	if !s.opts.Oracle.InReference(i, j) {
		return 0, false, nil
	}
	x := s.opts.Oracle.ReplacementCost(i, j)
	if x < 0 || math.IsNaN(x) {
		return 0, false, fmt.Errorf("%w: replacement cost %v for (%d,%d)", ErrInvalidOracleValue, x, i, j)
	}
	return x, true, nil
}

// selectSparse keeps branching on "from" until it is saturated, then picks a
// new node with sparseNode. The arc goes to the undecided successor with the
// most constrained predecessors; ties keep the lowest j.
func (s *Strategy) selectSparse() (int, int) {
	d := s.minOpenDegree()
	if d < 0 {
		return -1, -1
	}
	s.countTight(d)
	if s.opts.Constructive {
		s.from = s.openEnd()
	}
	if s.from < 0 || s.g.Saturated(s.from) {
		s.from = s.sparseNode(d)
	}
	var (
		env  = s.g.EnvelopeSuccessors(s.from)
		ker  = s.g.KernelSuccessors(s.from)
		best = -1
		bj   = -1
		j    int
	)
	for j = env.First(); j != -1; j = env.Next(j) {
		if ker.Contains(j) {
			continue
		}
		if s.tight[j] > best {
			best, bj = s.tight[j], j
		}
	}
	return s.from, bj
}

// minOpenDegree returns the smallest envelope out-degree of an unsaturated
// node, or -1 when every node is saturated.
func (s *Strategy) minOpenDegree() int {
	var (
		d = -1
		u int
	)
	for u = 0; u < s.g.N(); u++ {
		if s.g.Saturated(u) {
			continue
		}
		if x := s.g.EnvelopeSuccessors(u).Size(); d < 0 || x < d {
			d = x
		}
	}
	return d
}

func (s *Strategy) isTight(u, d int) bool {
	return !s.g.Saturated(u) && s.g.EnvelopeSuccessors(u).Size() == d
}

// countTight sets tight[v] to the number of envelope predecessors of v that
// are unsaturated with out-degree d.
func (s *Strategy) countTight(d int) {
	var u, v int
	for v = 0; v < s.g.N(); v++ {
		s.tight[v] = 0
		ps := s.g.EnvelopePredecessors(v)
		for u = ps.First(); u != -1; u = ps.Next(u) {
			if s.isTight(u, d) {
				s.tight[v]++
			}
		}
	}
}

// sparseNode returns the unsaturated node of out-degree d whose envelope
// successors have the largest total tight count; ties keep the lowest index.
func (s *Strategy) sparseNode(d int) int {
	var (
		node  = -1
		best  = -1
		u, v  int
		score int
	)
	for u = 0; u < s.g.N(); u++ {
		if !s.isTight(u, d) {
			continue
		}
		score = 0
		ss := s.g.EnvelopeSuccessors(u)
		for v = ss.First(); v != -1; v = ss.Next(v) {
			score += s.tight[v]
		}
		if score > best {
			best, node = score, u
		}
	}
	return node
}

// openEnd follows mandatory successors from Start and returns the last node
// of that path (Start itself when it has none).
func (s *Strategy) openEnd() int {
	var (
		start = s.opts.Start
		x     = start
		prev  = -1
		next  int
		steps int
	)
	for steps = 0; steps < s.g.N(); steps++ {
		ks := s.g.KernelSuccessors(x)
		next = -1
		for y := ks.First(); y != -1; y = ks.Next(y) {
			if s.g.Directed() || y != prev {
				next = y
				break
			}
		}
		if next == -1 || next == start {
			return x
		}
		prev, x = x, next
	}
	return x
}
