// SPDX-License-Identifier: MIT
// Package search — depth-first branch-and-bound over a graph domain.
//
// The Solver alternates strategy decisions with trail levels:
//
//	node:  refresh oracle → prune by bound → Next()
//	       nil decision  → record the solution
//	       left branch   → WorldPush, Apply,  recurse, WorldPop
//	       right branch  → WorldPush, Refute, recurse, WorldPop
//
// Propagation is synchronous: Apply/Refute return only after every watcher
// (subtour tracker, degree filter, ...) has reacted, so a contradiction closes
// the branch immediately and WorldPop restores the exact parent state.
//
// Pruning (Optimize only): a node is closed when its lower bound reaches the
// incumbent minus Eps. The bound is the cost of the mandatory arcs, raised to
// the oracle's bound when the oracle is a relax.Bounder.
//
// Limits: node, solution and soft time limits plus context cancellation.
// Context and clock are probed before the first node and then every 1024 nodes.
//
// Complexity: exponential in the worst case; per node O(strategy + propagation).
package search

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/hamgraph/gvar"
	"github.com/katalvlaran/hamgraph/relax"
	"github.com/katalvlaran/hamgraph/strategy"
	"github.com/katalvlaran/hamgraph/tour"
	"github.com/katalvlaran/hamgraph/trail"
)

// upperBounder is implemented by oracles that use the incumbent cost.
type upperBounder interface {
	SetUpperBound(ub float64)
}

// Solver runs one search over a domain. It is not safe for concurrent use.
type Solver struct {
	g    *gvar.Domain
	tr   *trail.Trail
	st   *strategy.Strategy
	opts Options

	refresher relax.Refresher
	bounder   relax.Bounder
	ubSetter  upperBounder

	// per-run state
	ctx         context.Context
	res         Result
	found       bool
	stopped     bool
	limitHit    bool
	useDeadline bool
	deadline    time.Time
}

// New validates the configuration.
func New(g *gvar.Domain, st *strategy.Strategy, opts ...Option) (*Solver, error) {
	if g == nil || st == nil {
		return nil, ErrNilComponent
	}
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.Optimize && o.Costs.IsZero() {
		return nil, ErrOptimizeWithoutCosts
	}
	if !o.Costs.IsZero() && o.Costs.N() != g.N() {
		return nil, ErrCostDimension
	}
	if o.Start < 0 || o.Start >= g.N() {
		return nil, ErrStartOutOfRange
	}
	if o.NodeLimit < 0 || o.SolutionLimit < 0 || o.TimeLimit < 0 {
		return nil, ErrNegativeLimit
	}
	if !o.Optimize && o.SolutionLimit == 0 {
		o.SolutionLimit = 1
	}

	s := &Solver{g: g, tr: g.Trail(), st: st, opts: o}
	if o.Oracle != nil {
		s.refresher, _ = o.Oracle.(relax.Refresher)
		s.bounder, _ = o.Oracle.(relax.Bounder)
		s.ubSetter, _ = o.Oracle.(upperBounder)
	}
	return s, nil
}

// Solve explores the search tree from the current domain state and restores
// that state before returning. On cancellation the partial Result is returned
// together with the context error.
func (s *Solver) Solve(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	begin := time.Now()
	s.ctx = ctx
	s.res = Result{}
	s.found, s.stopped, s.limitHit = false, false, false
	s.useDeadline = s.opts.TimeLimit > 0
	if s.useDeadline {
		s.deadline = begin.Add(s.opts.TimeLimit)
	}

	log := s.opts.Logger.WithFields(logrus.Fields{
		"nodes":    s.g.N(),
		"kind":     s.g.Kind().String(),
		"mode":     s.st.Options().Mode.String(),
		"operator": s.st.Options().Operator.String(),
		"optimize": s.opts.Optimize,
	})
	log.Debug("search started")

	base := s.tr.Level()
	s.tr.WorldPush()
	err := s.root()
	if popErr := s.tr.WorldPopUntil(base); err == nil {
		err = popErr
	}
	if err != nil {
		log.WithError(err).Error("search aborted")
		return s.res, err
	}

	switch {
	case s.stopped:
		s.res.Status = StatusLimit
	case s.found:
		s.res.Status = StatusSolved
	default:
		s.res.Status = StatusInfeasible
	}
	s.res.Exhausted = !s.stopped && !s.limitHit

	elapsed := time.Since(begin)
	s.opts.Hooks.OnFinish(s.res, elapsed)
	log.WithFields(logrus.Fields{
		"status":    s.res.Status.String(),
		"cost":      s.res.Cost,
		"explored":  s.res.Nodes,
		"fails":     s.res.Fails,
		"solutions": s.res.Solutions,
		"elapsed":   elapsed.String(),
	}).Info("search finished")

	if s.stopped {
		if cerr := ctx.Err(); cerr != nil {
			return s.res, cerr
		}
	}
	return s.res, nil
}

// root runs the propagators' initial pass, then the tree search.
func (s *Solver) root() error {
	for _, p := range s.opts.Propagators {
		if err := p.Initial(); err != nil {
			_, err = s.fail(0, err)
			return err
		}
	}
	_, err := s.dfs(0)
	return err
}

func (s *Solver) dfs(depth int) (bool, error) {
	if s.limitReached() {
		s.stopped = true
		return true, nil
	}
	s.res.Nodes++
	if depth > s.res.MaxDepth {
		s.res.MaxDepth = depth
	}

	if s.refresher != nil {
		if err := s.refresher.Refresh(s.g); err != nil {
			return s.fail(depth, err)
		}
	}
	if s.opts.Optimize && s.found && s.lowerBound() >= s.res.Cost-s.opts.Eps {
		s.res.Fails++
		return false, nil
	}

	d, err := s.st.Next()
	if err != nil {
		return s.fail(depth, err)
	}
	if d == nil {
		return s.record(depth)
	}
	s.opts.Hooks.OnDecision(depth, d)

	stop, err := s.branch(depth, d.Apply)
	if !stop && err == nil {
		stop, err = s.branch(depth, d.Refute)
	}
	s.st.Release(d)
	return stop, err
}

func (s *Solver) branch(depth int, op func(*gvar.Domain) error) (bool, error) {
	s.tr.WorldPush()
	var (
		stop bool
		err  = op(s.g)
	)
	if err == nil {
		stop, err = s.dfs(depth + 1)
	} else {
		stop, err = s.fail(depth+1, err)
	}
	if popErr := s.tr.WorldPop(); popErr != nil && err == nil {
		err = popErr
	}
	return stop, err
}

// fail closes a branch on a contradiction; any other error aborts the search.
func (s *Solver) fail(depth int, err error) (bool, error) {
	if !gvar.IsContradiction(err) {
		return true, err
	}
	s.res.Fails++
	s.opts.Hooks.OnContradiction(depth)
	return false, nil
}

func (s *Solver) record(depth int) (bool, error) {
	t, err := tour.FromDomain(s.g, s.opts.Start)
	if err != nil {
		return s.fail(depth, gvar.NewContradiction(gvar.OpSelect, -1, -1, "instantiated kernel is not a Hamiltonian cycle"))
	}
	var cost float64
	if !s.opts.Costs.IsZero() {
		if cost, err = s.opts.Costs.TourCost(t); err != nil {
			return s.fail(depth, gvar.NewContradiction(gvar.OpSelect, -1, -1, err.Error()))
		}
	}
	if s.opts.Optimize && s.found && cost >= s.res.Cost-s.opts.Eps {
		s.res.Fails++
		return false, nil
	}

	s.found = true
	s.res.Tour = t
	s.res.Cost = cost
	s.res.Solutions++
	s.opts.Hooks.OnSolution(depth, cost)
	s.opts.Logger.WithFields(logrus.Fields{
		"depth": depth,
		"cost":  cost,
		"nodes": s.res.Nodes,
	}).Debug("solution found")
	if s.ubSetter != nil {
		s.ubSetter.SetUpperBound(cost)
	}

	if s.opts.SolutionLimit > 0 && s.res.Solutions >= s.opts.SolutionLimit {
		s.limitHit = true
		return true, nil
	}
	return false, nil
}

func (s *Solver) limitReached() bool {
	if s.opts.NodeLimit > 0 && s.res.Nodes >= s.opts.NodeLimit {
		return true
	}
	if s.res.Nodes&1023 != 0 {
		return false
	}
	if s.ctx.Err() != nil {
		return true
	}
	return s.useDeadline && time.Now().After(s.deadline)
}

// lowerBound returns max(kernel cost, oracle bound).
func (s *Solver) lowerBound() float64 {
	var (
		c   = s.opts.Costs
		lb  float64
		u   int
		dir = s.g.Directed()
	)
	for u = 0; u < s.g.N(); u++ {
		s.g.KernelSuccessors(u).Each(func(v int) bool {
			switch {
			case dir:
				lb += c.At(u, v)
			case v > u:
				lb += math.Min(c.At(u, v), c.At(v, u))
			}
			return true
		})
	}
	if s.bounder != nil {
		if b := s.bounder.LowerBound(); b > lb {
			lb = b
		}
	}
	return lb
}
