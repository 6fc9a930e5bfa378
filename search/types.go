// SPDX-License-Identifier: MIT
// Package search defines options, results and hooks of the branch-and-bound
// driver.
package search

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/hamgraph/costs"
	"github.com/katalvlaran/hamgraph/decision"
	"github.com/katalvlaran/hamgraph/relax"
)

// Sentinel errors.
var (
	// ErrNilComponent indicates a nil domain or strategy.
	ErrNilComponent = errors.New("search: domain and strategy are required")

	// ErrOptimizeWithoutCosts indicates WithOptimize without WithCosts.
	ErrOptimizeWithoutCosts = errors.New("search: optimization requires a cost matrix")

	// ErrCostDimension indicates costs of a different order than the domain.
	ErrCostDimension = errors.New("search: cost matrix order differs from the domain")

	// ErrStartOutOfRange indicates a tour start outside [0, n).
	ErrStartOutOfRange = errors.New("search: start out of range")

	// ErrNegativeLimit indicates a negative node, solution or time limit.
	ErrNegativeLimit = errors.New("search: limits must be non-negative")
)

// Status summarizes how a search ended.
type Status uint8

const (
	// StatusInfeasible: the tree was exhausted without a solution.
	StatusInfeasible Status = iota
	// StatusSolved: at least one solution; the tree was exhausted or the
	// solution limit was reached.
	StatusSolved
	// StatusLimit: a node limit, time limit or context cancellation stopped
	// the search; Tour holds the incumbent if any.
	StatusLimit
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusInfeasible:
		return "infeasible"
	case StatusSolved:
		return "solved"
	case StatusLimit:
		return "limit"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Result reports the best solution and search statistics.
type Result struct {
	Status Status
	// Tour is the incumbent closed tour (nil if none), starting at Options.Start.
	Tour []int
	// Cost of Tour; 0 without a cost matrix.
	Cost float64
	// Exhausted is true when every branch was closed.
	Exhausted bool

	Nodes     int
	Fails     int
	Solutions int
	MaxDepth  int
}

// Hooks observes the search. Calls are synchronous and on the search goroutine.
type Hooks interface {
	OnDecision(depth int, d *decision.Decision)
	OnContradiction(depth int)
	OnSolution(depth int, cost float64)
	OnFinish(res Result, elapsed time.Duration)
}

// NopHooks ignores every event.
type NopHooks struct{}

func (NopHooks) OnDecision(int, *decision.Decision) {}
func (NopHooks) OnContradiction(int)                {}
func (NopHooks) OnSolution(int, float64)            {}
func (NopHooks) OnFinish(Result, time.Duration)     {}

// Initializer is a propagator with a root-level filtering pass.
type Initializer interface {
	Initial() error
}

// Options configures a Solver.
type Options struct {
	// Logger receives structured progress logs. Default discards.
	Logger logrus.FieldLogger
	// Hooks observes decisions, failures and solutions. Default NopHooks.
	Hooks Hooks
	// Costs enables tour costs and kernel-cost pruning.
	Costs costs.Matrix
	// Optimize keeps searching for strictly cheaper tours. Requires Costs.
	Optimize bool
	// Oracle is refreshed before every decision when it is a relax.Refresher;
	// its bound prunes when it is a relax.Bounder.
	Oracle relax.Oracle
	// Propagators run their Initial pass at the root.
	Propagators []Initializer
	// Start is the first node of reported tours.
	Start int
	// NodeLimit stops the search after that many nodes (0 = unlimited).
	NodeLimit int
	// SolutionLimit stops after that many solutions (0 = unlimited).
	// Without Optimize, 0 is read as 1.
	SolutionLimit int
	// TimeLimit is a soft wall-clock budget (0 = unlimited).
	TimeLimit time.Duration
	// Eps is the strict-improvement tolerance for incumbents.
	Eps float64
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns a first-solution search that logs nothing.
func DefaultOptions() Options {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return Options{
		Logger: l,
		Hooks:  NopHooks{},
		Eps:    1e-12,
	}
}

// WithLogger sets the logger. Nil keeps the default.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithHooks sets the observer. Nil keeps the default.
func WithHooks(h Hooks) Option {
	return func(o *Options) {
		if h != nil {
			o.Hooks = h
		}
	}
}

// WithCosts sets the cost matrix.
func WithCosts(c costs.Matrix) Option {
	return func(o *Options) { o.Costs = c }
}

// WithOptimize toggles branch-and-bound optimization.
func WithOptimize(on bool) Option {
	return func(o *Options) { o.Optimize = on }
}

// WithOracle sets the relaxation oracle refreshed during search.
func WithOracle(r relax.Oracle) Option {
	return func(o *Options) { o.Oracle = r }
}

// WithPropagators adds root-level propagators.
func WithPropagators(ps ...Initializer) Option {
	return func(o *Options) { o.Propagators = append(o.Propagators, ps...) }
}

// WithStart sets the first node of reported tours.
func WithStart(v int) Option {
	return func(o *Options) { o.Start = v }
}

// WithNodeLimit bounds the number of explored nodes.
func WithNodeLimit(n int) Option {
	return func(o *Options) { o.NodeLimit = n }
}

// WithSolutionLimit bounds the number of recorded solutions.
func WithSolutionLimit(n int) Option {
	return func(o *Options) { o.SolutionLimit = n }
}

// WithTimeLimit sets a soft wall-clock budget.
func WithTimeLimit(d time.Duration) Option {
	return func(o *Options) { o.TimeLimit = d }
}
