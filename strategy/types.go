// SPDX-License-Identifier: MIT
// Package strategy defines arc-selection modes, options and sentinels for
// branching over a gvar.Domain.
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/hamgraph/costs"
	"github.com/katalvlaran/hamgraph/decision"
	"github.com/katalvlaran/hamgraph/relax"
)

// Mode selects how undecided arcs are scored.
type Mode uint8

const (
	// Lexicographic picks the first undecided arc in (i, j) order.
	Lexicographic Mode = iota
	// MinEnvelopeDegree minimizes envelope out-degree(i) + in-degree(j).
	MinEnvelopeDegree
	// MaxEnvelopeDegree maximizes envelope out-degree(i) + in-degree(j).
	MaxEnvelopeDegree
	// MinKernelDegree minimizes kernel out-degree(i) + in-degree(j).
	MinKernelDegree
	// MaxKernelDegree maximizes kernel out-degree(i) + in-degree(j).
	MaxKernelDegree
	// MinCommon minimizes the number of nodes with i or j among their successors.
	MinCommon
	// MaxCommon maximizes the number of nodes with i or j among their successors.
	MaxCommon
	// MinCost minimizes c(i,j).
	MinCost
	// MaxCost maximizes c(i,j).
	MaxCost
	// InSupport prefers arcs of the oracle's reference solution.
	InSupport
	// OutOfSupport prefers arcs outside the oracle's reference solution.
	OutOfSupport
	// MinMarginal minimizes the marginal cost of arcs outside the reference.
	MinMarginal
	// MaxMarginal maximizes the marginal cost of arcs outside the reference.
	MaxMarginal
	// MinReplacement minimizes the replacement cost of reference arcs.
	MinReplacement
	// MaxReplacement maximizes the replacement cost of reference arcs.
	MaxReplacement
	// MinDegreeMaxReplacement minimizes the envelope degree score of
	// reference arcs; ties go to the largest replacement cost.
	MinDegreeMaxReplacement
	// Sparse follows Pesant's sparse heuristic: branch on the unsaturated node
	// of smallest envelope out-degree whose successors are most constrained,
	// toward the successor with most such predecessors. The node is kept until
	// it is saturated.
	Sparse
	// Random picks an undecided arc uniformly with a seeded generator.
	Random

	modeCount
)

var modeNames = [modeCount]string{
	Lexicographic:     "lexicographic",
	MinEnvelopeDegree: "min-envelope-degree",
	MaxEnvelopeDegree: "max-envelope-degree",
	MinKernelDegree:   "min-kernel-degree",
	MaxKernelDegree:   "max-kernel-degree",
	MinCommon:         "min-common",
	MaxCommon:         "max-common",
	MinCost:           "min-cost",
	MaxCost:           "max-cost",
	InSupport:         "in-support",
	OutOfSupport:      "out-of-support",
	MinMarginal:       "min-marginal",
	MaxMarginal:       "max-marginal",
	MinReplacement:    "min-replacement",
	MaxReplacement:    "max-replacement",

	MinDegreeMaxReplacement: "min-degree-max-replacement",
	Sparse:                  "sparse",
	Random:                  "random",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m < modeCount {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Modes lists every mode in declaration order.
func Modes() []Mode {
	out := make([]Mode, 0, modeCount)
	for m := Mode(0); m < modeCount; m++ {
		out = append(out, m)
	}
	return out
}

// ParseMode maps a mode name (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m := Mode(0); m < modeCount; m++ {
		if modeNames[m] == s {
			return m, nil
		}
	}
	return Lexicographic, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// maximize reports whether higher scores win.
func (m Mode) maximize() bool {
	switch m {
	case MaxEnvelopeDegree, MaxKernelDegree, MaxCommon, MaxCost, MaxMarginal, MaxReplacement:
		return true
	}
	return false
}

// NeedsCosts reports whether the mode reads the cost matrix.
func (m Mode) NeedsCosts() bool { return m == MinCost || m == MaxCost }

// NeedsOracle reports whether the mode consults a relaxation oracle.
func (m Mode) NeedsOracle() bool { return m >= InSupport && m <= MinDegreeMaxReplacement }

// Sentinel errors. All but ErrInvalidOracleValue are configuration errors
// returned by New or ParseMode.
var (
	ErrNilDomain                      = errors.New("strategy: domain is nil")
	ErrUnknownMode                    = errors.New("strategy: unknown mode")
	ErrConstructiveWithoutIncremental = errors.New("strategy: constructive mode requires the incremental refinement")
	ErrMissingCosts                   = errors.New("strategy: mode requires a cost matrix")
	ErrMissingOracle                  = errors.New("strategy: mode requires a relaxation oracle")
	ErrCostDimension                  = errors.New("strategy: cost matrix order differs from the domain")
	ErrStartOutOfRange                = errors.New("strategy: constructive start out of range")

	// ErrInvalidOracleValue is returned by Next when an oracle reports a
	// negative or NaN replacement cost.
	ErrInvalidOracleValue = errors.New("strategy: invalid oracle value")
)

// Options configures a Strategy.
type Options struct {
	// Mode is the scoring mode. Default Lexicographic.
	Mode Mode
	// Operator is applied on the left branch. Default decision.Enforce.
	Operator decision.Operator
	// Incremental restricts the scan to the node chosen last while it still
	// has undecided arcs.
	Incremental bool
	// Constructive grows a path from Start: the scan is restricted to the
	// open end of the mandatory path through Start. Requires Incremental.
	Constructive bool
	// Start is the constructive path origin.
	Start int
	// Costs is required by MinCost/MaxCost.
	Costs costs.Matrix
	// Oracle is required by the support, marginal and replacement modes.
	Oracle relax.Oracle
	// Seed drives Random; 0 maps to 1.
	Seed int64
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns lexicographic enforce-first branching with no refinement.
func DefaultOptions() Options {
	return Options{
		Mode:     Lexicographic,
		Operator: decision.Enforce,
	}
}

// WithMode sets the scoring mode.
func WithMode(m Mode) Option {
	return func(o *Options) { o.Mode = m }
}

// WithOperator sets the branching operator.
func WithOperator(op decision.Operator) Option {
	return func(o *Options) { o.Operator = op }
}

// WithIncremental toggles the incremental refinement.
func WithIncremental(on bool) Option {
	return func(o *Options) { o.Incremental = on }
}

// WithConstructive enables path construction from start.
func WithConstructive(start int) Option {
	return func(o *Options) {
		o.Constructive = true
		o.Start = start
	}
}

// WithCosts supplies the cost matrix.
func WithCosts(c costs.Matrix) Option {
	return func(o *Options) { o.Costs = c }
}

// WithOracle supplies the relaxation oracle.
func WithOracle(r relax.Oracle) Option {
	return func(o *Options) { o.Oracle = r }
}

// WithSeed seeds the Random mode.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}
