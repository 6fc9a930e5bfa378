// SPDX-License-Identifier: MIT
// Package metrics — Prometheus instrumentation of branch-and-bound searches.
//
// Recorder implements search.Hooks and feeds:
//
//	hamgraph_search_decisions_total{operator}
//	hamgraph_search_contradictions_total
//	hamgraph_search_solutions_total
//	hamgraph_search_incumbent_cost
//	hamgraph_search_depth_max
//	hamgraph_search_nodes_total
//	hamgraph_search_runs_total{status}
//	hamgraph_search_duration_seconds
//
// Collectors belong to the Recorder, not to package globals, so several
// registries (one per test, one per CLI run) can coexist.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/katalvlaran/hamgraph/decision"
	"github.com/katalvlaran/hamgraph/search"
)

const (
	namespace = "hamgraph"
	subsystem = "search"

	OperatorLabel = "operator"
	StatusLabel   = "status"
)

// ErrNilRegisterer indicates NewRecorder(nil).
var ErrNilRegisterer = errors.New("metrics: registerer is required")

// Recorder collects search events. Like the solver it observes, it is meant
// for use from a single goroutine; the collectors themselves are safe.
type Recorder struct {
	decisions      *prometheus.CounterVec
	contradictions prometheus.Counter
	solutions      prometheus.Counter
	incumbent      prometheus.Gauge
	depth          prometheus.Gauge
	nodes          prometheus.Counter
	runs           *prometheus.CounterVec
	duration       prometheus.Histogram

	maxDepth int
}

var _ search.Hooks = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, ErrNilRegisterer
	}
	r := &Recorder{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "decisions_total",
				Help:      "Branching decisions taken, by operator",
			},
			[]string{OperatorLabel},
		),
		contradictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "contradictions_total",
				Help:      "Branches closed by a contradiction",
			},
		),
		solutions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solutions_total",
				Help:      "Solutions recorded as new incumbents",
			},
		),
		incumbent: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "incumbent_cost",
				Help:      "Cost of the latest incumbent tour",
			},
		),
		depth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "depth_max",
				Help:      "Deepest decision level reached by the current run",
			},
		),
		nodes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "nodes_total",
				Help:      "Search-tree nodes explored by finished runs",
			},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Finished runs, by final status",
			},
			[]string{StatusLabel},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duration_seconds",
				Help:      "Wall-clock duration of finished runs",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
	}
	for _, c := range []prometheus.Collector{
		r.decisions, r.contradictions, r.solutions, r.incumbent,
		r.depth, r.nodes, r.runs, r.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return r, nil
}

// OnDecision implements search.Hooks.
func (r *Recorder) OnDecision(depth int, d *decision.Decision) {
	r.decisions.WithLabelValues(d.Op.String()).Inc()
	if depth > r.maxDepth {
		r.maxDepth = depth
		r.depth.Set(float64(depth))
	}
}

// OnContradiction implements search.Hooks.
func (r *Recorder) OnContradiction(int) { r.contradictions.Inc() }

// OnSolution implements search.Hooks.
func (r *Recorder) OnSolution(_ int, cost float64) {
	r.solutions.Inc()
	r.incumbent.Set(cost)
}

// OnFinish implements search.Hooks.
func (r *Recorder) OnFinish(res search.Result, elapsed time.Duration) {
	r.nodes.Add(float64(res.Nodes))
	r.runs.WithLabelValues(res.Status.String()).Inc()
	r.duration.Observe(elapsed.Seconds())
	r.maxDepth = 0
}

// WriteText dumps every family gathered from g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	fams, err := g.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	for _, mf := range fams {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
