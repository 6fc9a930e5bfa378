// Package hamgraph is a graph-variable branch-and-bound core for Hamiltonian
// cycle and TSP-like search.
//
// What is inside?
//
//	A single-threaded, deterministic toolkit that brings together:
//		• a bounded graph domain: envelope (possible arcs) ⊇ kernel (mandatory arcs)
//		• an undo trail: every mutation is reverted exactly on backtrack
//		• a path-merge propagator that forbids premature cycles in O(1) per arc
//		• a degree filter (deg = 2, or in = out = 1 when directed)
//		• eighteen arc-selection heuristics, incremental and constructive variants
//		• a Held–Karp 1-tree relaxation with marginal and replacement costs
//		• a depth-first branch-and-bound driver with logrus logs and hooks
//
// Packages, leaves first:
//
//	trail/    — reversible undo log with world push/pop
//	gvar/     — graph domain, contradictions, watchers
//	subtour/  — path-merge (no-subtour) tracker
//	degree/   — Hamiltonian degree filter
//	decision/ — branching decisions and their recycling pool
//	costs/    — dense cost matrix and tour costs
//	relax/    — relaxation oracles (static table, 1-tree)
//	strategy/ — arc-selection strategy
//	tour/     — tours read from an instantiated domain
//	search/   — branch-and-bound driver
//	gen/      — deterministic instance generators
//	metrics/  — Prometheus recorder for search hooks
//	cmd/hamgraph — CLI: generate, solve, render
//
// Quick ASCII example:
//
//	    0───1
//	    │ ╲ │
//	    3───2
//
//	the chord 0–2 is forbidden as soon as the degree filter makes 1 and 3
//	mandatory hubs, and the tracker closes 0-1-2-3-0.
//
//	go install github.com/katalvlaran/hamgraph/cmd/hamgraph@latest
package hamgraph
