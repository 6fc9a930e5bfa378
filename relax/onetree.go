// SPDX-License-Identifier: MIT
// Package relax — Held–Karp 1-tree oracle over an undirected graph domain.
//
// The relaxation follows the classical Lagrangian scheme:
//
//   - Choose a root r. For multipliers π define reduced costs
//     c'(u,v) = c(u,v) + π_u + π_v.
//   - A minimum 1-tree T(π) is an MST on V\{r} plus the two cheapest r-edges.
//     Only envelope edges of finite cost are eligible; kernel edges are taken
//     before any optional edge, so every mandatory edge belongs to T(π).
//   - L(π) = c'(T(π)) − 2·Σπ is a lower bound on every Hamiltonian cycle that
//     contains the kernel and lies within the envelope.
//   - π is improved by subgradient steps s_i = deg_T(i) − 2.
//
// After the loop the tree for the best π is the reference solution, and:
//
//   - marginal(u,v), (u,v) ∉ T: c'(u,v) minus the largest optional c' on the
//     tree path it would close (root edges: minus the dearer optional root edge);
//   - replacement(u,v), (u,v) ∈ T: the cheapest optional non-tree edge that
//     reconnects the cut minus c'(u,v) (root edges: the third root candidate);
//     +Inf for kernel edges or when nothing reconnects.
//
// Determinism:
//   - No RNG. Prim and root-edge selection break ties by vertex index.
//
// Complexity (per Refresh):
//   - O(MaxIter · n²) for the subgradient loop;
//   - O(m · n) for the marginal/replacement tables, m = envelope edges.
//   - O(n²) memory for the tables.
package relax

import (
	"fmt"
	"math"

	"github.com/katalvlaran/hamgraph/costs"
	"github.com/katalvlaran/hamgraph/gvar"
)

// OneTreeConfig controls the subgradient loop.
type OneTreeConfig struct {
	// MaxIter is the maximum number of subgradient iterations (≥ 1).
	MaxIter int
	// Alpha ∈ (0, 2): step scale.
	Alpha float64
	// UB: optional incumbent cost for adaptive steps; ≤ 0 or +Inf disables it.
	UB float64
}

// DefaultOneTreeConfig returns conservative defaults.
func DefaultOneTreeConfig() OneTreeConfig {
	return OneTreeConfig{
		MaxIter: 32,
		Alpha:   0.9,
		UB:      math.Inf(1),
	}
}

// OneTree is a Refresher/Bounder Oracle backed by a Held–Karp 1-tree.
type OneTree struct {
	cfg  OneTreeConfig
	c    costs.Matrix
	n    int
	root int
	g    *gvar.Domain

	pi     []float64
	bestPi []float64

	// working state for one 1-tree
	deg       []int
	inTree    []bool
	parent    []int
	key       []float64
	keyForced []bool
	order     []int // Prim insertion order over V\{root}
	depth     []int
	rootEdge  [3]int // first, second, third root candidates (-1 if absent)

	// per-edge tables, n*n, symmetric
	ref   []bool
	marg  []float64
	repl  []float64
	cover []float64

	lb float64
}

// NewOneTree validates costs and allocates the working state.
func NewOneTree(c costs.Matrix, root int, cfg OneTreeConfig) (*OneTree, error) {
	n := c.N()
	if n < 3 {
		return nil, ErrTooFewNodes
	}
	if root < 0 || root >= n {
		return nil, ErrRootOutOfRange
	}
	if !c.Symmetric(-1) {
		return nil, ErrAsymmetric
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 1
	}
	if cfg.Alpha <= 0 || cfg.Alpha >= 2 {
		cfg.Alpha = 0.9
	}
	return &OneTree{
		cfg:       cfg,
		c:         c,
		n:         n,
		root:      root,
		pi:        make([]float64, n),
		bestPi:    make([]float64, n),
		deg:       make([]int, n),
		inTree:    make([]bool, n),
		parent:    make([]int, n),
		key:       make([]float64, n),
		keyForced: make([]bool, n),
		order:     make([]int, 0, n),
		depth:     make([]int, n),
		ref:       make([]bool, n*n),
		marg:      make([]float64, n*n),
		repl:      make([]float64, n*n),
		cover:     make([]float64, n),
		lb:        math.Inf(-1),
	}, nil
}

// SetUpperBound feeds an incumbent cost into the step policy.
func (o *OneTree) SetUpperBound(ub float64) { o.cfg.UB = ub }

// LowerBound implements Bounder: the best L(π) of the last Refresh.
func (o *OneTree) LowerBound() float64 { return o.lb }

// Degrees returns a copy of the 1-tree degrees of the last Refresh.
func (o *OneTree) Degrees() []int {
	out := make([]int, o.n)
	copy(out, o.deg)
	return out
}

// Reference lists the reference 1-tree edges with From < To.
func (o *OneTree) Reference() []gvar.Arc {
	var (
		out  []gvar.Arc
		u, v int
	)
	for u = 0; u < o.n; u++ {
		for v = u + 1; v < o.n; v++ {
			if o.ref[u*o.n+v] {
				out = append(out, gvar.Arc{From: u, To: v})
			}
		}
	}
	return out
}

// InReference implements Oracle.
func (o *OneTree) InReference(u, v int) bool { return o.ref[u*o.n+v] }

// MarginalCost implements Oracle.
func (o *OneTree) MarginalCost(u, v int) float64 { return o.marg[u*o.n+v] }

// ReplacementCost implements Oracle.
func (o *OneTree) ReplacementCost(u, v int) float64 { return o.repl[u*o.n+v] }

// Refresh recomputes the relaxation for g.
//
// Errors:
//   - ErrDirectedDomain, ErrDimensionMismatch for misuse;
//   - ErrIncompleteGraph joined with a *gvar.Contradiction when the envelope
//     admits no 1-tree (the node is infeasible).
func (o *OneTree) Refresh(g *gvar.Domain) error {
	if g.Directed() {
		return ErrDirectedDomain
	}
	if g.N() != o.n {
		return ErrDimensionMismatch
	}
	o.g = g

	var (
		i         int
		iter      int
		bestLB    = math.Inf(-1)
		sumPi     float64
		norm2     float64
		redCost   float64
		degDiff   int
		haveUB    bool
		step      float64
		lastBound float64
		err       error
	)
	if !math.IsInf(o.cfg.UB, 0) && o.cfg.UB > 0 {
		haveUB = true
	}
	for i = 0; i < o.n; i++ {
		o.pi[i] = 0
		o.bestPi[i] = 0
	}

	for iter = 0; iter < o.cfg.MaxIter; iter++ {
		redCost, err = o.build()
		if err != nil {
			return err
		}

		sumPi = 0
		for i = 0; i < o.n; i++ {
			sumPi += o.pi[i]
		}
		lastBound = redCost - 2*sumPi
		if lastBound > bestLB {
			bestLB = lastBound
			copy(o.bestPi, o.pi)
		}

		norm2 = 0
		for i = 0; i < o.n; i++ {
			degDiff = o.deg[i] - 2
			norm2 += float64(degDiff * degDiff)
		}
		if norm2 == 0 {
			break // T(π) is a Hamiltonian cycle
		}

		if haveUB {
			step = o.cfg.UB - lastBound
			if step < 0 {
				step = 0
			}
			step = o.cfg.Alpha * step / norm2
		} else {
			step = o.cfg.Alpha / (1.0 + float64(iter))
		}
		if step == 0 {
			break
		}
		for i = 0; i < o.n; i++ {
			o.pi[i] += step * float64(o.deg[i]-2)
		}
	}

	// Rebuild the tree for the best multipliers and derive the tables from it.
	copy(o.pi, o.bestPi)
	if _, err = o.build(); err != nil {
		return err
	}
	o.lb = costs.Round(bestLB)
	o.analyse()
	return nil
}

func (o *OneTree) reduced(u, v int) float64 { return o.c.At(u, v) + o.pi[u] + o.pi[v] }

func (o *OneTree) allowed(u, v int) bool {
	return o.g.EnvelopeHas(u, v) && !math.IsInf(o.c.At(u, v), 1)
}

// precedes orders candidate edges: mandatory first, then by reduced cost.
func precedes(f1 bool, k1 float64, f2 bool, k2 float64) bool {
	if f1 != f2 {
		return f1
	}
	return k1 < k2
}

func incomplete(reason string) error {
	return fmt.Errorf("%w: %w", ErrIncompleteGraph, gvar.NewContradiction(gvar.OpPropagate, -1, -1, reason))
}

// build constructs a minimum 1-tree on reduced costs, fills deg/parent/order
// and rootEdge, and returns the reduced-cost total.
func (o *OneTree) build() (float64, error) {
	var (
		inf         = math.Inf(1)
		v, u, best  int
		iter        int
		c           float64
		f           bool
		costReduced float64
	)
	for v = 0; v < o.n; v++ {
		o.deg[v] = 0
		o.inTree[v] = false
		o.parent[v] = -1
		o.key[v] = inf
		o.keyForced[v] = false
	}
	o.order = o.order[:0]

	start := 0
	if start == o.root {
		start = 1
	}
	o.key[start] = 0

	// ---- Prim over V \ {root}; mandatory edges win every comparison.
	for iter = 0; iter < o.n-1; iter++ {
		best = -1
		for v = 0; v < o.n; v++ {
			if v == o.root || o.inTree[v] {
				continue
			}
			if best == -1 || precedes(o.keyForced[v], o.key[v], o.keyForced[best], o.key[best]) {
				best = v
			}
		}
		if best == -1 || math.IsInf(o.key[best], 1) {
			return 0, incomplete("envelope without the root is disconnected")
		}

		o.inTree[best] = true
		o.order = append(o.order, best)
		if o.parent[best] != -1 {
			u = o.parent[best]
			costReduced += o.reduced(best, u)
			o.deg[best]++
			o.deg[u]++
		}

		for v = 0; v < o.n; v++ {
			if v == o.root || o.inTree[v] || !o.allowed(best, v) {
				continue
			}
			c = o.reduced(best, v)
			f = o.g.KernelHas(best, v)
			if precedes(f, c, o.keyForced[v], o.key[v]) {
				o.key[v] = c
				o.keyForced[v] = f
				o.parent[v] = best
			}
		}
	}

	// ---- Root edges: keep the three best candidates in order.
	var (
		cand   = [3]int{-1, -1, -1}
		candK  = [3]float64{inf, inf, inf}
		candF  [3]bool
		forced int
		k      int
	)
	for v = 0; v < o.n; v++ {
		if v == o.root || !o.allowed(o.root, v) {
			continue
		}
		c = o.reduced(o.root, v)
		f = o.g.KernelHas(o.root, v)
		if f {
			forced++
		}
		for k = 0; k < 3; k++ {
			if cand[k] == -1 || precedes(f, c, candF[k], candK[k]) {
				copy(cand[k+1:], cand[k:2])
				copy(candK[k+1:], candK[k:2])
				copy(candF[k+1:], candF[k:2])
				cand[k], candK[k], candF[k] = v, c, f
				break
			}
		}
	}
	if forced > 2 {
		return 0, incomplete("root has more than two mandatory edges")
	}
	if cand[1] == -1 {
		return 0, incomplete("root has fewer than two possible edges")
	}
	o.rootEdge = cand

	costReduced += candK[0] + candK[1]
	o.deg[o.root] += 2
	o.deg[cand[0]]++
	o.deg[cand[1]]++
	return costReduced, nil
}

// analyse fills ref, marg and repl from the current tree.
func (o *OneTree) analyse() {
	var (
		n       = o.n
		inf     = math.Inf(1)
		i       int
		a, b    int
		x, y, p int
		r, e    float64
		maxPath float64
	)
	for i = 0; i < n*n; i++ {
		o.ref[i] = false
		o.marg[i] = 0
		o.repl[i] = 0
	}
	for _, v := range o.order {
		o.cover[v] = inf
		if o.parent[v] == -1 {
			o.depth[v] = 0
			continue
		}
		o.depth[v] = o.depth[o.parent[v]] + 1
		o.setRef(v, o.parent[v])
	}
	o.setRef(o.root, o.rootEdge[0])
	o.setRef(o.root, o.rootEdge[1])

	// Non-root, non-tree edges: marginal costs and the covering minima.
	for a = 0; a < n; a++ {
		if a == o.root {
			continue
		}
		for b = a + 1; b < n; b++ {
			if b == o.root || o.ref[a*n+b] || !o.allowed(a, b) {
				continue
			}
			r = o.reduced(a, b)
			maxPath = math.Inf(-1)
			x, y = a, b
			for x != y {
				if o.depth[x] < o.depth[y] {
					x, y = y, x
				}
				p = o.parent[x]
				if !o.g.KernelHas(x, p) {
					e = o.reduced(x, p)
					if e > maxPath {
						maxPath = e
					}
					if r < o.cover[x] {
						o.cover[x] = r
					}
				}
				x = p
			}
			if math.IsInf(maxPath, -1) {
				o.setMarg(a, b, inf)
			} else {
				o.setMarg(a, b, r-maxPath)
			}
		}
	}

	// Root edges outside the tree compete with the dearer optional root edge.
	var rootMax = math.Inf(-1)
	for i = 0; i < 2; i++ {
		if !o.g.KernelHas(o.root, o.rootEdge[i]) {
			if e = o.reduced(o.root, o.rootEdge[i]); e > rootMax {
				rootMax = e
			}
		}
	}
	for b = 0; b < n; b++ {
		if b == o.root || o.ref[o.root*n+b] || !o.allowed(o.root, b) {
			continue
		}
		if math.IsInf(rootMax, -1) {
			o.setMarg(o.root, b, inf)
		} else {
			o.setMarg(o.root, b, o.reduced(o.root, b)-rootMax)
		}
	}

	// Replacement costs of tree edges.
	for _, v := range o.order {
		p = o.parent[v]
		if p == -1 {
			continue
		}
		if o.g.KernelHas(v, p) || math.IsInf(o.cover[v], 1) {
			o.setRepl(v, p, inf)
			continue
		}
		o.setRepl(v, p, o.cover[v]-o.reduced(v, p))
	}
	for i = 0; i < 2; i++ {
		b = o.rootEdge[i]
		if o.g.KernelHas(o.root, b) || o.rootEdge[2] == -1 {
			o.setRepl(o.root, b, inf)
			continue
		}
		o.setRepl(o.root, b, o.reduced(o.root, o.rootEdge[2])-o.reduced(o.root, b))
	}
}

func (o *OneTree) setRef(u, v int) {
	o.ref[u*o.n+v] = true
	o.ref[v*o.n+u] = true
}

func (o *OneTree) setMarg(u, v int, x float64) {
	o.marg[u*o.n+v] = x
	o.marg[v*o.n+u] = x
}

func (o *OneTree) setRepl(u, v int, x float64) {
	o.repl[u*o.n+v] = x
	o.repl[v*o.n+u] = x
}
