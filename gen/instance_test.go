package gen_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hamgraph/degree"
	"github.com/katalvlaran/hamgraph/gen"
	"github.com/katalvlaran/hamgraph/gvar"
	"github.com/katalvlaran/hamgraph/search"
	"github.com/katalvlaran/hamgraph/strategy"
	"github.com/katalvlaran/hamgraph/subtour"
	"github.com/katalvlaran/hamgraph/tour"
	"github.com/katalvlaran/hamgraph/trail"
)

func TestRandomHamiltonian_Deterministic(t *testing.T) {
	a, err := gen.RandomHamiltonian(20, 3, gvar.Undirected, 42)
	require.NoError(t, err)
	b, err := gen.RandomHamiltonian(20, 3, gvar.Undirected, 42)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed, different instance (-a +b):\n%s", diff)
	}

	c, err := gen.RandomHamiltonian(20, 3, gvar.Undirected, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a.Planted, c.Planted)

	zero, err := gen.RandomHamiltonian(20, 3, gvar.Undirected, 0)
	require.NoError(t, err)
	one, err := gen.RandomHamiltonian(20, 3, gvar.Undirected, 1)
	require.NoError(t, err)
	assert.Equal(t, one, zero, "seed 0 maps to the default seed")
}

func TestRandomHamiltonian_Shape(t *testing.T) {
	for _, kind := range []gvar.Kind{gvar.Directed, gvar.Undirected} {
		in, err := gen.RandomHamiltonian(15, 2, kind, 7)
		require.NoError(t, err)
		require.NoError(t, tour.Validate(in.Planted, 15, 0))

		seen := make(map[gvar.Arc]bool)
		for i, a := range in.Arcs {
			assert.NotEqual(t, a.From, a.To)
			assert.False(t, seen[a], "duplicate %v", a)
			seen[a] = true
			if kind == gvar.Undirected {
				assert.Less(t, a.From, a.To)
			}
			if i > 0 {
				p := in.Arcs[i-1]
				assert.True(t, p.From < a.From || (p.From == a.From && p.To < a.To), "unsorted at %d", i)
			}
		}
		for i := 0; i < 15; i++ {
			u, v := in.Planted[i], in.Planted[i+1]
			if kind == gvar.Undirected && u > v {
				u, v = v, u
			}
			assert.True(t, seen[gvar.Arc{From: u, To: v}], "planted arc (%d,%d) missing", u, v)
		}
		assert.LessOrEqual(t, len(in.Arcs), 15+15*2)
	}
}

func TestGenerators_Errors(t *testing.T) {
	_, err := gen.RandomHamiltonian(2, 1, gvar.Directed, 1)
	assert.ErrorIs(t, err, gen.ErrTooFewNodes)
	_, err = gen.RandomHamiltonian(5, -1, gvar.Directed, 1)
	assert.ErrorIs(t, err, gen.ErrNegativeExtra)
	_, err = gen.KingTour(1)
	assert.ErrorIs(t, err, gen.ErrTooFewNodes)
	_, err = gen.Complete(2, gvar.Undirected)
	assert.ErrorIs(t, err, gen.ErrTooFewNodes)
	_, err = gen.EuclideanCosts(0, 1)
	assert.ErrorIs(t, err, gen.ErrTooFewNodes)
}

func TestKingTour_EdgeCount(t *testing.T) {
	// 2n(n-1) orthogonal + 2(n-1)² diagonal edges
	for _, size := range []int{2, 3, 8} {
		in, err := gen.KingTour(size)
		require.NoError(t, err)
		want := 2*size*(size-1) + 2*(size-1)*(size-1)
		assert.Len(t, in.Arcs, want, "size %d", size)
		assert.Equal(t, size*size, in.N)
		assert.Nil(t, in.Planted)
	}
}

func TestComplete(t *testing.T) {
	d, err := gen.Complete(5, gvar.Directed)
	require.NoError(t, err)
	assert.Len(t, d.Arcs, 20)

	u, err := gen.Complete(5, gvar.Undirected)
	require.NoError(t, err)
	assert.Len(t, u.Arcs, 10)

	g, err := u.Domain(trail.New())
	require.NoError(t, err)
	assert.Equal(t, 10, g.EnvelopeArcs())
}

func TestEuclideanCosts(t *testing.T) {
	m, err := gen.EuclideanCosts(12, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, m.N())
	assert.True(t, m.Symmetric(0))
	for i := 0; i < 12; i++ {
		for j := 0; j < 12; j++ {
			x := m.At(i, j)
			assert.Equal(t, math.Round(x), x)
			assert.GreaterOrEqual(t, x, 0.0)
		}
	}

	again, err := gen.EuclideanCosts(12, 5)
	require.NoError(t, err)
	assert.Equal(t, m.Row(3), again.Row(3))
}

func TestRandomHamiltonian_IsSolvable(t *testing.T) {
	in, err := gen.RandomHamiltonian(12, 2, gvar.Undirected, 11)
	require.NoError(t, err)
	g, err := in.Domain(trail.New())
	require.NoError(t, err)
	f, err := degree.New(g)
	require.NoError(t, err)
	_, err = subtour.New(g)
	require.NoError(t, err)
	st, err := strategy.New(g, strategy.WithMode(strategy.MinEnvelopeDegree))
	require.NoError(t, err)
	s, err := search.New(g, st, search.WithPropagators(f))
	require.NoError(t, err)

	res, err := s.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, search.StatusSolved, res.Status)
	assert.NoError(t, tour.Validate(res.Tour, 12, 0))
}
