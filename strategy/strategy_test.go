package strategy_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hamgraph/costs"
	"github.com/katalvlaran/hamgraph/decision"
	"github.com/katalvlaran/hamgraph/gvar"
	"github.com/katalvlaran/hamgraph/relax"
	"github.com/katalvlaran/hamgraph/strategy"
	"github.com/katalvlaran/hamgraph/subtour"
	"github.com/katalvlaran/hamgraph/trail"
)

func complete(t *testing.T, n int, kind gvar.Kind) (*gvar.Domain, *trail.Trail) {
	t.Helper()
	tr := trail.New()
	g, err := gvar.New(n, kind, tr)
	require.NoError(t, err)
	require.NoError(t, g.AddAllPossible())
	return g, tr
}

// sparse builds the directed fixture
//
//	0→1 0→2 1→2 2→3 3→0 3→1
//
// used by the scoring tables below.
func sparse(t *testing.T) (*gvar.Domain, *trail.Trail) {
	t.Helper()
	tr := trail.New()
	g, err := gvar.New(4, gvar.Directed, tr)
	require.NoError(t, err)
	for _, a := range [][2]int{{0, 1}, {0, 2}, {1, 2}, {2, 3}, {3, 0}, {3, 1}} {
		require.NoError(t, g.AddPossible(a[0], a[1]))
	}
	return g, tr
}

func next(t *testing.T, s *strategy.Strategy) (int, int) {
	t.Helper()
	d, err := s.Next()
	require.NoError(t, err)
	require.NotNil(t, d)
	defer s.Release(d)
	return d.From, d.To
}

func TestLexicographic_FirstArc(t *testing.T) {
	for _, kind := range []gvar.Kind{gvar.Directed, gvar.Undirected} {
		g, _ := complete(t, 4, kind)
		s, err := strategy.New(g)
		require.NoError(t, err)
		d, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, decision.Decision{From: 0, To: 1, Op: decision.Enforce}, *d)
	}
}

func TestOperatorRemove(t *testing.T) {
	g, _ := complete(t, 3, gvar.Directed)
	s, err := strategy.New(g, strategy.WithOperator(decision.Remove))
	require.NoError(t, err)
	d, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, decision.Remove, d.Op)
}

func TestScoringModes(t *testing.T) {
	oracle := relax.NewStatic()
	oracle.Reference[gvar.Arc{From: 1, To: 2}] = true
	oracle.Reference[gvar.Arc{From: 2, To: 3}] = true
	oracle.Marginal[gvar.Arc{From: 0, To: 1}] = 5
	oracle.Marginal[gvar.Arc{From: 0, To: 2}] = 2
	oracle.Marginal[gvar.Arc{From: 3, To: 0}] = 2
	oracle.Marginal[gvar.Arc{From: 3, To: 1}] = 7
	oracle.Replacement[gvar.Arc{From: 1, To: 2}] = 4
	oracle.Replacement[gvar.Arc{From: 2, To: 3}] = 4

	inf := math.Inf(1)
	c := costs.MustNew([][]float64{
		{0, 3, 1, inf},
		{inf, 0, 1, inf},
		{inf, inf, 0, 8},
		{2, 8, inf, 0},
	})

	cases := []struct {
		mode strategy.Mode
		want [2]int
	}{
		{strategy.Lexicographic, [2]int{0, 1}},
		{strategy.MinEnvelopeDegree, [2]int{2, 3}},
		{strategy.MaxEnvelopeDegree, [2]int{0, 1}},
		{strategy.MinCommon, [2]int{0, 1}},
		{strategy.MaxCommon, [2]int{0, 2}},
		{strategy.MinCost, [2]int{0, 2}}, // tie with (1,2): lowest i wins
		{strategy.MaxCost, [2]int{2, 3}}, // tie with (3,1): lowest i wins
		{strategy.InSupport, [2]int{1, 2}},
		{strategy.OutOfSupport, [2]int{0, 1}},
		{strategy.MinMarginal, [2]int{0, 2}},
		{strategy.MaxMarginal, [2]int{3, 1}},
		{strategy.MinReplacement, [2]int{1, 2}},
		{strategy.MaxReplacement, [2]int{1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			g, _ := sparse(t)
			s, err := strategy.New(g,
				strategy.WithMode(tc.mode),
				strategy.WithCosts(c),
				strategy.WithOracle(oracle),
			)
			require.NoError(t, err)
			i, j := next(t, s)
			assert.Equal(t, tc.want, [2]int{i, j})
		})
	}
}

func TestKernelDegreeModes(t *testing.T) {
	for mode, want := range map[strategy.Mode][2]int{
		strategy.MinKernelDegree: {0, 2},
		strategy.MaxKernelDegree: {0, 1},
	} {
		g, tr := sparse(t)
		tr.WorldPush()
		require.NoError(t, g.Enforce(3, 1))
		s, err := strategy.New(g, strategy.WithMode(mode))
		require.NoError(t, err)
		i, j := next(t, s)
		assert.Equal(t, want, [2]int{i, j}, mode.String())
	}
}

func TestFilteredModes_FallBackToFirstArc(t *testing.T) {
	g, _ := sparse(t)
	all := relax.NewStatic()
	for _, a := range g.Arcs(gvar.Envelope) {
		all.Reference[a] = true
	}
	s, err := strategy.New(g, strategy.WithMode(strategy.MinMarginal), strategy.WithOracle(all))
	require.NoError(t, err)
	i, j := next(t, s)
	assert.Equal(t, [2]int{0, 1}, [2]int{i, j})

	none := relax.NewStatic()
	s, err = strategy.New(g, strategy.WithMode(strategy.MaxReplacement), strategy.WithOracle(none))
	require.NoError(t, err)
	i, j = next(t, s)
	assert.Equal(t, [2]int{0, 1}, [2]int{i, j})
}

func TestIncremental_FilteredModeFallsThroughToFullScan(t *testing.T) {
	g, _ := complete(t, 4, gvar.Directed)
	o := relax.NewStatic()
	s, err := strategy.New(g,
		strategy.WithMode(strategy.MinMarginal),
		strategy.WithOracle(o),
		strategy.WithIncremental(true),
	)
	require.NoError(t, err)
	i, j := next(t, s)
	require.Equal(t, [2]int{0, 1}, [2]int{i, j})

	// every arc leaving 0 joins the reference: none of them qualifies
	for _, a := range g.Arcs(gvar.Envelope) {
		if a.From == 0 {
			o.Reference[a] = true
			continue
		}
		o.Marginal[a] = 5
	}
	o.Marginal[gvar.Arc{From: 2, To: 3}] = 1
	i, j = next(t, s)
	assert.Equal(t, [2]int{2, 3}, [2]int{i, j})
	assert.False(t, o.InReference(i, j))

	// nothing qualifies anywhere: first undecided arc
	for _, a := range g.Arcs(gvar.Envelope) {
		o.Reference[a] = true
	}
	i, j = next(t, s)
	assert.Equal(t, [2]int{0, 1}, [2]int{i, j})
}

func TestMinDegreeMaxReplacement(t *testing.T) {
	g, _ := sparse(t)
	o := relax.NewStatic()
	o.Reference[gvar.Arc{From: 0, To: 1}] = true
	o.Reference[gvar.Arc{From: 1, To: 2}] = true
	o.Reference[gvar.Arc{From: 3, To: 0}] = true
	o.Replacement[gvar.Arc{From: 0, To: 1}] = 9
	o.Replacement[gvar.Arc{From: 1, To: 2}] = 2
	o.Replacement[gvar.Arc{From: 3, To: 0}] = 6

	s, err := strategy.New(g, strategy.WithMode(strategy.MinDegreeMaxReplacement), strategy.WithOracle(o))
	require.NoError(t, err)
	// (1,2) and (3,0) share degree 3; (0,1) has degree 4
	i, j := next(t, s)
	assert.Equal(t, [2]int{3, 0}, [2]int{i, j})

	o.Replacement[gvar.Arc{From: 1, To: 2}] = -1
	_, err = s.Next()
	assert.ErrorIs(t, err, strategy.ErrInvalidOracleValue)
}

func TestSparse_BranchesOnTightestNode(t *testing.T) {
	g, tr := complete(t, 5, gvar.Directed)
	s, err := strategy.New(g, strategy.WithMode(strategy.Sparse))
	require.NoError(t, err)

	tr.WorldPush()
	for _, v := range []int{0, 1, 2} {
		require.NoError(t, g.Forbid(3, v))
	}
	i, j := next(t, s)
	assert.Equal(t, [2]int{3, 4}, [2]int{i, j})
	i, j = next(t, s)
	assert.Equal(t, [2]int{3, 4}, [2]int{i, j}, "node kept while unsaturated")

	// 3 is saturated; 3 is the successor with most tight predecessors
	require.NoError(t, g.Enforce(3, 4))
	i, j = next(t, s)
	assert.Equal(t, [2]int{0, 3}, [2]int{i, j})
}

func TestRandom_SeededAndUndecided(t *testing.T) {
	draw := func(seed int64) [][2]int {
		g, tr := complete(t, 6, gvar.Undirected)
		s, err := strategy.New(g, strategy.WithMode(strategy.Random), strategy.WithSeed(seed))
		require.NoError(t, err)
		tr.WorldPush()
		var out [][2]int
		for k := 0; k < 5; k++ {
			i, j := next(t, s)
			require.True(t, g.EnvelopeHas(i, j))
			require.False(t, g.KernelHas(i, j))
			out = append(out, [2]int{i, j})
			require.NoError(t, g.Forbid(i, j))
		}
		return out
	}
	assert.Equal(t, draw(7), draw(7))
	assert.Equal(t, draw(0), draw(1))
}

func TestReplacement_NegativeIsError(t *testing.T) {
	g, _ := sparse(t)
	o := relax.NewStatic()
	o.Reference[gvar.Arc{From: 2, To: 3}] = true
	o.Replacement[gvar.Arc{From: 2, To: 3}] = -1
	s, err := strategy.New(g, strategy.WithMode(strategy.MinReplacement), strategy.WithOracle(o))
	require.NoError(t, err)
	_, err = s.Next()
	assert.ErrorIs(t, err, strategy.ErrInvalidOracleValue)
}

func TestTieBreak_LowestIThenJ(t *testing.T) {
	g, _ := complete(t, 5, gvar.Directed)
	flat := make([][]float64, 5)
	for i := range flat {
		flat[i] = []float64{7, 7, 7, 7, 7}
	}
	for _, mode := range []strategy.Mode{strategy.MinCost, strategy.MaxCost, strategy.MinEnvelopeDegree} {
		s, err := strategy.New(g, strategy.WithMode(mode), strategy.WithCosts(costs.MustNew(flat)))
		require.NoError(t, err)
		i, j := next(t, s)
		assert.Equal(t, [2]int{0, 1}, [2]int{i, j}, mode.String())
	}
}

func TestNext_Deterministic(t *testing.T) {
	for _, incremental := range []bool{false, true} {
		g, _ := sparse(t)
		s, err := strategy.New(g, strategy.WithMode(strategy.MinEnvelopeDegree), strategy.WithIncremental(incremental))
		require.NoError(t, err)
		i1, j1 := next(t, s)
		i2, j2 := next(t, s)
		assert.Equal(t, [2]int{i1, j1}, [2]int{i2, j2})
	}
}

func TestNext_InstantiatedReturnsNil(t *testing.T) {
	tr := trail.New()
	g, err := gvar.New(3, gvar.Directed, tr)
	require.NoError(t, err)
	require.NoError(t, g.AddPossible(0, 1))
	s, err := strategy.New(g)
	require.NoError(t, err)

	tr.WorldPush()
	require.NoError(t, g.Enforce(0, 1))
	d, err := s.Next()
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestIncremental_RestrictsToLastNode(t *testing.T) {
	inf := math.Inf(1)
	c := costs.MustNew([][]float64{
		{0, 5, 4, 6},
		{9, 0, 9, 9},
		{9, 9, 0, 1},
		{9, 9, 9, inf},
	})
	for _, tc := range []struct {
		incremental bool
		want        [2]int
	}{
		{false, [2]int{0, 2}},
		{true, [2]int{2, 0}},
	} {
		g, tr := complete(t, 4, gvar.Directed)
		s, err := strategy.New(g, strategy.WithMode(strategy.MinCost), strategy.WithCosts(c), strategy.WithIncremental(tc.incremental))
		require.NoError(t, err)

		i, j := next(t, s)
		require.Equal(t, [2]int{2, 3}, [2]int{i, j})
		tr.WorldPush()
		require.NoError(t, g.Forbid(2, 3))

		i, j = next(t, s)
		assert.Equal(t, tc.want, [2]int{i, j})
	}
}

func TestIncremental_SaturatedFallsBackToFullScan(t *testing.T) {
	g, tr := complete(t, 4, gvar.Directed)
	s, err := strategy.New(g, strategy.WithIncremental(true))
	require.NoError(t, err)

	i, j := next(t, s)
	require.Equal(t, [2]int{0, 1}, [2]int{i, j})

	tr.WorldPush()
	require.NoError(t, g.Enforce(0, 1))
	require.NoError(t, g.Forbid(0, 2))
	require.NoError(t, g.Forbid(0, 3))
	require.True(t, g.Saturated(0))

	i, j = next(t, s)
	assert.Equal(t, [2]int{1, 0}, [2]int{i, j})
}

func TestConstructive_ExtendsOpenEnd(t *testing.T) {
	g, tr := complete(t, 5, gvar.Directed)
	_, err := subtour.New(g)
	require.NoError(t, err)

	s, err := strategy.New(g, strategy.WithIncremental(true), strategy.WithConstructive(0))
	require.NoError(t, err)
	i, j := next(t, s)
	assert.Equal(t, [2]int{0, 1}, [2]int{i, j})

	tr.WorldPush()
	require.NoError(t, g.Enforce(0, 3))
	require.NoError(t, g.Enforce(3, 1))
	i, j = next(t, s)
	assert.Equal(t, [2]int{1, 2}, [2]int{i, j})

	plain, err := strategy.New(g)
	require.NoError(t, err)
	i, j = next(t, plain)
	assert.Equal(t, [2]int{0, 1}, [2]int{i, j})
}

func TestConstructive_Undirected(t *testing.T) {
	g, tr := complete(t, 5, gvar.Undirected)
	_, err := subtour.New(g)
	require.NoError(t, err)
	s, err := strategy.New(g, strategy.WithIncremental(true), strategy.WithConstructive(2))
	require.NoError(t, err)

	tr.WorldPush()
	require.NoError(t, g.Enforce(2, 4))
	require.NoError(t, g.Enforce(4, 0))
	i, j := next(t, s)
	assert.Equal(t, [2]int{0, 1}, [2]int{i, j})
}

func TestNew_ConfigurationErrors(t *testing.T) {
	g, _ := complete(t, 3, gvar.Directed)

	_, err := strategy.New(nil)
	assert.ErrorIs(t, err, strategy.ErrNilDomain)
	_, err = strategy.New(g, strategy.WithConstructive(0))
	assert.ErrorIs(t, err, strategy.ErrConstructiveWithoutIncremental)
	_, err = strategy.New(g, strategy.WithIncremental(true), strategy.WithConstructive(3))
	assert.ErrorIs(t, err, strategy.ErrStartOutOfRange)
	_, err = strategy.New(g, strategy.WithMode(strategy.MinCost))
	assert.ErrorIs(t, err, strategy.ErrMissingCosts)
	_, err = strategy.New(g, strategy.WithMode(strategy.MaxCost), strategy.WithCosts(costs.MustNew([][]float64{{0, 1}, {1, 0}})))
	assert.ErrorIs(t, err, strategy.ErrCostDimension)
	_, err = strategy.New(g, strategy.WithMode(strategy.InSupport))
	assert.ErrorIs(t, err, strategy.ErrMissingOracle)
	_, err = strategy.New(g, strategy.WithMode(strategy.Mode(200)))
	assert.ErrorIs(t, err, strategy.ErrUnknownMode)
}

func TestParseMode(t *testing.T) {
	for _, m := range strategy.Modes() {
		got, err := strategy.ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := strategy.ParseMode(" Max-Cost ")
	require.NoError(t, err)
	assert.Equal(t, strategy.MaxCost, got)
	_, err = strategy.ParseMode("fastest")
	assert.ErrorIs(t, err, strategy.ErrUnknownMode)
	assert.Len(t, strategy.Modes(), 18)
}

func TestPoolRecyclesDecisions(t *testing.T) {
	g, _ := complete(t, 4, gvar.Directed)
	s, err := strategy.New(g)
	require.NoError(t, err)
	for k := 0; k < 10; k++ {
		d, err := s.Next()
		require.NoError(t, err)
		s.Release(d)
	}
	assert.Equal(t, 1, s.Pool().Allocated())
}
