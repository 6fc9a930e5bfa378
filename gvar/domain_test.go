package gvar_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hamgraph/gvar"
	"github.com/katalvlaran/hamgraph/trail"
)

// snapshot captures everything observable about a domain.
type snapshot struct {
	Envelope []gvar.Arc
	Kernel   []gvar.Arc
	Active   []int
}

func snap(d *gvar.Domain) snapshot {
	return snapshot{
		Envelope: d.Arcs(gvar.Envelope),
		Kernel:   d.Arcs(gvar.Kernel),
		Active:   d.ActiveNodes(),
	}
}

// recorder logs watcher events as strings.
type recorder struct{ events []string }

func (r *recorder) ArcEnforced(from, to int) error {
	r.events = append(r.events, "E"+string(rune('0'+from))+string(rune('0'+to)))
	return nil
}

func (r *recorder) ArcForbidden(from, to int) error {
	r.events = append(r.events, "F"+string(rune('0'+from))+string(rune('0'+to)))
	return nil
}

func newComplete(t *testing.T, n int, kind gvar.Kind) (*gvar.Domain, *trail.Trail) {
	t.Helper()
	tr := trail.New()
	d, err := gvar.New(n, kind, tr)
	require.NoError(t, err)
	require.NoError(t, d.AddAllPossible())
	return d, tr
}

func TestNew_Validation(t *testing.T) {
	_, err := gvar.New(0, gvar.Directed, trail.New())
	assert.ErrorIs(t, err, gvar.ErrInvalidOrder)
	_, err = gvar.New(3, gvar.Directed, nil)
	assert.ErrorIs(t, err, gvar.ErrNilTrail)
}

func TestAddPossible_Errors(t *testing.T) {
	d, err := gvar.New(3, gvar.Directed, trail.New())
	require.NoError(t, err)
	assert.ErrorIs(t, d.AddPossible(1, 1), gvar.ErrSelfLoop)
	assert.ErrorIs(t, d.AddPossible(0, 3), gvar.ErrNodeOutOfRange)
	require.NoError(t, d.AddPossible(0, 1))
	require.NoError(t, d.AddPossible(0, 1))
	assert.Equal(t, 1, d.EnvelopeArcs())

	require.NoError(t, d.Enforce(0, 1))
	assert.True(t, d.Sealed())
	assert.ErrorIs(t, d.AddPossible(1, 2), gvar.ErrSealed)
}

func TestEnforce_OutsideEnvelope_IsContradictionAndNoop(t *testing.T) {
	tr := trail.New()
	d, err := gvar.New(4, gvar.Directed, tr)
	require.NoError(t, err)
	require.NoError(t, d.AddPossible(0, 1))
	before := snap(d)

	tr.WorldPush()
	err = d.Enforce(1, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, gvar.ErrContradiction)
	var c *gvar.Contradiction
	require.ErrorAs(t, err, &c)
	assert.Equal(t, gvar.OpEnforce, c.Op)
	assert.Equal(t, 1, c.From)
	assert.Equal(t, 0, c.To)
	assert.Empty(t, cmp.Diff(before, snap(d)))
	assert.Equal(t, 0, tr.Size())
}

func TestEnforce_Idempotent(t *testing.T) {
	d, tr := newComplete(t, 4, gvar.Directed)
	rec := &recorder{}
	d.Watch(rec)

	tr.WorldPush()
	require.NoError(t, d.Enforce(2, 3))
	after := snap(d)
	size := tr.Size()

	require.NoError(t, d.Enforce(2, 3))
	assert.Empty(t, cmp.Diff(after, snap(d)))
	assert.Equal(t, size, tr.Size())
	assert.Equal(t, []string{"E23"}, rec.events)
	assert.True(t, d.IsActive(2))
	assert.True(t, d.IsActive(3))
}

func TestForbid_KernelArcIsContradiction(t *testing.T) {
	d, tr := newComplete(t, 3, gvar.Directed)
	tr.WorldPush()
	require.NoError(t, d.Enforce(0, 1))
	err := d.Forbid(0, 1)
	assert.True(t, gvar.IsContradiction(err))
	assert.True(t, d.KernelHas(0, 1))

	// forbidding an absent arc is a no-op
	require.NoError(t, d.Forbid(1, 2))
	n := d.EnvelopeArcs()
	require.NoError(t, d.Forbid(1, 2))
	assert.Equal(t, n, d.EnvelopeArcs())
}

func TestKernelSubsetOfEnvelope(t *testing.T) {
	d, tr := newComplete(t, 5, gvar.Directed)
	tr.WorldPush()
	ops := [][3]int{{1, 0, 1}, {0, 1, 2}, {1, 2, 3}, {0, 3, 4}, {1, 4, 0}, {0, 2, 0}}
	for _, op := range ops {
		if op[0] == 1 {
			require.NoError(t, d.Enforce(op[1], op[2]))
		} else {
			require.NoError(t, d.Forbid(op[1], op[2]))
		}
		for _, a := range d.Arcs(gvar.Kernel) {
			assert.True(t, d.EnvelopeHas(a.From, a.To), "kernel arc %v outside envelope", a)
		}
	}
}

func TestInstantiated(t *testing.T) {
	tr := trail.New()
	d, err := gvar.New(3, gvar.Directed, tr)
	require.NoError(t, err)
	assert.True(t, d.Instantiated()) // empty envelope, empty kernel

	require.NoError(t, d.AddPossible(0, 1))
	require.NoError(t, d.AddPossible(1, 2))
	assert.False(t, d.Instantiated())

	tr.WorldPush()
	require.NoError(t, d.Enforce(0, 1))
	assert.False(t, d.Instantiated())
	require.NoError(t, d.Forbid(1, 2))
	assert.True(t, d.Instantiated())

	require.NoError(t, tr.WorldPop())
	assert.False(t, d.Instantiated())
}

func TestNeighbors_AscendingAndRestartable(t *testing.T) {
	tr := trail.New()
	d, err := gvar.New(8, gvar.Directed, tr)
	require.NoError(t, err)
	for _, v := range []int{7, 2, 5, 1} {
		require.NoError(t, d.AddPossible(0, v))
	}
	s := d.EnvelopeSuccessors(0)
	for round := 0; round < 2; round++ {
		var got []int
		for v := s.First(); v != -1; v = s.Next(v) {
			got = append(got, v)
		}
		assert.Equal(t, []int{1, 2, 5, 7}, got)
	}
	assert.Equal(t, 4, s.Size())
	assert.Equal(t, 5, s.Next(2))
	assert.Equal(t, -1, s.Next(7))
	assert.Equal(t, []int{0}, d.EnvelopePredecessors(5).Slice())
	assert.Equal(t, -1, d.KernelSuccessors(0).First())
}

func TestUndirected_Symmetric(t *testing.T) {
	d, tr := newComplete(t, 4, gvar.Undirected)
	assert.Equal(t, 6, d.EnvelopeArcs())
	tr.WorldPush()
	require.NoError(t, d.Enforce(3, 1))
	assert.True(t, d.KernelHas(1, 3))
	assert.Equal(t, 1, d.KernelArcs())
	require.NoError(t, d.Enforce(1, 3)) // same edge
	assert.Equal(t, 1, d.KernelArcs())
	require.NoError(t, d.Forbid(0, 2))
	assert.False(t, d.EnvelopeHas(2, 0))
	assert.Equal(t, []gvar.Arc{{From: 1, To: 3}}, d.Arcs(gvar.Kernel))
	assert.Equal(t, d.EnvelopeSuccessors(1).Slice(), d.EnvelopePredecessors(1).Slice())
}

func TestBacktrack_RestoresExactState(t *testing.T) {
	for _, kind := range []gvar.Kind{gvar.Directed, gvar.Undirected} {
		t.Run(kind.String(), func(t *testing.T) {
			d, tr := newComplete(t, 6, kind)
			require.NoError(t, d.Activate(5))
			root := snap(d)

			tr.WorldPush()
			require.NoError(t, d.Enforce(0, 1))
			require.NoError(t, d.Forbid(2, 3))
			level1 := snap(d)

			tr.WorldPush()
			require.NoError(t, d.Enforce(3, 4))
			require.NoError(t, d.Forbid(4, 0))
			require.NoError(t, d.Activate(2))

			require.NoError(t, tr.WorldPop())
			assert.Empty(t, cmp.Diff(level1, snap(d)))
			require.NoError(t, tr.WorldPop())
			assert.Empty(t, cmp.Diff(root, snap(d)))
		})
	}
}

func TestActivate(t *testing.T) {
	d, tr := newComplete(t, 3, gvar.Directed)
	assert.ErrorIs(t, d.Activate(3), gvar.ErrNodeOutOfRange)
	tr.WorldPush()
	require.NoError(t, d.Activate(1))
	require.NoError(t, d.Activate(1))
	assert.Equal(t, []int{1}, d.ActiveNodes())
	assert.Equal(t, 6, d.EnvelopeArcs())
	require.NoError(t, tr.WorldPop())
	assert.False(t, d.IsActive(1))
}

func TestWatcherErrorPropagates(t *testing.T) {
	d, tr := newComplete(t, 3, gvar.Directed)
	d.Watch(failing{})
	tr.WorldPush()
	err := d.Enforce(0, 1)
	assert.True(t, gvar.IsContradiction(err))
	require.NoError(t, tr.WorldPop())
	assert.False(t, d.KernelHas(0, 1))
}

type failing struct{}

func (failing) ArcEnforced(from, to int) error {
	return gvar.NewContradiction(gvar.OpPropagate, from, to, "test")
}
func (failing) ArcForbidden(int, int) error { return nil }

func TestContradiction_Error(t *testing.T) {
	c := gvar.NewContradiction(gvar.OpSelect, -1, -1, "no arc")
	assert.Equal(t, "gvar: contradiction on select: no arc", c.Error())
	c = gvar.NewContradiction(gvar.OpForbid, 1, 2, "arc is mandatory")
	assert.Equal(t, "gvar: contradiction on forbid(1,2): arc is mandatory", c.Error())
}

// cascading forbids the reverse arc of every enforced arc, then fails when
// the arc leaves node 0.
type cascading struct{ d *gvar.Domain }

func (c cascading) ArcEnforced(from, to int) error {
	if err := c.d.Forbid(to, from); err != nil {
		return err
	}
	if from == 0 {
		return gvar.NewContradiction(gvar.OpPropagate, from, to, "test")
	}
	return nil
}
func (cascading) ArcForbidden(int, int) error { return nil }

func TestWatcherError_AtRootLeavesNoTrace(t *testing.T) {
	d, tr := newComplete(t, 4, gvar.Directed)
	d.Watch(cascading{d: d})
	root := snap(d)

	err := d.Enforce(0, 1)
	assert.True(t, gvar.IsContradiction(err))
	assert.Empty(t, cmp.Diff(root, snap(d)))
	assert.Equal(t, 0, tr.Level())
	assert.Equal(t, 0, tr.Size())

	// a successful root operation stays, cascade included
	require.NoError(t, d.Enforce(1, 2))
	assert.True(t, d.KernelHas(1, 2))
	assert.False(t, d.EnvelopeHas(2, 1))
	assert.Equal(t, 0, tr.Level())
	assert.Equal(t, 0, tr.Size())
}
