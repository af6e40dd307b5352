package cbls

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Engine-level property and end-to-end scenario tests, one testing.T
// function per property or scenario, using stretchr/testify's
// assert/require for the richer equality checks these scenarios need.

func boolVar(t *testing.T, index int, initial bool) *DecisionVariable {
	t.Helper()
	dv, err := NewDecisionVariable(index, []DecisionValue{NewBoolValue(false), NewBoolValue(true)}, NewBoolValue(initial))
	require.NoError(t, err)
	return dv
}

// Trailer: matched save/restore round-trips to the value at save time, for
// several interleavings of writes between them.
func TestTrailer_SaveRestoreRoundTrip(t *testing.T) {
	tr := NewTrailer()
	h := tr.TrailedCell(1)

	tr.Save()
	tr.Write(h, 2)
	tr.Write(h, 3)
	require.NoError(t, tr.Restore())
	assert.Equal(t, 1, tr.Read(h))

	tr.Write(h, 5)
	tr.Save()
	tr.Write(h, 6)
	tr.Save()
	tr.Write(h, 7)
	tr.Write(h, 8)
	require.NoError(t, tr.Restore())
	assert.Equal(t, 6, tr.Read(h))
	require.NoError(t, tr.Restore())
	assert.Equal(t, 5, tr.Read(h))
}

// restore_to_root yields the initial values regardless of save depth.
func TestTrailer_RestoreToRootIgnoresDepth(t *testing.T) {
	tr := NewTrailer()
	ha := tr.TrailedCell("a0")
	hb := tr.TrailedCell("b0")

	tr.Save()
	tr.Write(ha, "a1")
	tr.Save()
	tr.Write(hb, "b1")
	tr.Save()
	tr.Write(ha, "a2")
	tr.Write(hb, "b2")

	tr.RestoreToRoot()
	assert.Equal(t, "a0", tr.Read(ha))
	assert.Equal(t, "b0", tr.Read(hb))
	assert.Equal(t, 0, tr.Depth())
}

// Equal(x, y) leaves x.domain == y.domain, as sets, after fix-point.
func TestEqualConstraint_DomainsConvergeToIntersection(t *testing.T) {
	tr := NewTrailer()
	x := NewCPVariable(0, NewIntDomain(tr, []int{1, 2, 3}))
	y := NewCPVariable(1, NewIntDomain(tr, []int{2, 3, 4}))
	eq := NewEqual(tr, 0, x, y)

	ws := newWorkSet()
	ws.push(eq)
	require.True(t, FixPoint(ws))
	assert.Equal(t, []int{2, 3}, x.Domain.Values())
	assert.Equal(t, []int{2, 3}, y.Domain.Values())
}

// A contradictory constraint reports infeasible without leaving a trace once
// restored.
func TestFixPoint_ContradictionLeavesNoTraceAfterRestore(t *testing.T) {
	tr := NewTrailer()
	x := NewCPVariable(0, NewIntDomain(tr, []int{1, 2}))
	y := NewCPVariable(1, NewIntDomain(tr, []int{3, 4}))
	eq := NewEqual(tr, 0, x, y)

	cp := tr.Save()
	ws := newWorkSet()
	ws.push(eq)
	feasible := FixPoint(ws)
	assert.False(t, feasible)

	tr.RestoreTo(cp)
	assert.Equal(t, []int{1, 2}, x.Domain.Values())
	assert.Equal(t, []int{3, 4}, y.Domain.Values())
}

// Scenario 4: fix_point on x in [2,6], y in [5,8], z in [6,15], t in [6,10],
// u in [10,25], constraints x=y, z=t narrows to the documented sizes, then
// y=z binds all four, then u=z is infeasible.
func TestFixPoint_DomainSizeScenario(t *testing.T) {
	tr := NewTrailer()
	x := NewCPVariable(0, NewIntDomain(tr, rangeInts(2, 6)))
	y := NewCPVariable(1, NewIntDomain(tr, rangeInts(5, 8)))
	z := NewCPVariable(2, NewIntDomain(tr, rangeInts(6, 15)))
	u4 := NewCPVariable(3, NewIntDomain(tr, rangeInts(6, 10)))
	u := NewCPVariable(4, NewIntDomain(tr, rangeInts(10, 25)))

	eqXY := NewEqual(tr, 0, x, y)
	eqZT := NewEqual(tr, 1, z, u4)

	ws := newWorkSet()
	ws.push(eqXY)
	ws.push(eqZT)
	require.True(t, FixPoint(ws))
	assert.Equal(t, 2, x.Domain.Size())
	assert.Equal(t, 2, y.Domain.Size())
	assert.Equal(t, 5, z.Domain.Size())
	assert.Equal(t, 5, u4.Domain.Size())

	eqYZ := NewEqual(tr, 2, y, z)
	ws2 := newWorkSet()
	ws2.push(eqYZ)
	require.True(t, FixPoint(ws2))
	for _, v := range []*CPVariable{x, y, z, u4} {
		require.True(t, v.Domain.IsBound())
		assert.Equal(t, 6, v.Domain.SingletonValue())
	}

	eqUZ := NewEqual(tr, 3, u, z)
	ws3 := newWorkSet()
	ws3.push(eqUZ)
	assert.False(t, FixPoint(ws3))
}

// Scenario 3: with x in {1,2,3}, y in {2,3}, constraint x=y, min-domain
// variable selection and max-value branching, solve! yields [3,3] then
// [2,2] in that order, via the assign-then-remove branch shape.
func TestSearch_DFSAssignThenRemoveOrder(t *testing.T) {
	tr := NewTrailer()
	x := NewCPVariable(0, NewIntDomain(tr, []int{1, 2, 3}))
	y := NewCPVariable(1, NewIntDomain(tr, []int{2, 3}))
	eq := NewEqual(tr, 0, x, y)

	run := NewCPRun(tr, 0)
	run.Variables = []*CPVariable{x, y}
	run.BranchableVariable = run.Variables
	run.Constraints = []CPConstraint{eq}

	solutions, err := Search(context.Background(), run, MinDomainHeuristic{}, MaxValueHeuristic{}, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{3, 3}, {2, 2}}, solutions)
}

// DAG incrementality: Evaluate(M).Delta equals the objective change a fresh
// from-scratch DAG, built with M already applied, would report.
func TestDAG_EvaluateDeltaMatchesFreshRecompute(t *testing.T) {
	buildDAG := func(a, b, c bool) *DAG {
		vars := []*DecisionVariable{boolVar(t, 0, a), boolVar(t, 1, b), boolVar(t, 2, c)}
		d := NewDAG(vars)
		sumID, err := d.AddInvariant(NewSumInvariant([]int{0, 1, 2}), RolePlain, false)
		require.NoError(t, err)
		_, err = d.AddInvariant(NewObjectiveInvariant(sumID, 1), RoleObjective, false)
		require.NoError(t, err)
		require.NoError(t, d.Init())
		return d
	}

	dag := buildDAG(false, false, false)
	oldObjective := dag.ObjectiveValue()

	// Single changed parent: exercises the delta-negotiation path.
	mv1, err := NewMove(VarValue{VariableIndex: 0, Value: NewBoolValue(true)})
	require.NoError(t, err)
	em1, _ := dag.Evaluate(mv1)
	fresh1 := buildDAG(true, false, false)
	assert.Equal(t, fresh1.ObjectiveValue()-oldObjective, em1.Delta)

	// Two changed parents at once: exercises the full-recompute fallback.
	mv2, err := NewMove(
		VarValue{VariableIndex: 0, Value: NewBoolValue(true)},
		VarValue{VariableIndex: 2, Value: NewBoolValue(true)},
	)
	require.NoError(t, err)
	em2, _ := dag.Evaluate(mv2)
	fresh2 := buildDAG(true, false, true)
	assert.Equal(t, fresh2.ObjectiveValue()-oldObjective, em2.Delta)
}

// Speculative Evaluate never mutates persistent state observable to a later
// Evaluate call: two back-to-back speculative calls against the same
// uncommitted DAG report identical results.
func TestDAG_EvaluateIsPurelySpeculative(t *testing.T) {
	vars := []*DecisionVariable{boolVar(t, 0, false), boolVar(t, 1, false)}
	dag := NewDAG(vars)
	sumID, err := dag.AddInvariant(NewSumInvariant([]int{0, 1}), RolePlain, false)
	require.NoError(t, err)
	_, err = dag.AddInvariant(NewObjectiveInvariant(sumID, 1), RoleObjective, false)
	require.NoError(t, err)
	require.NoError(t, dag.Init())

	before := dag.ObjectiveValue()
	mv, err := NewMove(VarValue{VariableIndex: 0, Value: NewBoolValue(true)})
	require.NoError(t, err)

	em1, _ := dag.Evaluate(mv)
	assert.Equal(t, before, dag.ObjectiveValue())
	em2, _ := dag.Evaluate(mv)
	assert.Equal(t, before, dag.ObjectiveValue())
	assert.Equal(t, em1, em2)
}

// Move filter: FilterMoves returns exactly the set of completions of the
// relaxed variables satisfying the hard constraint, the same set brute
// force enumeration over every combination finds.
func TestFilterMoves_MatchesBruteForceEnumeration(t *testing.T) {
	weights := []int{3, 4, 5}
	capacity := 7

	vars := []*DecisionVariable{boolVar(t, 0, false), boolVar(t, 1, false), boolVar(t, 2, false)}
	dag := NewDAG(vars)
	wsum, err := dag.AddInvariant(NewScalarProductInvariant(weights, []int{0, 1, 2}), RolePlain, true)
	require.NoError(t, err)
	_, err = dag.AddInvariant(NewComparatorInvariant(wsum, capacity), RoleHardConstraint, true)
	require.NoError(t, err)
	_, err = dag.AddInvariant(NewObjectiveInvariant(wsum, 1), RoleObjective, false)
	require.NoError(t, err)
	require.NoError(t, dag.Init())

	model, err := BuildCPModel(dag, 0)
	require.NoError(t, err)

	moves, err := FilterMoves(context.Background(), model, []int{0, 1, 2}, 0)
	require.NoError(t, err)

	got := map[[3]bool]bool{}
	for _, mv := range moves {
		var triple [3]bool
		for _, a := range mv.Assignments() {
			triple[a.VariableIndex] = a.Value.Bool
		}
		got[triple] = true
	}

	want := map[[3]bool]bool{}
	for bits := 0; bits < 8; bits++ {
		a, b, c := bits&1 != 0, bits&2 != 0, bits&4 != 0
		sum := 0
		if a {
			sum += weights[0]
		}
		if b {
			sum += weights[1]
		}
		if c {
			sum += weights[2]
		}
		if sum <= capacity {
			want[[3]bool{a, b, c}] = true
		}
	}
	assert.Equal(t, want, got)
}

// Scenario 5: simulated annealing with T=5.1, alpha=0.9 reduces temperature
// to 5.1*0.9^k after k Select calls.
func TestSimulatedAnnealing_TemperatureDecay(t *testing.T) {
	sa := &SimulatedAnnealing{T: 5.1, Alpha: 0.9, TMin: 0}
	rng := rand.New(rand.NewSource(1))
	candidates := []EvaluatedMove{{Move: DontMove, Delta: 100}}

	for k := 1; k <= 5; k++ {
		sa.Select(candidates, rng)
		want := 5.1 * math.Pow(0.9, float64(k))
		assert.InDelta(t, want, sa.T, 1e-9)
	}
}

// Scenario 6: Metropolis always accepts a negative-delta move regardless of
// temperature, including at T=0 where no positive-delta move could ever be
// accepted.
func TestMetropolis_AlwaysAcceptsNegativeDelta(t *testing.T) {
	m := Metropolis{T: 0}
	rng := rand.New(rand.NewSource(1))
	mv, err := NewMove(VarValue{VariableIndex: 0, Value: NewBoolValue(true)})
	require.NoError(t, err)
	candidates := []EvaluatedMove{{Move: mv, Delta: -5}}

	got := m.Select(candidates, rng)
	assert.False(t, got.IsDontMove())
	assert.Equal(t, mv, got)
}
