package cbls

import (
	"fmt"
	"time"
)

// CP model construction: one pass translating a DAG's decision variables and
// cp-relevant invariant nodes into a CPRun ready for move filtering.
// Grounded on fd_solver.go's VariableMapper, which plays the same
// logic-variable-to-solver-variable translation role this file plays
// between DecisionVariables/DAG nodes and CPVariables/CPConstraints.

// CPModel is the CP-side mirror of a DAG, built once per problem instance
// and reused (via fresh CPRuns sharing its trailer) across every move
// filter call during local search.
type CPModel struct {
	DAG       *DAG
	Run       *CPRun
	varCP     map[int]*CPVariable // decision variable global id -> CPVariable
	nodeCP    map[int]*CPVariable // dag node global id -> CPVariable, for nodes that got one
	nextVarID int
	nextConID int
}

// BuildCPModel mirrors d's decision variables and cp-relevant nodes into a
// CPModel; translate's switch lists the Invariant kinds it knows how to
// mirror into CP variables/constraints. CompositeInvariant nodes have no generic
// CP equivalent (they run an arbitrary Go closure) and, like AmongInvariant
// and ObjectiveInvariant, are silently skipped rather than mirrored — sound
// because CP filtering only narrows the move candidates, so an aggregate it
// never sees just never prunes anything through it. A genuinely unrecognized
// invariant kind is a programming error and does return a descriptive error;
// a problem that needs CP move filtering over a composite aggregate must
// express it with one of the named invariants instead.
func BuildCPModel(d *DAG, timeLimit time.Duration) (*CPModel, error) {
	t := NewTrailer()
	run := NewCPRun(t, timeLimit)
	m := &CPModel{DAG: d, Run: run, varCP: make(map[int]*CPVariable), nodeCP: make(map[int]*CPVariable)}

	for i, dv := range d.variables {
		values := make([]int, 0, len(dv.Domain()))
		for _, val := range dv.Domain() {
			values = append(values, variableAsInt(val))
		}
		dom := NewIntDomain(t, values)
		cpv := m.newVar(dom)
		m.varCP[i] = cpv
		run.Variables = append(run.Variables, cpv)
		run.BranchableVariable = append(run.BranchableVariable, cpv)
	}

	for _, n := range d.nodes {
		if !n.cpRelevant {
			continue
		}
		if err := m.translate(t, n); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *CPModel) newVar(dom Domain) *CPVariable {
	v := NewCPVariable(m.nextVarID, dom)
	m.nextVarID++
	return v
}

func (m *CPModel) nextConstraintID() int {
	id := m.nextConID
	m.nextConID++
	return id
}

func (m *CPModel) valueOf(globalID int) *CPVariable {
	if globalID < m.DAG.numVars() {
		return m.varCP[globalID]
	}
	return m.nodeCP[globalID]
}

func (m *CPModel) mapVars(ids []int) ([]*CPVariable, bool) {
	out := make([]*CPVariable, len(ids))
	for i, id := range ids {
		v := m.valueOf(id)
		if v == nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func onesLike(xs []int) []int {
	out := make([]int, len(xs))
	for i := range out {
		out[i] = 1
	}
	return out
}

func rangeInts(lo, hi int) []int {
	if hi < lo {
		lo, hi = hi, lo
	}
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out
}

func scalarBounds(coeffs []int, vars []*CPVariable) (lo, hi int) {
	for i, v := range vars {
		c := coeffs[i]
		if c >= 0 {
			lo += c * v.Domain.Min()
			hi += c * v.Domain.Max()
		} else {
			lo += c * v.Domain.Max()
			hi += c * v.Domain.Min()
		}
	}
	return lo, hi
}

func distinctValues(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	var out []int
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

// translate builds n's CP counterpart. A node whose parents were never
// themselves materialized as CP variables (because an ancestor was a
// non-cp-relevant or untranslatable node) is silently skipped: it simply
// contributes nothing to the CP model, which only ever narrows the set of
// moves CP filtering can rule out, never incorrectly rules one in.
func (m *CPModel) translate(t *Trailer, n *dagNode) error {
	switch inv := n.invariant.(type) {
	case *SumInvariant:
		return m.translateScalarLike(t, n, inv.parents, onesLike(inv.parents))
	case *ScalarProductInvariant:
		return m.translateScalarLike(t, n, inv.parents, inv.coeffs)
	case *ComparatorInvariant:
		parent := m.valueOf(inv.parent)
		if parent == nil {
			return nil
		}
		c := NewComparator(t, m.nextConstraintID(), parent, inv.bound)
		m.Run.Constraints = append(m.Run.Constraints, c)
		return nil
	case *AndInvariant:
		parents, ok := m.mapVars(inv.parents)
		if !ok {
			return nil
		}
		b := m.newVar(AsIntDomain(NewBoolDomain(t)))
		m.nodeCP[n.id] = b
		m.Run.Variables = append(m.Run.Variables, b)
		m.Run.Constraints = append(m.Run.Constraints, NewAnd(t, m.nextConstraintID(), parents, b))
		return nil
	case *OrInvariant:
		parents, ok := m.mapVars(inv.parents)
		if !ok {
			return nil
		}
		b := m.newVar(AsIntDomain(NewBoolDomain(t)))
		m.nodeCP[n.id] = b
		m.Run.Variables = append(m.Run.Variables, b)
		m.Run.Constraints = append(m.Run.Constraints, NewOr(t, m.nextConstraintID(), parents, b))
		return nil
	case *AllDifferentInvariant:
		parents, ok := m.mapVars(inv.parents)
		if !ok {
			return nil
		}
		m.Run.Constraints = append(m.Run.Constraints, NewAllDifferent(t, m.nextConstraintID(), parents))
		return nil
	case *AmongUpInvariant:
		parents, ok := m.mapVars(inv.parents)
		if !ok {
			return nil
		}
		m.Run.Constraints = append(m.Run.Constraints, NewAmongUp(t, m.nextConstraintID(), parents, inv.values, inv.k))
		return nil
	case *AmongDownInvariant:
		parents, ok := m.mapVars(inv.parents)
		if !ok {
			return nil
		}
		m.Run.Constraints = append(m.Run.Constraints, NewAmongDown(t, m.nextConstraintID(), parents, inv.values, inv.k))
		return nil
	case *IsDifferentInvariant:
		x := m.valueOf(inv.parent)
		if x == nil {
			return nil
		}
		b := m.newVar(AsIntDomain(NewBoolDomain(t)))
		m.nodeCP[n.id] = b
		m.Run.Variables = append(m.Run.Variables, b)
		m.Run.Constraints = append(m.Run.Constraints, NewIsDifferent(t, m.nextConstraintID(), x, inv.v, b))
		return nil
	case *ElementInvariant:
		idx := m.valueOf(inv.indexParent)
		if idx == nil {
			return nil
		}
		out := m.newVar(NewIntDomain(t, distinctValues(inv.array)))
		m.nodeCP[n.id] = out
		m.Run.Variables = append(m.Run.Variables, out)
		c, err := NewElement(t, m.nextConstraintID(), inv.array, idx, out)
		if err != nil {
			return err
		}
		m.Run.Constraints = append(m.Run.Constraints, c)
		return nil
	case *AmongInvariant, *ObjectiveInvariant, *CompositeInvariant:
		return nil
	default:
		return fmt.Errorf("cbls: no CP translation registered for invariant %q", n.invariant.Name())
	}
}

func (m *CPModel) translateScalarLike(t *Trailer, n *dagNode, parentIDs, coeffs []int) error {
	parents, ok := m.mapVars(parentIDs)
	if !ok {
		return nil
	}
	lo, hi := scalarBounds(coeffs, parents)
	agg := m.newVar(NewIntDomain(t, rangeInts(lo, hi)))
	m.nodeCP[n.id] = agg
	m.Run.Variables = append(m.Run.Variables, agg)
	c, err := NewScalarProduct(t, m.nextConstraintID(), coeffs, parents, agg)
	if err != nil {
		return err
	}
	m.Run.Constraints = append(m.Run.Constraints, c)
	return nil
}
