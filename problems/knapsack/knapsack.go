// Package knapsack plugs the 0/1 knapsack problem into the generic
// local-search driver: one boolean decision variable per item, a hard
// weight-capacity constraint, and a maximized total value.
package knapsack

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/cblsolver/cbls/pkg/cbls"
)

// Instance is one 0/1 knapsack problem: n items, each with a weight and a
// value, and a capacity the chosen items' total weight must not exceed.
type Instance struct {
	Weights  []int
	Values   []int
	Capacity int
}

// NewInstance validates weights and values have matching, non-empty length.
func NewInstance(weights, values []int, capacity int) (*Instance, error) {
	if len(weights) != len(values) {
		return nil, fmt.Errorf("knapsack: %d weights but %d values", len(weights), len(values))
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("knapsack: instance has no items")
	}
	return &Instance{Weights: weights, Values: values, Capacity: capacity}, nil
}

// NumDecisionVariables implements cbls.Experiment: one boolean per item.
func (in *Instance) NumDecisionVariables() int { return len(in.Weights) }

// GenerateDomains implements cbls.Experiment: every item is included or not.
func (in *Instance) GenerateDomains() [][]cbls.DecisionValue {
	domains := make([][]cbls.DecisionValue, in.NumDecisionVariables())
	for i := range domains {
		domains[i] = []cbls.DecisionValue{cbls.NewBoolValue(false), cbls.NewBoolValue(true)}
	}
	return domains
}

// InitialValues implements cbls.Experiment: every item starts excluded, the
// trivially feasible empty selection.
func (in *Instance) InitialValues() []cbls.DecisionValue {
	initial := make([]cbls.DecisionValue, in.NumDecisionVariables())
	for i := range initial {
		initial[i] = cbls.NewBoolValue(false)
	}
	return initial
}

// CreateDAG implements cbls.Experiment: a weight-sum node feeding a hard
// capacity constraint, and a value-sum node feeding the (maximize, so
// sign-negated) objective.
func (in *Instance) CreateDAG(vars []*cbls.DecisionVariable) (*cbls.DAG, error) {
	ids := make([]int, len(vars))
	for i, v := range vars {
		ids[i] = v.Index
	}

	dag := cbls.NewDAG(vars)
	weightSum, err := dag.AddInvariant(cbls.NewScalarProductInvariant(in.Weights, ids), cbls.RolePlain, true)
	if err != nil {
		return nil, err
	}
	if _, err := dag.AddInvariant(cbls.NewComparatorInvariant(weightSum, in.Capacity), cbls.RoleHardConstraint, true); err != nil {
		return nil, err
	}

	valueSum, err := dag.AddInvariant(cbls.NewScalarProductInvariant(in.Values, ids), cbls.RolePlain, true)
	if err != nil {
		return nil, err
	}
	if _, err := dag.AddInvariant(cbls.NewObjectiveInvariant(valueSum, -1), cbls.RoleObjective, false); err != nil {
		return nil, err
	}
	return dag, nil
}

// DefaultNeighbourhood implements cbls.Experiment with a deterministic sweep
// over every item's inclusion, matching the exhaustive-neighbourhood,
// CP-filtered reference run.
func (in *Instance) DefaultNeighbourhood() cbls.Neighbourhood { return &cbls.ExhaustiveNeighbourhood{} }

// DefaultSelector implements cbls.Experiment, greedily accepting the best
// candidate each iteration only if it strictly improves the objective.
func (in *Instance) DefaultSelector() cbls.MoveSelector { return cbls.GreedyMoveSelection{} }

// UsesCP implements cbls.Experiment: the capacity constraint and objective
// are both CP-translatable, so move filtering can prune infeasible flips.
func (in *Instance) UsesCP() bool { return true }

// GreedyFillInitialization seeds the selection by a descending
// value-per-weight ratio, adding each item in turn while it still fits.
type GreedyFillInitialization struct {
	Instance *Instance
}

// Initialize implements cbls.Initializer.
func (g GreedyFillInitialization) Initialize(vars []*cbls.DecisionVariable, _ *rand.Rand) error {
	order := make([]int, len(vars))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		ra := float64(g.Instance.Values[ia]) / float64(g.Instance.Weights[ia])
		rb := float64(g.Instance.Values[ib]) / float64(g.Instance.Weights[ib])
		return ra > rb
	})

	remaining := g.Instance.Capacity
	for _, i := range order {
		w := g.Instance.Weights[i]
		if w > remaining {
			if err := vars[i].SetValue(cbls.NewBoolValue(false)); err != nil {
				return err
			}
			continue
		}
		remaining -= w
		if err := vars[i].SetValue(cbls.NewBoolValue(true)); err != nil {
			return err
		}
	}
	return nil
}
