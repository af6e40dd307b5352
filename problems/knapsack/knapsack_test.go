package knapsack

import (
	"context"
	"testing"

	"github.com/cblsolver/cbls/pkg/cbls"
)

func TestParseString(t *testing.T) {
	in, err := ParseString("4 11\n8 4\n10 5\n15 8\n4 3\n")
	if err != nil {
		t.Fatalf("ParseString error: %v", err)
	}
	if in.Capacity != 11 {
		t.Fatalf("capacity = %d, want 11", in.Capacity)
	}
	wantWeights := []int{8, 10, 15, 4}
	for i, w := range wantWeights {
		if in.Weights[i] != w {
			t.Fatalf("weight[%d] = %d, want %d", i, in.Weights[i], w)
		}
	}
}

func TestParseString_HeaderMismatch(t *testing.T) {
	if _, err := ParseString("3 11\n8 4\n10 5\n"); err == nil {
		t.Fatalf("expected error for declared/actual item count mismatch")
	}
}

// The exhaustive-neighbourhood, greedy-selection, CP-filtered run on this
// instance must reach objective 7 (items 1 and 4) regardless of starting
// assignment.
func TestInstance_ExhaustiveGreedyCPReachesOptimum(t *testing.T) {
	in, err := NewInstance([]int{8, 10, 15, 4}, []int{4, 5, 8, 3}, 11)
	if err != nil {
		t.Fatalf("NewInstance error: %v", err)
	}

	model, err := cbls.BuildModel(in)
	if err != nil {
		t.Fatalf("BuildModel error: %v", err)
	}

	if err := model.Optimize(context.Background(), cbls.IterationLimit(200)); err != nil {
		t.Fatalf("Optimize error: %v", err)
	}

	best, ok := model.BestObjective()
	if !ok {
		t.Fatalf("expected a recorded best objective")
	}
	if best != -7 {
		t.Fatalf("best objective = %d, want -7 (value 7, maximize framed as minimize)", best)
	}
}

func TestInstance_CapacityIsHardConstraint(t *testing.T) {
	in, err := NewInstance([]int{8, 10, 15, 4}, []int{4, 5, 8, 3}, 11)
	if err != nil {
		t.Fatalf("NewInstance error: %v", err)
	}
	vars := make([]*cbls.DecisionVariable, in.NumDecisionVariables())
	domains := in.GenerateDomains()
	initials := in.InitialValues()
	for i := range vars {
		dv, err := cbls.NewDecisionVariable(i, domains[i], initials[i])
		if err != nil {
			t.Fatalf("NewDecisionVariable error: %v", err)
		}
		vars[i] = dv
	}
	dag, err := in.CreateDAG(vars)
	if err != nil {
		t.Fatalf("CreateDAG error: %v", err)
	}
	if err := dag.Init(); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	// Items 0,1,2 together weigh 33 > 11: infeasible.
	move, err := cbls.NewMove(
		cbls.VarValue{VariableIndex: 0, Value: cbls.NewBoolValue(true)},
		cbls.VarValue{VariableIndex: 1, Value: cbls.NewBoolValue(true)},
		cbls.VarValue{VariableIndex: 2, Value: cbls.NewBoolValue(true)},
	)
	if err != nil {
		t.Fatalf("NewMove error: %v", err)
	}
	evaluated, _ := dag.Evaluate(move)
	if !evaluated.Infeasible {
		t.Fatalf("expected overweight selection to be infeasible")
	}
}

func TestGreedyFillInitialization(t *testing.T) {
	in, err := NewInstance([]int{8, 10, 15, 4}, []int{4, 5, 8, 3}, 11)
	if err != nil {
		t.Fatalf("NewInstance error: %v", err)
	}
	vars := make([]*cbls.DecisionVariable, in.NumDecisionVariables())
	domains := in.GenerateDomains()
	for i := range vars {
		dv, err := cbls.NewDecisionVariable(i, domains[i], cbls.NewBoolValue(false))
		if err != nil {
			t.Fatalf("NewDecisionVariable error: %v", err)
		}
		vars[i] = dv
	}

	init := GreedyFillInitialization{Instance: in}
	if err := init.Initialize(vars, nil); err != nil {
		t.Fatalf("Initialize error: %v", err)
	}

	totalWeight := 0
	for i, v := range vars {
		if v.Value().Bool {
			totalWeight += in.Weights[i]
		}
	}
	if totalWeight > in.Capacity {
		t.Fatalf("greedy fill exceeded capacity: %d > %d", totalWeight, in.Capacity)
	}
}
