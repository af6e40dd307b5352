package tsp

import (
	"context"
	"testing"

	"github.com/cblsolver/cbls/pkg/cbls"
)

func square() [][]int64 {
	// Four cities at the corners of a unit square; optimal tour length is 4.
	return [][]int64{
		{0, 1, 2, 1},
		{1, 0, 1, 2},
		{2, 1, 0, 1},
		{1, 2, 1, 0},
	}
}

func TestParseString_Matrix(t *testing.T) {
	in, err := ParseString("3\n0 1 2\n1 0 3\n2 3 0\n")
	if err != nil {
		t.Fatalf("ParseString error: %v", err)
	}
	if in.Distances[0][2] != 2 {
		t.Fatalf("Distances[0][2] = %d, want 2", in.Distances[0][2])
	}
}

func TestParseString_Coordinates(t *testing.T) {
	in, err := ParseString("3\n0 0\n3 0\n0 4\n")
	if err != nil {
		t.Fatalf("ParseString error: %v", err)
	}
	if in.Distances[0][1] != 3 {
		t.Fatalf("Distances[0][1] = %d, want 3", in.Distances[0][1])
	}
	if in.Distances[0][2] != 4 {
		t.Fatalf("Distances[0][2] = %d, want 4", in.Distances[0][2])
	}
}

func TestParseString_SizeMismatch(t *testing.T) {
	if _, err := ParseString("3\n0 1\n1 0\n"); err == nil {
		t.Fatalf("expected error for a body that fits neither a matrix nor coordinates")
	}
}

func TestInstance_GraphMirrorsMatrix(t *testing.T) {
	in, err := NewInstance(square())
	if err != nil {
		t.Fatalf("NewInstance error: %v", err)
	}
	if !in.Graph.HasEdge("0", "1") {
		t.Fatalf("expected graph edge 0->1")
	}
	if len(in.Graph.Vertices()) != 4 {
		t.Fatalf("graph has %d vertices, want 4", len(in.Graph.Vertices()))
	}
}

func TestInstance_AllDifferentIsHard(t *testing.T) {
	in, err := NewInstance(square())
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

	// Repeating city 1 at position 2 breaks the permutation.
	move, err := cbls.NewMove(cbls.VarValue{VariableIndex: 2, Value: cbls.NewIntValue(1)})
	if err != nil {
		t.Fatalf("NewMove error: %v", err)
	}
	evaluated, _ := dag.Evaluate(move)
	if !evaluated.Infeasible {
		t.Fatalf("expected duplicated city assignment to be infeasible")
	}
}

func TestInstance_OptimizeReachesFourCycle(t *testing.T) {
	in, err := NewInstance(square())
	if err != nil {
		t.Fatalf("NewInstance error: %v", err)
	}
	model, err := cbls.BuildModel(in)
	if err != nil {
		t.Fatalf("BuildModel error: %v", err)
	}
	if err := model.Optimize(context.Background(), cbls.IterationLimit(500)); err != nil {
		t.Fatalf("Optimize error: %v", err)
	}
	best, ok := model.BestObjective()
	if !ok {
		t.Fatalf("expected a recorded best objective")
	}
	if best != 4 {
		t.Fatalf("best tour length = %d, want 4", best)
	}
}

func TestNearestNeighbourInitialization(t *testing.T) {
	in, err := NewInstance(square())
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
	init := NearestNeighbourInitialization{Instance: in}
	if err := init.Initialize(vars, nil); err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	seen := make(map[int]bool)
	for _, v := range vars {
		seen[v.Value().Int] = true
	}
	if len(seen) != 4 {
		t.Fatalf("nearest-neighbour tour visits %d distinct cities, want 4", len(seen))
	}
}
