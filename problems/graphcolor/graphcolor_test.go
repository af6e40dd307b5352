package graphcolor

import (
	"context"
	"testing"

	"github.com/cblsolver/cbls/pkg/cbls"
)

func TestParseString(t *testing.T) {
	in, err := ParseString("4 3\n2 1\n2 3\n2 4\n", 2)
	if err != nil {
		t.Fatalf("ParseString error: %v", err)
	}
	if in.NumVertices != 4 || len(in.Edges) != 3 {
		t.Fatalf("got %d vertices, %d edges", in.NumVertices, len(in.Edges))
	}
	if in.Edges[0] != (Edge{U: 1, V: 0}) {
		t.Fatalf("Edges[0] = %+v, want {1 0}", in.Edges[0])
	}
}

func TestParseString_EdgeCountMismatch(t *testing.T) {
	if _, err := ParseString("4 2\n2 1\n", 2); err == nil {
		t.Fatalf("expected error for declared/actual edge count mismatch")
	}
}

// gc_4_1: a 4-vertex star centred on vertex 1 (0-indexed), file edges
// (2,1) (2,3) (2,4) in 1-indexed form. Descending-degree order with
// ascending-index tie-break visits vertex 1 first (degree 3), then 0, 2, 3
// (degree 1 each); vertex 1 gets colour 1, every leaf then gets colour 2.
func gc41() *Instance {
	in, err := NewInstance(4, []Edge{{U: 1, V: 0}, {U: 1, V: 2}, {U: 1, V: 3}}, 2)
	if err != nil {
		panic(err)
	}
	return in
}

func TestGreedyInitialization_Gc41(t *testing.T) {
	in := gc41()
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

	init := GreedyInitialization{Instance: in}
	if err := init.Initialize(vars, nil); err != nil {
		t.Fatalf("Initialize error: %v", err)
	}

	want := []int{2, 1, 2, 2}
	for i, w := range want {
		if got := vars[i].Value().Int; got != w {
			t.Fatalf("vertex %d colour = %d, want %d", i, got, w)
		}
	}
}

func TestInstance_ConflictCountIsObjective(t *testing.T) {
	in := gc41()
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
	// Every vertex starts coloured 1: all three star edges conflict.
	if got := dag.ObjectiveValue(); got != 3 {
		t.Fatalf("initial conflict count = %d, want 3", got)
	}
}

func TestInstance_OptimizeReachesZeroConflicts(t *testing.T) {
	in := gc41()
	model, err := cbls.BuildModel(in)
	if err != nil {
		t.Fatalf("BuildModel error: %v", err)
	}
	model.Init = GreedyInitialization{Instance: in}
	if err := model.Optimize(context.Background(), cbls.IterationLimit(100)); err != nil {
		t.Fatalf("Optimize error: %v", err)
	}
	best, ok := model.BestObjective()
	if !ok {
		t.Fatalf("expected a recorded best objective")
	}
	if best != 0 {
		t.Fatalf("best conflict count = %d, want 0 (a star is 2-colourable)", best)
	}
}
