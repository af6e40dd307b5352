// Package graphcolor plugs graph colouring into the generic local-search
// driver: one colour variable per vertex, a per-edge composite conflict
// node, and a minimized total-conflict objective (zero conflicts means a
// proper colouring).
package graphcolor

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"github.com/katalvlaran/lvlath/graph"

	"github.com/cblsolver/cbls/pkg/cbls"
)

// Edge is one undirected adjacency between two 0-indexed vertices.
type Edge struct {
	U, V int
}

// Instance is a graph-colouring problem: colour every vertex with one of
// MaxColors colours (numbered 1..MaxColors) so that as few adjacent pairs
// as possible share a colour.
type Instance struct {
	NumVertices int
	Edges       []Edge
	MaxColors   int
	Graph       *graph.Graph
}

// NewInstance validates edges reference existing vertices and builds the
// mirrored graph.Graph representation.
func NewInstance(numVertices int, edges []Edge, maxColors int) (*Instance, error) {
	if maxColors < 1 {
		return nil, fmt.Errorf("graphcolor: max_colors must be positive, got %d", maxColors)
	}
	g := graph.NewGraph(false, false)
	for i := 0; i < numVertices; i++ {
		g.AddVertex(&graph.Vertex{ID: strconv.Itoa(i)})
	}
	for _, e := range edges {
		if e.U < 0 || e.U >= numVertices || e.V < 0 || e.V >= numVertices {
			return nil, fmt.Errorf("graphcolor: edge (%d,%d) references a vertex outside 0..%d", e.U, e.V, numVertices-1)
		}
		g.AddEdge(strconv.Itoa(e.U), strconv.Itoa(e.V), 1)
	}
	return &Instance{NumVertices: numVertices, Edges: edges, MaxColors: maxColors, Graph: g}, nil
}

// NumDecisionVariables implements cbls.Experiment: one colour per vertex.
func (in *Instance) NumDecisionVariables() int { return in.NumVertices }

// GenerateDomains implements cbls.Experiment: colours are numbered
// 1..MaxColors.
func (in *Instance) GenerateDomains() [][]cbls.DecisionValue {
	colors := make([]cbls.DecisionValue, in.MaxColors)
	for c := 0; c < in.MaxColors; c++ {
		colors[c] = cbls.NewIntValue(c + 1)
	}
	domains := make([][]cbls.DecisionValue, in.NumVertices)
	for i := range domains {
		domains[i] = colors
	}
	return domains
}

// InitialValues implements cbls.Experiment: every vertex starts coloured 1.
func (in *Instance) InitialValues() []cbls.DecisionValue {
	initial := make([]cbls.DecisionValue, in.NumVertices)
	for i := range initial {
		initial[i] = cbls.NewIntValue(1)
	}
	return initial
}

// CreateDAG implements cbls.Experiment: one composite conflict node per
// edge (1 if its endpoints share a colour, else 0), summed into the
// minimized objective.
func (in *Instance) CreateDAG(vars []*cbls.DecisionVariable) (*cbls.DAG, error) {
	dag := cbls.NewDAG(vars)
	conflictIDs := make([]int, len(in.Edges))
	for i, e := range in.Edges {
		u, v := vars[e.U].Index, vars[e.V].Index
		id, err := dag.AddInvariant(cbls.NewCompositeInvariant(
			fmt.Sprintf("EdgeConflict[%d-%d]", e.U, e.V),
			[]int{u, v},
			func(inputs []int) int {
				if inputs[0] == inputs[1] {
					return 1
				}
				return 0
			},
		), cbls.RolePlain, false)
		if err != nil {
			return nil, err
		}
		conflictIDs[i] = id
	}

	total, err := dag.AddInvariant(cbls.NewSumInvariant(conflictIDs), cbls.RolePlain, false)
	if err != nil {
		return nil, err
	}
	if _, err := dag.AddInvariant(cbls.NewObjectiveInvariant(total, 1), cbls.RoleObjective, false); err != nil {
		return nil, err
	}
	return dag, nil
}

// DefaultNeighbourhood implements cbls.Experiment, recolouring one randomly
// chosen vertex at a time.
func (in *Instance) DefaultNeighbourhood() cbls.Neighbourhood { return cbls.RandomNeighbourhood{K: 1} }

// DefaultSelector implements cbls.Experiment, greedily accepting the best
// recolouring each iteration only if it strictly reduces the conflict count.
func (in *Instance) DefaultSelector() cbls.MoveSelector { return cbls.GreedyMoveSelection{} }

// UsesCP implements cbls.Experiment. Edge conflicts are CompositeInvariant
// nodes, which have no CP equivalent, so move candidates are generated by
// direct neighbourhood sampling only. With too few colours the objective
// may never reach zero; that is a property of the instance, not a driver
// failure.
func (in *Instance) UsesCP() bool { return false }

// degree returns each vertex's incident-edge count.
func (in *Instance) degree() []int {
	d := make([]int, in.NumVertices)
	for _, e := range in.Edges {
		d[e.U]++
		d[e.V]++
	}
	return d
}

func (in *Instance) neighborsOf() [][]int {
	adj := make([][]int, in.NumVertices)
	for _, e := range in.Edges {
		adj[e.U] = append(adj[e.U], e.V)
		adj[e.V] = append(adj[e.V], e.U)
	}
	return adj
}

// GreedyInitialization colours vertices in descending-degree order (ties
// broken by ascending vertex index), assigning each the lowest-numbered
// colour not already used by an already-coloured neighbour.
type GreedyInitialization struct {
	Instance *Instance
}

// Initialize implements cbls.Initializer.
func (g GreedyInitialization) Initialize(vars []*cbls.DecisionVariable, _ *rand.Rand) error {
	in := g.Instance
	degree := in.degree()
	adj := in.neighborsOf()

	order := make([]int, in.NumVertices)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := order[a], order[b]
		if degree[va] != degree[vb] {
			return degree[va] > degree[vb]
		}
		return va < vb
	})

	colors := make([]int, in.NumVertices)
	for i := range colors {
		colors[i] = 0 // 0 means uncoloured
	}
	for _, v := range order {
		used := make(map[int]bool, len(adj[v]))
		for _, n := range adj[v] {
			if colors[n] != 0 {
				used[colors[n]] = true
			}
		}
		chosen := 0
		for c := 1; c <= in.MaxColors; c++ {
			if !used[c] {
				chosen = c
				break
			}
		}
		if chosen == 0 {
			chosen = in.MaxColors
		}
		colors[v] = chosen
		if err := vars[v].SetValue(cbls.NewIntValue(chosen)); err != nil {
			return err
		}
	}
	return nil
}
