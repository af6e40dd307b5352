// Package tsp plugs the travelling salesman problem into the generic
// local-search driver: one permutation variable per tour position, an
// AllDifferent hard constraint, and a minimized total edge length computed
// by a chain of composite edge-lookup nodes against a distance matrix.
package tsp

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/katalvlaran/lvlath/graph"

	"github.com/cblsolver/cbls/pkg/cbls"
)

// Instance is a travelling-salesman instance over n cities: Distances[i][j]
// is the cost of travelling directly from city i to city j. Graph mirrors
// the same cities and edges as a katalvlaran/lvlath graph.Graph, the data
// model the Instance exposes to callers that want adjacency queries rather
// than raw matrix lookups.
type Instance struct {
	Distances [][]int64
	Graph     *graph.Graph
}

// NewInstance builds an Instance from a square distance matrix and its
// equivalent graph representation. City i is vertex strconv.Itoa(i).
func NewInstance(distances [][]int64) (*Instance, error) {
	n := len(distances)
	if n < 2 {
		return nil, fmt.Errorf("tsp: need at least 2 cities, got %d", n)
	}
	for i, row := range distances {
		if len(row) != n {
			return nil, fmt.Errorf("tsp: distance matrix row %d has %d entries, want %d", i, len(row), n)
		}
	}

	g := graph.NewGraph(true, true)
	for i := 0; i < n; i++ {
		g.AddVertex(&graph.Vertex{ID: strconv.Itoa(i)})
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			g.AddEdge(strconv.Itoa(i), strconv.Itoa(j), distances[i][j])
		}
	}

	return &Instance{Distances: distances, Graph: g}, nil
}

func (in *Instance) n() int { return len(in.Distances) }

// NumDecisionVariables implements cbls.Experiment: one tour-position
// variable per city.
func (in *Instance) NumDecisionVariables() int { return in.n() }

// GenerateDomains implements cbls.Experiment: each tour position may hold
// any city index.
func (in *Instance) GenerateDomains() [][]cbls.DecisionValue {
	n := in.n()
	values := make([]cbls.DecisionValue, n)
	for c := 0; c < n; c++ {
		values[c] = cbls.NewIntValue(c)
	}
	domains := make([][]cbls.DecisionValue, n)
	for i := range domains {
		domains[i] = values
	}
	return domains
}

// InitialValues implements cbls.Experiment: the identity tour 0,1,...,n-1.
func (in *Instance) InitialValues() []cbls.DecisionValue {
	n := in.n()
	values := make([]cbls.DecisionValue, n)
	for i := 0; i < n; i++ {
		values[i] = cbls.NewIntValue(i)
	}
	return values
}

// CreateDAG implements cbls.Experiment: an AllDifferent hard constraint over
// the tour, one composite edge-cost node per consecutive pair of positions
// (wrapping back from the last position to the first), summed into the
// minimized objective.
func (in *Instance) CreateDAG(vars []*cbls.DecisionVariable) (*cbls.DAG, error) {
	n := in.n()
	ids := make([]int, n)
	for i, v := range vars {
		ids[i] = v.Index
	}

	dag := cbls.NewDAG(vars)
	if _, err := dag.AddInvariant(cbls.NewAllDifferentInvariant(ids), cbls.RoleHardConstraint, false); err != nil {
		return nil, err
	}

	distances := in.Distances
	edgeIDs := make([]int, n)
	for i := 0; i < n; i++ {
		from, to := ids[i], ids[(i+1)%n]
		edgeID, err := dag.AddInvariant(cbls.NewCompositeInvariant(
			fmt.Sprintf("TourEdge[%d]", i),
			[]int{from, to},
			func(inputs []int) int { return int(distances[inputs[0]][inputs[1]]) },
		), cbls.RolePlain, false)
		if err != nil {
			return nil, err
		}
		edgeIDs[i] = edgeID
	}

	total, err := dag.AddInvariant(cbls.NewSumInvariant(edgeIDs), cbls.RolePlain, false)
	if err != nil {
		return nil, err
	}
	if _, err := dag.AddInvariant(cbls.NewObjectiveInvariant(total, 1), cbls.RoleObjective, false); err != nil {
		return nil, err
	}
	return dag, nil
}

// DefaultNeighbourhood implements cbls.Experiment with pairwise position
// exchanges, the permutation-preserving move for tour encodings.
func (in *Instance) DefaultNeighbourhood() cbls.Neighbourhood { return cbls.SwapNeighbourhood{} }

// DefaultSelector implements cbls.Experiment with simulated annealing: the
// composite edge-cost nodes below are not CP-translatable, so candidate
// moves are only ever scored by the DAG, and an acceptance criterion that
// tolerates occasional worsening moves is what lets search escape local
// tour-length minima.
func (in *Instance) DefaultSelector() cbls.MoveSelector { return cbls.NewSimulatedAnnealing() }

// UsesCP implements cbls.Experiment. The tour-length objective is built
// from CompositeInvariant edge lookups, which have no CP equivalent, so
// move candidates are generated by direct neighbourhood sampling only.
func (in *Instance) UsesCP() bool { return false }

// NearestNeighbourInitialization seeds the tour greedily: starting from
// position 0's city, repeatedly appends the closest city not yet placed.
type NearestNeighbourInitialization struct {
	Instance *Instance
}

// Initialize implements cbls.Initializer.
func (g NearestNeighbourInitialization) Initialize(vars []*cbls.DecisionVariable, _ *rand.Rand) error {
	n := g.Instance.n()
	visited := make([]bool, n)
	current := 0
	visited[0] = true
	if err := vars[0].SetValue(cbls.NewIntValue(0)); err != nil {
		return err
	}
	for pos := 1; pos < n; pos++ {
		best, bestDist := -1, int64(0)
		for c := 0; c < n; c++ {
			if visited[c] {
				continue
			}
			d := g.Instance.Distances[current][c]
			if best == -1 || d < bestDist {
				best, bestDist = c, d
			}
		}
		visited[best] = true
		current = best
		if err := vars[pos].SetValue(cbls.NewIntValue(best)); err != nil {
			return err
		}
	}
	return nil
}
