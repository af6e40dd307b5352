package cbls

import (
	"fmt"
	"math"
	"math/rand"
)

// Pluggable initialization, neighbourhood sampling, and move selection
// strategies for the local-search driver, grounded on labeling.go's family
// of interchangeable LabelingStrategy implementations (the same
// one-interface-many-structs shape, applied to a different stage of the
// search loop).

// Initializer assigns every decision variable a starting value before local
// search begins.
type Initializer interface {
	Initialize(vars []*DecisionVariable, rng *rand.Rand) error
}

// SimpleInitialization is the generic default Initializer: it leaves every
// variable at whatever value it already holds (its NewDecisionVariable
// initial value), making it a pure no-op. Problems with domain-specific
// construction heuristics (a greedy knapsack fill, a nearest-neighbour
// tour) supply their own Initializer instead.
type SimpleInitialization struct{}

// Initialize implements Initializer as a no-op.
func (SimpleInitialization) Initialize(vars []*DecisionVariable, rng *rand.Rand) error { return nil }

// Neighbourhood proposes which variables a local-search iteration should
// perturb. RelaxSet names the indices for CP-guided move filtering
// (FilterMoves enumerates every feasible completion over them); Sample
// builds one concrete candidate Move directly, for the non-CP path where
// feasibility is instead checked by the DAG's speculative Evaluate.
type Neighbourhood interface {
	Name() string
	RelaxSet(vars []*DecisionVariable, rng *rand.Rand) []int
	Sample(vars []*DecisionVariable, rng *rand.Rand) (Move, error)
}

func distinctRandomIndices(n, k int, rng *rand.Rand) []int {
	if k > n {
		k = n
	}
	perm := rng.Perm(n)
	return append([]int(nil), perm[:k]...)
}

func otherDomainValue(dv *DecisionVariable, rng *rand.Rand) DecisionValue {
	dom := dv.Domain()
	if len(dom) <= 1 {
		return dv.Value()
	}
	for {
		cand := dom[rng.Intn(len(dom))]
		if !cand.Equal(dv.Value()) {
			return cand
		}
	}
}

// BinarySingleNeighbourhood flips exactly one randomly chosen boolean
// variable.
type BinarySingleNeighbourhood struct{}

func (BinarySingleNeighbourhood) Name() string { return "binary-single" }

// RelaxSet picks one random variable index.
func (BinarySingleNeighbourhood) RelaxSet(vars []*DecisionVariable, rng *rand.Rand) []int {
	if len(vars) == 0 {
		return nil
	}
	return []int{rng.Intn(len(vars))}
}

// Sample flips the chosen boolean variable's value.
func (n BinarySingleNeighbourhood) Sample(vars []*DecisionVariable, rng *rand.Rand) (Move, error) {
	idx := n.RelaxSet(vars, rng)
	if len(idx) == 0 {
		return DontMove, nil
	}
	dv := vars[idx[0]]
	if dv.Value().Kind != BoolValue {
		return DontMove, fmt.Errorf("cbls: BinarySingleNeighbourhood requires boolean variables")
	}
	return NewMove(VarValue{VariableIndex: idx[0], Value: NewBoolValue(!dv.Value().Bool)})
}

// BinaryRandomNeighbourhood flips K randomly chosen, distinct boolean
// variables.
type BinaryRandomNeighbourhood struct {
	K int
}

func (n BinaryRandomNeighbourhood) Name() string { return "binary-random" }

// RelaxSet picks K random distinct variable indices.
func (n BinaryRandomNeighbourhood) RelaxSet(vars []*DecisionVariable, rng *rand.Rand) []int {
	return distinctRandomIndices(len(vars), n.K, rng)
}

// Sample flips every chosen variable's boolean value.
func (n BinaryRandomNeighbourhood) Sample(vars []*DecisionVariable, rng *rand.Rand) (Move, error) {
	pairs := make([]VarValue, 0, n.K)
	for _, idx := range n.RelaxSet(vars, rng) {
		dv := vars[idx]
		if dv.Value().Kind != BoolValue {
			return DontMove, fmt.Errorf("cbls: BinaryRandomNeighbourhood requires boolean variables")
		}
		pairs = append(pairs, VarValue{VariableIndex: idx, Value: NewBoolValue(!dv.Value().Bool)})
	}
	return NewMove(pairs...)
}

// RandomNeighbourhood reassigns K randomly chosen, distinct variables to a
// uniformly random value other than their current one.
type RandomNeighbourhood struct {
	K int
}

func (n RandomNeighbourhood) Name() string { return "random" }

// RelaxSet picks K random distinct variable indices.
func (n RandomNeighbourhood) RelaxSet(vars []*DecisionVariable, rng *rand.Rand) []int {
	return distinctRandomIndices(len(vars), n.K, rng)
}

// Sample assigns each chosen variable a fresh random value.
func (n RandomNeighbourhood) Sample(vars []*DecisionVariable, rng *rand.Rand) (Move, error) {
	pairs := make([]VarValue, 0, n.K)
	for _, idx := range n.RelaxSet(vars, rng) {
		pairs = append(pairs, VarValue{VariableIndex: idx, Value: otherDomainValue(vars[idx], rng)})
	}
	return NewMove(pairs...)
}

// SwapNeighbourhood exchanges the current values of two randomly chosen
// variables, the standard permutation-preserving move for tour-style
// encodings such as TSP.
type SwapNeighbourhood struct{}

func (SwapNeighbourhood) Name() string { return "swap" }

// RelaxSet picks two random distinct variable indices.
func (SwapNeighbourhood) RelaxSet(vars []*DecisionVariable, rng *rand.Rand) []int {
	return distinctRandomIndices(len(vars), 2, rng)
}

// Sample swaps the two chosen variables' current values.
func (n SwapNeighbourhood) Sample(vars []*DecisionVariable, rng *rand.Rand) (Move, error) {
	idx := n.RelaxSet(vars, rng)
	if len(idx) < 2 {
		return DontMove, nil
	}
	a, b := idx[0], idx[1]
	return NewMove(
		VarValue{VariableIndex: a, Value: vars[b].Value()},
		VarValue{VariableIndex: b, Value: vars[a].Value()},
	)
}

// KOptNeighbourhood cyclically rotates the current values of K randomly
// chosen variables, generalizing SwapNeighbourhood's pairwise exchange to
// a K-way one while still preserving the multiset of values in a
// permutation encoding.
type KOptNeighbourhood struct {
	K int
}

func (n KOptNeighbourhood) Name() string { return "k-opt" }

// RelaxSet picks K random distinct variable indices.
func (n KOptNeighbourhood) RelaxSet(vars []*DecisionVariable, rng *rand.Rand) []int {
	return distinctRandomIndices(len(vars), n.K, rng)
}

// Sample rotates the chosen variables' values by one position.
func (n KOptNeighbourhood) Sample(vars []*DecisionVariable, rng *rand.Rand) (Move, error) {
	idx := n.RelaxSet(vars, rng)
	if len(idx) < 2 {
		return DontMove, nil
	}
	pairs := make([]VarValue, len(idx))
	for i, v := range idx {
		prev := idx[(i-1+len(idx))%len(idx)]
		pairs[i] = VarValue{VariableIndex: v, Value: vars[prev].Value()}
	}
	return NewMove(pairs...)
}

// ExhaustiveNeighbourhood deterministically sweeps every (variable, value)
// pair in turn across successive calls, for a steepest-descent style driver
// that wants to evaluate the complete neighbourhood rather than a sample.
type ExhaustiveNeighbourhood struct {
	varIdx, valIdx int
}

func (n *ExhaustiveNeighbourhood) Name() string { return "exhaustive" }

// RelaxSet returns the variable index at the sweep cursor and advances the
// cursor to the next variable, so successive CP-guided filtering calls relax
// each variable in turn; rng is unused since the sweep is deterministic.
func (n *ExhaustiveNeighbourhood) RelaxSet(vars []*DecisionVariable, rng *rand.Rand) []int {
	if len(vars) == 0 {
		return nil
	}
	idx := n.varIdx % len(vars)
	n.varIdx = (idx + 1) % len(vars)
	n.valIdx = 0
	return []int{idx}
}

// Sample returns the next (variable, value) pair in sweep order and
// advances the internal cursor, wrapping back to variable 0 after the last
// one.
func (n *ExhaustiveNeighbourhood) Sample(vars []*DecisionVariable, rng *rand.Rand) (Move, error) {
	if len(vars) == 0 {
		return DontMove, nil
	}
	dv := vars[n.varIdx]
	dom := dv.Domain()
	if len(dom) == 0 {
		return DontMove, nil
	}
	value := dom[n.valIdx%len(dom)]
	move, err := NewMove(VarValue{VariableIndex: n.varIdx, Value: value})

	n.valIdx++
	if n.valIdx >= len(dom) {
		n.valIdx = 0
		n.varIdx = (n.varIdx + 1) % len(vars)
	}
	return move, err
}

// MoveSelector picks which of a batch of evaluated candidate moves, if any,
// local search should actually commit.
type MoveSelector interface {
	Select(candidates []EvaluatedMove, rng *rand.Rand) Move
}

// GreedyMoveSelection accepts the best (most negative delta) feasible
// candidate, and only if its delta is strictly negative; DONT_MOVE is
// returned if no candidate improves the objective, including one whose
// delta is exactly zero.
type GreedyMoveSelection struct{}

// Select implements MoveSelector.
func (GreedyMoveSelection) Select(candidates []EvaluatedMove, rng *rand.Rand) Move {
	best := -1
	for i, c := range candidates {
		if c.Infeasible {
			continue
		}
		if best == -1 || c.Delta < candidates[best].Delta {
			best = i
		}
	}
	if best == -1 || candidates[best].Delta >= 0 {
		return DontMove
	}
	return candidates[best].Move
}

// bestFeasible returns the index of the minimum-delta feasible candidate, or
// -1 if none are feasible.
func bestFeasible(candidates []EvaluatedMove) int {
	best := -1
	for i, c := range candidates {
		if c.Infeasible {
			continue
		}
		if best == -1 || c.Delta < candidates[best].Delta {
			best = i
		}
	}
	return best
}

func acceptMetropolis(delta int, temperature float64, rng *rand.Rand) bool {
	if delta <= 0 {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return rng.Float64() < math.Exp(-float64(delta)/temperature)
}

// Metropolis picks the minimum-delta feasible candidate, the same as
// GreedyMoveSelection, then applies the Metropolis criterion at a fixed
// temperature T to that single move: always accept an improving or neutral
// move, accept a worsening move with probability exp(-delta/T), otherwise
// DONT_MOVE.
type Metropolis struct {
	T float64
}

// Select implements MoveSelector.
func (m Metropolis) Select(candidates []EvaluatedMove, rng *rand.Rand) Move {
	best := bestFeasible(candidates)
	if best == -1 || !acceptMetropolis(candidates[best].Delta, m.T, rng) {
		return DontMove
	}
	return candidates[best].Move
}

// SimulatedAnnealing behaves like Metropolis but geometrically cools its
// temperature by a factor of Alpha, floored at TMin, after every Select
// call. The defaults T=1, Alpha=0.99, TMin=0 match NewSimulatedAnnealing.
type SimulatedAnnealing struct {
	T     float64
	Alpha float64
	TMin  float64
}

// NewSimulatedAnnealing builds a SimulatedAnnealing selector with the
// conventional defaults T=1, Alpha=0.99, TMin=0.
func NewSimulatedAnnealing() *SimulatedAnnealing {
	return &SimulatedAnnealing{T: 1, Alpha: 0.99, TMin: 0}
}

// Select implements MoveSelector: it picks the minimum-delta feasible
// candidate, applies the Metropolis criterion at the current temperature to
// that single move, then cools the temperature afterward regardless of
// whether the move was accepted.
func (s *SimulatedAnnealing) Select(candidates []EvaluatedMove, rng *rand.Rand) Move {
	mv := DontMove
	if best := bestFeasible(candidates); best != -1 && acceptMetropolis(candidates[best].Delta, s.T, rng) {
		mv = candidates[best].Move
	}
	s.T = math.Max(s.TMin, s.T*s.Alpha)
	return mv
}
