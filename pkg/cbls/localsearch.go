package cbls

import (
	"context"
	"math/rand"
	"time"
)

// CPLSModel is the local-search driver combining the incremental evaluation
// DAG with an optional CP move filter.
// Grounded on optimize.go's functional-options shape for the outer
// Optimize call, and on fd_monitor.go's nil-safe monitor discipline for
// Monitor.
type CPLSModel struct {
	DAG           *DAG
	Variables     []*DecisionVariable
	Neighbourhood Neighbourhood
	Selector      MoveSelector
	Init          Initializer
	CP            *CPModel
	Monitor       *Monitor

	rng            *rand.Rand
	bestObjective  int
	bestHasValue   bool
	bestAssignment []DecisionValue
}

// NewCPLSModel builds a driver over dag/vars with the given neighbourhood,
// selector, and initializer. The DAG and its variables must already be the
// same ones passed to NewDAG.
func NewCPLSModel(dag *DAG, vars []*DecisionVariable, neigh Neighbourhood, selector MoveSelector, init Initializer) *CPLSModel {
	return &CPLSModel{
		DAG: dag, Variables: vars, Neighbourhood: neigh, Selector: selector, Init: init,
		rng: rand.New(rand.NewSource(1)),
	}
}

// LSOption configures a CPLSModel's behavior at construction time.
type LSOption func(*CPLSModel)

// WithCPFilter attaches a CPModel so Optimize routes candidate generation
// through CP-guided move filtering instead of direct neighbourhood sampling.
func WithCPFilter(cp *CPModel) LSOption { return func(m *CPLSModel) { m.CP = cp } }

// WithMonitor attaches a statistics/logging Monitor.
func WithMonitor(mon *Monitor) LSOption { return func(m *CPLSModel) { m.Monitor = mon } }

// WithRandomSeed fixes the driver's random source for reproducible runs.
func WithRandomSeed(seed int64) LSOption {
	return func(m *CPLSModel) { m.rng = rand.New(rand.NewSource(seed)) }
}

// Configure applies the given options.
func (m *CPLSModel) Configure(opts ...LSOption) {
	for _, o := range opts {
		o(m)
	}
}

// OptimizeOption configures a single Optimize call.
type OptimizeOption func(*optimizeConfig)

type optimizeConfig struct {
	candidatesPerIteration int
	cpSolutionLimit        int
}

func defaultOptimizeConfig() *optimizeConfig {
	return &optimizeConfig{candidatesPerIteration: 1, cpSolutionLimit: 8}
}

// WithCandidatesPerIteration samples n candidate moves per iteration before
// calling the MoveSelector, letting selectors like GreedyMoveSelection pick
// the best of several instead of evaluating only one.
func WithCandidatesPerIteration(n int) OptimizeOption {
	return func(c *optimizeConfig) {
		if n > 0 {
			c.candidatesPerIteration = n
		}
	}
}

// WithCPSolutionLimit bounds how many feasible completions FilterMoves
// enumerates per relaxed set when CP move filtering is active.
func WithCPSolutionLimit(n int) OptimizeOption {
	return func(c *optimizeConfig) {
		if n > 0 {
			c.cpSolutionLimit = n
		}
	}
}

func movesEqual(a, b Move) bool {
	ax, bx := a.Assignments(), b.Assignments()
	if len(ax) != len(bx) {
		return false
	}
	for i := range ax {
		if ax[i].VariableIndex != bx[i].VariableIndex || !ax[i].Value.Equal(bx[i].Value) {
			return false
		}
	}
	return true
}

type candidate struct {
	evaluated EvaluatedMove
	pending   *PendingEvaluation
}

// sampleCandidates produces up to n scored candidate moves for the current
// iteration, either via direct neighbourhood sampling or, when a CPModel is
// attached, via CP-guided move filtering over the neighbourhood's relaxed
// variable set.
func (m *CPLSModel) sampleCandidates(ctx context.Context, cfg *optimizeConfig) ([]candidate, error) {
	var out []candidate
	if m.CP != nil {
		relaxed := m.Neighbourhood.RelaxSet(m.Variables, m.rng)
		m.Monitor.RecordCPFilterCall()
		moves, err := FilterMoves(ctx, m.CP, relaxed, cfg.cpSolutionLimit)
		if err != nil {
			return nil, err
		}
		for _, mv := range moves {
			em, pending := m.DAG.Evaluate(mv)
			out = append(out, candidate{evaluated: em, pending: pending})
		}
		return out, nil
	}
	for i := 0; i < cfg.candidatesPerIteration; i++ {
		mv, err := m.Neighbourhood.Sample(m.Variables, m.rng)
		if err != nil {
			return nil, err
		}
		if mv.IsDontMove() {
			continue
		}
		em, pending := m.DAG.Evaluate(mv)
		out = append(out, candidate{evaluated: em, pending: pending})
	}
	return out, nil
}

func (m *CPLSModel) captureBest() {
	m.bestObjective = m.DAG.ObjectiveValue()
	m.bestHasValue = true
	m.bestAssignment = make([]DecisionValue, len(m.Variables))
	for i, v := range m.Variables {
		m.bestAssignment[i] = v.Value()
	}
}

// BestObjective returns the best objective value found so far and whether
// any feasible assignment has been recorded yet.
func (m *CPLSModel) BestObjective() (int, bool) { return m.bestObjective, m.bestHasValue }

// BestAssignment returns a copy of the variable values at the best
// objective found so far.
func (m *CPLSModel) BestAssignment() []DecisionValue {
	return append([]DecisionValue(nil), m.bestAssignment...)
}

// Optimize runs the iterate-sample-filter-evaluate-select-commit loop
// until stop reports true, the context is
// cancelled, or a step reports a fatal error. It is not an error for a full
// run to never improve on the initial assignment; Optimize only returns an
// error for programming violations surfaced by its collaborators (stop
// condition misuse, move filtering time-outs are reported through the
// returned error as a *LimitStop, not swallowed).
func (m *CPLSModel) Optimize(ctx context.Context, stop StopCondition, opts ...OptimizeOption) error {
	cfg := defaultOptimizeConfig()
	for _, o := range opts {
		o(cfg)
	}
	if err := m.Init.Initialize(m.Variables, m.rng); err != nil {
		return err
	}
	if err := m.DAG.Init(); err != nil {
		return err
	}
	m.captureBest()

	stop.Reset()
	start := time.Now()
	iteration := 0
	for !stop.Check(iteration, time.Since(start)) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		m.Monitor.RecordIteration()
		iteration++

		candidates, err := m.sampleCandidates(ctx, cfg)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			m.Monitor.RecordMove(false, 0)
			continue
		}
		evaluated := make([]EvaluatedMove, len(candidates))
		for i, c := range candidates {
			evaluated[i] = c.evaluated
		}

		chosen := m.Selector.Select(evaluated, m.rng)
		if chosen.IsDontMove() {
			m.Monitor.RecordMove(false, 0)
			continue
		}

		var picked *candidate
		for i := range candidates {
			if movesEqual(candidates[i].evaluated.Move, chosen) {
				picked = &candidates[i]
				break
			}
		}
		if picked == nil {
			continue
		}
		if err := m.DAG.Commit(picked.pending); err != nil {
			return err
		}
		m.Monitor.RecordMove(true, picked.evaluated.Delta)
		if !m.bestHasValue || m.DAG.ObjectiveValue() < m.bestObjective {
			m.captureBest()
			m.Monitor.RecordBest(m.bestObjective)
		}
	}
	return nil
}
