package cbls

// Experiment is the contract a problem package (knapsack, tsp, graphcolor)
// implements to plug into the generic local-search driver, mirroring
// fd_solver.go's role of translating a problem-neutral interface into the
// concrete wiring a specific solver needs.
type Experiment interface {
	// NumDecisionVariables returns how many decision variables the problem
	// instance has.
	NumDecisionVariables() int
	// GenerateDomains returns each variable's domain, indexed by variable.
	GenerateDomains() [][]DecisionValue
	// InitialValues returns each variable's starting value, indexed by
	// variable; every value must be a member of the corresponding domain.
	InitialValues() []DecisionValue
	// CreateDAG builds the evaluation DAG over vars, including the single
	// objective sink and any hard-constraint sinks the instance needs.
	CreateDAG(vars []*DecisionVariable) (*DAG, error)
	// DefaultNeighbourhood returns the neighbourhood Optimize uses absent an
	// explicit override.
	DefaultNeighbourhood() Neighbourhood
	// DefaultSelector returns the move selector Optimize uses absent an
	// explicit override.
	DefaultSelector() MoveSelector
	// UsesCP reports whether move candidates should be generated through
	// CP-guided filtering rather than direct neighbourhood sampling.
	UsesCP() bool
}

// BuildModel wires an Experiment's decision variables, DAG, and (if
// UsesCP) CP model into a ready-to-run CPLSModel.
func BuildModel(exp Experiment, opts ...LSOption) (*CPLSModel, error) {
	domains := exp.GenerateDomains()
	initials := exp.InitialValues()
	n := exp.NumDecisionVariables()
	vars := make([]*DecisionVariable, n)
	for i := 0; i < n; i++ {
		dv, err := NewDecisionVariable(i, domains[i], initials[i])
		if err != nil {
			return nil, err
		}
		vars[i] = dv
	}

	dag, err := exp.CreateDAG(vars)
	if err != nil {
		return nil, err
	}
	if err := dag.Init(); err != nil {
		return nil, err
	}

	model := NewCPLSModel(dag, vars, exp.DefaultNeighbourhood(), exp.DefaultSelector(), SimpleInitialization{})
	if exp.UsesCP() {
		cp, err := BuildCPModel(dag, DefaultTimeLimit)
		if err != nil {
			return nil, err
		}
		model.CP = cp
	}
	model.Configure(opts...)
	return model, nil
}
