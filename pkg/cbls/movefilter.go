package cbls

import "context"

// Move filtering, using CP as a move-enumeration oracle: given a
// CPModel built once per problem and a relaxed subset of decision
// variables, enumerate every value combination over the relaxed variables
// that is consistent with every hard constraint once the non-relaxed
// variables are pinned to their current values. Grounded on fd_solver.go's
// Solve, which the same way builds a fresh solver scope, seeds it from
// existing bindings, and reads solutions back out.

// FilterMoves runs one move-filtering call against model: it pins every
// decision variable not named in relaxed to its current DAG value, then
// searches over the relaxed variables for every combination consistent
// with the CP constraints, up to limit solutions (limit <= 0 means
// unbounded). The model's trailer is always restored to the state it had
// before the call, including on every error path, so a CPModel is safe to
// reuse across many FilterMoves calls.
func FilterMoves(ctx context.Context, model *CPModel, relaxed []int, limit int) ([]Move, error) {
	cp := model.Run.Trailer.Save()
	defer model.Run.Trailer.RestoreTo(cp)

	relaxedSet := make(map[int]bool, len(relaxed))
	for _, r := range relaxed {
		relaxedSet[r] = true
	}

	ws := newWorkSet()
	ws.pushAll(model.Run.Constraints)
	for i, dv := range model.DAG.variables {
		if relaxedSet[i] {
			continue
		}
		cpv := model.varCP[i]
		if !cpv.AssignAndNotify(ws, variableAsInt(dv.Value()), nil) {
			return nil, nil
		}
	}
	if !FixPoint(ws) {
		return nil, nil
	}

	branchable := make([]*CPVariable, 0, len(relaxed))
	for _, r := range relaxed {
		branchable = append(branchable, model.varCP[r])
	}
	scoped := *model.Run
	scoped.BranchableVariable = branchable
	scoped.Variables = branchable

	assignments, err := Search(ctx, &scoped, MinDomainHeuristic{}, MinValueHeuristic{}, limit)
	if err != nil {
		return nil, err
	}

	moves := make([]Move, 0, len(assignments))
	for _, sol := range assignments {
		pairs := make([]VarValue, len(relaxed))
		for i, varIdx := range relaxed {
			pairs[i] = VarValue{VariableIndex: varIdx, Value: intAsDecisionValue(model.DAG.variables[varIdx], sol[i])}
		}
		mv, err := NewMove(pairs...)
		if err != nil {
			return nil, err
		}
		moves = append(moves, mv)
	}
	return moves, nil
}

// intAsDecisionValue reconstructs a DecisionValue of the same kind dv
// already holds from a raw CP integer, the inverse of variableAsInt.
func intAsDecisionValue(dv *DecisionVariable, v int) DecisionValue {
	switch dv.Value().Kind {
	case BoolValue:
		return NewBoolValue(v != 0)
	default:
		return NewIntValue(v)
	}
}
