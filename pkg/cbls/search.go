package cbls

import "context"

// DFS search over a CPRun, grounded on search.go's DFSSearch: an
// iterative frame stack standing in for recursion, a trail snapshot per
// frame, and the same cancellation/time-limit checks at the top of the
// loop. Branching uses assign-then-remove: a frame first tries
// variable == value, and only if that whole subtree is exhausted does it
// retry with value removed from the domain, rather than enumerating the
// domain's values as siblings the way labeling.go's strategies do (those
// return a full candidate list per FDStore; here each frame is one binary
// decision, matching a two-child branch shape).

// VariableHeuristic selects which unresolved branchable variable to branch
// on next. It returns the variable's index within vars, or -1 once every
// variable is bound.
type VariableHeuristic interface {
	SelectVariable(vars []*CPVariable) int
}

// ValueHeuristic picks the representative value a branch point assigns
// first, before falling back to "value removed" on backtrack.
type ValueHeuristic interface {
	SelectValue(d Domain) int
}

// MinDomainHeuristic selects the unresolved variable with the smallest live
// domain, the classic first-fail ordering.
type MinDomainHeuristic struct{}

// SelectVariable implements VariableHeuristic.
func (MinDomainHeuristic) SelectVariable(vars []*CPVariable) int {
	best := -1
	bestSize := 0
	for i, v := range vars {
		sz := v.Domain.Size()
		if sz <= 1 {
			continue
		}
		if best == -1 || sz < bestSize {
			best, bestSize = i, sz
		}
	}
	return best
}

// MaxDomainHeuristic selects the unresolved variable with the largest live
// domain.
type MaxDomainHeuristic struct{}

// SelectVariable implements VariableHeuristic.
func (MaxDomainHeuristic) SelectVariable(vars []*CPVariable) int {
	best := -1
	bestSize := 0
	for i, v := range vars {
		sz := v.Domain.Size()
		if sz <= 1 {
			continue
		}
		if best == -1 || sz > bestSize {
			best, bestSize = i, sz
		}
	}
	return best
}

// MinValueHeuristic assigns a domain's smallest remaining value first.
type MinValueHeuristic struct{}

// SelectValue implements ValueHeuristic.
func (MinValueHeuristic) SelectValue(d Domain) int { return d.Min() }

// MaxValueHeuristic assigns a domain's largest remaining value first.
type MaxValueHeuristic struct{}

// SelectValue implements ValueHeuristic.
func (MaxValueHeuristic) SelectValue(d Domain) int { return d.Max() }

func allBound(vars []*CPVariable) bool {
	for _, v := range vars {
		if !v.Domain.IsBound() {
			return false
		}
	}
	return true
}

func snapshotValues(run *CPRun) []int {
	out := make([]int, len(run.Variables))
	for i, v := range run.Variables {
		if v.Domain.IsBound() {
			out[i] = v.Domain.SingletonValue()
		} else {
			out[i] = v.Domain.Min()
		}
	}
	return out
}

// searchFrame is one binary branch decision: try branchable[varIdx]==value,
// and if that subtree is exhausted, retry with value removed.
type searchFrame struct {
	checkpoint Checkpoint
	varIdx     int
	value      int
	branch     int // 0: about to try assign, 1: about to try remove, 2: exhausted
}

// Search runs depth-first search over run using vs to pick branching
// variables and vals to pick each branch's first-tried value. It returns up
// to limit solutions as snapshots of run.Variables (limit <= 0 means
// unbounded), or a *LimitStop if run's wall-clock budget is exceeded, or the
// ctx error if ctx is cancelled first. A false initial fix-point or an
// immediately-false allBound search without any branchable variable are not
// errors: both simply return a possibly-empty solution slice.
func Search(ctx context.Context, run *CPRun, vs VariableHeuristic, vals ValueHeuristic, limit int) ([][]int, error) {
	run.Start()
	ws := newWorkSet()
	ws.pushAll(run.Constraints)
	if !FixPoint(ws) {
		return nil, nil
	}

	var solutions [][]int
	if allBound(run.BranchableVariable) {
		return append(solutions, snapshotValues(run)), nil
	}

	var stack []searchFrame
	pushFrame := func() bool {
		idx := vs.SelectVariable(run.BranchableVariable)
		if idx == -1 {
			return false
		}
		val := vals.SelectValue(run.BranchableVariable[idx].Domain)
		stack = append(stack, searchFrame{checkpoint: run.Trailer.Save(), varIdx: idx, value: val, branch: 0})
		return true
	}
	if !pushFrame() {
		return solutions, nil
	}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return solutions, ctx.Err()
		default:
		}
		if run.IsAboveTimeLimit() {
			return solutions, &LimitStop{Reason: "cp search time limit"}
		}

		f := &stack[len(stack)-1]
		x := run.BranchableVariable[f.varIdx]

		var feasible bool
		switch f.branch {
		case 0:
			f.branch = 1
			feasible = x.AssignAndNotify(ws, f.value, nil) && FixPoint(ws)
		case 1:
			f.branch = 2
			run.Trailer.RestoreTo(f.checkpoint)
			feasible = x.RemoveAndNotify(ws, f.value, nil) && FixPoint(ws)
		default:
			run.Trailer.RestoreTo(f.checkpoint)
			stack = stack[:len(stack)-1]
			continue
		}

		if !feasible {
			run.Trailer.RestoreTo(f.checkpoint)
			if f.branch == 2 {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		if allBound(run.BranchableVariable) {
			solutions = append(solutions, snapshotValues(run))
			run.Solutions = solutions
			done := limit > 0 && len(solutions) >= limit
			run.Trailer.RestoreTo(f.checkpoint)
			if f.branch == 2 {
				stack = stack[:len(stack)-1]
			}
			if done {
				return solutions, nil
			}
			continue
		}

		if pushFrame() {
			continue
		}
		// No branchable variable left unresolved but allBound was false:
		// every remaining variable has an empty domain's complement fixed by
		// non-branchable invariants only, which cannot happen under a sound
		// model. Treat conservatively as a dead end.
		run.Trailer.RestoreTo(f.checkpoint)
		if f.branch == 2 {
			stack = stack[:len(stack)-1]
		}
	}
	return solutions, nil
}
