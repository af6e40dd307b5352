package cbls

import "fmt"

// ValueKind tags the payload carried by a DecisionValue.
type ValueKind uint8

const (
	// IntValue marks a DecisionValue carrying an integer payload.
	IntValue ValueKind = iota
	// BoolValue marks a DecisionValue carrying a boolean payload.
	BoolValue
	// UserValue marks a DecisionValue carrying a problem-defined payload.
	// Equality on UserValue falls back to the Go == operator on the boxed
	// value; ordering is a programming violation (see Less).
	UserValue
)

// DecisionValue is the tagged-variant payload a DecisionVariable takes. It is
// immutable once constructed.
type DecisionValue struct {
	Kind ValueKind
	Int  int
	Bool bool
	User any
}

// NewIntValue builds an integer-tagged DecisionValue.
func NewIntValue(v int) DecisionValue { return DecisionValue{Kind: IntValue, Int: v} }

// NewBoolValue builds a boolean-tagged DecisionValue.
func NewBoolValue(v bool) DecisionValue { return DecisionValue{Kind: BoolValue, Bool: v} }

// NewUserValue boxes an arbitrary problem-defined payload.
func NewUserValue(v any) DecisionValue { return DecisionValue{Kind: UserValue, User: v} }

// Equal reports whether two DecisionValues carry the same kind and payload.
func (v DecisionValue) Equal(o DecisionValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case IntValue:
		return v.Int == o.Int
	case BoolValue:
		return v.Bool == o.Bool
	default:
		return v.User == o.User
	}
}

// Less orders two IntValue or BoolValue DecisionValues. Calling Less on a
// UserValue is a programming violation: it panics rather than silently
// returning a meaningless result, per the distinction between recoverable
// infeasibility and fatal contract breaches.
func (v DecisionValue) Less(o DecisionValue) bool {
	if v.Kind != o.Kind {
		panic(fmt.Sprintf("cbls: Less on mismatched DecisionValue kinds %v/%v", v.Kind, o.Kind))
	}
	switch v.Kind {
	case IntValue:
		return v.Int < o.Int
	case BoolValue:
		return !v.Bool && o.Bool
	default:
		panic("cbls: Less is undefined for UserValue")
	}
}

func (v DecisionValue) String() string {
	switch v.Kind {
	case IntValue:
		return fmt.Sprintf("%d", v.Int)
	case BoolValue:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return fmt.Sprintf("%v", v.User)
	}
}

// DecisionVariable is (index, domain, current_value). Index is a
// dense 0-based integer used as the primary key throughout the engine.
// The invariant current_value ∈ domain is maintained by every mutator below;
// construction and SetValue are the only mutation points.
type DecisionVariable struct {
	Index   int
	domain  []DecisionValue
	current DecisionValue
}

// NewDecisionVariable builds a variable whose domain is the given ordered
// set of values; initial must be a member of domain.
func NewDecisionVariable(index int, domain []DecisionValue, initial DecisionValue) (*DecisionVariable, error) {
	dv := &DecisionVariable{Index: index, domain: append([]DecisionValue(nil), domain...)}
	if !dv.contains(initial) {
		return nil, fmt.Errorf("cbls: initial value %v not in domain of variable %d: %w", initial, index, ErrValueNotInDomain)
	}
	dv.current = initial
	return dv, nil
}

func (d *DecisionVariable) contains(v DecisionValue) bool {
	for _, c := range d.domain {
		if c.Equal(v) {
			return true
		}
	}
	return false
}

// Domain returns the ordered set of values the variable may take.
func (d *DecisionVariable) Domain() []DecisionValue { return d.domain }

// Value returns the variable's current value.
func (d *DecisionVariable) Value() DecisionValue { return d.current }

// SetValue assigns a new current value, rejecting values outside the domain.
func (d *DecisionVariable) SetValue(v DecisionValue) error {
	if !d.contains(v) {
		return fmt.Errorf("cbls: value %v not in domain of variable %d: %w", v, d.Index, ErrValueNotInDomain)
	}
	d.current = v
	return nil
}

// VarValue is one (variable_index, new_value) pair within a Move.
type VarValue struct {
	VariableIndex int
	Value         DecisionValue
}

// Move is a set of variable assignments with no duplicate indices. A Move is
// pure data: constructing or reading one never mutates any variable.
type Move struct {
	assignments []VarValue
}

// NewMove validates and builds a Move from the given pairs, rejecting
// duplicate variable indices.
func NewMove(pairs ...VarValue) (Move, error) {
	seen := make(map[int]struct{}, len(pairs))
	for _, p := range pairs {
		if _, dup := seen[p.VariableIndex]; dup {
			return Move{}, fmt.Errorf("cbls: variable %d appears twice in move: %w", p.VariableIndex, ErrDuplicateVariable)
		}
		seen[p.VariableIndex] = struct{}{}
	}
	return Move{assignments: append([]VarValue(nil), pairs...)}, nil
}

// DontMove is the distinguished empty move returned by a selector that
// declines to move.
var DontMove = Move{}

// IsDontMove reports whether m is the distinguished DONT_MOVE move.
func (m Move) IsDontMove() bool { return len(m.assignments) == 0 }

// Assignments returns the move's (variable, value) pairs in declaration order.
func (m Move) Assignments() []VarValue { return m.assignments }

// VariableIndices returns the set of variable indices touched by the move.
func (m Move) VariableIndices() []int {
	out := make([]int, len(m.assignments))
	for i, a := range m.assignments {
		out[i] = a.VariableIndex
	}
	return out
}

// EvaluatedMove is the DAG's verdict on a candidate Move: the signed
// objective delta if the move were applied, and whether applying it would
// violate a hard constraint.
type EvaluatedMove struct {
	Move        Move
	Delta       int
	Infeasible  bool
}
