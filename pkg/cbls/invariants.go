package cbls

// Concrete invariant library for the evaluation DAG, the numeric-aggregate
// counterparts to constraints.go's boolean CP constraints. Each one
// implements Invariant's Name/Parents/FullEval contract; Sum and
// ScalarProduct also implement DeltaInvariant, updating their previous total
// for a single changed parent (the previous total is itself recomputed from
// every previous input).

// SumInvariant outputs the sum of its parents' values.
type SumInvariant struct {
	parents []int
}

// NewSumInvariant builds a Sum node over the given parent ids.
func NewSumInvariant(parents []int) *SumInvariant {
	return &SumInvariant{parents: append([]int(nil), parents...)}
}

func (s *SumInvariant) Name() string    { return "Sum" }
func (s *SumInvariant) Parents() []int  { return s.parents }
func (s *SumInvariant) FullEval(inputs map[int]int) int {
	total := 0
	for _, p := range s.parents {
		total += inputs[p]
	}
	return total
}

// EvalDelta recomputes the previous sum from prevInputs and applies the
// changed parent's delta (or its replacement value) to it.
func (s *SumInvariant) EvalDelta(prevInputs map[int]int, changedParent int, msg Message) int {
	prevTotal := s.FullEval(prevInputs)
	switch msg.Kind {
	case DeltaMessage:
		return prevTotal + msg.Delta
	default:
		return prevTotal - prevInputs[changedParent] + msg.Value
	}
}

// ScalarProductInvariant outputs Σ coeffs[i]*parents[i].
type ScalarProductInvariant struct {
	coeffs  []int
	parents []int
}

// NewScalarProductInvariant builds a ScalarProduct node; len(coeffs) must
// equal len(parents).
func NewScalarProductInvariant(coeffs []int, parents []int) *ScalarProductInvariant {
	return &ScalarProductInvariant{coeffs: append([]int(nil), coeffs...), parents: append([]int(nil), parents...)}
}

func (s *ScalarProductInvariant) Name() string   { return "ScalarProduct" }
func (s *ScalarProductInvariant) Parents() []int { return s.parents }
func (s *ScalarProductInvariant) FullEval(inputs map[int]int) int {
	total := 0
	for i, p := range s.parents {
		total += s.coeffs[i] * inputs[p]
	}
	return total
}

// EvalDelta recomputes the previous total from prevInputs and applies the
// changed parent's contribution to it, scaled by that parent's coefficient.
func (s *ScalarProductInvariant) EvalDelta(prevInputs map[int]int, changedParent int, msg Message) int {
	prevTotal := s.FullEval(prevInputs)
	idx := -1
	for i, p := range s.parents {
		if p == changedParent {
			idx = i
			break
		}
	}
	if idx == -1 {
		return prevTotal
	}
	coeff := s.coeffs[idx]
	switch msg.Kind {
	case DeltaMessage:
		return prevTotal + coeff*msg.Delta
	default:
		return prevTotal - coeff*prevInputs[changedParent] + coeff*msg.Value
	}
}

// ComparatorInvariant outputs the non-negative violation degree of
// parent <= bound: max(0, input-bound). Used both as a RoleHardConstraint
// sink (any positive output makes a move infeasible) and, separately, as an
// ordinary aggregate feeding into an objective when a problem wants a soft
// penalty instead of a hard cutoff — the node itself is identical either
// way, only the role it is registered under in the DAG differs.
type ComparatorInvariant struct {
	parent int
	bound  int
}

// NewComparatorInvariant builds Comparator(parent <= bound).
func NewComparatorInvariant(parent, bound int) *ComparatorInvariant {
	return &ComparatorInvariant{parent: parent, bound: bound}
}

func (c *ComparatorInvariant) Name() string   { return "Comparator" }
func (c *ComparatorInvariant) Parents() []int { return []int{c.parent} }
func (c *ComparatorInvariant) FullEval(inputs map[int]int) int {
	v := inputs[c.parent] - c.bound
	if v < 0 {
		return 0
	}
	return v
}

// AndInvariant outputs 1 if every parent's value is non-zero, else 0.
type AndInvariant struct {
	parents []int
}

// NewAndInvariant builds an And node over the given parent ids.
func NewAndInvariant(parents []int) *AndInvariant {
	return &AndInvariant{parents: append([]int(nil), parents...)}
}

func (a *AndInvariant) Name() string   { return "And" }
func (a *AndInvariant) Parents() []int { return a.parents }
func (a *AndInvariant) FullEval(inputs map[int]int) int {
	for _, p := range a.parents {
		if inputs[p] == 0 {
			return 0
		}
	}
	return 1
}

// OrInvariant outputs 1 if any parent's value is non-zero, else 0.
type OrInvariant struct {
	parents []int
}

// NewOrInvariant builds an Or node over the given parent ids.
func NewOrInvariant(parents []int) *OrInvariant {
	return &OrInvariant{parents: append([]int(nil), parents...)}
}

func (o *OrInvariant) Name() string   { return "Or" }
func (o *OrInvariant) Parents() []int { return o.parents }
func (o *OrInvariant) FullEval(inputs map[int]int) int {
	for _, p := range o.parents {
		if inputs[p] != 0 {
			return 1
		}
	}
	return 0
}

// AmongInvariant outputs the count of parents whose value lies in a fixed
// value set, the numeric-aggregate sibling of AtMost/AmongUp/AmongDown.
type AmongInvariant struct {
	parents []int
	set     map[int]bool
}

// NewAmongInvariant builds an Among node counting membership in values.
func NewAmongInvariant(parents []int, values []int) *AmongInvariant {
	return &AmongInvariant{parents: append([]int(nil), parents...), set: valuesSet(values)}
}

func (a *AmongInvariant) Name() string   { return "Among" }
func (a *AmongInvariant) Parents() []int { return a.parents }
func (a *AmongInvariant) FullEval(inputs map[int]int) int {
	count := 0
	for _, p := range a.parents {
		if a.set[inputs[p]] {
			count++
		}
	}
	return count
}

// AllDifferentInvariant outputs the number of duplicate pairs among its
// parents' values — zero exactly when every value is distinct, so it
// doubles as a violation-count feeding either a hard-constraint sink or a
// penalty term.
type AllDifferentInvariant struct {
	parents []int
}

// NewAllDifferentInvariant builds an AllDifferent violation-count node.
func NewAllDifferentInvariant(parents []int) *AllDifferentInvariant {
	return &AllDifferentInvariant{parents: append([]int(nil), parents...)}
}

func (a *AllDifferentInvariant) Name() string   { return "AllDifferent" }
func (a *AllDifferentInvariant) Parents() []int { return a.parents }
func (a *AllDifferentInvariant) FullEval(inputs map[int]int) int {
	counts := make(map[int]int, len(a.parents))
	for _, p := range a.parents {
		counts[inputs[p]]++
	}
	dup := 0
	for _, c := range counts {
		if c > 1 {
			dup += c * (c - 1) / 2
		}
	}
	return dup
}

// AmongUpInvariant outputs the violation degree of "at least k of parents
// lie in values": max(0, k-count). Self-contained (unlike AmongInvariant)
// so it translates directly into the AmongUp CP constraint without needing
// a downstream Comparator to supply the bound.
type AmongUpInvariant struct {
	parents []int
	set     map[int]bool
	values  []int
	k       int
}

// NewAmongUpInvariant builds an AmongUp violation-count node: at least k of
// parents must take a value in values.
func NewAmongUpInvariant(parents []int, values []int, k int) *AmongUpInvariant {
	return &AmongUpInvariant{parents: append([]int(nil), parents...), set: valuesSet(values), values: append([]int(nil), values...), k: k}
}

func (a *AmongUpInvariant) Name() string   { return "AmongUp" }
func (a *AmongUpInvariant) Parents() []int { return a.parents }
func (a *AmongUpInvariant) FullEval(inputs map[int]int) int {
	count := 0
	for _, p := range a.parents {
		if a.set[inputs[p]] {
			count++
		}
	}
	if v := a.k - count; v > 0 {
		return v
	}
	return 0
}

// AmongDownInvariant outputs the violation degree of "at most k of parents
// lie in values": max(0, count-k).
type AmongDownInvariant struct {
	parents []int
	set     map[int]bool
	values  []int
	k       int
}

// NewAmongDownInvariant builds an AmongDown violation-count node: at most k
// of parents may take a value in values.
func NewAmongDownInvariant(parents []int, values []int, k int) *AmongDownInvariant {
	return &AmongDownInvariant{parents: append([]int(nil), parents...), set: valuesSet(values), values: append([]int(nil), values...), k: k}
}

func (a *AmongDownInvariant) Name() string   { return "AmongDown" }
func (a *AmongDownInvariant) Parents() []int { return a.parents }
func (a *AmongDownInvariant) FullEval(inputs map[int]int) int {
	count := 0
	for _, p := range a.parents {
		if a.set[inputs[p]] {
			count++
		}
	}
	if v := count - a.k; v > 0 {
		return v
	}
	return 0
}

// ElementInvariant outputs array[input(indexParent)].
type ElementInvariant struct {
	array       []int
	indexParent int
}

// NewElementInvariant builds an Element node reading the index from
// indexParent's value.
func NewElementInvariant(array []int, indexParent int) *ElementInvariant {
	return &ElementInvariant{array: append([]int(nil), array...), indexParent: indexParent}
}

func (e *ElementInvariant) Name() string   { return "Element" }
func (e *ElementInvariant) Parents() []int { return []int{e.indexParent} }
func (e *ElementInvariant) FullEval(inputs map[int]int) int {
	return e.array[inputs[e.indexParent]]
}

// IsDifferentInvariant outputs 1 if parent's value != v, else 0.
type IsDifferentInvariant struct {
	parent int
	v      int
}

// NewIsDifferentInvariant builds an IsDifferent(parent, v) node.
func NewIsDifferentInvariant(parent, v int) *IsDifferentInvariant {
	return &IsDifferentInvariant{parent: parent, v: v}
}

func (i *IsDifferentInvariant) Name() string   { return "IsDifferent" }
func (i *IsDifferentInvariant) Parents() []int { return []int{i.parent} }
func (i *IsDifferentInvariant) FullEval(inputs map[int]int) int {
	if inputs[i.parent] != i.v {
		return 1
	}
	return 0
}

// CompositeInvariant applies an arbitrary problem-supplied function over its
// parents' values in declaration order, for the ad hoc aggregates a
// problem's create_dag needs that don't fit the named invariants above (for
// instance a TSP tour-length edge lookup into a distance matrix).
type CompositeInvariant struct {
	name    string
	parents []int
	fn      func(inputs []int) int
}

// NewCompositeInvariant builds a Composite node named name over parents,
// computed by fn applied to the parents' values in the given order.
func NewCompositeInvariant(name string, parents []int, fn func(inputs []int) int) *CompositeInvariant {
	return &CompositeInvariant{name: name, parents: append([]int(nil), parents...), fn: fn}
}

func (c *CompositeInvariant) Name() string   { return c.name }
func (c *CompositeInvariant) Parents() []int { return c.parents }
func (c *CompositeInvariant) FullEval(inputs map[int]int) int {
	ordered := make([]int, len(c.parents))
	for i, p := range c.parents {
		ordered[i] = inputs[p]
	}
	return c.fn(ordered)
}

// ObjectiveInvariant wraps an upstream aggregate as the sign-normalized
// quantity local search minimizes: sign=1 passes a minimize objective
// through unchanged, sign=-1 turns a maximize objective (where higher
// upstream values are better) into the equivalent minimize framing the
// driver always optimizes against.
type ObjectiveInvariant struct {
	parent int
	sign   int
}

// NewObjectiveInvariant builds the objective sink reading parent, negated
// when sign is -1.
func NewObjectiveInvariant(parent int, sign int) *ObjectiveInvariant {
	return &ObjectiveInvariant{parent: parent, sign: sign}
}

func (o *ObjectiveInvariant) Name() string   { return "Objective" }
func (o *ObjectiveInvariant) Parents() []int { return []int{o.parent} }
func (o *ObjectiveInvariant) FullEval(inputs map[int]int) int {
	return o.sign * inputs[o.parent]
}
