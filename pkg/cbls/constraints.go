package cbls

import "fmt"

// Concrete constraint library, grounded on among.go and element.go's
// doc-comment density and Propagate shape, and on propagation.go's
// AllDifferent for the value-elimination propagation style. Each type below
// follows the same contract: Propagate mutates attached variables through
// the *AndNotify helpers on CPVariable (so neighbour notification and
// infeasibility detection are handled uniformly), and calls SetActive(false)
// once its semantic is guaranteed to hold for the rest of the search.

// EqualConstraint enforces x == y by intersecting their domains.
type EqualConstraint struct {
	baseConstraint
	x, y *CPVariable
}

// NewEqual builds Equal(x, y) and registers it on both variables.
func NewEqual(t *Trailer, id int, x, y *CPVariable) *EqualConstraint {
	c := &EqualConstraint{baseConstraint: newBaseConstraint(t, id, "Equal", []*CPVariable{x, y}), x: x, y: y}
	x.Watch(c)
	y.Watch(c)
	return c
}

// Propagate tightens x and y to their intersection.
func (c *EqualConstraint) Propagate(ws *workSet) bool {
	for _, v := range c.x.Domain.Values() {
		if !c.y.Domain.Contains(v) {
			if !c.x.RemoveAndNotify(ws, v, c) {
				return false
			}
		}
	}
	for _, v := range c.y.Domain.Values() {
		if !c.x.Domain.Contains(v) {
			if !c.y.RemoveAndNotify(ws, v, c) {
				return false
			}
		}
	}
	if c.x.Domain.IsBound() && c.y.Domain.IsBound() {
		c.SetActive(false)
	}
	return true
}

// NotEqualConstraint enforces x != y.
type NotEqualConstraint struct {
	baseConstraint
	x, y *CPVariable
}

// NewNotEqual builds NotEqual(x, y) and registers it on both variables.
func NewNotEqual(t *Trailer, id int, x, y *CPVariable) *NotEqualConstraint {
	c := &NotEqualConstraint{baseConstraint: newBaseConstraint(t, id, "NotEqual", []*CPVariable{x, y}), x: x, y: y}
	x.Watch(c)
	y.Watch(c)
	return c
}

// Propagate removes a bound variable's value from the other variable's
// domain.
func (c *NotEqualConstraint) Propagate(ws *workSet) bool {
	if c.x.Domain.IsBound() {
		if !c.y.RemoveAndNotify(ws, c.x.Domain.SingletonValue(), c) {
			return false
		}
	}
	if c.y.Domain.IsBound() {
		if !c.x.RemoveAndNotify(ws, c.y.Domain.SingletonValue(), c) {
			return false
		}
	}
	if c.x.Domain.IsBound() && c.y.Domain.IsBound() {
		if c.x.Domain.SingletonValue() == c.y.Domain.SingletonValue() {
			return false
		}
		c.SetActive(false)
	}
	return true
}

// OrConstraint enforces b ⇔ (x1 ∨ x2 ∨ ... ∨ xn) over {0,1}-valued
// variables.
type OrConstraint struct {
	baseConstraint
	xs []*CPVariable
	b  *CPVariable
}

// NewOr builds Or(x1,...,xn,b) and registers it on every variable.
func NewOr(t *Trailer, id int, xs []*CPVariable, b *CPVariable) *OrConstraint {
	vars := append(append([]*CPVariable(nil), xs...), b)
	c := &OrConstraint{baseConstraint: newBaseConstraint(t, id, "Or", vars), xs: xs, b: b}
	for _, v := range vars {
		v.Watch(c)
	}
	return c
}

// Propagate implements the Or semantics bidirectionally.
func (c *OrConstraint) Propagate(ws *workSet) bool {
	trueCount, unresolved := 0, 0
	for _, x := range c.xs {
		if x.Domain.IsBound() {
			if x.Domain.SingletonValue() == 1 {
				trueCount++
			}
		} else {
			unresolved++
		}
	}
	if trueCount > 0 {
		if !c.b.AssignAndNotify(ws, 1, c) {
			return false
		}
	}
	if trueCount == 0 && unresolved == 0 {
		if !c.b.AssignAndNotify(ws, 0, c) {
			return false
		}
	}
	if c.b.Domain.IsBound() {
		if c.b.Domain.SingletonValue() == 0 {
			for _, x := range c.xs {
				if !x.AssignAndNotify(ws, 0, c) {
					return false
				}
			}
			c.SetActive(false)
		} else {
			if trueCount == 0 && unresolved == 1 {
				for _, x := range c.xs {
					if !x.Domain.IsBound() {
						if !x.AssignAndNotify(ws, 1, c) {
							return false
						}
					}
				}
			}
			if trueCount > 0 {
				c.SetActive(false)
			}
		}
	}
	return true
}

// AndConstraint enforces b ⇔ (x1 ∧ x2 ∧ ... ∧ xn) over {0,1}-valued
// variables.
type AndConstraint struct {
	baseConstraint
	xs []*CPVariable
	b  *CPVariable
}

// NewAnd builds And(x1,...,xn,b) and registers it on every variable.
func NewAnd(t *Trailer, id int, xs []*CPVariable, b *CPVariable) *AndConstraint {
	vars := append(append([]*CPVariable(nil), xs...), b)
	c := &AndConstraint{baseConstraint: newBaseConstraint(t, id, "And", vars), xs: xs, b: b}
	for _, v := range vars {
		v.Watch(c)
	}
	return c
}

// Propagate implements the And semantics bidirectionally.
func (c *AndConstraint) Propagate(ws *workSet) bool {
	falseCount, unresolved := 0, 0
	for _, x := range c.xs {
		if x.Domain.IsBound() {
			if x.Domain.SingletonValue() == 0 {
				falseCount++
			}
		} else {
			unresolved++
		}
	}
	if falseCount > 0 {
		if !c.b.AssignAndNotify(ws, 0, c) {
			return false
		}
	}
	if falseCount == 0 && unresolved == 0 {
		if !c.b.AssignAndNotify(ws, 1, c) {
			return false
		}
	}
	if c.b.Domain.IsBound() {
		if c.b.Domain.SingletonValue() == 1 {
			for _, x := range c.xs {
				if !x.AssignAndNotify(ws, 1, c) {
					return false
				}
			}
			c.SetActive(false)
		} else {
			if falseCount == 0 && unresolved == 1 {
				for _, x := range c.xs {
					if !x.Domain.IsBound() {
						if !x.AssignAndNotify(ws, 0, c) {
							return false
						}
					}
				}
			}
			if falseCount > 0 {
				c.SetActive(false)
			}
		}
	}
	return true
}

// IsDifferentConstraint enforces b ⇔ (x != v) for a fixed constant v.
type IsDifferentConstraint struct {
	baseConstraint
	x    *CPVariable
	v    int
	b    *CPVariable
}

// NewIsDifferent builds IsDifferent(x, v, b).
func NewIsDifferent(t *Trailer, id int, x *CPVariable, v int, b *CPVariable) *IsDifferentConstraint {
	c := &IsDifferentConstraint{baseConstraint: newBaseConstraint(t, id, "IsDifferent", []*CPVariable{x, b}), x: x, v: v, b: b}
	x.Watch(c)
	b.Watch(c)
	return c
}

// Propagate implements the IsDifferent semantics bidirectionally.
func (c *IsDifferentConstraint) Propagate(ws *workSet) bool {
	if c.x.Domain.IsBound() {
		want := 1
		if c.x.Domain.SingletonValue() == c.v {
			want = 0
		}
		if !c.b.AssignAndNotify(ws, want, c) {
			return false
		}
		c.SetActive(false)
		return true
	}
	if c.b.Domain.IsBound() {
		if c.b.Domain.SingletonValue() == 0 {
			if !c.x.AssignAndNotify(ws, c.v, c) {
				return false
			}
			c.SetActive(false)
		} else {
			if !c.x.RemoveAndNotify(ws, c.v, c) {
				return false
			}
			if !c.x.Domain.Contains(c.v) {
				c.SetActive(false)
			}
		}
	}
	return true
}

// floorDiv and ceilDiv implement division rounding toward -Inf/+Inf,
// matching Go's truncating "/" only for same-sign operands; scalar-product
// bounds reasoning needs the rounding direction to stay sound for all signs.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}

// ScalarProductConstraint enforces y = Σ coeffs[i]*xs[i] with bounds
// propagation in both directions.
type ScalarProductConstraint struct {
	baseConstraint
	coeffs []int
	xs     []*CPVariable
	y      *CPVariable
}

// NewScalarProduct builds ScalarProduct(coeffs, xs, y); len(coeffs) must
// equal len(xs).
func NewScalarProduct(t *Trailer, id int, coeffs []int, xs []*CPVariable, y *CPVariable) (*ScalarProductConstraint, error) {
	if len(coeffs) != len(xs) {
		return nil, fmt.Errorf("cbls: ScalarProduct needs len(coeffs)==len(xs), got %d/%d", len(coeffs), len(xs))
	}
	vars := append(append([]*CPVariable(nil), xs...), y)
	c := &ScalarProductConstraint{
		baseConstraint: newBaseConstraint(t, id, "ScalarProduct", vars),
		coeffs:         append([]int(nil), coeffs...),
		xs:             xs,
		y:              y,
	}
	for _, v := range vars {
		v.Watch(c)
	}
	return c, nil
}

func (c *ScalarProductConstraint) termBounds(i int) (lo, hi int) {
	x := c.xs[i]
	coeff := c.coeffs[i]
	if coeff >= 0 {
		return coeff * x.Domain.Min(), coeff * x.Domain.Max()
	}
	return coeff * x.Domain.Max(), coeff * x.Domain.Min()
}

// Propagate tightens y from the aggregate bound of all terms, then tightens
// each xi from y's bound and the other terms' bounds (bounds consistency).
func (c *ScalarProductConstraint) Propagate(ws *workSet) bool {
	n := len(c.xs)
	los := make([]int, n)
	his := make([]int, n)
	sumLo, sumHi := 0, 0
	for i := range c.xs {
		los[i], his[i] = c.termBounds(i)
		sumLo += los[i]
		sumHi += his[i]
	}
	if !c.y.RemoveBelowAndNotify(ws, sumLo, c) {
		return false
	}
	if !c.y.RemoveAboveAndNotify(ws, sumHi, c) {
		return false
	}
	for i, x := range c.xs {
		coeff := c.coeffs[i]
		if coeff == 0 {
			continue
		}
		restLo := sumLo - los[i]
		restHi := sumHi - his[i]
		termLo := c.y.Domain.Min() - restHi
		termHi := c.y.Domain.Max() - restLo
		var xLo, xHi int
		if coeff > 0 {
			xLo, xHi = ceilDiv(termLo, coeff), floorDiv(termHi, coeff)
		} else {
			xLo, xHi = ceilDiv(termHi, coeff), floorDiv(termLo, coeff)
		}
		if !x.RemoveBelowAndNotify(ws, xLo, c) {
			return false
		}
		if !x.RemoveAboveAndNotify(ws, xHi, c) {
			return false
		}
	}
	allBound := c.y.Domain.IsBound()
	for _, x := range c.xs {
		allBound = allBound && x.Domain.IsBound()
	}
	if allBound {
		c.SetActive(false)
	}
	return true
}

// NewSum builds the Sum(xs) = y specialization of ScalarProduct with all
// coefficients equal to one.
func NewSum(t *Trailer, id int, xs []*CPVariable, y *CPVariable) (*ScalarProductConstraint, error) {
	coeffs := make([]int, len(xs))
	for i := range coeffs {
		coeffs[i] = 1
	}
	return NewScalarProduct(t, id, coeffs, xs, y)
}

// ComparatorConstraint enforces a hard upper bound agg <= bound on a single
// aggregate variable. The soft, penalty-valued sibling of this constraint
// lives in the DAG as ComparatorInvariant; this CP-side constraint
// only ever behaves as a hard bound because CP constraints gate move
// feasibility, never objective value.
type ComparatorConstraint struct {
	baseConstraint
	agg   *CPVariable
	bound int
}

// NewComparator builds Comparator(agg <= bound).
func NewComparator(t *Trailer, id int, agg *CPVariable, bound int) *ComparatorConstraint {
	c := &ComparatorConstraint{baseConstraint: newBaseConstraint(t, id, "Comparator", []*CPVariable{agg}), agg: agg, bound: bound}
	agg.Watch(c)
	return c
}

// Propagate clamps agg's domain to <= bound.
func (c *ComparatorConstraint) Propagate(ws *workSet) bool {
	if !c.agg.RemoveAboveAndNotify(ws, c.bound, c) {
		return false
	}
	if c.agg.Domain.Max() <= c.bound {
		c.SetActive(false)
	}
	return true
}

// ElementConstraint enforces out = array[index], with index values in
// [0, len(array)-1].
type ElementConstraint struct {
	baseConstraint
	index, out *CPVariable
	array      []int
}

// NewElement builds Element(array, index, out).
func NewElement(t *Trailer, id int, array []int, index, out *CPVariable) (*ElementConstraint, error) {
	if len(array) == 0 {
		return nil, fmt.Errorf("cbls: Element requires a non-empty array")
	}
	c := &ElementConstraint{
		baseConstraint: newBaseConstraint(t, id, "Element", []*CPVariable{index, out}),
		index:          index, out: out, array: append([]int(nil), array...),
	}
	index.Watch(c)
	out.Watch(c)
	return c, nil
}

// Propagate filters index and out bidirectionally against the fixed table.
func (c *ElementConstraint) Propagate(ws *workSet) bool {
	n := len(c.array)
	if !c.index.RemoveBelowAndNotify(ws, 0, c) {
		return false
	}
	if !c.index.RemoveAboveAndNotify(ws, n-1, c) {
		return false
	}
	allowed := make(map[int]bool)
	for _, i := range c.index.Domain.Values() {
		allowed[c.array[i]] = true
	}
	for _, v := range c.out.Domain.Values() {
		if !allowed[v] {
			if !c.out.RemoveAndNotify(ws, v, c) {
				return false
			}
		}
	}
	for _, i := range c.index.Domain.Values() {
		if !c.out.Domain.Contains(c.array[i]) {
			if !c.index.RemoveAndNotify(ws, i, c) {
				return false
			}
		}
	}
	if c.index.Domain.IsBound() {
		c.SetActive(false)
	}
	return true
}

// setMembership classifies a variable against a value set S used by AtMost
// and the Among family: mandatory means domain(x) ⊆ S, possible means
// domain(x) ∩ S != ∅.
func setMembership(x *CPVariable, set map[int]bool) (mandatory, possible bool) {
	vals := x.Domain.Values()
	inSet := 0
	for _, v := range vals {
		if set[v] {
			inSet++
		}
	}
	return len(vals) > 0 && inSet == len(vals), inSet > 0
}

func valuesSet(values []int) map[int]bool {
	s := make(map[int]bool, len(values))
	for _, v := range values {
		s[v] = true
	}
	return s
}

// AtMostConstraint enforces that at most k of xs take a value in S.
type AtMostConstraint struct {
	baseConstraint
	xs  []*CPVariable
	set map[int]bool
	k   int
}

// NewAtMost builds AtMost(xs, S, k).
func NewAtMost(t *Trailer, id int, xs []*CPVariable, values []int, k int) *AtMostConstraint {
	c := &AtMostConstraint{baseConstraint: newBaseConstraint(t, id, "AtMost", xs), xs: xs, set: valuesSet(values), k: k}
	for _, v := range xs {
		v.Watch(c)
	}
	return c
}

// Propagate forbids S on every variable once the mandatory count reaches k.
func (c *AtMostConstraint) Propagate(ws *workSet) bool {
	mandatory := 0
	for _, x := range c.xs {
		m, _ := setMembership(x, c.set)
		if m {
			mandatory++
		}
	}
	if mandatory > c.k {
		return false
	}
	if mandatory == c.k {
		for _, x := range c.xs {
			m, p := setMembership(x, c.set)
			if m || !p {
				continue
			}
			for _, v := range x.Domain.Values() {
				if c.set[v] {
					if !x.RemoveAndNotify(ws, v, c) {
						return false
					}
				}
			}
		}
		c.SetActive(false)
	}
	return true
}

// AmongUpConstraint enforces that at least k of xs take a value in S.
type AmongUpConstraint struct {
	baseConstraint
	xs  []*CPVariable
	set map[int]bool
	k   int
}

// NewAmongUp builds AmongUp(xs, S, k): |{i : xs[i] ∈ S}| >= k.
func NewAmongUp(t *Trailer, id int, xs []*CPVariable, values []int, k int) *AmongUpConstraint {
	c := &AmongUpConstraint{baseConstraint: newBaseConstraint(t, id, "AmongUp", xs), xs: xs, set: valuesSet(values), k: k}
	for _, v := range xs {
		v.Watch(c)
	}
	return c
}

// Propagate forces every possible-in-S variable into S once the possible
// count falls to exactly k.
func (c *AmongUpConstraint) Propagate(ws *workSet) bool {
	possible := 0
	for _, x := range c.xs {
		_, p := setMembership(x, c.set)
		if p {
			possible++
		}
	}
	if possible < c.k {
		return false
	}
	if possible == c.k {
		for _, x := range c.xs {
			m, p := setMembership(x, c.set)
			if !p || m {
				continue
			}
			for _, v := range x.Domain.Values() {
				if !c.set[v] {
					if !x.RemoveAndNotify(ws, v, c) {
						return false
					}
				}
			}
		}
		c.SetActive(false)
	}
	return true
}

// AmongDownConstraint enforces that at most k of xs take a value in S. It is
// AtMost's one-sided-Among twin, kept as a distinct named type to match the
// vocabulary of the constraint library.
type AmongDownConstraint struct {
	AtMostConstraint
}

// NewAmongDown builds AmongDown(xs, S, k): |{i : xs[i] ∈ S}| <= k.
func NewAmongDown(t *Trailer, id int, xs []*CPVariable, values []int, k int) *AmongDownConstraint {
	inner := NewAtMost(t, id, xs, values, k)
	inner.name = "AmongDown"
	return &AmongDownConstraint{AtMostConstraint: *inner}
}

// AllDifferentConstraint enforces pairwise distinctness over xs via value
// elimination: once a variable is bound, its value is removed from every
// other variable.
type AllDifferentConstraint struct {
	baseConstraint
	xs []*CPVariable
}

// NewAllDifferent builds AllDifferent(xs).
func NewAllDifferent(t *Trailer, id int, xs []*CPVariable) *AllDifferentConstraint {
	c := &AllDifferentConstraint{baseConstraint: newBaseConstraint(t, id, "AllDifferent", xs), xs: xs}
	for _, v := range xs {
		v.Watch(c)
	}
	return c
}

// Propagate removes every bound value from the remaining unbound variables.
func (c *AllDifferentConstraint) Propagate(ws *workSet) bool {
	for _, x := range c.xs {
		if !x.Domain.IsBound() {
			continue
		}
		v := x.Domain.SingletonValue()
		for _, y := range c.xs {
			if y == x {
				continue
			}
			if !y.RemoveAndNotify(ws, v, c) {
				return false
			}
		}
	}
	allBound := true
	for _, x := range c.xs {
		if !x.Domain.IsBound() {
			allBound = false
			break
		}
	}
	if allBound {
		c.SetActive(false)
	}
	return true
}
