package cbls

import "sort"

// Integer and boolean CP domains, grounded on fd.go's BitSet but
// refactored from a bit-vector into sparse-set form: "array
// of values, live size held in a trailed cell, and an index map for O(1)
// membership/removal". Only the live size is trailed; the backing array's
// physical layout is not, because removal's swap-to-boundary trick makes it
// self-reversing under the stack discipline save/restore already enforces
// (the same discipline fd.go's snapshot/undo relies on).

// sparseSet is the value-array + position-map structure behind IntDomain.
// Removing a value swaps it to the current live/dead boundary and shrinks
// the boundary by one; later growing the boundary back (on restore) exposes
// exactly the value that was removed, because nothing below the old
// boundary was ever touched while it was frozen.
type sparseSet struct {
	values []int
	pos    map[int]int
}

func newSparseSet(vals []int) *sparseSet {
	ss := &sparseSet{values: append([]int(nil), vals...), pos: make(map[int]int, len(vals))}
	for i, v := range ss.values {
		ss.pos[v] = i
	}
	return ss
}

func (ss *sparseSet) indexOf(v int) (int, bool) {
	i, ok := ss.pos[v]
	return i, ok
}

// removeAt swaps the value at position i to the boundary-1 slot and returns
// the new boundary (live size).
func (ss *sparseSet) removeAt(i, boundary int) int {
	last := boundary - 1
	ss.values[i], ss.values[last] = ss.values[last], ss.values[i]
	ss.pos[ss.values[i]] = i
	ss.pos[ss.values[last]] = last
	return last
}

// IntDomain is a trailed, sparse-set-backed integer domain. Negative or
// shifted ranges are representable directly (the sparse set stores actual
// values, not value-minus-offset array indices, so no separate offset field
// is needed to support them — this folds the offset the design note
// describes directly into the position map's keys).
type IntDomain struct {
	t     *Trailer
	set   *sparseSet
	sizeH Handle
}

// NewIntDomain creates a domain over the given (possibly negative, possibly
// unsorted) values, each counted once.
func NewIntDomain(t *Trailer, values []int) *IntDomain {
	seen := make(map[int]struct{}, len(values))
	uniq := make([]int, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		uniq = append(uniq, v)
	}
	sort.Ints(uniq)
	return &IntDomain{t: t, set: newSparseSet(uniq), sizeH: t.TrailedCell(len(uniq))}
}

func (d *IntDomain) liveSize() int { return d.t.Read(d.sizeH).(int) }

// Size returns the number of values currently in the domain.
func (d *IntDomain) Size() int { return d.liveSize() }

// IsBound reports whether exactly one value remains.
func (d *IntDomain) IsBound() bool { return d.liveSize() == 1 }

// Contains reports whether v is currently in the domain.
func (d *IntDomain) Contains(v int) bool {
	i, ok := d.set.indexOf(v)
	return ok && i < d.liveSize()
}

// Min returns the smallest live value. Undefined on an empty domain — an
// empty domain is an infeasibility signal the caller must have already
// observed via a false propagate return.
func (d *IntDomain) Min() int {
	sz := d.liveSize()
	m := d.set.values[0]
	for _, v := range d.set.values[1:sz] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest live value. Undefined on an empty domain.
func (d *IntDomain) Max() int {
	sz := d.liveSize()
	m := d.set.values[0]
	for _, v := range d.set.values[1:sz] {
		if v > m {
			m = v
		}
	}
	return m
}

// SingletonValue returns the sole remaining value; undefined unless IsBound.
func (d *IntDomain) SingletonValue() int { return d.set.values[0] }

// Values returns the live values in ascending order. Intended for
// enumeration (branching, move filtering) rather than hot-path propagation.
func (d *IntDomain) Values() []int {
	sz := d.liveSize()
	out := append([]int(nil), d.set.values[:sz]...)
	sort.Ints(out)
	return out
}

// Remove deletes v from the domain. Returns false (a no-op, per the trailer's
// write-same-value contract) if v was already absent.
func (d *IntDomain) Remove(v int) bool {
	sz := d.liveSize()
	i, ok := d.set.indexOf(v)
	if !ok || i >= sz {
		return false
	}
	newSz := d.set.removeAt(i, sz)
	d.t.Write(d.sizeH, newSz)
	return true
}

// Assign reduces the domain to the singleton {v}. Returns false — an
// infeasibility signal, never an exception — if v is not currently in the
// domain.
func (d *IntDomain) Assign(v int) bool {
	if !d.Contains(v) {
		return false
	}
	sz := d.liveSize()
	live := append([]int(nil), d.set.values[:sz]...)
	for _, x := range live {
		if x != v {
			d.Remove(x)
		}
	}
	return true
}

// RemoveBelow deletes every value strictly less than v. Returns true if any
// value was removed.
func (d *IntDomain) RemoveBelow(v int) bool {
	sz := d.liveSize()
	live := append([]int(nil), d.set.values[:sz]...)
	changed := false
	for _, x := range live {
		if x < v && d.Remove(x) {
			changed = true
		}
	}
	return changed
}

// RemoveAbove deletes every value strictly greater than v. Returns true if
// any value was removed.
func (d *IntDomain) RemoveAbove(v int) bool {
	sz := d.liveSize()
	live := append([]int(nil), d.set.values[:sz]...)
	changed := false
	for _, x := range live {
		if x > v && d.Remove(x) {
			changed = true
		}
	}
	return changed
}

// BoolDomain is the boolean specialization of IntDomain: two trailed "present"
// flags, one per truth value, so Assign is just "remove the opposite".
type BoolDomain struct {
	t      *Trailer
	falseH Handle
	trueH  Handle
}

// NewBoolDomain creates a domain containing both {false, true}.
func NewBoolDomain(t *Trailer) *BoolDomain {
	return &BoolDomain{t: t, falseH: t.TrailedCell(true), trueH: t.TrailedCell(true)}
}

func (d *BoolDomain) present(v bool) bool {
	if v {
		return d.t.Read(d.trueH).(bool)
	}
	return d.t.Read(d.falseH).(bool)
}

// Contains reports whether v is still present.
func (d *BoolDomain) Contains(v bool) bool { return d.present(v) }

// Size returns how many of {false, true} remain.
func (d *BoolDomain) Size() int {
	n := 0
	if d.present(false) {
		n++
	}
	if d.present(true) {
		n++
	}
	return n
}

// IsBound reports whether exactly one truth value remains.
func (d *BoolDomain) IsBound() bool { return d.Size() == 1 }

// SingletonValue returns the sole remaining truth value; undefined unless
// IsBound.
func (d *BoolDomain) SingletonValue() bool { return d.present(true) }

// Remove deletes v. Returns false if v was already absent.
func (d *BoolDomain) Remove(v bool) bool {
	if !d.present(v) {
		return false
	}
	if v {
		d.t.Write(d.trueH, false)
	} else {
		d.t.Write(d.falseH, false)
	}
	return true
}

// Assign reduces the domain to {v}. Returns false if v is not present.
func (d *BoolDomain) Assign(v bool) bool {
	if !d.present(v) {
		return false
	}
	d.Remove(!v)
	return true
}

// Domain is the uniform integer-valued view every CPVariable's domain
// store presents to the constraint library and the DFS search,
// whether it is backed by an IntDomain or a {0,1}-valued
// BoolDomain. IntDomain already satisfies this interface directly.
type Domain interface {
	Size() int
	IsBound() bool
	Contains(v int) bool
	Min() int
	Max() int
	SingletonValue() int
	Remove(v int) bool
	Assign(v int) bool
	RemoveBelow(v int) bool
	RemoveAbove(v int) bool
	Values() []int
}

// boolAsIntDomain adapts a BoolDomain to the Domain interface, encoding
// false as 0 and true as 1.
type boolAsIntDomain struct{ b *BoolDomain }

// AsIntDomain exposes a BoolDomain through the uniform integer Domain
// interface so it can back a CPVariable alongside IntDomain-backed ones.
func AsIntDomain(b *BoolDomain) Domain { return boolAsIntDomain{b: b} }

func (d boolAsIntDomain) Size() int    { return d.b.Size() }
func (d boolAsIntDomain) IsBound() bool { return d.b.IsBound() }

func (d boolAsIntDomain) Contains(v int) bool {
	switch v {
	case 0:
		return d.b.Contains(false)
	case 1:
		return d.b.Contains(true)
	default:
		return false
	}
}

func (d boolAsIntDomain) Min() int {
	if d.b.Contains(false) {
		return 0
	}
	return 1
}

func (d boolAsIntDomain) Max() int {
	if d.b.Contains(true) {
		return 1
	}
	return 0
}

func (d boolAsIntDomain) SingletonValue() int {
	if d.b.SingletonValue() {
		return 1
	}
	return 0
}

func (d boolAsIntDomain) Remove(v int) bool {
	switch v {
	case 0:
		return d.b.Remove(false)
	case 1:
		return d.b.Remove(true)
	default:
		return false
	}
}

func (d boolAsIntDomain) Assign(v int) bool {
	switch v {
	case 0:
		return d.b.Assign(false)
	case 1:
		return d.b.Assign(true)
	default:
		return false
	}
}

func (d boolAsIntDomain) RemoveBelow(v int) bool {
	if v > 0 {
		return d.b.Remove(false)
	}
	return false
}

func (d boolAsIntDomain) RemoveAbove(v int) bool {
	if v < 1 {
		return d.b.Remove(true)
	}
	return false
}

func (d boolAsIntDomain) Values() []int {
	var out []int
	if d.b.Contains(false) {
		out = append(out, 0)
	}
	if d.b.Contains(true) {
		out = append(out, 1)
	}
	return out
}
