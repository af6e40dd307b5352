package cbls

// The reversible-state trailer. Grounded on fd.go's
// trail []FDChange / snapshot() / undo() trio, generalized from the
// FD-specific FDChange{vid, domain} entry into a
// generic arena of trailed cells (an arena+index design) so the
// same mechanism backs both integer/boolean domains and CPConstraint.active
// flags.

// trailedCell is one reversible memory location. handle indexes directly
// into Trailer.cells; the value itself is an opaque any so the same arena
// serves domains, booleans, and counters.
type trailedCell struct {
	value any
}

// trailEntry records the previous value of a cell at the moment a write
// changed it. Entries are pushed in the order writes occur and popped in
// reverse by restore, giving LIFO undo.
type trailEntry struct {
	handle int
	prev   any
}

// Trailer is a reversible-state stack. It owns an arena of trailed cells and
// a LIFO trail of (handle, previous value) entries recording every write
// that changed a cell since the last matching save. Writing the same value
// is a no-op and pushes nothing, which keeps the trail's cost linear in the
// number of distinct changes rather than the number of write calls.
type Trailer struct {
	cells      []trailedCell
	trail      []trailEntry
	checkpoint []int // stack of trail heights pushed by save()
}

// NewTrailer returns an empty Trailer.
func NewTrailer() *Trailer {
	return &Trailer{}
}

// Handle references one trailed cell.
type Handle int

// TrailedCell allocates a new reversible cell holding initial, returning a
// handle for Read/Write. Allocation itself is never undone by restore: cells
// created mid-search simply keep existing after a restore, holding whatever
// value they held at trail time. Problems should allocate all cells they
// need before entering search.
func (t *Trailer) TrailedCell(initial any) Handle {
	t.cells = append(t.cells, trailedCell{value: initial})
	return Handle(len(t.cells) - 1)
}

// Read returns the current value of the cell referenced by h.
func (t *Trailer) Read(h Handle) any {
	return t.cells[h].value
}

// Write sets the cell referenced by h to value. If value already equals the
// cell's current value (by ==, which is sufficient for the comparable
// payloads the CP layer stores: ints, bools, small structs), Write is a
// no-op. Otherwise it pushes the previous value onto the trail so a later
// restore can undo it.
func (t *Trailer) Write(h Handle, value any) {
	cur := t.cells[h].value
	if cur == value {
		return
	}
	t.trail = append(t.trail, trailEntry{handle: int(h), prev: cur})
	t.cells[h].value = value
}

// Checkpoint is an opaque marker returned by Save and consumed by RestoreTo.
type Checkpoint int

// Save records the current trail height as a checkpoint. Save/restore pairs
// nest and must balance across any public CP entry point.
func (t *Trailer) Save() Checkpoint {
	cp := Checkpoint(len(t.trail))
	t.checkpoint = append(t.checkpoint, int(cp))
	return cp
}

// Restore pops to the most recent Save, undoing every write made since it in
// reverse order. Calling Restore with no matching Save is a programming
// violation.
func (t *Trailer) Restore() error {
	if len(t.checkpoint) == 0 {
		return ErrUnbalancedTrail
	}
	n := len(t.checkpoint)
	to := t.checkpoint[n-1]
	t.checkpoint = t.checkpoint[:n-1]
	t.unwindTo(to)
	return nil
}

// RestoreToRoot undoes every write ever made, regardless of save depth, and
// clears the checkpoint stack. (FilterMoves itself restores with RestoreTo
// on the checkpoint it saved on entry.)
func (t *Trailer) RestoreToRoot() {
	t.unwindTo(0)
	t.checkpoint = t.checkpoint[:0]
}

// RestoreTo undoes writes back to an explicit checkpoint without requiring
// it to be the top of the save stack; any nested checkpoints above it are
// discarded. This backs restoring to the initial state: the chosen behavior
// is "restore to the very first checkpoint, once", not "restore once more
// past empty prior" — see DESIGN.md for the rationale.
func (t *Trailer) RestoreTo(cp Checkpoint) {
	t.unwindTo(int(cp))
	for len(t.checkpoint) > 0 && t.checkpoint[len(t.checkpoint)-1] >= int(cp) {
		t.checkpoint = t.checkpoint[:len(t.checkpoint)-1]
	}
}

func (t *Trailer) unwindTo(to int) {
	for i := len(t.trail) - 1; i >= to; i-- {
		e := t.trail[i]
		t.cells[e.handle].value = e.prev
	}
	t.trail = t.trail[:to]
}

// Depth returns the number of currently nested Save calls, useful for
// assertions that save/restore pairs balanced across a call.
func (t *Trailer) Depth() int { return len(t.checkpoint) }

// TrailSize returns the number of pending undo entries, exposed for
// SolverMonitor-style metrics.
func (t *Trailer) TrailSize() int { return len(t.trail) }
