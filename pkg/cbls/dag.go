package cbls

import "fmt"

// The incremental evaluation DAG: a directed acyclic graph of invariant
// nodes computing numeric aggregates (sums, scalar products, violation
// counts) over decision variables, built so that a single variable change
// only recomputes the nodes actually downstream of it instead of the whole
// graph. Grounded on fd_solver.go's VariableMapper translation pass and on
// propagation.go's constraint-graph shape, adapted from boolean
// arc-consistency into numeric incremental evaluation: every node holds one
// integer value, derived from its parents' values by its Invariant.

// MessageKind tags whether a propagated Message carries a freshly computed
// full value or a signed delta against the previous one. Evaluate always
// sends a FullMessage carrying the changed parent's new value; the EvalDelta
// methods of Sum and ScalarProduct also accept a DeltaMessage.
type MessageKind int

const (
	// FullMessage carries a node's complete new value.
	FullMessage MessageKind = iota
	// DeltaMessage carries a signed change to apply to a node's current value.
	DeltaMessage
)

// Message is what one graph edge carries during an evaluation pass.
type Message struct {
	Kind  MessageKind
	Value int // new value, if Kind == FullMessage
	Delta int // signed change, if Kind == DeltaMessage
}

// Invariant is the per-node computation contract. A node reads the current
// values of its declared parents (variables and/or other invariant nodes,
// addressed by global id) and produces its own value.
type Invariant interface {
	// Name identifies the invariant kind for diagnostics.
	Name() string
	// Parents returns the global ids this node reads from. Variable i has
	// global id i; invariant node j has global id numVariables+j.
	Parents() []int
	// FullEval computes the node's value from scratch given the current
	// values of every id in Parents(), looked up in inputs.
	FullEval(inputs map[int]int) int
}

// DeltaInvariant is an optional refinement an Invariant may also implement:
// given the previous full input values, the changed parent id, and the
// message on that edge, compute the node's new value. The implementations
// in this package (Sum, ScalarProduct) recompute the previous total from
// every previous input first, so this path still reads every parent. The
// DAG falls back to FullEval when an invariant does not implement this.
type DeltaInvariant interface {
	Invariant
	EvalDelta(prevInputs map[int]int, changedParent int, msg Message) int
}

// NodeRole distinguishes the one designated objective sink, zero or more
// hard-constraint sinks (each expected to output a non-negative violation
// count, zero meaning satisfied), and ordinary intermediate nodes.
type NodeRole int

const (
	// RolePlain is an ordinary intermediate aggregate.
	RolePlain NodeRole = iota
	// RoleObjective marks the single node whose value is the quantity local
	// search minimizes or maximizes.
	RoleObjective
	// RoleHardConstraint marks a node whose positive value means a move is
	// infeasible regardless of its objective delta.
	RoleHardConstraint
)

type dagNode struct {
	id         int // global id, numVariables + index into DAG.nodes
	invariant  Invariant
	role       NodeRole
	cpRelevant bool
	children   []int // global ids of nodes that read this node
}

// DAG is the incremental evaluation graph over a fixed set of decision
// variables. Nodes are added in topological order; AddInvariant rejects a
// node whose declared parents are not all already present, which is what
// keeps insertion order equal to topological order without a separate sort.
type DAG struct {
	variables []*DecisionVariable
	nodes     []*dagNode
	values    []int // index 0..nVars-1: variable values; nVars+i: nodes[i]'s value
	objective int    // global id of the objective node, -1 until set
	varReaders map[int][]int // variable global id -> node global ids that read it directly
}

// NewDAG creates an empty graph over the given variables, in variable-index
// order. Variable i occupies global id i.
func NewDAG(variables []*DecisionVariable) *DAG {
	return &DAG{
		variables:  append([]*DecisionVariable(nil), variables...),
		objective:  -1,
		varReaders: make(map[int][]int),
	}
}

func (d *DAG) numVars() int { return len(d.variables) }

// AddInvariant appends a node computing inv, wired to role and cpRelevant
// (cpRelevant marks nodes the CP model builder translates into CP
// variables/constraints for move filtering). Returns the new node's global
// id. Every id in inv.Parents() must already exist in the graph (a variable
// id, or an earlier AddInvariant's returned id) — this is what guarantees
// the graph stays acyclic and insertion order is topological.
func (d *DAG) AddInvariant(inv Invariant, role NodeRole, cpRelevant bool) (int, error) {
	id := d.numVars() + len(d.nodes)
	for _, p := range inv.Parents() {
		if p >= id {
			return -1, fmt.Errorf("%w: node %q depends on id %d which has not been added yet", ErrCyclicGraph, inv.Name(), p)
		}
	}
	node := &dagNode{id: id, invariant: inv, role: role, cpRelevant: cpRelevant}
	d.nodes = append(d.nodes, node)
	for _, p := range inv.Parents() {
		if parentNode := d.nodeByID(p); parentNode != nil {
			parentNode.children = append(parentNode.children, id)
		} else {
			d.varReaders[p] = append(d.varReaders[p], id)
		}
	}
	if role == RoleObjective {
		if d.objective != -1 {
			return -1, ErrMultipleObjectiveSinks
		}
		d.objective = id
	}
	return id, nil
}

func (d *DAG) nodeByID(id int) *dagNode {
	if id < d.numVars() {
		return nil
	}
	return d.nodes[id-d.numVars()]
}

func variableAsInt(v DecisionValue) int {
	switch v.Kind {
	case IntValue:
		return v.Int
	case BoolValue:
		if v.Bool {
			return 1
		}
		return 0
	default:
		panic("cbls: DAG invariants require Int- or Bool-valued decision variables")
	}
}

// Init validates the graph (exactly one objective sink) and computes every
// node's initial value from the variables' current values.
func (d *DAG) Init() error {
	if d.objective == -1 {
		return ErrNoObjectiveSink
	}
	d.values = make([]int, d.numVars()+len(d.nodes))
	for i, v := range d.variables {
		d.values[i] = variableAsInt(v.Value())
	}
	for _, n := range d.nodes {
		inputs := d.gatherInputs(n.invariant.Parents(), nil)
		d.values[n.id] = n.invariant.FullEval(inputs)
	}
	return nil
}

// evalNode computes n's new value given the pending shadow changes,
// negotiating full vs delta per edge: when exactly one of n's parents
// changed and the invariant implements DeltaInvariant, EvalDelta receives
// the parents' committed values and a FullMessage with the changed parent's
// new value. Any other shape (zero or several parents changed, or the
// invariant has no delta form) falls back to FullEval over the shadowed
// inputs. Both paths gather the values of all of n's parents.
func (d *DAG) evalNode(n *dagNode, shadow map[int]int) int {
	parents := n.invariant.Parents()
	di, hasDelta := n.invariant.(DeltaInvariant)
	if hasDelta {
		changedParent, changedCount := -1, 0
		for _, p := range parents {
			if _, ok := shadow[p]; ok {
				changedCount++
				changedParent = p
			}
		}
		if changedCount == 1 {
			prevInputs := d.gatherInputs(parents, nil)
			msg := Message{Kind: FullMessage, Value: shadow[changedParent]}
			return di.EvalDelta(prevInputs, changedParent, msg)
		}
	}
	return n.invariant.FullEval(d.gatherInputs(parents, shadow))
}

func (d *DAG) gatherInputs(ids []int, shadow map[int]int) map[int]int {
	out := make(map[int]int, len(ids))
	for _, id := range ids {
		if shadow != nil {
			if v, ok := shadow[id]; ok {
				out[id] = v
				continue
			}
		}
		out[id] = d.values[id]
	}
	return out
}

// ObjectiveValue returns the last committed value of the objective sink.
func (d *DAG) ObjectiveValue() int { return d.values[d.objective] }

// CPRelevantNodes returns the global ids flagged cpRelevant at AddInvariant
// time, in insertion order. The CP model builder uses this to decide which
// aggregates need a mirrored CP variable.
func (d *DAG) CPRelevantNodes() []int {
	var ids []int
	for _, n := range d.nodes {
		if n.cpRelevant {
			ids = append(ids, n.id)
		}
	}
	return ids
}

// PendingEvaluation is the speculative result of Evaluate: the new values a
// move would produce, not yet applied to the graph. Commit makes it
// permanent; discarding it (never calling Commit) leaves the DAG untouched.
type PendingEvaluation struct {
	move   Move
	shadow map[int]int // global id -> new value, only for ids that actually changed
}

// Evaluate computes, without mutating the DAG, what applying move would do:
// the signed change to the objective sink, and whether any hard-constraint
// sink would end up positive. The returned PendingEvaluation can be handed
// to Commit to apply it, or simply discarded.
func (d *DAG) Evaluate(move Move) (EvaluatedMove, *PendingEvaluation) {
	shadow := make(map[int]int)
	frontier := make([]int, 0, len(move.Assignments()))
	for _, a := range move.Assignments() {
		varID := d.variables[a.VariableIndex].Index
		newVal := variableAsInt(a.Value)
		if newVal == d.values[varID] {
			continue
		}
		shadow[varID] = newVal
		frontier = append(frontier, varID)
	}

	affected := d.downstreamClosure(frontier)
	for _, id := range affected {
		n := d.nodeByID(id)
		newVal := d.evalNode(n, shadow)
		if newVal != d.values[id] {
			shadow[id] = newVal
		}
	}

	delta := 0
	if v, ok := shadow[d.objective]; ok {
		delta = v - d.values[d.objective]
	}
	infeasible := false
	for _, n := range d.nodes {
		if n.role != RoleHardConstraint {
			continue
		}
		v := d.values[n.id]
		if sv, ok := shadow[n.id]; ok {
			v = sv
		}
		if v > 0 {
			infeasible = true
			break
		}
	}

	em := EvaluatedMove{Move: move, Delta: delta, Infeasible: infeasible}
	return em, &PendingEvaluation{move: move, shadow: shadow}
}

// downstreamClosure returns every node id reachable from the given changed
// variable/node ids, in topological (insertion) order, via a single forward
// sweep — sound because the graph is acyclic and nodes are stored
// topologically sorted already.
func (d *DAG) downstreamClosure(changed []int) []int {
	reached := make(map[int]bool, len(changed))
	queue := append([]int(nil), changed...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		var children []int
		if n := d.nodeByID(id); n != nil {
			children = n.children
		} else {
			children = d.varReaders[id]
		}
		for _, c := range children {
			if !reached[c] {
				reached[c] = true
				queue = append(queue, c)
			}
		}
	}
	var order []int
	for _, n := range d.nodes {
		if reached[n.id] {
			order = append(order, n.id)
		}
	}
	return order
}

// Commit applies a PendingEvaluation's shadow values permanently and
// updates the affected DecisionVariables' current values to match the move
// that produced it.
func (d *DAG) Commit(p *PendingEvaluation) error {
	for id, v := range p.shadow {
		d.values[id] = v
	}
	for _, a := range p.move.Assignments() {
		if a.VariableIndex < 0 || a.VariableIndex >= len(d.variables) {
			return fmt.Errorf("%w: %d", ErrUnknownVariable, a.VariableIndex)
		}
		if err := d.variables[a.VariableIndex].SetValue(a.Value); err != nil {
			return err
		}
	}
	return nil
}
