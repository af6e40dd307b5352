package cbls

import (
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// Monitor provides lock-free statistics collection and structured logging
// for the local-search driver, mirroring fd_monitor.go's SolverMonitor:
// atomic counters so the driver never needs a lock around metrics, and
// every method is safe to call on a nil *Monitor so collaborators never
// need to branch on whether monitoring was configured.
type Monitor struct {
	log logr.Logger

	iterations     atomic.Int64
	acceptedMoves  atomic.Int64
	rejectedMoves  atomic.Int64
	improvingMoves atomic.Int64
	cpFilterCalls  atomic.Int64
	bestObjective  atomic.Int64
	bestSet        atomic.Bool
	startTime      time.Time
}

// NewMonitor builds a Monitor that logs through log. Pass logr.Discard() to
// collect statistics without emitting any log lines.
func NewMonitor(log logr.Logger) *Monitor {
	return &Monitor{log: log, startTime: time.Now()}
}

// RecordIteration records one optimize-loop iteration.
func (m *Monitor) RecordIteration() {
	if m == nil {
		return
	}
	m.iterations.Add(1)
}

// RecordMove records the outcome of one candidate move's selection.
func (m *Monitor) RecordMove(accepted bool, delta int) {
	if m == nil {
		return
	}
	if accepted {
		m.acceptedMoves.Add(1)
		if delta < 0 {
			m.improvingMoves.Add(1)
		}
	} else {
		m.rejectedMoves.Add(1)
	}
}

// RecordCPFilterCall records one move-filtering CP subsolver invocation.
func (m *Monitor) RecordCPFilterCall() {
	if m == nil {
		return
	}
	m.cpFilterCalls.Add(1)
	m.log.V(1).Info("cp move filter invoked")
}

// RecordBest updates the best objective value seen so far and logs an
// improvement.
func (m *Monitor) RecordBest(objective int) {
	if m == nil {
		return
	}
	prev := m.bestObjective.Load()
	if m.bestSet.Load() && int64(objective) >= prev {
		return
	}
	m.bestObjective.Store(int64(objective))
	m.bestSet.Store(true)
	m.log.Info("new best objective", "objective", objective, "iteration", m.iterations.Load())
}

// Stats is a point-in-time snapshot of a Monitor's counters.
type Stats struct {
	Iterations     int64
	AcceptedMoves  int64
	RejectedMoves  int64
	ImprovingMoves int64
	CPFilterCalls  int64
	BestObjective  int64
	HasBest        bool
	Elapsed        time.Duration
}

// Snapshot returns a copy of the current statistics. Safe on a nil Monitor,
// returning the zero Stats.
func (m *Monitor) Snapshot() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		Iterations:     m.iterations.Load(),
		AcceptedMoves:  m.acceptedMoves.Load(),
		RejectedMoves:  m.rejectedMoves.Load(),
		ImprovingMoves: m.improvingMoves.Load(),
		CPFilterCalls:  m.cpFilterCalls.Load(),
		BestObjective:  m.bestObjective.Load(),
		HasBest:        m.bestSet.Load(),
		Elapsed:        time.Since(m.startTime),
	}
}
