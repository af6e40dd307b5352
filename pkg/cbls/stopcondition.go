package cbls

import "time"

// StopCondition decides, at each iteration boundary of the optimize loop,
// whether local search should stop. Implementations must be safe to poll
// many times per second; none of the ones below allocate on Check.
type StopCondition interface {
	Check(iteration int, elapsed time.Duration) bool
	Reset()
}

// iterationLimit stops after a fixed number of iterations.
type iterationLimit struct {
	max int
}

// IterationLimit builds a StopCondition that stops once iteration reaches n.
func IterationLimit(n int) StopCondition { return &iterationLimit{max: n} }

func (s *iterationLimit) Check(iteration int, _ time.Duration) bool { return iteration >= s.max }
func (s *iterationLimit) Reset()                                    {}

// timeLimit stops once the optimize loop's wall clock exceeds d.
type timeLimit struct {
	d time.Duration
}

// TimeLimit builds a StopCondition that stops after seconds have elapsed
// since the optimize loop started.
func TimeLimit(seconds float64) StopCondition {
	return &timeLimit{d: time.Duration(seconds * float64(time.Second))}
}

func (s *timeLimit) Check(_ int, elapsed time.Duration) bool { return elapsed >= s.d }
func (s *timeLimit) Reset()                                  {}

// AnyOf stops as soon as any of the given conditions would stop.
func AnyOf(conditions ...StopCondition) StopCondition { return anyOf(conditions) }

type anyOf []StopCondition

func (a anyOf) Check(iteration int, elapsed time.Duration) bool {
	for _, c := range a {
		if c.Check(iteration, elapsed) {
			return true
		}
	}
	return false
}

func (a anyOf) Reset() {
	for _, c := range a {
		c.Reset()
	}
}
