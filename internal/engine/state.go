package engine

import "sync/atomic"

// State is the driver's phase. Transitions only move forward.
type State int32

const (
	StateInitializing State = iota
	StateCopying
	StateFlushing
	StateDone
)

var stateNames = [...]string{
	StateInitializing: "initializing",
	StateCopying:      "copying",
	StateFlushing:     "flushing",
	StateDone:         "done",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// stateVar holds the current State with atomic access, so log lines from
// any goroutine can name the phase.
type stateVar struct {
	v atomic.Int32
}

func (s *stateVar) Get() State {
	return State(s.v.Load())
}

func (s *stateVar) Set(st State) {
	s.v.Store(int32(st))
}
