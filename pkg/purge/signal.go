package purge

import "sync"

// State is the engine's position in the trigger state machine.
type State int32

const (
	StateIdle State = iota
	StatePending
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// signal is a single-slot wake-up. The buffered channel holds at most one
// token because only the Idle->Pending transition sends.
type signal struct {
	mu     sync.Mutex
	state  State
	closed bool
	wake   chan struct{}
}

func newSignal() *signal {
	return &signal{wake: make(chan struct{}, 1)}
}

// fire moves Idle to Pending and reports whether it did.
func (s *signal) fire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateIdle {
		return false
	}
	s.state = StatePending
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// begin moves Pending to Running once the worker has consumed the token.
func (s *signal) begin() {
	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()
}

// done moves Running back to Idle.
func (s *signal) done() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

func (s *signal) current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// close makes every later fire a no-op.
func (s *signal) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
