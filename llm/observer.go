package llm

// State is the engine's exchange state.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// active reports whether an exchange is in flight.
func (s State) active() bool {
	return s == StateSending || s == StateStreaming
}

// FragmentFunc receives each non-empty fragment of one Send call.
type FragmentFunc func(fragment string)

// Observer is notified of engine activity. Calls are made one at a time,
// without the engine lock held, in the order the engine changed state, so a
// terminal transition is always seen before the next exchange's Sending.
// Implementations may read engine state. Panics are recovered and logged.
type Observer interface {
	OnStateChange(exchangeID string, from, to State)
	OnFragment(exchangeID string, fragment string)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	StateChange func(exchangeID string, from, to State)
	Fragment    func(exchangeID string, fragment string)
}

var _ Observer = ObserverFuncs{}

// OnStateChange implements Observer.
func (o ObserverFuncs) OnStateChange(exchangeID string, from, to State) {
	if o.StateChange != nil {
		o.StateChange(exchangeID, from, to)
	}
}

// OnFragment implements Observer.
func (o ObserverFuncs) OnFragment(exchangeID string, fragment string) {
	if o.Fragment != nil {
		o.Fragment(exchangeID, fragment)
	}
}
