package crud

import "sync/atomic"

// State of one action-origin.
type State int32

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Origin is the state machine behind one triggering control, such as a form's
// save button or a confirm-delete button. At most one mutation is in flight
// per Origin; triggering it again while Pending is a no-op.
type Origin struct {
	state atomic.Int32
}

// Begin moves Idle to Pending. It returns false, and changes nothing, when already Pending.
func (o *Origin) Begin() bool {
	return o.state.CompareAndSwap(int32(Idle), int32(Pending))
}

// End returns the origin to Idle whatever the outcome was.
func (o *Origin) End() {
	o.state.Store(int32(Idle))
}

// State reports the current state.
func (o *Origin) State() State {
	return State(o.state.Load())
}

// Pending is a shortcut for State() == Pending; views use it to disable the control.
func (o *Origin) Pending() bool {
	return o.State() == Pending
}
