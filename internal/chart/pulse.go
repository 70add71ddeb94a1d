package chart

import "sync/atomic"

// PulseTicket is the cancelable handle for the cosmetic pulse on the live
// price point. It is owned by the caller, not bound to the engine's
// lifetime, and has no effect on geometry: a render pass is identical
// whether or not a pulse is running, so pausing and resuming lose no state.
type PulseTicket struct {
	state atomic.Int32 // 0 running, 1 paused, 2 canceled
}

// NewPulseTicket issues a running ticket.
func NewPulseTicket() *PulseTicket { return &PulseTicket{} }

// Pause suspends the animation. A canceled ticket stays canceled.
func (t *PulseTicket) Pause() {
	t.state.CompareAndSwap(0, 1)
}

// Resume restarts a paused animation. A canceled ticket stays canceled.
func (t *PulseTicket) Resume() {
	t.state.CompareAndSwap(1, 0)
}

// Cancel ends the animation permanently.
func (t *PulseTicket) Cancel() {
	t.state.Store(2)
}

// Running reports whether a renderer should draw the pulse this frame.
func (t *PulseTicket) Running() bool {
	return t.state.Load() == 0
}
