// Package crosshair implements the pointer interaction state machine.
// One authoritative transition function replaces the scattered boolean
// flags this logic tends to accumulate: every pointer phase goes through
// Handle, and activation/deactivation events fire exactly once per cycle.
package crosshair

import (
	"time"

	"chart-systemv1/internal/model"
)

// State is the machine position. Idle is both the initial and terminal
// state of every interaction.
type State uint8

const (
	Idle     State = iota
	Pending        // pointer down, press-and-hold threshold not yet met
	Armed          // threshold met, crosshair visible
	Tracking       // pointer moving with the crosshair attached
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Armed:
		return "armed"
	case Tracking:
		return "tracking"
	}
	return "idle"
}

// Phase is the pointer event kind.
type Phase uint8

const (
	PhaseDown Phase = iota
	PhaseMove
	PhaseUp
	PhaseCancel
)

// PointerEvent is one pointer/touch update. At carries the event time so the
// machine needs no timer of its own.
type PointerEvent struct {
	X, Y  float64
	Phase Phase
	At    time.Time
}

// Snapper resolves a pointer position to the nearest anchor against the
// geometry of the *current* render pass. It is passed per call rather than
// captured at construction, so the controller can never resolve touches
// against a previous resolution's geometry.
type Snapper interface {
	Snap(x, y float64) (model.CrosshairState, bool)
}

// DefaultHoldThreshold is the press duration required before the crosshair
// arms. Quick taps stay available to the surrounding surface (scrolling).
const DefaultHoldThreshold = 150 * time.Millisecond

// Controller owns the crosshair lifecycle. The resolved anchor is frozen
// from the consumer's perspective: other components only read it.
type Controller struct {
	HoldThreshold time.Duration

	// OnChange fires on every activation (true) and exactly once per
	// deactivation (false). Consumers use the deactivation to re-enable
	// ambient scrolling, so duplicates or drops are correctness bugs.
	OnChange func(active bool, value float64, ts time.Time)

	state  State
	downAt time.Time
	downX  float64
	downY  float64
	active bool
	last   model.CrosshairState
}

// New creates a controller with the default hold threshold.
func New() *Controller {
	return &Controller{HoldThreshold: DefaultHoldThreshold}
}

// State returns the current machine state.
func (c *Controller) State() State { return c.state }

// Current returns the latest resolved crosshair state.
func (c *Controller) Current() model.CrosshairState { return c.last }

// Handle is the single transition function. It returns the crosshair state
// after applying the event against the supplied geometry.
func (c *Controller) Handle(ev PointerEvent, snap Snapper) model.CrosshairState {
	switch ev.Phase {
	case PhaseDown:
		// A new press always restarts the cycle, deactivating any stale one.
		c.deactivate()
		c.state = Pending
		c.downAt = ev.At
		c.downX, c.downY = ev.X, ev.Y
	case PhaseMove:
		switch c.state {
		case Idle:
			// Moves without a press belong to the ambient surface.
		case Pending:
			if ev.At.Sub(c.downAt) >= c.HoldThreshold {
				c.state = Armed
				c.resolve(ev, snap)
				c.activate()
			}
		case Armed:
			c.state = Tracking
			c.resolve(ev, snap)
		case Tracking:
			c.resolve(ev, snap)
		}
	case PhaseUp, PhaseCancel:
		// A motionless press released past the hold threshold still counts
		// as one full cycle: arm at the press point, then release. Otherwise
		// release and gesture loss behave identically: back to Idle with
		// exactly one deactivation if the crosshair was active.
		if ev.Phase == PhaseUp && c.state == Pending && ev.At.Sub(c.downAt) >= c.HoldThreshold {
			c.resolve(PointerEvent{X: c.downX, Y: c.downY, At: ev.At}, snap)
			c.activate()
		}
		c.deactivate()
		c.state = Idle
	}
	return c.last
}

// Tick gives a motionless press a chance to arm: with no pointer movement
// the machine never observes the hold threshold passing on its own, so
// callers invoke Tick from their frame or render cadence. Reports whether
// the crosshair armed on this tick.
func (c *Controller) Tick(now time.Time, snap Snapper) (model.CrosshairState, bool) {
	if c.state != Pending || now.Sub(c.downAt) < c.HoldThreshold {
		return c.last, false
	}
	c.state = Armed
	c.resolve(PointerEvent{X: c.downX, Y: c.downY, At: now}, snap)
	c.activate()
	return c.last, true
}

// Invalidate cancels any in-progress interaction, emitting the deactivation
// if one is owed. Called when the geometry it was snapped against is being
// replaced (resolution or viewport change).
func (c *Controller) Invalidate() {
	c.deactivate()
	c.state = Idle
}

func (c *Controller) resolve(ev PointerEvent, snap Snapper) {
	if snap == nil {
		return
	}
	if st, ok := snap.Snap(ev.X, ev.Y); ok {
		st.Active = true
		c.last = st
		if c.active && c.OnChange != nil {
			c.OnChange(true, st.Value, st.TS)
		}
	}
}

func (c *Controller) activate() {
	if c.active {
		return
	}
	c.active = true
	c.last.Active = true
	if c.OnChange != nil {
		c.OnChange(true, c.last.Value, c.last.TS)
	}
}

func (c *Controller) deactivate() {
	if !c.active {
		c.last = model.CrosshairState{}
		return
	}
	c.active = false
	st := c.last
	c.last = model.CrosshairState{}
	if c.OnChange != nil {
		c.OnChange(false, st.Value, st.TS)
	}
}
