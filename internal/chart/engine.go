// Package chart is the session-aware chart engine: a pure, synchronous
// transformation from (samples, catalysts, viewport, pointer) to (geometry,
// crosshair state). It owns no goroutines, timers or I/O; callers push
// inputs in and ask for a render pass. All methods must be called from a
// single goroutine.
package chart

import (
	"time"

	"chart-systemv1/internal/chart/compose"
	"chart-systemv1/internal/chart/crosshair"
	"chart-systemv1/internal/chart/mapper"
	"chart-systemv1/internal/markethours"
	"chart-systemv1/internal/model"
)

// DefaultMarkerSnapTolerancePx is how close (in pixels) the pointer must be
// to a future marker before the crosshair anchors to it instead of a sample.
const DefaultMarkerSnapTolerancePx = 16.0

// Engine holds the chart inputs and the per-resolution layout cache.
type Engine struct {
	samples      []model.PriceSample
	sessions     []model.SessionTag
	catalysts    []model.CatalystEvent
	prevClose    float64
	hasPrevClose bool

	vp  model.Viewport
	res model.Resolution
	hor model.Horizon

	// layout is the explicit, resolution-tagged coordinate cache. It is
	// dropped atomically whenever resolution, viewport or samples change;
	// stale positions from another resolution are never reused.
	layout     *mapper.Layout
	frame      model.Frame
	frameValid bool
	lateDrops  int

	ctrl *crosshair.Controller

	// MarkerSnapTolerancePx overrides the default when > 0.
	MarkerSnapTolerancePx float64

	// OnCrosshairChange mirrors the controller's activation events to the
	// embedding surface (freeze/unfreeze ambient scrolling, swap readout).
	OnCrosshairChange func(active bool, value float64, ts time.Time)

	// OnRangeChangeRequest signals that the user asked for a different past
	// resolution. The engine never fetches data itself.
	OnRangeChangeRequest func(model.Resolution)

	// OnSamplesSkipped reports how many malformed samples a pass dropped.
	OnSamplesSkipped func(int)
}

// New creates an engine for the given initial selections.
func New(res model.Resolution, hor model.Horizon, vp model.Viewport) *Engine {
	e := &Engine{res: res, hor: hor, vp: vp, ctrl: crosshair.New()}
	e.ctrl.OnChange = func(active bool, value float64, ts time.Time) {
		if e.OnCrosshairChange != nil {
			e.OnCrosshairChange(active, value, ts)
		}
	}
	return e
}

// SetSamples replaces the visible series (ascending by timestamp; the
// mapper sanitizes). The engine keeps its own copy so callers stay free to
// reuse their slices.
func (e *Engine) SetSamples(samples []model.PriceSample) {
	e.samples = append(e.samples[:0], samples...)
	e.invalidateLayout()
}

// AppendSample adds one live sample to the series. The live feed is
// append-only for the latest trading day: a sample that steps backwards in
// time is dropped and counted. A live append never resets an in-progress
// crosshair interaction; the frozen anchor survives and only the geometry
// behind it refreshes.
func (e *Engine) AppendSample(s model.PriceSample) bool {
	if n := len(e.samples); n > 0 && s.TS.Before(e.samples[n-1].TS) {
		e.lateDrops++
		return false
	}
	e.samples = append(e.samples, s)
	e.layout = nil
	e.frameValid = false
	return true
}

// LateDrops returns how many out-of-order live samples were rejected.
func (e *Engine) LateDrops() int { return e.lateDrops }

// SetCatalysts replaces the future events (any order; sorted at render).
func (e *Engine) SetCatalysts(events []model.CatalystEvent) {
	e.catalysts = append(e.catalysts[:0], events...)
	e.frameValid = false
}

// SetPreviousClose supplies the prior session's close so overnight gaps
// stay visible in the price scale.
func (e *Engine) SetPreviousClose(p float64) {
	e.prevClose, e.hasPrevClose = p, true
	e.invalidateLayout()
}

// SetViewport applies a layout size change and invalidates all geometry.
func (e *Engine) SetViewport(vp model.Viewport) {
	if vp == e.vp {
		return
	}
	e.vp = vp
	e.invalidateLayout()
	e.ctrl.Invalidate()
}

// SetResolution switches the past display resolution. The coordinate cache
// and any in-progress crosshair are invalidated atomically: index-based and
// time-based positions mean different things, so nothing computed for the
// old resolution may survive.
func (e *Engine) SetResolution(res model.Resolution) {
	if res == e.res {
		return
	}
	e.res = res
	e.invalidateLayout()
	e.ctrl.Invalidate()
}

// SetHorizon switches the future window, independent of the past resolution.
func (e *Engine) SetHorizon(hor model.Horizon) {
	if hor == e.hor {
		return
	}
	e.hor = hor
	e.frameValid = false
}

// RequestResolution signals intent to change resolution. The embedding
// application fetches the matching data and then calls SetResolution and
// SetSamples; the engine only raises the event.
func (e *Engine) RequestResolution(res model.Resolution) {
	if e.OnRangeChangeRequest != nil {
		e.OnRangeChangeRequest(res)
	}
}

// Resolution returns the active past resolution.
func (e *Engine) Resolution() model.Resolution { return e.res }

// Horizon returns the active future horizon.
func (e *Engine) Horizon() model.Horizon { return e.hor }

// Render runs one pass and returns the frame. now is the wall-clock instant
// used for the session emphasis rule and future-marker placement; the
// trading-day bounds come from the latest sample's date instead, so
// historical charts do not drift. Errors surface only for genuine geometry
// corruption (non-monotonic X); degraded inputs render degraded, not at all.
func (e *Engine) Render(now time.Time) (model.Frame, error) {
	if e.layout == nil {
		ref := now
		if n := len(e.samples); n > 0 {
			ref = e.samples[n-1].TS
		}
		day := markethours.DayContext(ref)
		l, err := mapper.Build(e.samples, e.res, e.vp, day, e.prevClose, e.hasPrevClose)
		if err != nil {
			return model.Frame{}, err
		}
		e.layout = l
		if l.Skipped > 0 && e.OnSamplesSkipped != nil {
			e.OnSamplesSkipped(l.Skipped)
		}

		// Session tags are re-derived per pass; embedded tags from batch
		// data can be stale around boundaries.
		e.sessions = e.sessions[:0]
		for _, s := range l.Samples {
			e.sessions = append(e.sessions, markethours.Resolve(s.TS))
		}
	}

	e.frame = compose.Composite(compose.Input{
		Layout:       e.layout,
		Sessions:     e.sessions,
		Catalysts:    e.catalysts,
		Horizon:      e.hor,
		Now:          now,
		PrevClose:    e.prevClose,
		HasPrevClose: e.hasPrevClose,
	})
	e.frameValid = true
	return e.frame, nil
}

// Pointer feeds one pointer event through the interaction controller,
// snapping against the current pass's geometry.
func (e *Engine) Pointer(ev crosshair.PointerEvent) model.CrosshairState {
	var snap crosshair.Snapper
	if e.frameValid && e.layout != nil {
		snap = frameSnapper{e}
	}
	return e.ctrl.Handle(ev, snap)
}

// Tick advances the press-and-hold timer for a motionless pointer, arming
// the crosshair once the threshold passes without any move event. Callers
// invoke it on their render cadence; reports whether the crosshair armed.
func (e *Engine) Tick(now time.Time) (model.CrosshairState, bool) {
	var snap crosshair.Snapper
	if e.frameValid && e.layout != nil {
		snap = frameSnapper{e}
	}
	return e.ctrl.Tick(now, snap)
}

// Crosshair returns the latest resolved crosshair state.
func (e *Engine) Crosshair() model.CrosshairState { return e.ctrl.Current() }

// HeadlinePrice returns the price a headline readout should display: the
// frozen crosshair anchor while an interaction is in progress, the latest
// sample otherwise. Live updates must not jitter an active crosshair.
func (e *Engine) HeadlinePrice() (float64, bool) {
	if st := e.ctrl.Current(); st.Active {
		if st.Kind == model.AnchorSample {
			return st.Value, true
		}
		// Event anchor: the readout shows the event summary, not a price.
		return 0, false
	}
	if n := len(e.samples); n > 0 {
		return e.samples[n-1].Price, true
	}
	return 0, false
}

func (e *Engine) invalidateLayout() {
	e.layout = nil
	e.sessions = e.sessions[:0]
	e.frameValid = false
}
