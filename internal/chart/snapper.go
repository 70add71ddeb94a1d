package chart

import (
	"chart-systemv1/internal/model"
)

// frameSnapper resolves pointer positions against the engine's current
// layout and frame. A fresh value is handed to the controller on every
// pointer event, so snapping always sees this pass's geometry and never a
// previous resolution's.
type frameSnapper struct {
	e *Engine
}

func (s frameSnapper) Snap(x, y float64) (model.CrosshairState, bool) {
	e := s.e
	vp := e.layout.Viewport

	// Clamp to viewport bounds only. No clamping away from the series ends:
	// snapping must be able to reach the first and last sample.
	cx := clampPx(x, 0, vp.WidthPx)

	// In the future region a marker within tolerance wins over samples and
	// the readout switches from price to event summary.
	if cx >= e.frame.DividerX {
		tol := e.MarkerSnapTolerancePx
		if tol <= 0 {
			tol = DefaultMarkerSnapTolerancePx
		}
		if m, ok := nearestMarker(e.frame.Markers, cx, tol); ok {
			return model.CrosshairState{
				Kind:  model.AnchorEvent,
				Pixel: model.Point{X: m.X, Y: m.Y},
				Event: m.Events[0],
				TS:    m.Events[0].TS,
			}, true
		}
	}

	idx := e.layout.NearestIndex(cx)
	if idx < 0 {
		return model.CrosshairState{}, false
	}
	smp := e.layout.Samples[idx]
	return model.CrosshairState{
		Kind:   model.AnchorSample,
		Pixel:  model.Point{X: e.layout.Xs[idx], Y: e.layout.MapY(smp.Price)},
		Sample: smp,
		Value:  smp.Price,
		TS:     smp.TS,
	}, true
}

func nearestMarker(markers []model.Marker, x, tol float64) (model.Marker, bool) {
	var best model.Marker
	bestD := tol
	found := false
	for _, m := range markers {
		d := m.X - x
		if d < 0 {
			d = -d
		}
		if d <= bestD {
			best, bestD, found = m, d, true
		}
	}
	return best, found
}

func clampPx(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
