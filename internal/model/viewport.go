package model

// Viewport is the drawable area in device-independent pixels, split into a
// past (price history) and a future (event timeline) region.
//
// PastWidth/FutureWidth are recomputed on every call, never cached: the
// viewport changes with window resizing and a stale split is a geometry bug.
type Viewport struct {
	WidthPx      float64 `json:"width_px"`
	HeightPx     float64 `json:"height_px"`
	PastFraction float64 `json:"past_fraction"` // must be in (0,1)
}

// Valid reports whether the viewport can host any geometry. A zero-sized
// viewport (mid-layout) short-circuits all computation to empty output.
func (v Viewport) Valid() bool {
	return v.WidthPx > 0 && v.HeightPx > 0 && v.PastFraction > 0 && v.PastFraction < 1
}

// PastWidth returns the pixel width of the realized-price region.
func (v Viewport) PastWidth() float64 {
	return v.WidthPx * v.PastFraction
}

// FutureWidth returns the pixel width of the event-timeline region.
// PastWidth + FutureWidth always equals WidthPx exactly for the same v,
// because both derive from the same WidthPx and PastFraction.
func (v Viewport) FutureWidth() float64 {
	return v.WidthPx - v.WidthPx*v.PastFraction
}
