package model

import "time"

// Point is a pixel-space coordinate within the viewport.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PathSegment is one renderable sub-path of the price curve. A segment never
// spans two session tags: a session boundary always forces a path break so
// the gap between, say, regular close and after-hours trading is visible.
type PathSegment struct {
	Session SessionTag `json:"session"`
	Path    string     `json:"path"` // SVG path data ("M x y C ...")
	Points  []Point    `json:"points"`
	Opacity float64    `json:"opacity"`
}

// Marker is a catalyst glyph placed in the future region. Overlapping events
// within a minimum pixel distance are grouped into one marker whose Count
// carries the badge value.
type Marker struct {
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Count  int             `json:"count"`
	Events []CatalystEvent `json:"events"`
}

// Frame is the complete renderable output of one pass: geometry description,
// not pixels. Whatever surface draws vector paths consumes it as-is.
type Frame struct {
	Past         []PathSegment `json:"past"`
	Markers      []Marker      `json:"markers"`
	DividerX     float64       `json:"divider_x"`
	PrevCloseY   float64       `json:"prev_close_y,omitempty"`
	HasPrevClose bool          `json:"has_prev_close"`
	Viewport     Viewport      `json:"viewport"`
	Resolution   Resolution    `json:"-"`
	Horizon      Horizon       `json:"-"`
}

// Empty reports whether the frame carries no drawable geometry.
func (f Frame) Empty() bool {
	return len(f.Past) == 0 && len(f.Markers) == 0
}

// AnchorKind says what a crosshair is locked onto.
type AnchorKind uint8

const (
	AnchorNone AnchorKind = iota
	AnchorSample
	AnchorEvent
)

// CrosshairState is the resolved interaction state. Ownership is exclusively
// the interaction controller's; other components only read the anchor.
type CrosshairState struct {
	Active bool       `json:"active"`
	Kind   AnchorKind `json:"-"`
	Pixel  Point      `json:"pixel"`
	Sample PriceSample
	Event  CatalystEvent
	// Value and TS describe the anchor for readout consumers: the sample's
	// price, or the zero value with the event's timestamp for markers.
	Value float64   `json:"value"`
	TS    time.Time `json:"ts"`
}
