package gateway

import (
	"chart-systemv1/internal/model"
)

// ClientMsg is the single inbound message shape. Type selects which fields
// are meaningful.
type ClientMsg struct {
	Type string `json:"type"` // "pointer", "resolution", "horizon", "viewport", "ping"

	// pointer
	Phase string  `json:"phase,omitempty"` // "down", "move", "up", "cancel"
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`

	// resolution / horizon
	Value string `json:"value,omitempty"` // e.g. "1d", "1w" / "1m", "3y"

	// viewport
	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
	PastFraction float64 `json:"past_fraction,omitempty"`

	// ping
	Ping int64 `json:"ping,omitempty"`
}

// SegmentOut is one session-tagged path in a frame.
type SegmentOut struct {
	Session string  `json:"session"`
	Path    string  `json:"path"`
	Opacity float64 `json:"opacity"`
}

// EventOut is one catalyst inside a marker.
type EventOut struct {
	ID    string `json:"id"`
	TS    int64  `json:"ts"` // unix millis
	Type  string `json:"type"`
	Title string `json:"title"`
}

// MarkerOut is one future-region marker, possibly a cluster.
type MarkerOut struct {
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Count  int        `json:"count"`
	Events []EventOut `json:"events"`
}

// FrameOut is the rendered chart frame sent after every state change.
type FrameOut struct {
	Type       string       `json:"type"` // always "frame"
	Resolution string       `json:"resolution"`
	Horizon    string       `json:"horizon"`
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	DividerX   float64      `json:"divider_x"`
	PrevCloseY float64      `json:"prev_close_y,omitempty"`
	HasPrev    bool         `json:"has_prev_close"`
	Segments   []SegmentOut `json:"segments"`
	Markers    []MarkerOut  `json:"markers"`
	Headline   float64      `json:"headline,omitempty"`
	HasHead    bool         `json:"has_headline"`
}

// CrosshairOut reports crosshair activation, movement, and release.
type CrosshairOut struct {
	Type   string    `json:"type"` // always "crosshair"
	Active bool      `json:"active"`
	Anchor string    `json:"anchor"` // "none", "sample", "event"
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Value  float64   `json:"value,omitempty"`
	TS     int64     `json:"ts,omitempty"` // unix millis
	Event  *EventOut `json:"event,omitempty"`
}

// StatusOut is the periodic market-session status broadcast.
type StatusOut struct {
	Type    string `json:"type"` // always "status"
	Session string `json:"session"`
	Open    bool   `json:"open"`
	Clients int    `json:"clients"`
	TS      string `json:"ts"`
}

// ErrorOut reports a rejected client message.
type ErrorOut struct {
	Type  string `json:"type"` // always "error"
	Error string `json:"error"`
}

func frameOut(f model.Frame) FrameOut {
	out := FrameOut{
		Type:       "frame",
		Resolution: f.Resolution.String(),
		Horizon:    f.Horizon.String(),
		Width:      f.Viewport.WidthPx,
		Height:     f.Viewport.HeightPx,
		DividerX:   f.DividerX,
		PrevCloseY: f.PrevCloseY,
		HasPrev:    f.HasPrevClose,
		Segments:   make([]SegmentOut, 0, len(f.Past)),
		Markers:    make([]MarkerOut, 0, len(f.Markers)),
	}
	for _, seg := range f.Past {
		out.Segments = append(out.Segments, SegmentOut{
			Session: seg.Session.String(),
			Path:    seg.Path,
			Opacity: seg.Opacity,
		})
	}
	for _, m := range f.Markers {
		mo := MarkerOut{X: m.X, Y: m.Y, Count: m.Count, Events: make([]EventOut, 0, len(m.Events))}
		for _, ev := range m.Events {
			mo.Events = append(mo.Events, eventOut(ev))
		}
		out.Markers = append(out.Markers, mo)
	}
	return out
}

func eventOut(ev model.CatalystEvent) EventOut {
	return EventOut{
		ID:    ev.ID,
		TS:    ev.TS.UnixMilli(),
		Type:  string(ev.Type),
		Title: ev.Title,
	}
}

func crosshairOut(cs model.CrosshairState) CrosshairOut {
	out := CrosshairOut{
		Type:   "crosshair",
		Active: cs.Active,
		X:      cs.Pixel.X,
		Y:      cs.Pixel.Y,
	}
	switch cs.Kind {
	case model.AnchorSample:
		out.Anchor = "sample"
		out.Value = cs.Value
		out.TS = cs.TS.UnixMilli()
	case model.AnchorEvent:
		out.Anchor = "event"
		ev := eventOut(cs.Event)
		out.Event = &ev
	default:
		out.Anchor = "none"
	}
	return out
}
