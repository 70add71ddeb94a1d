// Package compose lays out the two chart regions: realized price on the
// past side of the divider, the forward catalyst timeline on the future
// side, and emits the final renderable frame.
package compose

import (
	"sort"
	"time"

	"chart-systemv1/internal/chart/curve"
	"chart-systemv1/internal/chart/mapper"
	"chart-systemv1/internal/markethours"
	"chart-systemv1/internal/model"
)

const (
	// DefaultMarkerMinGapPx is the minimum pixel distance between future
	// markers before they collapse into a single glyph with a count badge.
	DefaultMarkerMinGapPx = 12.0

	// DimmedOpacity is applied to every session segment except the one
	// matching the current wall-clock trading state.
	DimmedOpacity = 0.3
)

// Input carries everything one composite pass needs. The layout is the
// resolution-tagged coordinate cache built by the mapper for this same pass;
// Sessions tags Layout.Samples one-to-one.
type Input struct {
	Layout       *mapper.Layout
	Sessions     []model.SessionTag
	Catalysts    []model.CatalystEvent
	Horizon      model.Horizon
	Now          time.Time
	PrevClose    float64
	HasPrevClose bool

	// TensionHint overrides adaptive curve tension when > 0.
	TensionHint float64
	// MarkerMinGapPx overrides DefaultMarkerMinGapPx when > 0.
	MarkerMinGapPx float64
}

// Composite produces the frame for one render pass. Empty inputs produce
// empty (placeholder) geometry, never an error: the worst outcome of a bad
// pass is a visually degraded chart.
func Composite(in Input) model.Frame {
	vp := in.Layout.Viewport
	frame := model.Frame{
		Viewport:   vp,
		Resolution: in.Layout.Resolution,
		Horizon:    in.Horizon,
	}
	if !vp.Valid() {
		return frame
	}
	frame.DividerX = vp.PastWidth()

	if n := len(in.Layout.Samples); n > 0 && n == len(in.Sessions) {
		points := make([]model.Point, n)
		for i, s := range in.Layout.Samples {
			points[i] = model.Point{X: in.Layout.Xs[i], Y: in.Layout.MapY(s.Price)}
		}
		frame.Past = curve.SegmentBySession(points, in.Sessions, in.TensionHint)
		applyOpacity(frame.Past, markethours.Resolve(in.Now))
	}

	if in.HasPrevClose {
		frame.HasPrevClose = true
		frame.PrevCloseY = in.Layout.MapY(in.PrevClose)
	}

	frame.Markers = placeMarkers(in.Catalysts, in.Now, in.Horizon, vp, in.MarkerMinGapPx)
	return frame
}

// applyOpacity renders exactly one session region at full opacity: the one
// matching the current wall-clock trading state, resolved from the clock and
// never from the last sample's tag (the two can disagree for a few seconds
// after a session transition). When the market is fully closed there is no
// current session to emphasize and every region renders at full opacity.
func applyOpacity(segs []model.PathSegment, current model.SessionTag) {
	switch current {
	case model.Closed:
		for i := range segs {
			segs[i].Opacity = 1
		}
	case model.PreMarket, model.Regular, model.AfterHours:
		for i := range segs {
			if segs[i].Session == current {
				segs[i].Opacity = 1
			} else {
				segs[i].Opacity = DimmedOpacity
			}
		}
	}
}

// placeMarkers positions catalysts on the future timeline. The horizon is
// independent of the past resolution; events beyond it clamp to the right
// edge, events already due clamp to the divider. Markers closer together
// than the minimum gap group into one glyph carrying a count.
func placeMarkers(catalysts []model.CatalystEvent, now time.Time, horizon model.Horizon,
	vp model.Viewport, minGapPx float64) []model.Marker {

	if len(catalysts) == 0 {
		return nil
	}
	if minGapPx <= 0 {
		minGapPx = DefaultMarkerMinGapPx
	}

	// Supplied order is not trusted; sort ascending at render time.
	events := append([]model.CatalystEvent(nil), catalysts...)
	sort.Slice(events, func(i, j int) bool { return events[i].TS.Before(events[j].TS) })

	horizonMs := float64(horizon.Duration().Milliseconds())
	dividerX := vp.PastWidth()
	futureWidth := vp.FutureWidth()
	laneY := vp.HeightPx / 2

	xs := make([]float64, len(events))
	for i, ev := range events {
		offset := float64(ev.TS.Sub(now).Milliseconds())
		if offset < 0 {
			offset = 0
		}
		if offset > horizonMs {
			offset = horizonMs
		}
		xs[i] = dividerX + offset/horizonMs*futureWidth
	}

	var markers []model.Marker
	start := 0
	for i := 1; i <= len(events); i++ {
		if i < len(events) && xs[i]-xs[start] < minGapPx {
			continue
		}
		group := events[start:i]
		sum := 0.0
		for _, x := range xs[start:i] {
			sum += x
		}
		markers = append(markers, model.Marker{
			X:      sum / float64(len(group)),
			Y:      laneY,
			Count:  len(group),
			Events: append([]model.CatalystEvent(nil), group...),
		})
		start = i
	}
	return markers
}
