// Package curve turns ordered pixel points into smooth SVG path data.
// The smoothing is an interpolating cubic-Bezier pass: the generated curve
// passes exactly through every input anchor. That is a correctness property,
// not a style choice — crosshair snapping assumes anchors lie on the curve.
package curve

import (
	"strconv"
	"strings"

	"chart-systemv1/internal/model"
)

// Adaptive tension bounds. Sparse series get low tension to avoid overshoot;
// dense series get higher tension where mild curvature reads as smoothed
// noise rather than distortion.
const (
	TensionSparse = 0.2
	TensionDense  = 0.4

	sparsePoints = 16
	densePoints  = 64
)

// Cubic is one cubic-Bezier span. P0 and P1 are input anchors by
// construction, so the spline interpolates.
type Cubic struct {
	P0, C1, C2, P1 model.Point
}

// AdaptiveTension picks a tension for a series of n points, interpolating
// linearly between the sparse and dense bounds.
func AdaptiveTension(n int) float64 {
	if n <= sparsePoints {
		return TensionSparse
	}
	if n >= densePoints {
		return TensionDense
	}
	frac := float64(n-sparsePoints) / float64(densePoints-sparsePoints)
	return TensionSparse + frac*(TensionDense-TensionSparse)
}

// CubicSegments computes the Bezier spans through the anchor points using
// control points derived from neighboring-point tangents scaled by tension.
// tensionHint <= 0 selects the adaptive tension for the series length.
func CubicSegments(points []model.Point, tensionHint float64) []Cubic {
	if len(points) < 2 {
		return nil
	}
	tension := tensionHint
	if tension <= 0 {
		tension = AdaptiveTension(len(points))
	}

	out := make([]Cubic, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		p1, p2 := points[i], points[i+1]
		p0 := p1
		if i > 0 {
			p0 = points[i-1]
		}
		p3 := p2
		if i+2 < len(points) {
			p3 = points[i+2]
		}
		out = append(out, Cubic{
			P0: p1,
			C1: model.Point{X: p1.X + (p2.X-p0.X)*tension, Y: p1.Y + (p2.Y-p0.Y)*tension},
			C2: model.Point{X: p2.X - (p3.X-p1.X)*tension, Y: p2.Y - (p3.Y-p1.Y)*tension},
			P1: p2,
		})
	}
	return out
}

// Eval evaluates the span at parameter t in [0,1].
func (c Cubic) Eval(t float64) model.Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return model.Point{
		X: b0*c.P0.X + b1*c.C1.X + b2*c.C2.X + b3*c.P1.X,
		Y: b0*c.P0.Y + b1*c.C1.Y + b2*c.C2.Y + b3*c.P1.Y,
	}
}

// BuildPath renders the smoothed spline through points as SVG path data.
// A single point yields a move-only path so a one-sample series still has
// drawable geometry.
func BuildPath(points []model.Point, tensionHint float64) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, points[0])
	for _, c := range CubicSegments(points, tensionHint) {
		b.WriteString(" C ")
		writePoint(&b, c.C1)
		b.WriteByte(' ')
		writePoint(&b, c.C2)
		b.WriteByte(' ')
		writePoint(&b, c.P1)
	}
	return b.String()
}

func writePoint(b *strings.Builder, p model.Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', 2, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', 2, 64))
}
