// Package mapper converts samples and prices into viewport pixel coordinates.
// A Layout is the explicit, resolution-tagged coordinate cache for one render
// pass: it is rebuilt whenever the resolution, viewport or sample set
// changes, and is passed around as a value instead of being closed over, so a
// touch can never resolve against a previous resolution's geometry.
package mapper

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"chart-systemv1/internal/markethours"
	"chart-systemv1/internal/model"
)

// PadFraction pads the observed price range on each side so the curve never
// touches the viewport edges.
const PadFraction = 0.08

// PriceScale maps a price to a vertical pixel coordinate. Min/Max already
// include the range padding and, when provided, the previous close, so a
// large overnight gap stays visible without letting the live curve clip.
type PriceScale struct {
	Min      float64
	Max      float64
	HeightPx float64
}

// MapY converts a price into a Y pixel (0 at the top of the viewport).
func (s PriceScale) MapY(price float64) float64 {
	if s.Max <= s.Min || s.HeightPx <= 0 {
		return s.HeightPx / 2
	}
	return (s.Max - price) / (s.Max - s.Min) * s.HeightPx
}

// Layout is the coordinate cache for one (resolution, viewport, samples)
// combination. Samples holds the sanitized series; Xs[i] is the pixel X of
// Samples[i] and is monotonically non-decreasing in time order.
type Layout struct {
	Resolution model.Resolution
	Viewport   model.Viewport
	Samples    []model.PriceSample
	Xs         []float64
	Scale      PriceScale
	Skipped    int
}

// Build sanitizes the series and computes all X positions and the price
// scale. Malformed samples (zero timestamp, NaN/negative price, out of
// order) are skipped and counted, never aborting the pass. An invalid
// viewport short-circuits to an empty layout. A monotonic-X violation after
// sanitization indicates a resolution/mode mismatch and fails loudly.
func Build(samples []model.PriceSample, res model.Resolution, vp model.Viewport,
	day markethours.TradingDayContext, prevClose float64, hasPrevClose bool) (*Layout, error) {

	l := &Layout{Resolution: res, Viewport: vp}
	if !vp.Valid() {
		return l, nil
	}

	l.Samples = sanitize(samples, &l.Skipped)
	if l.Skipped > 0 {
		log.Printf("[mapper] skipped %d malformed samples", l.Skipped)
	}
	if len(l.Samples) == 0 {
		return l, nil
	}

	l.Scale = buildScale(l.Samples, prevClose, hasPrevClose, vp.HeightPx)
	l.Xs = mapXs(l.Samples, res.Mode(), vp.PastWidth(), day)

	for i := 1; i < len(l.Xs); i++ {
		if l.Xs[i] < l.Xs[i-1] {
			return nil, fmt.Errorf("mapper: x positions not monotonic at index %d (%.4f < %.4f), resolution %s",
				i, l.Xs[i], l.Xs[i-1], res)
		}
	}
	return l, nil
}

// sanitize drops malformed samples: zero timestamps, non-finite or negative
// prices, and samples that step backwards in time relative to the last kept
// one.
func sanitize(in []model.PriceSample, skipped *int) []model.PriceSample {
	out := make([]model.PriceSample, 0, len(in))
	var last time.Time
	for _, s := range in {
		if s.TS.IsZero() || math.IsNaN(s.Price) || math.IsInf(s.Price, 0) || s.Price < 0 {
			*skipped++
			continue
		}
		if !last.IsZero() && s.TS.Before(last) {
			*skipped++
			continue
		}
		last = s.TS
		out = append(out, s)
	}
	return out
}

func buildScale(samples []model.PriceSample, prevClose float64, hasPrevClose bool, heightPx float64) PriceScale {
	min, max := samples[0].Price, samples[0].Price
	for _, s := range samples[1:] {
		if s.Price < min {
			min = s.Price
		}
		if s.Price > max {
			max = s.Price
		}
	}
	if hasPrevClose && !math.IsNaN(prevClose) && prevClose >= 0 {
		if prevClose < min {
			min = prevClose
		}
		if prevClose > max {
			max = prevClose
		}
	}
	if max == min {
		// Flat series: expand symmetrically by a nominal epsilon so the
		// scale never divides by zero.
		eps := math.Max(math.Abs(max)*0.005, 0.01)
		min -= eps
		max += eps
	}
	pad := (max - min) * PadFraction
	return PriceScale{Min: min - pad, Max: max + pad, HeightPx: heightPx}
}

func mapXs(samples []model.PriceSample, mode model.MappingMode, pastWidth float64, day markethours.TradingDayContext) []float64 {
	xs := make([]float64, len(samples))
	if len(samples) == 1 {
		// A single-sample series maps to the horizontal center: a single
		// point, not a crash.
		xs[0] = pastWidth / 2
		return xs
	}

	switch mode {
	case model.ModeTime:
		span := day.DayEnd.Sub(day.DayStart)
		for i, s := range samples {
			frac := float64(s.TS.Sub(day.DayStart)) / float64(span)
			xs[i] = clamp(frac, 0, 1) * pastWidth
		}
	case model.ModeIndex:
		n := float64(len(samples) - 1)
		for i := range samples {
			xs[i] = float64(i) / n * pastWidth
		}
	case model.ModeTimestamp:
		first := samples[0].TS
		span := samples[len(samples)-1].TS.Sub(first)
		if span <= 0 {
			for i := range samples {
				xs[i] = pastWidth / 2
			}
			return xs
		}
		for i, s := range samples {
			xs[i] = float64(s.TS.Sub(first)) / float64(span) * pastWidth
		}
	}
	return xs
}

// NearestIndex returns the index of the sample whose X position is closest
// to px by absolute pixel distance, without clamping that would keep the
// first or last sample out of reach. Returns -1 for an empty layout.
func (l *Layout) NearestIndex(px float64) int {
	if len(l.Xs) == 0 {
		return -1
	}
	i := sort.SearchFloat64s(l.Xs, px)
	if i == 0 {
		return 0
	}
	if i >= len(l.Xs) {
		return len(l.Xs) - 1
	}
	if px-l.Xs[i-1] <= l.Xs[i]-px {
		return i - 1
	}
	return i
}

// MapY converts a price to a Y pixel using the layout's scale.
func (l *Layout) MapY(price float64) float64 {
	return l.Scale.MapY(price)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
