package mapper

import (
	"math"
	"testing"
	"time"

	"chart-systemv1/internal/markethours"
	"chart-systemv1/internal/model"
)

var testVP = model.Viewport{WidthPx: 300, HeightPx: 200, PastFraction: 0.6}

func etTime(hour, min int) time.Time {
	return time.Date(2026, 3, 4, hour, min, 0, 0, markethours.ET)
}

func daySamples(prices ...float64) []model.PriceSample {
	out := make([]model.PriceSample, len(prices))
	for i, p := range prices {
		out[i] = model.PriceSample{TS: etTime(9, 30+i), Price: p}
	}
	return out
}

func TestBuild_TimeModeProportional(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	samples := []model.PriceSample{
		{TS: etTime(0, 0), Price: 100},
		{TS: etTime(6, 0), Price: 101},
		{TS: etTime(12, 0), Price: 102},
	}
	l, err := Build(samples, model.Res1D, testVP, day, 0, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	pw := testVP.PastWidth() // 180
	want := []float64{0, pw * 0.25, pw * 0.5}
	for i, w := range want {
		if math.Abs(l.Xs[i]-w) > 1e-9 {
			t.Errorf("x[%d] = %.4f, want %.4f", i, l.Xs[i], w)
		}
	}
}

func TestBuild_TimeModeClipsToPastRegion(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	// One sample from the previous day leaks in below dayStart.
	samples := []model.PriceSample{
		{TS: etTime(9, 30).Add(-26 * time.Hour), Price: 100},
		{TS: etTime(9, 30), Price: 101},
	}
	l, err := Build(samples, model.Res1D, testVP, day, 0, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if l.Xs[0] != 0 {
		t.Errorf("pre-day sample x = %.4f, want clipped to 0", l.Xs[0])
	}
	if l.Xs[1] <= 0 || l.Xs[1] > testVP.PastWidth() {
		t.Errorf("x[1] = %.4f out of [0, pastWidth]", l.Xs[1])
	}
}

func TestBuild_IndexModeEvenSpacing(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	l, err := Build(daySamples(100, 101, 102, 103, 104), model.Res1M, testVP, day, 0, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	pw := testVP.PastWidth()
	for i, x := range l.Xs {
		want := float64(i) / 4 * pw
		if math.Abs(x-want) > 1e-9 {
			t.Errorf("x[%d] = %.4f, want %.4f", i, x, want)
		}
	}
}

func TestBuild_TimestampMode(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	base := etTime(10, 0)
	samples := []model.PriceSample{
		{TS: base, Price: 100},
		{TS: base.AddDate(1, 0, 0), Price: 110},
		{TS: base.AddDate(4, 0, 0), Price: 120},
	}
	l, err := Build(samples, model.Res5Y, testVP, day, 0, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if l.Xs[0] != 0 {
		t.Errorf("first x = %.4f, want 0", l.Xs[0])
	}
	if math.Abs(l.Xs[2]-testVP.PastWidth()) > 1e-9 {
		t.Errorf("last x = %.4f, want %.4f", l.Xs[2], testVP.PastWidth())
	}
	if !(l.Xs[1] > l.Xs[0] && l.Xs[1] < l.Xs[2]) {
		t.Errorf("middle x = %.4f not between ends", l.Xs[1])
	}
}

func TestBuild_MonotonicXForAscendingSeries(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	for _, res := range []model.Resolution{model.Res1D, model.Res1M, model.Res5Y} {
		samples := make([]model.PriceSample, 50)
		for i := range samples {
			samples[i] = model.PriceSample{TS: etTime(9, 30).Add(time.Duration(i) * 7 * time.Minute), Price: 100 + float64(i%7)}
		}
		l, err := Build(samples, res, testVP, day, 0, false)
		if err != nil {
			t.Fatalf("%s: build: %v", res, err)
		}
		for i := 1; i < len(l.Xs); i++ {
			if l.Xs[i] < l.Xs[i-1] {
				t.Fatalf("%s: x[%d]=%.4f < x[%d]=%.4f", res, i, l.Xs[i], i-1, l.Xs[i-1])
			}
		}
	}
}

func TestBuild_SingleSampleCenters(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	l, err := Build(daySamples(100), model.Res1D, testVP, day, 0, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, want := l.Xs[0], testVP.PastWidth()/2; got != want {
		t.Errorf("single sample x = %.4f, want center %.4f", got, want)
	}
}

func TestBuild_SanitizesMalformedSamples(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	samples := []model.PriceSample{
		{TS: etTime(9, 30), Price: 100},
		{TS: time.Time{}, Price: 101},             // zero timestamp
		{TS: etTime(9, 32), Price: math.NaN()},    // NaN price
		{TS: etTime(9, 33), Price: -5},            // negative price
		{TS: etTime(9, 20), Price: 102},           // steps backwards
		{TS: etTime(9, 34), Price: 103},           // fine
		{TS: etTime(9, 35), Price: math.Inf(1)},   // infinite price
	}
	l, err := Build(samples, model.Res1D, testVP, day, 0, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(l.Samples) != 2 {
		t.Fatalf("kept %d samples, want 2", len(l.Samples))
	}
	if l.Skipped != 5 {
		t.Errorf("skipped = %d, want 5", l.Skipped)
	}
}

func TestBuild_EmptySeriesAndInvalidViewport(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	l, err := Build(nil, model.Res1D, testVP, day, 0, false)
	if err != nil || len(l.Xs) != 0 {
		t.Errorf("empty series: err=%v xs=%d", err, len(l.Xs))
	}
	l, err = Build(daySamples(100, 101), model.Res1D, model.Viewport{}, day, 0, false)
	if err != nil || len(l.Xs) != 0 {
		t.Errorf("zero viewport: err=%v xs=%d", err, len(l.Xs))
	}
}

func TestScale_PadsRangeAndIncludesPrevClose(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	l, err := Build(daySamples(100, 110), model.Res1D, testVP, day, 80, true)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Previous close 80 widens the raw range to [80,110]; 8% padding on each
	// side gives [77.6, 112.4].
	if math.Abs(l.Scale.Min-77.6) > 1e-9 || math.Abs(l.Scale.Max-112.4) > 1e-9 {
		t.Errorf("scale = [%.4f, %.4f], want [77.6, 112.4]", l.Scale.Min, l.Scale.Max)
	}
	// No price inside the padded range ever maps onto the viewport edge.
	for _, p := range []float64{80, 100, 110} {
		y := l.MapY(p)
		if y <= 0 || y >= testVP.HeightPx {
			t.Errorf("MapY(%.0f) = %.4f touches viewport edge", p, y)
		}
	}
}

func TestScale_FlatSeriesExpandsByEpsilon(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	l, err := Build(daySamples(100, 100, 100), model.Res1D, testVP, day, 0, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if l.Scale.Max <= l.Scale.Min {
		t.Fatalf("flat series scale not expanded: [%v, %v]", l.Scale.Min, l.Scale.Max)
	}
	if y := l.MapY(100); math.Abs(y-testVP.HeightPx/2) > 1e-9 {
		t.Errorf("flat price y = %.4f, want centered %.4f", y, testVP.HeightPx/2)
	}
}

func TestNearestIndex(t *testing.T) {
	day := markethours.DayContext(etTime(10, 0))
	l, err := Build(daySamples(100, 101, 102, 103, 104), model.Res1M, testVP, day, 0, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	pw := testVP.PastWidth()
	cases := []struct {
		px   float64
		want int
	}{
		{-50, 0},        // left of the series still reaches the first sample
		{0, 0},
		{pw / 4 * 1.1, 1},
		{pw, 4},         // the last sample is reachable
		{pw + 200, 4},
	}
	for _, tc := range cases {
		if got := l.NearestIndex(tc.px); got != tc.want {
			t.Errorf("NearestIndex(%.1f) = %d, want %d", tc.px, got, tc.want)
		}
	}
	// Idempotent: same pixel, same answer.
	if a, b := l.NearestIndex(77), l.NearestIndex(77); a != b {
		t.Errorf("NearestIndex not idempotent: %d vs %d", a, b)
	}
}
