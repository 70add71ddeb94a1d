package chart

import (
	"testing"
	"time"

	"chart-systemv1/internal/chart/crosshair"
	"chart-systemv1/internal/markethours"
	"chart-systemv1/internal/model"
)

var testVP = model.Viewport{WidthPx: 300, HeightPx: 200, PastFraction: 0.6}

func etTime(hour, min int) time.Time {
	return time.Date(2026, 3, 4, hour, min, 0, 0, markethours.ET)
}

func intradaySamples(n int) []model.PriceSample {
	out := make([]model.PriceSample, n)
	for i := range out {
		out[i] = model.PriceSample{TS: etTime(9, 30).Add(time.Duration(i) * time.Minute), Price: 100 + float64(i%5)}
	}
	return out
}

func arm(t *testing.T, e *Engine, x float64) model.CrosshairState {
	t.Helper()
	base := etTime(12, 0)
	e.Pointer(crosshair.PointerEvent{X: x, Phase: crosshair.PhaseDown, At: base})
	return e.Pointer(crosshair.PointerEvent{X: x, Phase: crosshair.PhaseMove, At: base.Add(crosshair.DefaultHoldThreshold + time.Millisecond)})
}

func TestEngine_RenderProducesFrame(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	e.SetSamples(intradaySamples(30))
	e.SetPreviousClose(99.5)
	e.SetCatalysts([]model.CatalystEvent{{ID: "er", TS: etTime(12, 0).AddDate(0, 1, 0), Type: model.EventEarnings}})

	frame, err := e.Render(etTime(12, 0))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(frame.Past) == 0 || len(frame.Markers) != 1 {
		t.Fatalf("frame: %d segments, %d markers", len(frame.Past), len(frame.Markers))
	}
	if !frame.HasPrevClose {
		t.Error("previous close missing from frame")
	}
	if frame.DividerX != testVP.PastWidth() {
		t.Errorf("divider = %v", frame.DividerX)
	}
}

func TestEngine_EmptySeriesRendersEmpty(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	frame, err := e.Render(etTime(12, 0))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(frame.Past) != 0 {
		t.Errorf("empty series produced segments: %d", len(frame.Past))
	}
}

func TestEngine_AppendSampleLiveUpdate(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	e.SetSamples(intradaySamples(10))
	if _, err := e.Render(etTime(12, 0)); err != nil {
		t.Fatalf("render: %v", err)
	}

	if !e.AppendSample(model.PriceSample{TS: etTime(11, 0), Price: 103}) {
		t.Fatal("in-order append rejected")
	}
	// Out-of-order live sample is dropped and counted.
	if e.AppendSample(model.PriceSample{TS: etTime(10, 0), Price: 102}) {
		t.Fatal("out-of-order append accepted")
	}
	if e.LateDrops() != 1 {
		t.Errorf("late drops = %d, want 1", e.LateDrops())
	}

	frame, err := e.Render(etTime(12, 0))
	if err != nil {
		t.Fatalf("re-render: %v", err)
	}
	total := 0
	for _, seg := range frame.Past {
		total += len(seg.Points)
	}
	if total != 11 {
		t.Errorf("frame holds %d points, want 11", total)
	}
}

func TestEngine_CrosshairFrozenDuringLiveUpdates(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	e.SetSamples(intradaySamples(10))
	if _, err := e.Render(etTime(12, 0)); err != nil {
		t.Fatalf("render: %v", err)
	}

	st := arm(t, e, 40)
	if !st.Active || st.Kind != model.AnchorSample {
		t.Fatalf("crosshair not armed on a sample: %+v", st)
	}
	anchorPrice, anchorTS := st.Value, st.TS

	// Live appends arrive mid-interaction; the headline must keep showing
	// the frozen anchor, not the new last price.
	e.AppendSample(model.PriceSample{TS: etTime(11, 0), Price: 150})
	if _, err := e.Render(etTime(12, 0)); err != nil {
		t.Fatalf("re-render: %v", err)
	}
	if p, ok := e.HeadlinePrice(); !ok || p != anchorPrice {
		t.Errorf("headline = %v, want frozen anchor %v", p, anchorPrice)
	}
	if got := e.Crosshair(); !got.TS.Equal(anchorTS) {
		t.Errorf("anchor ts moved: %v -> %v", anchorTS, got.TS)
	}

	// Release: headline resumes from the live series.
	e.Pointer(crosshair.PointerEvent{Phase: crosshair.PhaseUp, At: etTime(12, 1)})
	if p, ok := e.HeadlinePrice(); !ok || p != 150 {
		t.Errorf("headline after release = %v, want 150", p)
	}
}

func TestEngine_ResolutionChangeInvalidatesGeometry(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	e.SetSamples(intradaySamples(10))
	if _, err := e.Render(etTime(12, 0)); err != nil {
		t.Fatalf("render: %v", err)
	}

	deactivations := 0
	e.OnCrosshairChange = func(active bool, _ float64, _ time.Time) {
		if !active {
			deactivations++
		}
	}
	st := arm(t, e, 40)
	if !st.Active {
		t.Fatal("crosshair not armed")
	}
	timeModeX := st.Pixel.X

	// Switching resolution drops the coordinate cache and the interaction.
	e.SetResolution(model.Res1M)
	if deactivations != 1 {
		t.Fatalf("deactivations after resolution switch = %d, want 1", deactivations)
	}
	if _, err := e.Render(etTime(12, 0)); err != nil {
		t.Fatalf("render after switch: %v", err)
	}

	// A fresh interaction resolves against index-based geometry, not the
	// previous resolution's time-based positions.
	st = arm(t, e, 40)
	if !st.Active {
		t.Fatal("crosshair not re-armed")
	}
	if st.Pixel.X == timeModeX {
		t.Errorf("snap still resolves against stale time-based geometry (x=%v)", st.Pixel.X)
	}
}

func TestEngine_PointerBeforeRenderIsInert(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	e.SetSamples(intradaySamples(10))

	st := arm(t, e, 40)
	if st.Kind != model.AnchorNone {
		t.Errorf("pointer before first render resolved an anchor: %+v", st)
	}
}

func TestEngine_MarkerSnapInFutureRegion(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	e.SetSamples(intradaySamples(10))
	now := etTime(12, 0)
	hor := model.Hor3M
	ev := model.CatalystEvent{ID: "er", TS: now.Add(hor.Duration() / 2), Type: model.EventEarnings, Title: "Q2 earnings"}
	e.SetCatalysts([]model.CatalystEvent{ev})
	if _, err := e.Render(now); err != nil {
		t.Fatalf("render: %v", err)
	}

	markerX := testVP.PastWidth() + testVP.FutureWidth()/2
	e.Pointer(crosshair.PointerEvent{X: markerX - 3, Phase: crosshair.PhaseDown, At: now})
	st := e.Pointer(crosshair.PointerEvent{X: markerX - 3, Phase: crosshair.PhaseMove, At: now.Add(200 * time.Millisecond)})
	if st.Kind != model.AnchorEvent {
		t.Fatalf("anchor kind = %v, want event", st.Kind)
	}
	if st.Event.ID != "er" {
		t.Errorf("anchored event = %q", st.Event.ID)
	}

	// Dragging back into the past region switches the anchor to a sample.
	st = e.Pointer(crosshair.PointerEvent{X: 50, Phase: crosshair.PhaseMove, At: now.Add(250 * time.Millisecond)})
	if st.Kind != model.AnchorSample {
		t.Errorf("anchor kind after drag back = %v, want sample", st.Kind)
	}
}

func TestEngine_StationaryHoldArmsViaTick(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	e.SetSamples(intradaySamples(10))
	if _, err := e.Render(etTime(12, 0)); err != nil {
		t.Fatalf("render: %v", err)
	}

	base := etTime(12, 0)
	e.Pointer(crosshair.PointerEvent{X: 40, Phase: crosshair.PhaseDown, At: base})

	// The pointer never moves; the render-cadence tick arms the crosshair.
	st, armed := e.Tick(base.Add(crosshair.DefaultHoldThreshold + time.Millisecond))
	if !armed || !st.Active || st.Kind != model.AnchorSample {
		t.Fatalf("tick did not arm on a sample: armed=%v state=%+v", armed, st)
	}
	if _, again := e.Tick(base.Add(time.Second)); again {
		t.Error("second tick re-armed")
	}
}

func TestEngine_RequestResolutionSignalsOnly(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	var requested []model.Resolution
	e.OnRangeChangeRequest = func(r model.Resolution) { requested = append(requested, r) }

	e.RequestResolution(model.Res1W)
	if len(requested) != 1 || requested[0] != model.Res1W {
		t.Fatalf("requests = %v", requested)
	}
	if e.Resolution() != model.Res1D {
		t.Errorf("resolution changed by request alone: %v", e.Resolution())
	}
}

func TestEngine_SkippedSamplesReported(t *testing.T) {
	e := New(model.Res1D, model.Hor3M, testVP)
	skipped := 0
	e.OnSamplesSkipped = func(n int) { skipped += n }
	samples := intradaySamples(5)
	samples[2].Price = -1
	e.SetSamples(samples)
	if _, err := e.Render(etTime(12, 0)); err != nil {
		t.Fatalf("render: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestPulseTicket_Lifecycle(t *testing.T) {
	p := NewPulseTicket()
	if !p.Running() {
		t.Fatal("new ticket not running")
	}
	p.Pause()
	if p.Running() {
		t.Error("paused ticket still running")
	}
	p.Resume()
	if !p.Running() {
		t.Error("resumed ticket not running")
	}
	p.Cancel()
	p.Resume()
	if p.Running() {
		t.Error("canceled ticket resumed")
	}
}
