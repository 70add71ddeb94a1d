package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"chart-systemv1/internal/chart/crosshair"
	"chart-systemv1/internal/model"
)

func TestFrameOut_Mapping(t *testing.T) {
	f := model.Frame{
		Past: []model.PathSegment{
			{Session: model.PreMarket, Path: "M 0.00 10.00", Opacity: 0.3},
			{Session: model.Regular, Path: "M 10.00 20.00 C 1 2 3 4 5 6", Opacity: 1},
		},
		Markers: []model.Marker{
			{X: 200, Y: 100, Count: 2, Events: []model.CatalystEvent{
				{ID: "e1", Symbol: "AAPL", TS: time.UnixMilli(1700000000000), Type: model.EventEarnings, Title: "Q4 earnings"},
				{ID: "e2", Symbol: "AAPL", TS: time.UnixMilli(1700086400000), Type: model.EventDividend, Title: "Dividend"},
			}},
		},
		DividerX:     180,
		PrevCloseY:   55.5,
		HasPrevClose: true,
		Viewport:     model.Viewport{WidthPx: 300, HeightPx: 200, PastFraction: 0.6},
		Resolution:   model.Res1D,
		Horizon:      model.Hor3M,
	}

	out := frameOut(f)

	if out.Type != "frame" {
		t.Errorf("Type = %q, want frame", out.Type)
	}
	if out.Resolution != "1d" || out.Horizon != "3m" {
		t.Errorf("selections = %s/%s, want 1d/3m", out.Resolution, out.Horizon)
	}
	if len(out.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(out.Segments))
	}
	if out.Segments[0].Session != "pre_market" || out.Segments[0].Opacity != 0.3 {
		t.Errorf("segment[0] = %+v", out.Segments[0])
	}
	if len(out.Markers) != 1 || out.Markers[0].Count != 2 {
		t.Fatalf("markers = %+v", out.Markers)
	}
	if out.Markers[0].Events[0].TS != 1700000000000 {
		t.Errorf("event ts = %d, want millis preserved", out.Markers[0].Events[0].TS)
	}
	if !out.HasPrev || out.PrevCloseY != 55.5 {
		t.Errorf("prev close = %v/%v", out.HasPrev, out.PrevCloseY)
	}

	// The envelope must be valid JSON.
	if _, err := json.Marshal(out); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestCrosshairOut_Anchors(t *testing.T) {
	sample := crosshairOut(model.CrosshairState{
		Active: true,
		Kind:   model.AnchorSample,
		Pixel:  model.Point{X: 42, Y: 84},
		Value:  101.25,
		TS:     time.UnixMilli(1700000000000),
	})
	if sample.Anchor != "sample" || sample.Value != 101.25 || sample.TS != 1700000000000 {
		t.Errorf("sample anchor = %+v", sample)
	}

	event := crosshairOut(model.CrosshairState{
		Active: true,
		Kind:   model.AnchorEvent,
		Pixel:  model.Point{X: 250, Y: 100},
		Event:  model.CatalystEvent{ID: "e9", Type: model.EventMacro, Title: "CPI print"},
	})
	if event.Anchor != "event" || event.Event == nil || event.Event.ID != "e9" {
		t.Errorf("event anchor = %+v", event)
	}

	released := crosshairOut(model.CrosshairState{Active: false})
	if released.Anchor != "none" || released.Active {
		t.Errorf("released = %+v", released)
	}
}

func TestParsePhase(t *testing.T) {
	cases := []struct {
		in   string
		want crosshair.Phase
		ok   bool
	}{
		{"down", crosshair.PhaseDown, true},
		{"move", crosshair.PhaseMove, true},
		{"up", crosshair.PhaseUp, true},
		{"cancel", crosshair.PhaseCancel, true},
		{"hover", 0, false},
	}
	for _, tc := range cases {
		got, ok := parsePhase(tc.in)
		if ok != tc.ok {
			t.Errorf("parsePhase(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("parsePhase(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClientMsg_Decode(t *testing.T) {
	raw := `{"type":"pointer","phase":"move","x":120.5,"y":88}`
	var msg ClientMsg
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "pointer" || msg.Phase != "move" || msg.X != 120.5 {
		t.Errorf("decoded = %+v", msg)
	}

	raw = `{"type":"resolution","value":"1w"}`
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Value != "1w" {
		t.Errorf("value = %q, want 1w", msg.Value)
	}
}
