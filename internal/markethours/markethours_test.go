package markethours

import (
	"testing"
	"time"

	"chart-systemv1/internal/model"
)

// et builds an instant at the given wall-clock time in the fixed market zone.
// 2026-03-04 is a Wednesday with no holiday.
func et(hour, min int) time.Time {
	return time.Date(2026, 3, 4, hour, min, 0, 0, ET)
}

func TestResolve_SessionBoundaries(t *testing.T) {
	cases := []struct {
		name string
		ts   time.Time
		want model.SessionTag
	}{
		{"overnight", et(3, 59), model.Closed},
		{"pre-market open", et(4, 0), model.PreMarket},
		{"pre-market last minute", et(9, 29), model.PreMarket},
		{"regular open", et(9, 30), model.Regular},
		{"midday", et(12, 0), model.Regular},
		{"regular last minute", et(15, 59), model.Regular},
		{"after-hours start", et(16, 0), model.AfterHours},
		{"after-hours last minute", et(19, 59), model.AfterHours},
		{"after-hours end", et(20, 0), model.Closed},
		{"late evening", et(23, 30), model.Closed},
	}
	for _, tc := range cases {
		if got := Resolve(tc.ts); got != tc.want {
			t.Errorf("%s: Resolve(%v) = %v, want %v", tc.name, tc.ts, got, tc.want)
		}
	}
}

func TestResolve_WeekendAlwaysClosed(t *testing.T) {
	// 2026-03-07 is a Saturday, 2026-03-08 a Sunday.
	for day := 7; day <= 8; day++ {
		for _, hm := range [][2]int{{4, 0}, {9, 30}, {12, 0}, {16, 0}, {19, 0}} {
			ts := time.Date(2026, 3, day, hm[0], hm[1], 0, 0, ET)
			if got := Resolve(ts); got != model.Closed {
				t.Errorf("weekend %v resolved to %v, want closed", ts, got)
			}
		}
	}
}

func TestResolve_HolidayClosed(t *testing.T) {
	// 2026-07-03 is the observed Independence Day holiday (a Friday).
	ts := time.Date(2026, 7, 3, 12, 0, 0, 0, ET)
	if got := Resolve(ts); got != model.Closed {
		t.Errorf("holiday resolved to %v, want closed", got)
	}
}

func TestResolve_ZeroTimestamp(t *testing.T) {
	if got := Resolve(time.Time{}); got != model.Closed {
		t.Errorf("zero timestamp resolved to %v, want closed", got)
	}
}

func TestResolve_UTCConversion(t *testing.T) {
	// 14:30 UTC == 09:30 ET under the fixed UTC-5 offset.
	ts := time.Date(2026, 3, 4, 14, 30, 0, 0, time.UTC)
	if got := Resolve(ts); got != model.Regular {
		t.Errorf("14:30 UTC resolved to %v, want regular", got)
	}
}

func TestDayContext_Bounds(t *testing.T) {
	ref := et(11, 17)
	ctx := DayContext(ref)

	if !ctx.DayStart.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, ET)) {
		t.Errorf("day start = %v", ctx.DayStart)
	}
	if !ctx.PreMarketStart.Equal(et(4, 0)) {
		t.Errorf("pre-market start = %v", ctx.PreMarketStart)
	}
	if !ctx.RegularStart.Equal(et(9, 30)) {
		t.Errorf("regular start = %v", ctx.RegularStart)
	}
	if !ctx.RegularEnd.Equal(et(16, 0)) {
		t.Errorf("regular end = %v", ctx.RegularEnd)
	}
	if !ctx.AfterHoursEnd.Equal(et(20, 0)) {
		t.Errorf("after-hours end = %v", ctx.AfterHoursEnd)
	}
	if !ctx.DayEnd.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, ET)) {
		t.Errorf("day end = %v", ctx.DayEnd)
	}
	if got := ctx.DayEnd.Sub(ctx.DayStart); got != 24*time.Hour {
		t.Errorf("day span = %v, want 24h", got)
	}
}

func TestDayContext_UsesReferenceDateNotWallClock(t *testing.T) {
	// A historical reference date must yield that day's bounds.
	ref := time.Date(2024, 8, 14, 13, 0, 0, 0, ET)
	ctx := DayContext(ref)
	if ctx.DayStart.Year() != 2024 || ctx.DayStart.Month() != time.August || ctx.DayStart.Day() != 14 {
		t.Errorf("day start = %v, want 2024-08-14", ctx.DayStart)
	}
}

func TestIsTradingDay(t *testing.T) {
	if !IsTradingDay(et(10, 0)) {
		t.Error("Wednesday should be a trading day")
	}
	sat := time.Date(2026, 3, 7, 10, 0, 0, 0, ET)
	if IsTradingDay(sat) {
		t.Error("Saturday should not be a trading day")
	}
	holiday := time.Date(2026, 12, 25, 10, 0, 0, 0, ET)
	if IsTradingDay(holiday) {
		t.Error("Christmas should not be a trading day")
	}
}
