// Package markethours resolves US equity trading sessions and trading-day
// bounds using explicit fixed-offset arithmetic. Locale-based conversion has
// been observed to diverge between platforms for the same instant, so all
// comparisons happen on market-local minutes-since-midnight.
//
// Known limitation, kept on purpose: ET is a fixed UTC-5 zone and does not
// follow daylight-saving transitions. Correcting it would move the observable
// session boundaries twice a year, so the fixed offset stays until that
// behavior change is decided explicitly.
package markethours

import (
	"log"
	"time"

	"chart-systemv1/internal/model"
)

// ET is the fixed market timezone (UTC-5, no DST adjustment).
var ET = time.FixedZone("ET", -5*3600)

// Session boundaries as market-local minutes since midnight.
const (
	PreMarketStartMin = 4 * 60    // 04:00
	RegularStartMin   = 9*60 + 30 // 09:30
	RegularEndMin     = 16 * 60   // 16:00
	AfterHoursEndMin  = 20 * 60   // 20:00
)

// Resolve returns the session tag for an instant. Weekends and holidays
// resolve unconditionally to Closed regardless of time-of-day. A zero
// timestamp resolves to Closed with a warning rather than an error: a chart
// must still render with degraded fidelity.
func Resolve(t time.Time) model.SessionTag {
	if t.IsZero() {
		log.Printf("[markethours] zero timestamp, resolving to closed")
		return model.Closed
	}

	et := t.In(ET)
	wd := et.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return model.Closed
	}
	if IsHoliday(et) {
		return model.Closed
	}

	hm := et.Hour()*60 + et.Minute()
	switch {
	case hm < PreMarketStartMin:
		return model.Closed
	case hm < RegularStartMin:
		return model.PreMarket
	case hm < RegularEndMin:
		return model.Regular
	case hm < AfterHoursEndMin:
		return model.AfterHours
	default:
		return model.Closed
	}
}

// TradingDayContext holds the bounds of one trading day in the market
// timezone. It is derived per render pass from the latest sample's date,
// never from the rendering device's wall clock, so historical charts do not
// drift.
type TradingDayContext struct {
	DayStart       time.Time
	PreMarketStart time.Time
	RegularStart   time.Time
	RegularEnd     time.Time
	AfterHoursEnd  time.Time
	DayEnd         time.Time
}

// DayContext computes the trading-day bounds for the day containing ref.
// A zero ref yields the context for the Unix epoch day; callers that can do
// better should pass the latest sample timestamp.
func DayContext(ref time.Time) TradingDayContext {
	if ref.IsZero() {
		log.Printf("[markethours] zero reference timestamp for day context")
		ref = time.Unix(0, 0)
	}
	et := ref.In(ET)
	dayStart := time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, ET)
	return TradingDayContext{
		DayStart:       dayStart,
		PreMarketStart: dayStart.Add(PreMarketStartMin * time.Minute),
		RegularStart:   dayStart.Add(RegularStartMin * time.Minute),
		RegularEnd:     dayStart.Add(RegularEndMin * time.Minute),
		AfterHoursEnd:  dayStart.Add(AfterHoursEndMin * time.Minute),
		DayEnd:         dayStart.AddDate(0, 0, 1),
	}
}

// IsWeekday returns true if t is Mon-Fri in market time.
func IsWeekday(t time.Time) bool {
	wd := t.In(ET).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not a market holiday.
func IsTradingDay(t time.Time) bool {
	et := t.In(ET)
	return IsWeekday(et) && !IsHoliday(et)
}
