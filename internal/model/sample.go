package model

import "time"

// SessionTag identifies the market-activity period a sample falls in.
// The four values are a closed set: every switch over a SessionTag must
// handle all of them so a new tag cannot slip through silently.
type SessionTag uint8

const (
	PreMarket SessionTag = iota
	Regular
	AfterHours
	Closed
)

// String returns the wire/display name of the tag.
func (s SessionTag) String() string {
	switch s {
	case PreMarket:
		return "pre_market"
	case Regular:
		return "regular"
	case AfterHours:
		return "after_hours"
	case Closed:
		return "closed"
	}
	return "closed"
}

// PriceSample is a single observed price at an instant. Samples are owned
// by the caller and borrowed read-only by the engine for one render pass.
//
// Session is advisory: batch data can carry stale tags across session
// boundaries, so the engine re-derives the tag from TS on every pass and
// only uses the embedded one when Tagged is set and it agrees.
type PriceSample struct {
	TS      time.Time  `json:"ts"`
	Price   float64    `json:"price"`
	Session SessionTag `json:"session,omitempty"`
	Tagged  bool       `json:"-"`
}
