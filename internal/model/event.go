package model

import "time"

// EventType classifies a scheduled catalyst.
type EventType string

const (
	EventEarnings   EventType = "earnings"
	EventDividend   EventType = "dividend"
	EventSplit      EventType = "split"
	EventRegulatory EventType = "regulatory"
	EventMacro      EventType = "macro"
	EventOther      EventType = "other"
)

// CatalystEvent is a scheduled, named future event (earnings release,
// regulatory decision, ...) supplied by an external collaborator.
// The engine never mutates or persists these; it sorts them by timestamp
// at render time.
type CatalystEvent struct {
	ID     string    `json:"id"`
	Symbol string    `json:"symbol"`
	TS     time.Time `json:"ts"`
	Type   EventType `json:"type"`
	Title  string    `json:"title"`
}
