package model

import (
	"fmt"
	"time"
)

// Resolution is the selected past-history display granularity. It decides
// both the lookback window and the X-mapping mode: intraday charts map
// proportional time-of-day, multi-day charts map ordinal index (so weekends
// and holidays do not render as empty gaps), and multi-year charts revert to
// proportional elapsed time because daily index spacing becomes too coarse.
type Resolution uint8

const (
	Res1D Resolution = iota
	Res1W
	Res1M
	Res3M
	Res6M
	Res1Y
	Res5Y
)

// MappingMode selects how the position mapper turns a sample into an
// X coordinate.
type MappingMode uint8

const (
	ModeTime      MappingMode = iota // proportional time-of-day within the trading day
	ModeIndex                        // ordinal index across the visible series
	ModeTimestamp                    // proportional elapsed time across the full range
)

var resolutionNames = [...]string{"1d", "1w", "1m", "3m", "6m", "1y", "5y"}

func (r Resolution) String() string {
	if int(r) < len(resolutionNames) {
		return resolutionNames[r]
	}
	return "1d"
}

// Mode returns the X-mapping mode for this resolution.
func (r Resolution) Mode() MappingMode {
	switch r {
	case Res1D:
		return ModeTime
	case Res5Y:
		return ModeTimestamp
	default:
		return ModeIndex
	}
}

// Window returns the lookback duration covered by this resolution.
func (r Resolution) Window() time.Duration {
	switch r {
	case Res1D:
		return 24 * time.Hour
	case Res1W:
		return 7 * 24 * time.Hour
	case Res1M:
		return 31 * 24 * time.Hour
	case Res3M:
		return 92 * 24 * time.Hour
	case Res6M:
		return 183 * 24 * time.Hour
	case Res1Y:
		return 365 * 24 * time.Hour
	case Res5Y:
		return 5 * 365 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// ParseResolution maps a wire name ("1d" ... "5y") to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	for i, name := range resolutionNames {
		if s == name {
			return Resolution(i), nil
		}
	}
	return Res1D, fmt.Errorf("unknown resolution %q", s)
}

// Horizon is the selected forward time window for the future region.
// It is independent of the past resolution: a user may view one day of
// history alongside three years of upcoming events.
type Horizon uint8

const (
	Hor1M Horizon = iota
	Hor3M
	Hor6M
	Hor1Y
	Hor3Y
)

var horizonNames = [...]string{"1m", "3m", "6m", "1y", "3y"}

func (h Horizon) String() string {
	if int(h) < len(horizonNames) {
		return horizonNames[h]
	}
	return "3m"
}

// Duration returns the forward window length.
func (h Horizon) Duration() time.Duration {
	switch h {
	case Hor1M:
		return 31 * 24 * time.Hour
	case Hor3M:
		return 92 * 24 * time.Hour
	case Hor6M:
		return 183 * 24 * time.Hour
	case Hor1Y:
		return 365 * 24 * time.Hour
	case Hor3Y:
		return 3 * 365 * 24 * time.Hour
	}
	return 92 * 24 * time.Hour
}

// ParseHorizon maps a wire name ("1m" ... "3y") to a Horizon.
func ParseHorizon(s string) (Horizon, error) {
	for i, name := range horizonNames {
		if s == name {
			return Horizon(i), nil
		}
	}
	return Hor3M, fmt.Errorf("unknown horizon %q", s)
}
