package predict

import (
	"fmt"
	"math"
	"time"
)

// Venue says whether a team played a fixture at home or away
type Venue string

const (
	Home Venue = "h"
	Away Venue = "a"
)

func (v Venue) String() string {
	switch v {
	case Home:
		return "home"
	case Away:
		return "away"
	default:
		return "unknown"
	}
}

// ParseVenue accepts the short understat flags ("h", "a") and the long names
func ParseVenue(s string) (Venue, error) {
	switch s {
	case "h", "H", "home", "Home":
		return Home, nil
	case "a", "A", "away", "Away":
		return Away, nil
	}
	return "", fmt.Errorf("unknown venue %q", s)
}

// MatchRecord is one historical fixture from a single team's point of view
type MatchRecord struct {
	Venue Venue     `json:"venue"`
	XG    float64   `json:"xG"`
	XGA   float64   `json:"xGA"`
	Date  time.Time `json:"date"`
}

// Validate reports records that would break the aggregate invariants
func (r MatchRecord) Validate() error {
	if r.Venue != Home && r.Venue != Away {
		return fmt.Errorf("invalid venue %q", string(r.Venue))
	}
	if !isNonNegative(r.XG) {
		return fmt.Errorf("invalid xG %v", r.XG)
	}
	if !isNonNegative(r.XGA) {
		return fmt.Errorf("invalid xGA %v", r.XGA)
	}
	return nil
}

func isNonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}
