package predict

import "fmt"

// TeamSeasonStats is a team's season reduced to per-venue xG totals and averages
type TeamSeasonStats struct {
	Team string `json:"team"`

	HomeGamesPlayed int `json:"homeGamesPlayed"`
	AwayGamesPlayed int `json:"awayGamesPlayed"`

	HomeXG  float64 `json:"homeXG"`
	HomeXGA float64 `json:"homeXGA"`
	AwayXG  float64 `json:"awayXG"`
	AwayXGA float64 `json:"awayXGA"`

	// Per-game averages, zero when the venue has no games
	AvgXGHome  float64 `json:"avgXGHome"`
	AvgXGAHome float64 `json:"avgXGAHome"`
	AvgXGAway  float64 `json:"avgXGAway"`
	AvgXGAAway float64 `json:"avgXGAAway"`
}

// AggregateTeam reduces one team's match history into season stats.
// Records with an unrecognised venue fall into neither partition.
func AggregateTeam(name string, records []MatchRecord) TeamSeasonStats {
	ts := TeamSeasonStats{Team: name}
	for _, r := range records {
		switch r.Venue {
		case Home:
			ts.HomeGamesPlayed++
			ts.HomeXG += r.XG
			ts.HomeXGA += r.XGA
		case Away:
			ts.AwayGamesPlayed++
			ts.AwayXG += r.XG
			ts.AwayXGA += r.XGA
		}
	}
	ts.computeAverages()
	return ts
}

// computeAverages derives the four averages from the sums, treating a zero
// game count as one so an empty venue averages to zero
func (ts *TeamSeasonStats) computeAverages() {
	home := float64(max(ts.HomeGamesPlayed, 1))
	away := float64(max(ts.AwayGamesPlayed, 1))
	ts.AvgXGHome = ts.HomeXG / home
	ts.AvgXGAHome = ts.HomeXGA / home
	ts.AvgXGAway = ts.AwayXG / away
	ts.AvgXGAAway = ts.AwayXGA / away
}

// GamesPlayed is the total across both venues
func (ts TeamSeasonStats) GamesPlayed() int {
	return ts.HomeGamesPlayed + ts.AwayGamesPlayed
}

func (ts TeamSeasonStats) validate() error {
	if ts.Team == "" {
		return fmt.Errorf("team name is empty")
	}
	if ts.HomeGamesPlayed < 0 || ts.AwayGamesPlayed < 0 {
		return fmt.Errorf("team %s has a negative games played count", ts.Team)
	}
	for _, v := range []float64{ts.HomeXG, ts.HomeXGA, ts.AwayXG, ts.AwayXGA} {
		if !isNonNegative(v) {
			return fmt.Errorf("team %s has an invalid xG total %v", ts.Team, v)
		}
	}
	return nil
}
