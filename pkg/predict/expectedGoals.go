package predict

import (
	"errors"
	"fmt"
	"strings"
)

// DegeneratePolicy decides what happens when a league-wide conceded average is zero
type DegeneratePolicy int

const (
	// DegenerateFallback uses the attacking side's raw average for that venue
	DegenerateFallback DegeneratePolicy = iota
	// DegenerateFail returns a DegenerateLeagueAverageError
	DegenerateFail
)

func (p DegeneratePolicy) String() string {
	if p == DegenerateFail {
		return "fail"
	}
	return "fallback"
}

func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fallback":
		return DegenerateFallback, nil
	case "fail":
		return DegenerateFail, nil
	}
	return DegenerateFallback, fmt.Errorf("unknown degenerate average policy %q", s)
}

var errNoTable = errors.New("no league table loaded")

// ExpectedGoals is the estimator output for one fixture. The flags record
// which side fell back to its raw attacking average.
type ExpectedGoals struct {
	HomeTeam       string  `json:"homeTeam"`
	AwayTeam       string  `json:"awayTeam"`
	Home           float64 `json:"home"`
	Away           float64 `json:"away"`
	HomeDegenerate bool    `json:"homeDegenerate,omitempty"`
	AwayDegenerate bool    `json:"awayDegenerate,omitempty"`
}

// ValidateFixture rejects empty names and a team playing itself
func ValidateFixture(home, away string) error {
	home, away = strings.TrimSpace(home), strings.TrimSpace(away)
	if home == "" || away == "" {
		return &InvalidFixtureError{Home: home, Away: away, Reason: "both teams must be selected"}
	}
	if home == away {
		return &InvalidFixtureError{Home: home, Away: away, Reason: "a team cannot play itself"}
	}
	return nil
}

// EstimateExpectedGoals scales each side's attacking average by the
// opponent's defensive average relative to the league norm:
//
//	home = home.AvgXGHome * away.AvgXGAAway / league away conceded
//	away = away.AvgXGAway * home.AvgXGAHome / league home conceded
func EstimateExpectedGoals(home, away string, table *LeagueStatsTable, policy DegeneratePolicy) (ExpectedGoals, error) {
	if err := ValidateFixture(home, away); err != nil {
		return ExpectedGoals{}, err
	}
	if table == nil {
		return ExpectedGoals{}, &DataUnavailableError{Source: "league table", Err: errNoTable}
	}
	home, away = strings.TrimSpace(home), strings.TrimSpace(away)

	homeName, homeOK := table.Resolve(home)
	awayName, awayOK := table.Resolve(away)
	if !homeOK || !awayOK {
		e := &UnknownTeamError{Suggestions: map[string][]string{}}
		if !homeOK {
			e.Teams = append(e.Teams, home)
			e.Suggestions[home] = table.Suggest(home)
		}
		if !awayOK {
			e.Teams = append(e.Teams, away)
			e.Suggestions[away] = table.Suggest(away)
		}
		return ExpectedGoals{}, e
	}
	if homeName == awayName {
		return ExpectedGoals{}, &InvalidFixtureError{Home: home, Away: away, Reason: "both names resolve to " + homeName}
	}

	h, _ := table.Team(homeName)
	a, _ := table.Team(awayName)
	xg := ExpectedGoals{HomeTeam: homeName, AwayTeam: awayName}

	if d := table.LeagueAvgAwayConceded(); d > 0 {
		xg.Home = h.AvgXGHome * a.AvgXGAAway / d
	} else if policy == DegenerateFail {
		return ExpectedGoals{}, &DegenerateLeagueAverageError{Venue: Away}
	} else {
		xg.Home = h.AvgXGHome
		xg.HomeDegenerate = true
	}

	if d := table.LeagueAvgHomeConceded(); d > 0 {
		xg.Away = a.AvgXGAway * h.AvgXGAHome / d
	} else if policy == DegenerateFail {
		return ExpectedGoals{}, &DegenerateLeagueAverageError{Venue: Home}
	} else {
		xg.Away = a.AvgXGAway
		xg.AwayDegenerate = true
	}

	if !isNonNegative(xg.Home) || !isNonNegative(xg.Away) {
		return ExpectedGoals{}, fmt.Errorf("expected goals for %s v %s are not finite: %v, %v", homeName, awayName, xg.Home, xg.Away)
	}
	return xg, nil
}

