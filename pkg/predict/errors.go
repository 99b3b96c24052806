package predict

import (
	"fmt"
	"strings"
)

// UnknownTeamError is returned when one or both fixture teams are not in the league table
type UnknownTeamError struct {
	Teams []string
	// Suggestions maps each missing name to close matches from the table
	Suggestions map[string][]string
}

func (e *UnknownTeamError) Error() string {
	var b strings.Builder
	if len(e.Teams) == 1 {
		fmt.Fprintf(&b, "unknown team: %s", e.Teams[0])
	} else {
		fmt.Fprintf(&b, "unknown teams: %s", strings.Join(e.Teams, ", "))
	}
	for _, t := range e.Teams {
		if s := e.Suggestions[t]; len(s) > 0 {
			fmt.Fprintf(&b, " (%s: did you mean %s?)", t, strings.Join(s, " or "))
		}
	}
	return b.String()
}

// InvalidFixtureError is returned for fixtures that cannot be played, such as
// a team against itself
type InvalidFixtureError struct {
	Home   string
	Away   string
	Reason string
}

func (e *InvalidFixtureError) Error() string {
	return fmt.Sprintf("invalid fixture %q v %q: %s", e.Home, e.Away, e.Reason)
}

// DataUnavailableError is returned when no fresh league table can be produced
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("league data unavailable from %s", e.Source)
	}
	return fmt.Sprintf("league data unavailable from %s: %v", e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// DegenerateLeagueAverageError is returned under DegenerateFail when the
// league-wide conceded average for a venue is zero
type DegenerateLeagueAverageError struct {
	Venue Venue
}

func (e *DegenerateLeagueAverageError) Error() string {
	return fmt.Sprintf("league average xGA conceded at %s is zero", e.Venue)
}
