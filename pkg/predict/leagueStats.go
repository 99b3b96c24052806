package predict

import (
	"fmt"
	"sort"

	"github.com/richard-senior/xgscore/pkg/util"
)

// LeagueStatsTable maps team names to season stats along with the league-wide
// per-venue conceded averages. A table is never modified after construction;
// refreshes build a new one.
type LeagueStatsTable struct {
	teams map[string]TeamSeasonStats
	// normalised name -> table name
	aliases map[string]string
	names   []string

	avgHomeConceded float64
	avgAwayConceded float64
	homeGames       int
	awayGames       int
}

// NewLeagueStatsTable validates stats and builds a table from them.
// Averages are recomputed from the sums so rehydrated rows cannot drift.
func NewLeagueStatsTable(stats []TeamSeasonStats) (*LeagueStatsTable, error) {
	if len(stats) == 0 {
		return nil, fmt.Errorf("league table needs at least one team")
	}

	t := &LeagueStatsTable{
		teams:   make(map[string]TeamSeasonStats, len(stats)),
		aliases: make(map[string]string, len(stats)),
		names:   make([]string, 0, len(stats)),
	}

	var homeXGA, awayXGA float64
	for _, s := range stats {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.teams[s.Team]; dup {
			return nil, fmt.Errorf("duplicate team %s in league table", s.Team)
		}
		s.computeAverages()
		t.teams[s.Team] = s
		t.names = append(t.names, s.Team)
		if key := util.NormaliseName(s.Team); key != "" {
			if _, clash := t.aliases[key]; !clash {
				t.aliases[key] = s.Team
			}
		}

		t.homeGames += s.HomeGamesPlayed
		t.awayGames += s.AwayGamesPlayed
		homeXGA += s.HomeXGA
		awayXGA += s.AwayXGA
	}
	sort.Strings(t.names)

	if t.homeGames > 0 {
		t.avgHomeConceded = homeXGA / float64(t.homeGames)
	}
	if t.awayGames > 0 {
		t.avgAwayConceded = awayXGA / float64(t.awayGames)
	}
	return t, nil
}

// BuildLeagueStatsTable aggregates every team's history and builds the table
func BuildLeagueStatsTable(histories map[string][]MatchRecord) (*LeagueStatsTable, error) {
	stats := make([]TeamSeasonStats, 0, len(histories))
	for name, records := range histories {
		stats = append(stats, AggregateTeam(name, records))
	}
	return NewLeagueStatsTable(stats)
}

// Team returns a copy of the named team's stats
func (t *LeagueStatsTable) Team(name string) (TeamSeasonStats, bool) {
	s, ok := t.teams[name]
	return s, ok
}

// Resolve maps a user supplied name onto a table name, first exactly and then
// ignoring case and punctuation
func (t *LeagueStatsTable) Resolve(name string) (string, bool) {
	if _, ok := t.teams[name]; ok {
		return name, true
	}
	canonical, ok := t.aliases[util.NormaliseName(name)]
	return canonical, ok
}

// Suggest returns table names close to name
func (t *LeagueStatsTable) Suggest(name string) []string {
	return util.ClosestMatches(name, t.names, 3, 0.6)
}

// Teams returns the team names in sorted order
func (t *LeagueStatsTable) Teams() []string {
	return append([]string(nil), t.names...)
}

// Stats returns a copy of every team's stats sorted by name
func (t *LeagueStatsTable) Stats() []TeamSeasonStats {
	out := make([]TeamSeasonStats, 0, len(t.names))
	for _, n := range t.names {
		out = append(out, t.teams[n])
	}
	return out
}

func (t *LeagueStatsTable) Len() int {
	return len(t.names)
}

// LeagueAvgHomeConceded is total home xGA over total home games, zero when no
// home games have been played
func (t *LeagueStatsTable) LeagueAvgHomeConceded() float64 {
	return t.avgHomeConceded
}

// LeagueAvgAwayConceded is total away xGA over total away games
func (t *LeagueStatsTable) LeagueAvgAwayConceded() float64 {
	return t.avgAwayConceded
}

// GamesPlayed returns the summed home and away game counts across the league
func (t *LeagueStatsTable) GamesPlayed() (home, away int) {
	return t.homeGames, t.awayGames
}
