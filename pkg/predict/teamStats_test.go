package predict

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(v Venue, xg, xga float64) MatchRecord {
	return MatchRecord{Venue: v, XG: xg, XGA: xga, Date: time.Date(2024, 8, 17, 15, 0, 0, 0, time.UTC)}
}

func TestAggregateTeam(t *testing.T) {
	stats := AggregateTeam("Arsenal", []MatchRecord{
		rec(Home, 1.0, 0.5),
		rec(Away, 0.8, 1.2),
		rec(Home, 2.0, 1.5),
	})

	assert.Equal(t, "Arsenal", stats.Team)
	assert.Equal(t, 2, stats.HomeGamesPlayed)
	assert.Equal(t, 1, stats.AwayGamesPlayed)
	assert.Equal(t, 3, stats.GamesPlayed())
	assert.InDelta(t, 3.0, stats.HomeXG, 1e-12)
	assert.InDelta(t, 2.0, stats.HomeXGA, 1e-12)
	assert.InDelta(t, 1.5, stats.AvgXGHome, 1e-12)
	assert.InDelta(t, 1.0, stats.AvgXGAHome, 1e-12)
	assert.InDelta(t, 0.8, stats.AvgXGAway, 1e-12)
	assert.InDelta(t, 1.2, stats.AvgXGAAway, 1e-12)
}

func TestAggregateTeamZeroGuard(t *testing.T) {
	t.Run("no home games", func(t *testing.T) {
		stats := AggregateTeam("Fulham", []MatchRecord{rec(Away, 1.1, 0.9)})
		assert.Equal(t, 0, stats.HomeGamesPlayed)
		assert.Equal(t, 0.0, stats.AvgXGHome)
		assert.Equal(t, 0.0, stats.AvgXGAHome)
		assert.InDelta(t, 1.1, stats.AvgXGAway, 1e-12)
	})

	t.Run("empty history", func(t *testing.T) {
		stats := AggregateTeam("Luton", nil)
		for _, v := range []float64{stats.AvgXGHome, stats.AvgXGAHome, stats.AvgXGAway, stats.AvgXGAAway} {
			assert.Equal(t, 0.0, v)
			assert.False(t, math.IsNaN(v))
		}
	})

	t.Run("unknown venue is ignored", func(t *testing.T) {
		stats := AggregateTeam("Spurs", []MatchRecord{rec(Venue("n"), 3, 3), rec(Home, 1, 1)})
		assert.Equal(t, 1, stats.HomeGamesPlayed)
		assert.Equal(t, 0, stats.AwayGamesPlayed)
	})
}

func TestMatchRecordValidate(t *testing.T) {
	require.NoError(t, rec(Home, 0, 0).Validate())
	assert.Error(t, rec(Venue("x"), 1, 1).Validate())
	assert.Error(t, rec(Away, -0.1, 1).Validate())
	assert.Error(t, rec(Away, 1, math.NaN()).Validate())
	assert.Error(t, rec(Away, math.Inf(1), 1).Validate())
}

func TestParseVenue(t *testing.T) {
	v, err := ParseVenue("h")
	require.NoError(t, err)
	assert.Equal(t, Home, v)

	v, err = ParseVenue("away")
	require.NoError(t, err)
	assert.Equal(t, Away, v)

	_, err = ParseVenue("neutral")
	assert.Error(t, err)
}
