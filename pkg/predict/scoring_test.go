package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsAwarded(t *testing.T) {
	tests := []struct {
		name           string
		gh, ga, ah, aa int
		want           float64
	}{
		{"exact", 3, 1, 3, 1, 3.0},
		{"close home win", 2, 1, 3, 1, 1.5},
		{"home win, home count off by two", 1, 0, 3, 0, 1.0},
		{"draw guessed, home win actual", 0, 0, 1, 0, 0.0},
		{"close draw", 1, 1, 2, 2, 1.5},
		{"distant draw", 0, 0, 3, 3, 1.0},
		{"wrong direction", 2, 0, 0, 2, 0.0},
		{"close away win", 0, 1, 1, 2, 1.5},
		{"away win, away count off by two", 0, 1, 0, 3, 1.0},
		{"exact goalless", 0, 0, 0, 0, 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointsAwarded(tt.gh, tt.ga, tt.ah, tt.aa))
		})
	}
}

func TestBestGuessMatchesWorkedExample(t *testing.T) {
	g, err := NewScoreGrid(1.8, 1.1)
	require.NoError(t, err)

	best := g.BestGuess()
	assert.Equal(t, Score{2, 1}, best.Score)
	assert.InDelta(t, 0.89756, best.ExpectedPoints, 1e-5)

	// selected independently of the most likely score
	assert.NotEqual(t, g.MostLikelyScore().Score(), best.Score)
}

func TestBestGuessIsOptimal(t *testing.T) {
	for _, xg := range [][2]float64{{1.8, 1.1}, {0.3, 2.9}, {1.0, 1.0}, {3.5, 0.2}, {0, 1.7}} {
		g, err := NewScoreGrid(xg[0], xg[1])
		require.NoError(t, err)

		best := g.BestGuess()
		assert.InDelta(t, g.ExpectedPoints(best.Score), best.ExpectedPoints, 1e-15)
		for h := 0; h <= MaxGoals; h++ {
			for a := 0; a <= MaxGoals; a++ {
				assert.GreaterOrEqual(t, best.ExpectedPoints+tieEpsilon, g.ExpectedPoints(Score{h, a}),
					"xg %v guess %d-%d beats %s", xg, h, a, best.Score)
			}
		}

		ranked := g.RankGuesses()
		require.Len(t, ranked, GridSize*GridSize)
		assert.Equal(t, best, ranked[0])
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, ranked[i-1].ExpectedPoints+tieEpsilon, ranked[i].ExpectedPoints)
		}
	}
}

func TestExpectedPointsOfCertainResult(t *testing.T) {
	cells := make([]ScoreProbability, 0, GridSize*GridSize)
	for h := 0; h <= MaxGoals; h++ {
		for a := 0; a <= MaxGoals; a++ {
			p := 0.0
			if h == 2 && a == 0 {
				p = 1
			}
			cells = append(cells, ScoreProbability{Home: h, Away: a, Probability: p})
		}
	}
	g, err := ScoreGridFromCells(cells)
	require.NoError(t, err)

	assert.Equal(t, PointsExact, g.ExpectedPoints(Score{2, 0}))
	assert.Equal(t, PointsClose, g.ExpectedPoints(Score{1, 0}))
	assert.Equal(t, PointsOutcome, g.ExpectedPoints(Score{5, 0}))
	assert.Equal(t, PointsNone, g.ExpectedPoints(Score{0, 0}))
	assert.Equal(t, Score{2, 0}, g.BestGuess().Score)
}

func TestSymmetricFixturePrefersHomeWin(t *testing.T) {
	for _, xg := range []float64{1.0, 1.6, 2.0, 2.5} {
		g, err := NewScoreGrid(xg, xg)
		require.NoError(t, err)

		best := g.BestGuess()
		mirror := Score{Home: best.Away, Away: best.Home}
		assert.GreaterOrEqual(t, best.Home, best.Away, "xg %v picked %s", xg, best.Score)
		if best.Home != best.Away {
			assert.InDelta(t, g.ExpectedPoints(mirror), best.ExpectedPoints, tieEpsilon)
		}

		ranked := g.RankGuesses()
		assert.Equal(t, best, ranked[0])
	}
}

func TestBeatsIgnoresRoundingNoise(t *testing.T) {
	assert.True(t, beats(0.5, 0.4))
	assert.False(t, beats(0.4, 0.4))
	assert.False(t, beats(0.4+2e-16, 0.4))
	assert.False(t, beats(0.3, 0.4))
}
