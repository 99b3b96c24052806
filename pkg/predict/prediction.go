package predict

import (
	"fmt"

	"github.com/richard-senior/xgscore/pkg/util"
)

// FixturePrediction is the outcome of predicting one fixture. Expected goals
// are rounded to two places for display; the grid behind the selections used
// the unrounded values.
type FixturePrediction struct {
	HomeTeam          string  `json:"homeTeam"`
	AwayTeam          string  `json:"awayTeam"`
	HomeExpectedGoals float64 `json:"homeExpectedGoals"`
	AwayExpectedGoals float64 `json:"awayExpectedGoals"`

	MostLikely            Score   `json:"mostLikely"`
	MostLikelyProbability float64 `json:"mostLikelyProbability"`
	BestGuess             Score   `json:"bestGuess"`
	BestGuessPoints       float64 `json:"bestGuessExpectedPoints"`

	Outcome OutcomeProbabilities `json:"outcome"`
	Over1p5 float64              `json:"over1p5"`
	Over2p5 float64              `json:"over2p5"`

	HomeDegenerate bool `json:"homeDegenerate,omitempty"`
	AwayDegenerate bool `json:"awayDegenerate,omitempty"`
}

// Headline renders the prediction as "Home 2 - 1 Away" using the best guess
func (fp FixturePrediction) Headline() string {
	return fmt.Sprintf("%s %d - %d %s", fp.HomeTeam, fp.BestGuess.Home, fp.BestGuess.Away, fp.AwayTeam)
}

// Distribution is the full working behind a prediction
type Distribution struct {
	ExpectedGoals ExpectedGoals
	Grid          ScoreGrid
}

// Predictor runs the pipeline from league table to prediction
type Predictor struct {
	Policy DegeneratePolicy
}

// Distribution estimates expected goals and expands them into a score grid
func (p Predictor) Distribution(home, away string, table *LeagueStatsTable) (Distribution, error) {
	if err := ValidateFixture(home, away); err != nil {
		return Distribution{}, err
	}
	xg, err := EstimateExpectedGoals(home, away, table, p.Policy)
	if err != nil {
		return Distribution{}, err
	}
	grid, err := NewScoreGrid(xg.Home, xg.Away)
	if err != nil {
		return Distribution{}, err
	}
	return Distribution{ExpectedGoals: xg, Grid: grid}, nil
}

// Predict returns the full prediction for home v away. Nothing is returned
// unless every step succeeds.
func (p Predictor) Predict(home, away string, table *LeagueStatsTable) (FixturePrediction, error) {
	d, err := p.Distribution(home, away, table)
	if err != nil {
		return FixturePrediction{}, err
	}
	ml := d.Grid.MostLikelyScore()
	bg := d.Grid.BestGuess()

	return FixturePrediction{
		HomeTeam:              d.ExpectedGoals.HomeTeam,
		AwayTeam:              d.ExpectedGoals.AwayTeam,
		HomeExpectedGoals:     util.Round(d.ExpectedGoals.Home, 2),
		AwayExpectedGoals:     util.Round(d.ExpectedGoals.Away, 2),
		MostLikely:            ml.Score(),
		MostLikelyProbability: ml.Probability,
		BestGuess:             bg.Score,
		BestGuessPoints:       bg.ExpectedPoints,
		Outcome:               d.Grid.OutcomeProbabilities(),
		Over1p5:               d.Grid.OverGoalsProbability(1.5),
		Over2p5:               d.Grid.OverGoalsProbability(2.5),
		HomeDegenerate:        d.ExpectedGoals.HomeDegenerate,
		AwayDegenerate:        d.ExpectedGoals.AwayDegenerate,
	}, nil
}

// PredictFixture predicts with the fallback degenerate-average policy
func PredictFixture(home, away string, table *LeagueStatsTable) (FixturePrediction, error) {
	return Predictor{}.Predict(home, away, table)
}

// DistributionReport is a serialisable view of a distribution
type DistributionReport struct {
	HomeTeam          string               `json:"homeTeam"`
	AwayTeam          string               `json:"awayTeam"`
	HomeExpectedGoals float64              `json:"homeExpectedGoals"`
	AwayExpectedGoals float64              `json:"awayExpectedGoals"`
	Cells             []ScoreProbability   `json:"cells"`
	TotalMass         float64              `json:"totalMass"`
	Outcome           OutcomeProbabilities `json:"outcome"`
	Guesses           []Guess              `json:"guesses"`
}

// Report lists every cell in grid order and the top guesses by expected
// points. top <= 0 keeps all of them.
func (d Distribution) Report(top int) DistributionReport {
	guesses := d.Grid.RankGuesses()
	if top > 0 && top < len(guesses) {
		guesses = guesses[:top]
	}
	return DistributionReport{
		HomeTeam:          d.ExpectedGoals.HomeTeam,
		AwayTeam:          d.ExpectedGoals.AwayTeam,
		HomeExpectedGoals: util.Round(d.ExpectedGoals.Home, 2),
		AwayExpectedGoals: util.Round(d.ExpectedGoals.Away, 2),
		Cells:             d.Grid.Cells(),
		TotalMass:         d.Grid.TotalMass(),
		Outcome:           d.Grid.OutcomeProbabilities(),
		Guesses:           guesses,
	}
}
