package predict

import "sort"

// Points awarded by the prediction contest
const (
	PointsExact   = 3.0
	PointsClose   = 1.5
	PointsOutcome = 1.0
	PointsNone    = 0.0
)

// PointsAwarded scores a guess against an actual result: an exact score
// earns PointsExact, the right result with both sides within one goal earns
// PointsClose, the right result alone earns PointsOutcome.
func PointsAwarded(guessHome, guessAway, actualHome, actualAway int) float64 {
	if guessHome == actualHome && guessAway == actualAway {
		return PointsExact
	}
	guess := Score{Home: guessHome, Away: guessAway}
	actual := Score{Home: actualHome, Away: actualAway}
	if guess.Result() != actual.Result() {
		return PointsNone
	}
	if abs(guessHome-actualHome) <= 1 && abs(guessAway-actualAway) <= 1 {
		return PointsClose
	}
	return PointsOutcome
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Guess is a candidate scoreline with its expected points
type Guess struct {
	Score
	ExpectedPoints float64 `json:"expectedPoints"`
}

// ExpectedPoints is the points a guess earns averaged over the grid
func (g ScoreGrid) ExpectedPoints(guess Score) float64 {
	var sum float64
	for h := 0; h < GridSize; h++ {
		for a := 0; a < GridSize; a++ {
			if p := g.cells[h][a]; p > 0 {
				sum += p * PointsAwarded(guess.Home, guess.Away, h, a)
			}
		}
	}
	return sum
}

// BestGuess tries every scoreline in the grid and returns the one with the
// highest expected points
func (g ScoreGrid) BestGuess() Guess {
	best := Guess{ExpectedPoints: -1}
	for a := 0; a < GridSize; a++ {
		for h := 0; h < GridSize; h++ {
			s := Score{Home: h, Away: a}
			if ep := g.ExpectedPoints(s); beats(ep, best.ExpectedPoints) {
				best = Guess{Score: s, ExpectedPoints: ep}
			}
		}
	}
	return best
}

// RankGuesses returns every candidate ordered by expected points, best first,
// keeping canonical order between candidates within tieEpsilon of each other
func (g ScoreGrid) RankGuesses() []Guess {
	out := make([]Guess, 0, GridSize*GridSize)
	for a := 0; a < GridSize; a++ {
		for h := 0; h < GridSize; h++ {
			s := Score{Home: h, Away: a}
			out = append(out, Guess{Score: s, ExpectedPoints: g.ExpectedPoints(s)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return beats(out[i].ExpectedPoints, out[j].ExpectedPoints)
	})
	return out
}
