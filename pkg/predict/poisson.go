package predict

import (
	"fmt"
	"math"
)

// GridSize is the number of goal counts per side in a score grid, so scores
// run from 0 to MaxGoals. Mass beyond the grid is discarded, not renormalised.
const (
	GridSize = 7
	MaxGoals = GridSize - 1
)

// PoissonPMF returns e^-λ λ^k / k!. λ = 0 puts all mass on k = 0; negative or
// non-finite λ and negative k give zero.
func PoissonPMF(k int, lambda float64) float64 {
	if k < 0 || !isNonNegative(lambda) {
		return 0
	}
	if lambda == 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	p := math.Exp(-lambda)
	for i := 1; i <= k; i++ {
		p *= lambda / float64(i)
	}
	return p
}

// Score is a scoreline
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s Score) String() string {
	return fmt.Sprintf("%d-%d", s.Home, s.Away)
}

// Result returns "H", "D" or "A"
func (s Score) Result() string {
	switch {
	case s.Home > s.Away:
		return "H"
	case s.Home < s.Away:
		return "A"
	default:
		return "D"
	}
}

// ScoreProbability is one cell of a score grid
type ScoreProbability struct {
	Home        int     `json:"home"`
	Away        int     `json:"away"`
	Probability float64 `json:"probability"`
}

func (sp ScoreProbability) Score() Score {
	return Score{Home: sp.Home, Away: sp.Away}
}

// OutcomeProbabilities is the grid mass split by match result
type OutcomeProbabilities struct {
	HomeWin float64 `json:"homeWin"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"awayWin"`
}

// tieEpsilon is the margin a later candidate must beat the current one by
// before it replaces it. Values closer than this are treated as tied.
const tieEpsilon = 1e-12

// ScoreGrid holds P(home goals = h, away goals = a) for h, a in [0, MaxGoals].
// Canonical order has home goals varying fastest: 0-0, 1-0 ... 6-0, 0-1, 1-1.
// Every selection walks the grid in that order and only replaces its
// candidate when beaten by more than tieEpsilon, so ties go to the first
// cell in canonical order.
type ScoreGrid struct {
	cells [GridSize][GridSize]float64
}

// NewScoreGrid builds the outer product of two independent Poisson marginals
func NewScoreGrid(homeXG, awayXG float64) (ScoreGrid, error) {
	var g ScoreGrid
	if !isNonNegative(homeXG) || !isNonNegative(awayXG) {
		return g, fmt.Errorf("expected goals must be finite and non-negative, got %v and %v", homeXG, awayXG)
	}

	var home, away [GridSize]float64
	for k := 0; k < GridSize; k++ {
		home[k] = PoissonPMF(k, homeXG)
		away[k] = PoissonPMF(k, awayXG)
	}
	for h := 0; h < GridSize; h++ {
		for a := 0; a < GridSize; a++ {
			g.cells[h][a] = home[h] * away[a]
		}
	}
	return g, nil
}

// ScoreGridFromCells places cells supplied in any order into a grid. Every
// scoreline in range must appear exactly once.
func ScoreGridFromCells(cells []ScoreProbability) (ScoreGrid, error) {
	var g ScoreGrid
	var seen [GridSize][GridSize]bool
	if len(cells) != GridSize*GridSize {
		return g, fmt.Errorf("score grid needs %d cells, got %d", GridSize*GridSize, len(cells))
	}
	for _, c := range cells {
		if c.Home < 0 || c.Home > MaxGoals || c.Away < 0 || c.Away > MaxGoals {
			return g, fmt.Errorf("score %d-%d is outside the grid", c.Home, c.Away)
		}
		if seen[c.Home][c.Away] {
			return g, fmt.Errorf("score %d-%d appears twice", c.Home, c.Away)
		}
		if !isNonNegative(c.Probability) || c.Probability > 1 {
			return g, fmt.Errorf("score %d-%d has invalid probability %v", c.Home, c.Away, c.Probability)
		}
		seen[c.Home][c.Away] = true
		g.cells[c.Home][c.Away] = c.Probability
	}
	return g, nil
}

// Probability returns the mass at h-a, zero outside the grid
func (g ScoreGrid) Probability(h, a int) float64 {
	if h < 0 || h > MaxGoals || a < 0 || a > MaxGoals {
		return 0
	}
	return g.cells[h][a]
}

// Cells returns every cell in canonical order
func (g ScoreGrid) Cells() []ScoreProbability {
	out := make([]ScoreProbability, 0, GridSize*GridSize)
	for a := 0; a < GridSize; a++ {
		for h := 0; h < GridSize; h++ {
			out = append(out, ScoreProbability{Home: h, Away: a, Probability: g.cells[h][a]})
		}
	}
	return out
}

// TotalMass is the sum of the grid, below 1 whenever either side expects goals
func (g ScoreGrid) TotalMass() float64 {
	var sum float64
	for h := 0; h < GridSize; h++ {
		for a := 0; a < GridSize; a++ {
			sum += g.cells[h][a]
		}
	}
	return sum
}

// MostLikelyScore returns the highest probability cell
func (g ScoreGrid) MostLikelyScore() ScoreProbability {
	best := ScoreProbability{Probability: -1}
	for a := 0; a < GridSize; a++ {
		for h := 0; h < GridSize; h++ {
			if p := g.cells[h][a]; beats(p, best.Probability) {
				best = ScoreProbability{Home: h, Away: a, Probability: p}
			}
		}
	}
	return best
}

// beats reports whether candidate is greater than current by more than tieEpsilon
func beats(candidate, current float64) bool {
	return candidate > current+tieEpsilon
}

// OutcomeProbabilities sums the grid by result
func (g ScoreGrid) OutcomeProbabilities() OutcomeProbabilities {
	var o OutcomeProbabilities
	for h := 0; h < GridSize; h++ {
		for a := 0; a < GridSize; a++ {
			switch {
			case h > a:
				o.HomeWin += g.cells[h][a]
			case h == a:
				o.Draw += g.cells[h][a]
			default:
				o.AwayWin += g.cells[h][a]
			}
		}
	}
	return o
}

// OverGoalsProbability is the grid mass with more than threshold total goals
func (g ScoreGrid) OverGoalsProbability(threshold float64) float64 {
	var sum float64
	for h := 0; h < GridSize; h++ {
		for a := 0; a < GridSize; a++ {
			if float64(h+a) > threshold {
				sum += g.cells[h][a]
			}
		}
	}
	return sum
}
