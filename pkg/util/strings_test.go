package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormaliseName(t *testing.T) {
	assert.Equal(t, "nottm forest", NormaliseName("  Nott'm   Forest "))
	assert.Equal(t, "west ham", NormaliseName("West-Ham"))
	assert.Equal(t, "", NormaliseName("  "))
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"Arsenal", "Arsenal", 0},
		{"Arsnal", "Arsenal", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestFuzzyMatchScore(t *testing.T) {
	assert.Equal(t, 1.0, FuzzyMatchScore("Chelsea", "chelsea"))
	assert.InDelta(t, 6.0/7.0, FuzzyMatchScore("Arsnal", "Arsenal"), 1e-9)
	assert.Greater(t, FuzzyMatchScore("Newcastle", "Newcastle United"), 0.75)
	assert.Less(t, FuzzyMatchScore("Everton", "Brighton"), 0.6)
}

func TestClosestMatches(t *testing.T) {
	teams := []string{"Arsenal", "Aston Villa", "Chelsea", "Newcastle United"}

	assert.Equal(t, []string{"Arsenal"}, ClosestMatches("Arsnal", teams, 3, 0.6))
	assert.Equal(t, []string{"Newcastle United"}, ClosestMatches("newcastle", teams, 3, 0.6))
	assert.Empty(t, ClosestMatches("Real Madrid", teams, 3, 0.8))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.234, 2))
	assert.Equal(t, 1.24, Round(1.235001, 2))
	assert.Equal(t, 2.0, Round(1.999, 2))
	assert.Equal(t, -0.5, Round(-0.499, 1))
}
