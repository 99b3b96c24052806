package util

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// NormaliseName lowercases a team name and collapses punctuation and runs of
// whitespace so "Nott'm Forest" and "nottm  forest" compare equal
func NormaliseName(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !space && b.Len() > 0 {
				b.WriteRune(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// FuzzyMatch returns the minimum edit distance between the shorter string and
// the best matching window of the longer one
func FuzzyMatch(str1, str2 string) int {
	a := []rune(NormaliseName(str1))
	b := []rune(NormaliseName(str2))
	if len(a) > len(b) {
		a, b = b, a
	}

	best := math.MaxInt32
	for i := 0; i <= len(b)-len(a); i++ {
		d := levenshtein(a, b[i:i+len(a)])
		if d < best {
			best = d
		}
		if best == 0 {
			break
		}
	}
	return best
}

// LevenshteinDistance calculates the Levenshtein distance between two strings
func LevenshteinDistance(s1, s2 string) int {
	return levenshtein([]rune(s1), []rune(s2))
}

func levenshtein(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

// FuzzyMatchScore returns a similarity score between 0.0 and 1.0
// where 1.0 is a perfect match and 0.0 is completely different
func FuzzyMatchScore(str1, str2 string) float64 {
	n1, n2 := NormaliseName(str1), NormaliseName(str2)
	maxLen := max(len([]rune(n1)), len([]rune(n2)))
	if maxLen == 0 {
		return 1.0
	}
	full := float64(LevenshteinDistance(n1, n2))
	partial := float64(FuzzyMatch(n1, n2))
	// a substring hit ("Newcastle" in "Newcastle United") is worth at least half a full match
	score := 1.0 - full/float64(maxLen)
	if partial == 0 && min(len(n1), len(n2)) >= 3 {
		score = math.Max(score, 0.5+score/2)
	}
	return score
}

// ClosestMatches returns up to limit candidates scoring at least threshold
// against name, best first
func ClosestMatches(name string, candidates []string, limit int, threshold float64) []string {
	type scored struct {
		name  string
		score float64
	}
	var hits []scored
	for _, c := range candidates {
		if s := FuzzyMatchScore(name, c); s >= threshold {
			hits = append(hits, scored{c, s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].name < hits[j].name
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	return out
}

// Round rounds x to the given number of decimal places, half away from zero
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
