package understat

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSeason reduces a season to the start year Understat uses in its URLs.
// Accepts 2023, 2023/2024, 2023-2024, 2023/24 and 2023-24. An empty season
// means the current one and is returned unchanged.
func ParseSeason(season string) (string, error) {
	ss := strings.TrimSpace(season)
	if ss == "" {
		return "", nil
	}
	first, err := year(ss[:min(4, len(ss))])
	if err != nil {
		return "", fmt.Errorf("invalid season format: %s", season)
	}
	switch {
	case len(ss) == 4:
		return ss, nil
	case len(ss) == 9 && (ss[4] == '/' || ss[4] == '-'):
		second, err := year(ss[5:])
		if err != nil || second != first+1 {
			return "", fmt.Errorf("invalid season format: %s", season)
		}
	case len(ss) == 7 && (ss[4] == '/' || ss[4] == '-'):
		// short form, the second year is the last two digits of first+1
		second, err := strconv.Atoi(ss[5:])
		if err != nil || second != (first+1)%100 {
			return "", fmt.Errorf("invalid season format: %s", season)
		}
	default:
		return "", fmt.Errorf("invalid season format: %s", season)
	}
	return ss[:4], nil
}

func year(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("not a year: %s", s)
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1900 {
		return 0, fmt.Errorf("not a year: %s", s)
	}
	return y, nil
}
