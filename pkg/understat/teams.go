package understat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/richard-senior/xgscore/pkg/predict"
)

const DateLayout = "2006-01-02 15:04:05"

// Number decodes a JSON number that may also arrive as a quoted string
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", string(b), err)
	}
	*n = Number(f)
	return nil
}

// TeamsData is the teamsData object embedded in a league page, keyed by team id
type TeamsData map[string]Team

type Team struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	History []HistoryEntry `json:"history"`
}

// HistoryEntry is one played fixture from the team's point of view
type HistoryEntry struct {
	HA     string `json:"h_a"`
	XG     Number `json:"xG"`
	XGA    Number `json:"xGA"`
	NPXG   Number `json:"npxG"`
	NPXGA  Number `json:"npxGA"`
	Deep   Number `json:"deep"`
	Scored Number `json:"scored"`
	Missed Number `json:"missed"`
	XPts   Number `json:"xpts"`
	Result string `json:"result"`
	Date   string `json:"date"`
	Wins   Number `json:"wins"`
	Draws  Number `json:"draws"`
	Loses  Number `json:"loses"`
	Pts    Number `json:"pts"`
	NPXGD  Number `json:"npxGD"`
}

// ToMatchRecord validates an entry and converts it for aggregation
func (h HistoryEntry) ToMatchRecord() (predict.MatchRecord, error) {
	venue, err := predict.ParseVenue(h.HA)
	if err != nil {
		return predict.MatchRecord{}, err
	}
	date, err := time.ParseInLocation(DateLayout, h.Date, time.UTC)
	if err != nil {
		return predict.MatchRecord{}, fmt.Errorf("invalid date %q: %w", h.Date, err)
	}
	r := predict.MatchRecord{
		Venue: venue,
		XG:    float64(h.XG),
		XGA:   float64(h.XGA),
		Date:  date,
	}
	if err := r.Validate(); err != nil {
		return predict.MatchRecord{}, err
	}
	return r, nil
}

// Histories converts every team to match records keyed by team title.
// Records are ordered by date. A malformed entry fails the whole conversion
// so a partial table is never built.
func (td TeamsData) Histories() (map[string][]predict.MatchRecord, error) {
	if len(td) == 0 {
		return nil, fmt.Errorf("teams data is empty")
	}
	out := make(map[string][]predict.MatchRecord, len(td))
	for id, team := range td {
		if team.Title == "" {
			return nil, fmt.Errorf("team %s has no title", id)
		}
		if _, dup := out[team.Title]; dup {
			return nil, fmt.Errorf("team title %s appears twice", team.Title)
		}
		records := make([]predict.MatchRecord, 0, len(team.History))
		for i, h := range team.History {
			r, err := h.ToMatchRecord()
			if err != nil {
				return nil, fmt.Errorf("team %s match %d: %w", team.Title, i, err)
			}
			records = append(records, r)
		}
		sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
		out[team.Title] = records
	}
	return out, nil
}

// Titles returns the team names sorted
func (td TeamsData) Titles() []string {
	out := make([]string, 0, len(td))
	for _, t := range td {
		out = append(out, t.Title)
	}
	sort.Strings(out)
	return out
}

func decodeTeamsData(raw []byte) (TeamsData, error) {
	var td TeamsData
	if err := json.Unmarshal(raw, &td); err != nil {
		return nil, fmt.Errorf("failed to parse teams data: %w", err)
	}
	return td, nil
}
