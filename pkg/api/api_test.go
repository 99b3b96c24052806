package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/xgscore/pkg/predict"
	"github.com/richard-senior/xgscore/pkg/provider"
)

type fakeData struct {
	table *predict.LeagueStatsTable
	err   error
}

func (f *fakeData) GetLeagueStatsTable(ctx context.Context) (*predict.LeagueStatsTable, error) {
	return f.table, f.err
}

func (f *fakeData) Status(ctx context.Context) provider.Status {
	return provider.Status{Source: "fake", Loaded: true, Fresh: true, Teams: f.table.Len(), Age: "5 minutes ago"}
}

func newHandler(t *testing.T, origins ...string) (http.Handler, *fakeData) {
	t.Helper()
	table, err := predict.NewLeagueStatsTable([]predict.TeamSeasonStats{
		{Team: "Leeds", HomeGamesPlayed: 2, AwayGamesPlayed: 2, HomeXG: 3.0, HomeXGA: 2.0, AwayXG: 2.0, AwayXGA: 2.0},
		{Team: "Hull", HomeGamesPlayed: 2, AwayGamesPlayed: 2, HomeXG: 2.0, HomeXGA: 2.0, AwayXG: 2.0, AwayXGA: 2.0},
		{Team: "West Brom", HomeGamesPlayed: 1, AwayGamesPlayed: 1, HomeXG: 1.3, HomeXGA: 0.9, AwayXG: 1.0, AwayXGA: 1.2},
	})
	require.NoError(t, err)
	data := &fakeData{table: table}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return NewAPIHandler(data, predict.Predictor{}, origins).Handler(), data
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	h, _ := newHandler(t)
	rec := do(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Backend is running!"}`, rec.Body.String())

	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestTeams(t *testing.T) {
	h, _ := newHandler(t)
	rec := do(h, http.MethodGet, "/teams", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Hull","Leeds","West Brom"]`, rec.Body.String())

	rec = do(h, http.MethodGet, "/teams/west%20brom", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ts predict.TeamSeasonStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ts))
	assert.Equal(t, "West Brom", ts.Team)

	rec = do(h, http.MethodGet, "/teams/Leds", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, []string{"Leeds"}, e.Suggestions["Leds"])
	assert.NotEmpty(t, e.RequestID)
}

func TestPredict(t *testing.T) {
	h, _ := newHandler(t)
	rec := do(h, http.MethodPost, "/predict", `{"team1":"Leeds","team2":"Hull"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Leeds 2 - 1 Hull", out["prediction"])
	assert.Equal(t, 1.5, out["homeExpectedGoals"])
	assert.Equal(t, 1.0, out["awayExpectedGoals"])
	assert.Equal(t, map[string]any{"home": 1.0, "away": 0.0}, out["mostLikely"])
}

func TestPredictErrors(t *testing.T) {
	h, data := newHandler(t)
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"missing team", `{"team1":"Leeds"}`, http.StatusBadRequest, "Both teams must be selected"},
		{"blank team", `{"team1":"  ","team2":"Hull"}`, http.StatusBadRequest, "Both teams must be selected"},
		{"bad json", `{"team1":`, http.StatusBadRequest, "Invalid JSON"},
		{"same team", `{"team1":"Hull","team2":"hull"}`, http.StatusBadRequest, "invalid fixture"},
		{"unknown team", `{"team1":"Leeds","team2":"Barnsley"}`, http.StatusNotFound, "unknown team: Barnsley"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/predict", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.msg)
		})
	}

	data.err = &predict.DataUnavailableError{Source: "understat", Err: errors.New("timeout")}
	rec := do(h, http.MethodPost, "/predict", `{"team1":"Leeds","team2":"Hull"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "league data unavailable")
}

func TestDistribution(t *testing.T) {
	h, _ := newHandler(t)
	rec := do(h, http.MethodGet, "/distribution?home=Leeds&away=Hull&top=5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var r predict.DistributionReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Len(t, r.Cells, predict.GridSize*predict.GridSize)
	assert.Len(t, r.Guesses, 5)
	assert.InDelta(t, 1.0, r.Outcome.HomeWin+r.Outcome.Draw+r.Outcome.AwayWin, 0.01)

	rec = do(h, http.MethodGet, "/distribution?home=Leeds&away=Hull&top=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/distribution?home=Leeds", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatus(t *testing.T) {
	h, _ := newHandler(t)
	rec := do(h, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st provider.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 3, st.Teams)
	assert.Equal(t, "5 minutes ago", st.Age)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&predict.DegenerateLeagueAverageError{Venue: predict.Home}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestCORS(t *testing.T) {
	h, _ := newHandler(t, "https://xg.example.com")

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://xg.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://xg.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPassthrough(t *testing.T) {
	h, _ := newHandler(t)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}
