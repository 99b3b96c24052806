package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/predict"
	"github.com/richard-senior/xgscore/pkg/provider"
)

// LeagueData supplies league tables to the handlers
type LeagueData interface {
	GetLeagueStatsTable(ctx context.Context) (*predict.LeagueStatsTable, error)
	Status(ctx context.Context) provider.Status
}

// APIHandler serves league data and predictions over HTTP
type APIHandler struct {
	data        LeagueData
	predictor   predict.Predictor
	corsOrigins []string
}

// NewAPIHandler creates a new API handler. corsOrigins may contain "*".
func NewAPIHandler(data LeagueData, predictor predict.Predictor, corsOrigins []string) *APIHandler {
	return &APIHandler{
		data:        data,
		predictor:   predictor,
		corsOrigins: corsOrigins,
	}
}

// SetupRoutes configures the HTTP routes
func (h *APIHandler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, accessLogMiddleware)

	r.HandleFunc("/", h.handleRoot).Methods("GET")
	r.HandleFunc("/status", h.handleStatus).Methods("GET")
	r.HandleFunc("/teams", h.handleTeams).Methods("GET")
	r.HandleFunc("/teams/{name}", h.handleTeam).Methods("GET")
	r.HandleFunc("/predict", h.handlePredict).Methods("POST")
	r.HandleFunc("/distribution", h.handleDistribution).Methods("GET")

	return r
}

// Handler returns the routes wrapped in CORS handling. CORS sits outside the
// router so preflight requests never reach method matching.
func (h *APIHandler) Handler() http.Handler {
	return corsMiddleware(h.corsOrigins)(h.SetupRoutes())
}

type predictRequest struct {
	Team1 string `json:"team1"`
	Team2 string `json:"team2"`
}

type errorResponse struct {
	Error       string              `json:"error"`
	RequestID   string              `json:"requestId,omitempty"`
	Suggestions map[string][]string `json:"suggestions,omitempty"`
}

func (h *APIHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Backend is running!"})
}

func (h *APIHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.data.Status(r.Context()))
}

func (h *APIHandler) handleTeams(w http.ResponseWriter, r *http.Request) {
	table, err := h.data.GetLeagueStatsTable(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table.Teams())
}

func (h *APIHandler) handleTeam(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	table, err := h.data.GetLeagueStatsTable(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resolved, ok := table.Resolve(name)
	if !ok {
		writeError(w, r, &predict.UnknownTeamError{
			Teams:       []string{name},
			Suggestions: map[string][]string{name: table.Suggest(name)},
		})
		return
	}
	ts, _ := table.Team(resolved)
	writeJSON(w, http.StatusOK, ts)
}

func (h *APIHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON", RequestID: RequestID(r.Context())})
		return
	}
	if strings.TrimSpace(req.Team1) == "" || strings.TrimSpace(req.Team2) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Both teams must be selected", RequestID: RequestID(r.Context())})
		return
	}

	table, err := h.data.GetLeagueStatsTable(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.predictor.Predict(req.Team1, req.Team2, table)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Prediction string `json:"prediction"`
		predict.FixturePrediction
	}{p.Headline(), p})
}

func (h *APIHandler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	top := 0
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "top must be an integer", RequestID: RequestID(r.Context())})
			return
		}
		top = n
	}

	table, err := h.data.GetLeagueStatsTable(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.predictor.Distribution(q.Get("home"), q.Get("away"), table)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Report(top))
}

// statusFor maps prediction errors onto HTTP status codes
func statusFor(err error) int {
	var (
		invalid     *predict.InvalidFixtureError
		unknown     *predict.UnknownTeamError
		unavailable *predict.DataUnavailableError
		degenerate  *predict.DegenerateLeagueAverageError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &degenerate):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())}
	var unknown *predict.UnknownTeamError
	if errors.As(err, &unknown) {
		resp.Suggestions = unknown.Suggestions
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", resp.RequestID, err)
		if status == http.StatusInternalServerError {
			resp.Error = "internal error"
		}
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", err)
	}
}
