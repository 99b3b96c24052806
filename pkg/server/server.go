package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/predict"
	"github.com/richard-senior/xgscore/pkg/provider"
)

// LeagueData supplies league tables to the tools. *provider.Provider satisfies it.
type LeagueData interface {
	GetLeagueStatsTable(ctx context.Context) (*predict.LeagueStatsTable, error)
	Refresh(ctx context.Context) (*predict.LeagueStatsTable, error)
	Status(ctx context.Context) provider.Status
}

// ToolInfo describes a registered tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Server exposes league data and predictions as MCP tools
type Server struct {
	mcp       *mcp.Server
	data      LeagueData
	predictor predict.Predictor

	mu    sync.Mutex
	tools []ToolInfo
}

type NoArgs struct{}

type TeamArgs struct {
	Team string `json:"team" jsonschema:"Team name as listed by list_teams; close spellings are suggested when unknown"`
}

type FixtureArgs struct {
	Home string `json:"home" jsonschema:"Home team name (required)"`
	Away string `json:"away" jsonschema:"Away team name (required)"`
}

type DistributionArgs struct {
	Home string `json:"home" jsonschema:"Home team name (required)"`
	Away string `json:"away" jsonschema:"Away team name (required)"`
	Top  int    `json:"top,omitempty" jsonschema:"How many ranked guesses to return (default 10, negative for all)"`
}

// New creates the MCP server and registers every tool
func New(data LeagueData, predictor predict.Predictor, version string) *Server {
	s := &Server{
		mcp:       mcp.NewServer(&mcp.Implementation{Name: "xgscore", Version: version}, nil),
		data:      data,
		predictor: predictor,
	}
	s.RegisterDefaultTools()
	return s
}

func addTool[T any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	s.mu.Lock()
	s.tools = append(s.tools, ToolInfo{Name: tool.Name, Description: tool.Description})
	s.mu.Unlock()
	mcp.AddTool(s.mcp, tool, handler)
	logger.Info("Registered tool:", tool.Name)
}

// RegisterDefaultTools registers the league and prediction tools
func (s *Server) RegisterDefaultTools() {
	logger.Info("Registering default tools...")

	addTool(s, &mcp.Tool{
		Name:        "list_teams",
		Description: "Lists the teams in the current league table in alphabetical order",
	}, s.handleListTeams)

	addTool(s, &mcp.Tool{
		Name:        "team_stats",
		Description: "Season xG totals and per-game home and away averages for one team",
	}, s.handleTeamStats)

	addTool(s, &mcp.Tool{
		Name: "predict_fixture",
		Description: `Predicts a fixture from season xG. Returns expected goals for each side,
the single most likely scoreline and the guess with the highest expected points
when an exact score earns 3, the right result with each side within a goal earns 1.5
and the right result alone earns 1.`,
	}, s.handlePredictFixture)

	addTool(s, &mcp.Tool{
		Name:        "score_distribution",
		Description: "Full 0-6 by 0-6 Poisson score grid for a fixture with outcome probabilities and guesses ranked by expected points",
	}, s.handleScoreDistribution)

	addTool(s, &mcp.Tool{
		Name:        "refresh_league",
		Description: "Fetches the league again regardless of cache freshness and reports the new snapshot",
	}, s.handleRefreshLeague)
}

// GetTools returns the registered tools
func (s *Server) GetTools() []ToolInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ToolInfo(nil), s.tools...)
}

// Start serves MCP over stdio until the client disconnects or a signal arrives
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting MCP server")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if ctx.Err() != nil {
		logger.Info("MCP server stopping:", context.Cause(ctx))
		return nil
	}
	return err
}

func (s *Server) handleListTeams(ctx context.Context, req *mcp.CallToolRequest, args NoArgs) (*mcp.CallToolResult, any, error) {
	table, err := s.data.GetLeagueStatsTable(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(map[string]any{"teams": table.Teams(), "count": table.Len()})
}

func (s *Server) handleTeamStats(ctx context.Context, req *mcp.CallToolRequest, args TeamArgs) (*mcp.CallToolResult, any, error) {
	name := strings.TrimSpace(args.Team)
	if name == "" {
		return toolError(fmt.Errorf("team is required")), nil, nil
	}
	table, err := s.data.GetLeagueStatsTable(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	resolved, ok := table.Resolve(name)
	if !ok {
		return toolError(&predict.UnknownTeamError{
			Teams:       []string{name},
			Suggestions: map[string][]string{name: table.Suggest(name)},
		}), nil, nil
	}
	ts, _ := table.Team(resolved)
	return toolJSON(ts)
}

func (s *Server) handlePredictFixture(ctx context.Context, req *mcp.CallToolRequest, args FixtureArgs) (*mcp.CallToolResult, any, error) {
	table, err := s.data.GetLeagueStatsTable(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	p, err := s.predictor.Predict(args.Home, args.Away, table)
	if err != nil {
		return toolError(err), nil, nil
	}
	logger.Info("Predicted", p.Headline())
	return toolJSON(struct {
		Prediction string `json:"prediction"`
		predict.FixturePrediction
	}{p.Headline(), p})
}

func (s *Server) handleScoreDistribution(ctx context.Context, req *mcp.CallToolRequest, args DistributionArgs) (*mcp.CallToolResult, any, error) {
	table, err := s.data.GetLeagueStatsTable(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	d, err := s.predictor.Distribution(args.Home, args.Away, table)
	if err != nil {
		return toolError(err), nil, nil
	}
	top := args.Top
	if top == 0 {
		top = 10
	}
	return toolJSON(d.Report(top))
}

func (s *Server) handleRefreshLeague(ctx context.Context, req *mcp.CallToolRequest, args NoArgs) (*mcp.CallToolResult, any, error) {
	if _, err := s.data.Refresh(ctx); err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(s.data.Status(ctx))
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	logger.Warn("Tool call failed", err)
	text := fmt.Sprintf("error: %v", err)
	var unavailable *predict.DataUnavailableError
	if errors.As(err, &unavailable) {
		text += " (try refresh_league later)"
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
