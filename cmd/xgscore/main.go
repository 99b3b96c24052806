package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/api"
	"github.com/richard-senior/xgscore/pkg/cache"
	"github.com/richard-senior/xgscore/pkg/config"
	"github.com/richard-senior/xgscore/pkg/predict"
	"github.com/richard-senior/xgscore/pkg/provider"
	"github.com/richard-senior/xgscore/pkg/server"
	"github.com/richard-senior/xgscore/pkg/transport"
	"github.com/richard-senior/xgscore/pkg/understat"
)

var version = "dev"

const usage = `Usage: xgscore [flags] <command> [args]

Commands:
  mcp                    serve MCP tools over stdio (default)
  serve                  run the HTTP API
  predict <home> <away>  predict one fixture
  teams                  list teams in the league table
  refresh                fetch the league regardless of cache state
  snapshot               save today's Understat data to the snapshot directory

Flags:
`

func main() {
	configPath := flag.String("config", "", "YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	league := flag.String("league", "", "Understat league code, overrides config")
	season := flag.String("season", "", "Season start year, overrides config")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd := "mcp"
	args := flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	cfg, err := loadConfig(*configPath, *league, *season)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := setupLogging(cfg, cmd, *debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.Info("Starting xgscore", version, cmd)

	if err := run(context.Background(), cfg, cmd, args); err != nil {
		logger.Error("Command failed", cmd, err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path, league, season string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if league != "" {
		cfg.League = league
	}
	if season != "" {
		cfg.Season = season
	}
	if cfg.Season, err = understat.ParseSeason(cfg.Season); err != nil {
		return cfg, err
	}
	if err := config.Update(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return config.Current(), nil
}

// setupLogging keeps stdout clear for the MCP protocol
func setupLogging(cfg config.Config, cmd string, debug bool) error {
	logger.SetShowDateTime(true)
	level, _ := logger.ParseLevel(cfg.LogLevel)
	if debug {
		level = logger.DEBUG
	}
	logger.SetLevel(level)

	mode, _ := cfg.LogMode()
	if cmd == "mcp" && mode == logger.OutputConsole {
		mode = logger.OutputStderr
	}
	if mode != logger.OutputConsole {
		logger.SetColour(false)
	}
	return logger.SetOutput(mode, cfg.LogFile)
}

func run(ctx context.Context, cfg config.Config, cmd string, args []string) error {
	if cmd == "snapshot" {
		return saveSnapshot(ctx, cfg)
	}

	p, closeCache := newProvider(ctx, cfg)
	defer closeCache()
	predictor := predict.Predictor{Policy: cfg.Policy()}

	switch cmd {
	case "mcp":
		return server.New(p, predictor, version).Start(ctx)
	case "serve":
		h := api.NewAPIHandler(p, predictor, cfg.CORSOrigins)
		return api.Serve(ctx, api.NewHTTPServer(cfg.ListenAddr, h.Handler()), cfg.ShutdownTimeout)
	case "predict":
		if len(args) != 2 {
			return fmt.Errorf("predict needs a home and an away team")
		}
		return printPrediction(ctx, p, predictor, args[0], args[1])
	case "teams":
		table, err := p.GetLeagueStatsTable(ctx)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(table.Teams(), "\n"))
		return nil
	case "refresh":
		if _, err := p.Refresh(ctx); err != nil {
			return err
		}
		return printJSON(p.Status(ctx))
	}
	flag.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func newSource(cfg config.Config, fetcher understat.Fetcher) provider.Source {
	if cfg.SnapshotSource != "" {
		return &understat.FileSource{Path: cfg.SnapshotSource, League: cfg.League}
	}
	c := understat.NewClient(fetcher, cfg.League, cfg.Season)
	c.BaseURL = cfg.UnderstatURL
	return c
}

func newFetcher(cfg config.Config) *transport.Client {
	return transport.NewClient(transport.Options{
		Timeout:      cfg.HTTPTimeout,
		UserAgent:    cfg.UserAgent,
		CABundle:     cfg.CABundle,
		MaxBodyBytes: cfg.MaxPageBytes,
	})
}

// newProvider wires the source, disk cache and retry policy. A disk cache
// that cannot be opened is skipped rather than fatal.
func newProvider(ctx context.Context, cfg config.Config) (*provider.Provider, func()) {
	source := newSource(cfg, newFetcher(cfg))
	closeCache := func() {}

	var disk cache.Cache
	if cfg.CacheDBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.CacheDBPath), 0755); err != nil {
			logger.Warn("Disk cache disabled", err)
		} else if db, err := cache.NewSQLite(ctx, cfg.CacheDBPath, cfg.CacheKey(), cfg.CacheExpiry); err != nil {
			logger.Warn("Disk cache disabled", err)
		} else {
			disk = db
			closeCache = func() {
				if err := db.Close(); err != nil {
					logger.Warn("Failed to close cache", err)
				}
			}
		}
	}

	p := provider.New(source, disk, cfg.CacheExpiry, provider.Options{
		Retries: cfg.FetchRetries,
		Backoff: cfg.FetchBackoff,
	})
	return p, closeCache
}

func saveSnapshot(ctx context.Context, cfg config.Config) error {
	c := understat.NewClient(newFetcher(cfg), cfg.League, cfg.Season)
	c.BaseURL = cfg.UnderstatURL
	td, err := c.FetchTeamsData(ctx)
	if err != nil {
		return err
	}
	path, err := understat.SaveSnapshot(cfg.SnapshotDir, cfg.League, td, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func printPrediction(ctx context.Context, p *provider.Provider, predictor predict.Predictor, home, away string) error {
	table, err := p.GetLeagueStatsTable(ctx)
	if err != nil {
		return err
	}
	fp, err := predictor.Predict(home, away, table)
	if err != nil {
		return err
	}
	fmt.Println(fp.Headline())
	fmt.Printf("  xG              %.2f - %.2f\n", fp.HomeExpectedGoals, fp.AwayExpectedGoals)
	fmt.Printf("  most likely     %s (%.1f%%)\n", fp.MostLikely, fp.MostLikelyProbability*100)
	fmt.Printf("  best guess      %s (%.2f expected points)\n", fp.BestGuess, fp.BestGuessPoints)
	fmt.Printf("  home/draw/away  %.1f%% / %.1f%% / %.1f%%\n", fp.Outcome.HomeWin*100, fp.Outcome.Draw*100, fp.Outcome.AwayWin*100)
	if fp.HomeDegenerate || fp.AwayDegenerate {
		fmt.Println("  note: league conceded average was zero, raw attacking averages used")
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
