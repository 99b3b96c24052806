package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/predict"
	"github.com/richard-senior/xgscore/pkg/transport"
	"github.com/richard-senior/xgscore/pkg/understat"
)

// Config holds every tunable of the service
type Config struct {
	// === DATA SOURCE ===
	League         string        `yaml:"league"`          // Understat league code (default: EPL)
	Season         string        `yaml:"season"`          // Season start year or 2023/2024 form, empty for the current season
	UnderstatURL   string        `yaml:"understat_url"`   // Base URL of the Understat site
	UserAgent      string        `yaml:"user_agent"`      // Browser user agent sent when scraping
	HTTPTimeout    time.Duration `yaml:"http_timeout"`    // Per request timeout (default: 15s)
	CABundle       string        `yaml:"ca_bundle"`       // Extra PEM roots for TLS intercepting proxies
	FetchRetries   int           `yaml:"fetch_retries"`   // Attempts after the first failure (default: 2)
	FetchBackoff   time.Duration `yaml:"fetch_backoff"`   // Delay before the first retry, doubled each time
	MaxPageBytes   int64         `yaml:"max_page_bytes"`  // Largest league page accepted
	SnapshotSource string        `yaml:"snapshot_source"` // Read histories from this snapshot file or directory instead of the network

	// === CACHE ===
	CacheDBPath string        `yaml:"cache_db_path"` // sqlite database for league tables, empty disables the disk cache
	CacheExpiry time.Duration `yaml:"cache_expiry"`  // How long a fetched table stays fresh (default: 6h)
	SnapshotDir string        `yaml:"snapshot_dir"`  // Where dated Understat snapshots are saved

	// === PREDICTION ===
	DegeneratePolicy string `yaml:"degenerate_policy"` // "fallback" or "fail" when a league conceded average is zero

	// === HTTP API ===
	ListenAddr      string        `yaml:"listen_addr"`      // Address the API listens on (default: :10000)
	CORSOrigins     []string      `yaml:"cors_origins"`     // Allowed origins, "*" for any
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Grace period for in-flight requests

	// === LOGGING ===
	LogLevel  string `yaml:"log_level"`  // DEBUG, INFO, WARN, ERROR
	LogOutput string `yaml:"log_output"` // console, stderr, file or both
	LogFile   string `yaml:"log_file"`   // Log file path for file and both outputs
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".xgscore")
	return Config{
		League:       "EPL",
		UnderstatURL: understat.DefaultBaseURL,
		UserAgent:    transport.DefaultUserAgent,
		HTTPTimeout:  15 * time.Second,
		FetchRetries: 2,
		FetchBackoff: 500 * time.Millisecond,
		MaxPageBytes: 20 << 20,

		CacheDBPath: filepath.Join(base, "xgscore.db"),
		CacheExpiry: 6 * time.Hour,
		SnapshotDir: filepath.Join(base, "Previous Seasons"),

		DegeneratePolicy: "fallback",

		ListenAddr:      ":10000",
		CORSOrigins:     []string{"*"},
		ShutdownTimeout: 10 * time.Second,

		LogLevel:  "INFO",
		LogOutput: "console",
		LogFile:   logger.DefaultLogFile,
	}
}

var (
	mu      sync.RWMutex
	current = Default()
)

// Current returns a copy of the active configuration
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	c := current
	c.CORSOrigins = append([]string(nil), current.CORSOrigins...)
	return c
}

// Update validates and installs a new active configuration
func Update(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	mu.Lock()
	current = c
	mu.Unlock()
	return nil
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment. PORT sets the listen port.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("PORT must be numeric, got %q", port)
		}
		c.ListenAddr = ":" + port
	}

	strs := map[string]*string{
		"XGSCORE_LEAGUE":            &c.League,
		"XGSCORE_SEASON":            &c.Season,
		"XGSCORE_UNDERSTAT_URL":     &c.UnderstatURL,
		"XGSCORE_CA_BUNDLE":         &c.CABundle,
		"XGSCORE_SNAPSHOT_SOURCE":   &c.SnapshotSource,
		"XGSCORE_CACHE_DB":          &c.CacheDBPath,
		"XGSCORE_SNAPSHOT_DIR":      &c.SnapshotDir,
		"XGSCORE_DEGENERATE_POLICY": &c.DegeneratePolicy,
		"XGSCORE_LOG_LEVEL":         &c.LogLevel,
		"XGSCORE_LOG_OUTPUT":        &c.LogOutput,
		"XGSCORE_LOG_FILE":          &c.LogFile,
	}
	for key, dst := range strs {
		if v, ok := lookup(getenv, key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"XGSCORE_HTTP_TIMEOUT": &c.HTTPTimeout,
		"XGSCORE_CACHE_EXPIRY": &c.CacheExpiry,
	}
	for key, dst := range durations {
		if v, ok := lookup(getenv, key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup(getenv, "XGSCORE_CORS_ORIGINS"); ok {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	return nil
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(key))
	return v, v != ""
}

// Validate checks the configuration for consistency
func (c Config) Validate() error {
	if c.League == "" {
		return fmt.Errorf("league must be set")
	}
	if _, err := understat.ParseSeason(c.Season); err != nil {
		return err
	}
	if c.SnapshotSource == "" && c.UnderstatURL == "" {
		return fmt.Errorf("either understat_url or snapshot_source must be set")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if c.FetchRetries < 0 || c.FetchRetries > 10 {
		return fmt.Errorf("fetch_retries must be between 0 and 10")
	}
	if c.FetchBackoff < 0 {
		return fmt.Errorf("fetch_backoff must not be negative")
	}
	if c.CacheExpiry < 0 {
		return fmt.Errorf("cache_expiry must not be negative")
	}
	if c.MaxPageBytes < 0 {
		return fmt.Errorf("max_page_bytes must not be negative")
	}
	if _, err := predict.ParseDegeneratePolicy(c.DegeneratePolicy); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.LogMode(); err != nil {
		return err
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must be set")
	}
	return nil
}

// Policy returns the parsed degenerate average policy
func (c Config) Policy() predict.DegeneratePolicy {
	p, _ := predict.ParseDegeneratePolicy(c.DegeneratePolicy)
	return p
}

// LogMode maps LogOutput onto the logger's output modes
func (c Config) LogMode() (rune, error) {
	switch strings.ToLower(c.LogOutput) {
	case "", "console":
		return logger.OutputConsole, nil
	case "stderr":
		return logger.OutputStderr, nil
	case "file":
		return logger.OutputFile, nil
	case "both":
		return logger.OutputBoth, nil
	}
	return 0, fmt.Errorf("unknown log_output %q", c.LogOutput)
}

// CacheKey identifies the league season in the disk cache
func (c Config) CacheKey() string {
	if c.Season == "" {
		return c.League
	}
	return c.League + "/" + c.Season
}
