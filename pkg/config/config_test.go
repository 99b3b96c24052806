package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/predict"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "EPL", c.League)
	assert.Equal(t, ":10000", c.ListenAddr)
	assert.Equal(t, predict.DegenerateFallback, c.Policy())
	assert.Equal(t, "EPL", c.CacheKey())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xgscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
league: La_liga
season: "2023"
cache_expiry: 90m
fetch_retries: 4
cors_origins:
  - https://example.org
degenerate_policy: fail
log_output: both
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "La_liga", c.League)
	assert.Equal(t, "La_liga/2023", c.CacheKey())
	assert.Equal(t, 90*time.Minute, c.CacheExpiry)
	assert.Equal(t, 4, c.FetchRetries)
	assert.Equal(t, []string{"https://example.org"}, c.CORSOrigins)
	assert.Equal(t, predict.DegenerateFail, c.Policy())
	// untouched fields keep their defaults
	assert.Equal(t, 15*time.Second, c.HTTPTimeout)

	mode, err := c.LogMode()
	require.NoError(t, err)
	assert.Equal(t, rune(logger.OutputBoth), mode)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch_retries: [oops"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                 "8080",
		"XGSCORE_LEAGUE":       "Bundesliga",
		"XGSCORE_CACHE_EXPIRY": "30m",
		"XGSCORE_CORS_ORIGINS": "http://localhost:3000, https://xg.example.com",
	}
	c := Default()
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, ":8080", c.ListenAddr)
	assert.Equal(t, "Bundesliga", c.League)
	assert.Equal(t, 30*time.Minute, c.CacheExpiry)
	assert.Equal(t, []string{"http://localhost:3000", "https://xg.example.com"}, c.CORSOrigins)

	c = Default()
	assert.Error(t, c.ApplyEnv(func(k string) string {
		if k == "PORT" {
			return "http"
		}
		return ""
	}))

	c = Default()
	assert.Error(t, c.ApplyEnv(func(k string) string {
		if k == "XGSCORE_HTTP_TIMEOUT" {
			return "soon"
		}
		return ""
	}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no league", func(c *Config) { c.League = "" }},
		{"no source", func(c *Config) { c.UnderstatURL = "" }},
		{"bad season", func(c *Config) { c.Season = "last year" }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"too many retries", func(c *Config) { c.FetchRetries = 11 }},
		{"negative expiry", func(c *Config) { c.CacheExpiry = -time.Second }},
		{"bad policy", func(c *Config) { c.DegeneratePolicy = "guess" }},
		{"bad level", func(c *Config) { c.LogLevel = "LOUD" }},
		{"bad output", func(c *Config) { c.LogOutput = "syslog" }},
		{"no listen addr", func(c *Config) { c.ListenAddr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestUpdate(t *testing.T) {
	orig := Current()
	defer Update(orig)

	c := Default()
	c.League = "Serie_A"
	require.NoError(t, Update(c))
	assert.Equal(t, "Serie_A", Current().League)

	c.HTTPTimeout = 0
	assert.Error(t, Update(c))
	assert.Equal(t, "Serie_A", Current().League)
}
