package understat

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/predict"
)

const DefaultBaseURL = "https://understat.com"

// Fetcher fetches a decoded page body
type Fetcher interface {
	GetHtml(ctx context.Context, pageURL string) ([]byte, error)
}

// Client scrapes one league season from Understat
type Client struct {
	fetcher Fetcher
	BaseURL string
	League  string
	// Season is the starting year, empty for the current season
	Season string
}

func NewClient(fetcher Fetcher, league, season string) *Client {
	return &Client{fetcher: fetcher, BaseURL: DefaultBaseURL, League: league, Season: season}
}

// LeagueURL is the page holding the league's teamsData
func (c *Client) LeagueURL() string {
	u := strings.TrimRight(c.BaseURL, "/") + "/league/" + url.PathEscape(c.League)
	if c.Season != "" {
		u += "/" + url.PathEscape(c.Season)
	}
	return u
}

// Name identifies the source in logs and errors
func (c *Client) Name() string {
	return "understat " + c.LeagueURL()
}

// FetchTeamsData downloads and parses the league page
func (c *Client) FetchTeamsData(ctx context.Context) (TeamsData, error) {
	pageURL := c.LeagueURL()
	logger.Info("Fetching understat league page", pageURL)

	html, err := c.fetcher.GetHtml(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from understat: %w", err)
	}
	td, err := ParseTeamsData(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	logger.Debug("Parsed teams", len(td))
	return td, nil
}

// FetchHistories returns every team's match records
func (c *Client) FetchHistories(ctx context.Context) (map[string][]predict.MatchRecord, error) {
	td, err := c.FetchTeamsData(ctx)
	if err != nil {
		return nil, err
	}
	return td.Histories()
}
