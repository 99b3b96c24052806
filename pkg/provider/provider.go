package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/cache"
	"github.com/richard-senior/xgscore/pkg/predict"
	"github.com/richard-senior/xgscore/pkg/transport"
)

// Source produces raw match histories keyed by team name
type Source interface {
	Name() string
	FetchHistories(ctx context.Context) (map[string][]predict.MatchRecord, error)
}

// Options tunes fetch retries
type Options struct {
	// Retries is the number of attempts after the first failure
	Retries int
	// Backoff is the wait before the first retry, doubling after each attempt
	Backoff time.Duration
}

// Provider supplies the current league table. Tables come from the cache
// while fresh and from the source otherwise; a failed fetch is an error,
// never an old table.
type Provider struct {
	source Source
	cache  cache.Cache
	memory *cache.Memory
	opts   Options
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	// serialises fetches so concurrent misses share one download
	fetchMu sync.Mutex
}

// New builds a provider. Entries are published to an in-process snapshot in
// front of c; c may be nil.
func New(source Source, c cache.Cache, expiry time.Duration, opts Options) *Provider {
	memory := cache.NewMemory(expiry)
	chain := cache.Chain{memory}
	if c != nil {
		chain = append(chain, c)
	}
	return &Provider{
		source: source,
		cache:  chain,
		memory: memory,
		opts:   opts,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// WithClock sets the time source used for timestamps and expiry
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	p.memory.WithClock(now)
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GetLeagueStatsTable returns a fresh table or a DataUnavailableError
func (p *Provider) GetLeagueStatsTable(ctx context.Context) (*predict.LeagueStatsTable, error) {
	if e, ok := p.cache.Get(ctx); ok {
		return e.Table, nil
	}

	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	// another caller may have refreshed while we waited
	if e, ok := p.cache.Get(ctx); ok {
		return e.Table, nil
	}
	e, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return e.Table, nil
}

// Refresh fetches from the source regardless of cache state
func (p *Provider) Refresh(ctx context.Context) (*predict.LeagueStatsTable, error) {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	e, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return e.Table, nil
}

func (p *Provider) fetch(ctx context.Context) (cache.Entry, error) {
	histories, err := p.fetchWithRetry(ctx)
	if err != nil {
		return cache.Entry{}, &predict.DataUnavailableError{Source: p.source.Name(), Err: err}
	}
	table, err := predict.BuildLeagueStatsTable(histories)
	if err != nil {
		return cache.Entry{}, &predict.DataUnavailableError{Source: p.source.Name(), Err: err}
	}

	e := cache.Entry{Table: table, StoredAt: p.now()}
	if err := p.cache.Put(ctx, e); err != nil {
		// the in-process snapshot is always written, only the disk layer can fail
		logger.Warn("Failed to cache league table", err)
	}
	logger.Info("League table refreshed", p.source.Name(), table.Len(), "teams")
	return e, nil
}

func (p *Provider) fetchWithRetry(ctx context.Context) (map[string][]predict.MatchRecord, error) {
	backoff := p.opts.Backoff
	var lastErr error
	for attempt := 0; attempt <= p.opts.Retries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying league fetch after", backoff, lastErr)
			if err := p.sleep(ctx, backoff); err != nil {
				return nil, fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
			backoff *= 2
		}
		histories, err := p.source.FetchHistories(ctx)
		if err == nil {
			return histories, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return nil, lastErr
}

// retryable is false for cancellation and client errors that will not change
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var status *transport.StatusError
	if errors.As(err, &status) {
		return status.Retryable()
	}
	return true
}

// Status describes the published table
type Status struct {
	Source   string    `json:"source"`
	Loaded   bool      `json:"loaded"`
	Fresh    bool      `json:"fresh"`
	Teams    int       `json:"teams"`
	StoredAt time.Time `json:"storedAt,omitempty"`
	Age      string    `json:"age,omitempty"`
}

// Status reports on the in-process snapshot without triggering a fetch
func (p *Provider) Status(ctx context.Context) Status {
	s := Status{Source: p.source.Name()}
	e, ok := p.memory.Latest()
	if !ok {
		return s
	}
	_, s.Fresh = p.memory.Get(ctx)
	s.Loaded = true
	s.Teams = e.Table.Len()
	s.StoredAt = e.StoredAt
	s.Age = humanize.RelTime(e.StoredAt, p.now(), "ago", "from now")
	return s
}
