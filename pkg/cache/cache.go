package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/predict"
)

// Entry is a league table with the time it was built
type Entry struct {
	Table    *predict.LeagueStatsTable
	StoredAt time.Time
}

// Age is how long ago the entry was stored
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Cache stores the most recent league table. Get only returns entries that
// are still within the cache's expiry.
type Cache interface {
	Get(ctx context.Context) (Entry, bool)
	Put(ctx context.Context, e Entry) error
}

// Clock lets tests control expiry
type Clock func() time.Time

func fresh(e Entry, expiry time.Duration, now time.Time) bool {
	if e.Table == nil {
		return false
	}
	return expiry <= 0 || e.Age(now) < expiry
}

// Memory publishes entries by swapping a pointer, so readers always see a
// complete table and never one being modified
type Memory struct {
	current atomic.Pointer[Entry]
	expiry  time.Duration
	now     Clock
}

// NewMemory returns an in-process cache. A zero expiry never expires.
func NewMemory(expiry time.Duration) *Memory {
	return &Memory{expiry: expiry, now: time.Now}
}

func (m *Memory) WithClock(c Clock) *Memory {
	m.now = c
	return m
}

func (m *Memory) Get(ctx context.Context) (Entry, bool) {
	e := m.current.Load()
	if e == nil || !fresh(*e, m.expiry, m.now()) {
		return Entry{}, false
	}
	return *e, true
}

func (m *Memory) Put(ctx context.Context, e Entry) error {
	if e.Table == nil {
		return errors.New("cannot cache an empty entry")
	}
	m.current.Store(&e)
	return nil
}

// Latest returns the last stored entry even if it has expired, for status
// reporting only
func (m *Memory) Latest() (Entry, bool) {
	e := m.current.Load()
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Chain reads through caches in order and back-fills the faster layers on a hit
type Chain []Cache

func (c Chain) Get(ctx context.Context) (Entry, bool) {
	for i, layer := range c {
		e, ok := layer.Get(ctx)
		if !ok {
			continue
		}
		for _, earlier := range c[:i] {
			if err := earlier.Put(ctx, e); err != nil {
				logger.Warn("Failed to back-fill cache layer", err)
			}
		}
		return e, true
	}
	return Entry{}, false
}

func (c Chain) Put(ctx context.Context, e Entry) error {
	var errs []error
	for _, layer := range c {
		if err := layer.Put(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
