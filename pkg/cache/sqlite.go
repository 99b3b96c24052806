package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/predict"
)

// snapshotRow records when a league's table was stored
type snapshotRow struct {
	League   string `column:"league" dbtype:"TEXT NOT NULL" primary:"true"`
	StoredAt int64  `column:"stored_at" dbtype:"INTEGER NOT NULL"`
	Teams    int    `column:"teams" dbtype:"INTEGER NOT NULL DEFAULT 0"`
}

func (r *snapshotRow) GetTableName() string { return "league_snapshot" }

func (r *snapshotRow) GetPrimaryKey() map[string]any {
	return map[string]any{"league": r.League}
}

// teamStatsRow is one team's season stats. Averages are derived on load.
type teamStatsRow struct {
	League          string  `column:"league" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	Team            string  `column:"team" dbtype:"TEXT NOT NULL" primary:"true"`
	HomeGamesPlayed int     `column:"home_games_played" dbtype:"INTEGER DEFAULT 0"`
	AwayGamesPlayed int     `column:"away_games_played" dbtype:"INTEGER DEFAULT 0"`
	HomeXG          float64 `column:"home_xg" dbtype:"REAL DEFAULT 0.0"`
	HomeXGA         float64 `column:"home_xga" dbtype:"REAL DEFAULT 0.0"`
	AwayXG          float64 `column:"away_xg" dbtype:"REAL DEFAULT 0.0"`
	AwayXGA         float64 `column:"away_xga" dbtype:"REAL DEFAULT 0.0"`
}

func (r *teamStatsRow) GetTableName() string { return "team_season_stats" }

func (r *teamStatsRow) GetPrimaryKey() map[string]any {
	return map[string]any{"league": r.League, "team": r.Team}
}

func (r teamStatsRow) stats() predict.TeamSeasonStats {
	return predict.TeamSeasonStats{
		Team:            r.Team,
		HomeGamesPlayed: r.HomeGamesPlayed,
		AwayGamesPlayed: r.AwayGamesPlayed,
		HomeXG:          r.HomeXG,
		HomeXGA:         r.HomeXGA,
		AwayXG:          r.AwayXG,
		AwayXGA:         r.AwayXGA,
	}
}

// SQLite keeps league tables on disk between runs, one snapshot per league key
type SQLite struct {
	store  *Store
	league string
	expiry time.Duration
	now    Clock
}

// NewSQLite opens the database at path and prepares its tables
func NewSQLite(ctx context.Context, path, league string, expiry time.Duration) (*SQLite, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	for _, obj := range []Persistable{&snapshotRow{}, &teamStatsRow{}} {
		if err := store.CreateTable(ctx, obj); err != nil {
			store.Close()
			return nil, err
		}
	}
	return &SQLite{store: store, league: league, expiry: expiry, now: time.Now}, nil
}

func (c *SQLite) WithClock(clock Clock) *SQLite {
	c.now = clock
	return c
}

func (c *SQLite) Close() error {
	return c.store.Close()
}

// Get rebuilds the stored table. Missing, expired or unreadable snapshots are
// all misses.
func (c *SQLite) Get(ctx context.Context) (Entry, bool) {
	snap := &snapshotRow{League: c.league}
	if err := c.store.FindByPrimaryKey(ctx, snap); err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("Failed to read league snapshot", err)
		}
		return Entry{}, false
	}

	storedAt := time.Unix(0, snap.StoredAt)
	if c.expiry > 0 && c.now().Sub(storedAt) >= c.expiry {
		logger.Debug("League snapshot expired", c.league)
		return Entry{}, false
	}

	rows, err := FindWhere[teamStatsRow](ctx, c.store, "league = ? ORDER BY team", c.league)
	if err != nil {
		logger.Warn("Failed to read team stats", err)
		return Entry{}, false
	}
	stats := make([]predict.TeamSeasonStats, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, r.stats())
	}
	table, err := predict.NewLeagueStatsTable(stats)
	if err != nil {
		logger.Warn("Discarding unusable league snapshot", c.league, err)
		return Entry{}, false
	}
	return Entry{Table: table, StoredAt: storedAt}, true
}

// Put replaces the league's snapshot in a single transaction
func (c *SQLite) Put(ctx context.Context, e Entry) error {
	if e.Table == nil {
		return errors.New("cannot cache an empty entry")
	}
	return c.store.InTx(ctx, func(tx *Store) error {
		if _, err := tx.DeleteWhere(ctx, &teamStatsRow{}, "league = ?", c.league); err != nil {
			return err
		}
		for _, s := range e.Table.Stats() {
			row := &teamStatsRow{
				League:          c.league,
				Team:            s.Team,
				HomeGamesPlayed: s.HomeGamesPlayed,
				AwayGamesPlayed: s.AwayGamesPlayed,
				HomeXG:          s.HomeXG,
				HomeXGA:         s.HomeXGA,
				AwayXG:          s.AwayXG,
				AwayXGA:         s.AwayXGA,
			}
			if err := tx.Save(ctx, row); err != nil {
				return fmt.Errorf("failed to store %s: %w", s.Team, err)
			}
		}
		return tx.Save(ctx, &snapshotRow{League: c.league, StoredAt: e.StoredAt.UnixNano(), Teams: e.Table.Len()})
	})
}
