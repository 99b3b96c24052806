package understat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/richard-senior/xgscore/internal/logger"
	"github.com/richard-senior/xgscore/pkg/predict"
)

// SnapshotName is the dated file name for a league snapshot, e.g. epl_understat_20250101.json
func SnapshotName(league string, now time.Time) string {
	return fmt.Sprintf("%s_understat_%s.json", strings.ToLower(league), now.Format("20060102"))
}

// SaveSnapshot writes teams data as indented JSON into dir and returns the path
func SaveSnapshot(dir, league string, td TeamsData, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	b, err := json.MarshalIndent(td, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	path := filepath.Join(dir, SnapshotName(league, now))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	logger.Info("Saved understat snapshot", path)
	return path, nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot
func LoadSnapshot(path string) (TeamsData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decodeTeamsData(b)
}

// LatestSnapshot returns the newest snapshot for league in dir
func LatestSnapshot(dir, league string) (string, error) {
	pattern := filepath.Join(dir, strings.ToLower(league)+"_understat_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s snapshots in %s", league, dir)
	}
	// dates are zero padded so lexical order is chronological
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// FileSource serves histories from saved snapshots instead of the network.
// Path may be a snapshot file or a directory of them.
type FileSource struct {
	Path   string
	League string
}

func (f *FileSource) Name() string {
	return "snapshot " + f.Path
}

func (f *FileSource) FetchHistories(ctx context.Context) (map[string][]predict.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := f.Path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if path, err = LatestSnapshot(path, f.League); err != nil {
			return nil, err
		}
	}
	td, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded understat snapshot", path)
	return td.Histories()
}
