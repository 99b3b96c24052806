package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var info, errs bytes.Buffer
	l := NewLogger(WARN)
	l.colour = false
	l.SetWriters(&info, &errs)

	l.log(INFO, "hidden")
	l.log(WARN, "shown", 3)
	l.log(ERROR, "broken", errors.New("boom"))

	assert.NotContains(t, info.String(), "hidden")
	assert.Contains(t, info.String(), "[WARN]")
	assert.Contains(t, info.String(), "shown 3")
	assert.Contains(t, errs.String(), "broken boom")
}

func TestObjectsAreDumpedAsJSON(t *testing.T) {
	var info bytes.Buffer
	l := NewLogger(DEBUG)
	l.colour = false
	l.SetWriters(&info, &info)

	l.log(INFO, "stats", map[string]float64{"xg": 1.5}, 0.456)

	out := info.String()
	assert.Contains(t, out, "[Object of type map[string]float64]")
	assert.Contains(t, out, "0.46")
	assert.Contains(t, out, `"xg": 1.5`)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("Highlight")
	require.NoError(t, err)
	assert.Equal(t, HIGHLIGHT, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestSetOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l := NewLogger(INFO)
	l.colour = false
	require.NoError(t, l.SetOutput(OutputFile, path))

	l.log(INFO, "to file")
	l.file.Close()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to file")

	assert.Error(t, l.SetOutput('x', path))
}
