package simplelogger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafter.log")

	New(path, slog.LevelInfo).Info("hello", "who", "world")
	New(path, slog.LevelInfo).Info("again", "n", 123)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `msg=hello who=world`)
	assert.Contains(t, lines[1], `msg=again n=123`)
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafter.log")

	logger := New(path, slog.LevelWarn)
	logger.Info("dropped")
	logger.Warn("kept")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "dropped")
	assert.Contains(t, string(b), "kept")
}

func TestNewDiscardsWhenPathEmpty(t *testing.T) {
	assert.NotPanics(t, func() { New("", slog.LevelDebug).Error("nowhere") })
}

func TestNewIgnoresUnwritablePath(t *testing.T) {
	dir := t.TempDir()

	New(dir, slog.LevelInfo).Info("ignored")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvVar, "/tmp/from-env.log")
	assert.Equal(t, "/tmp/explicit.log", Path("/tmp/explicit.log"))
	assert.Equal(t, "/tmp/from-env.log", Path(""))

	t.Setenv(EnvVar, "")
	assert.Equal(t, "", Path(""))
}
