package history

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
	return NewStore(filepath.Join(t.TempDir(), "history.json"), handler)
}

func entry(target string, failed int) Entry {
	return Entry{
		Timestamp:  time.Now().UTC(),
		TargetPath: target,
		TotalFiles: 10,
		Passed:     10 - failed,
		Failed:     failed,
	}
}

func TestAppendAndLoad(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append(entry("/repo", 3)))
	require.NoError(t, s.Append(entry("/repo", 1)))

	entries := s.Load()
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Failed)
	assert.Equal(t, 1, entries[1].Failed)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.Load())
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))
	assert.Empty(t, s.Load())

	// A corrupt file must not block recording new runs.
	require.NoError(t, s.Append(entry("/repo", 0)))
	assert.Len(t, s.Load(), 1)
}

func TestAppendTrimsOldEntries(t *testing.T) {
	s := newTestStore(t)
	s.keep = 3

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(entry("/repo", i)))
	}
	entries := s.Load()
	require.Len(t, entries, 3)
	assert.Equal(t, 2, entries[0].Failed)
	assert.Equal(t, 4, entries[2].Failed)
}

func TestTrendFor(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, TrendUnknown, s.TrendFor("/repo", 2))

	require.NoError(t, s.Append(entry("/repo", 4)))
	require.NoError(t, s.Append(entry("/other", 0)))

	assert.Equal(t, TrendImproved, s.TrendFor("/repo", 2))
	assert.Equal(t, TrendDegraded, s.TrendFor("/repo", 7))
	assert.Equal(t, TrendStable, s.TrendFor("/repo", 4))
	assert.Equal(t, TrendStable, s.TrendFor("/other", 0))
	assert.Equal(t, TrendUnknown, s.TrendFor("/unseen", 1))
}
