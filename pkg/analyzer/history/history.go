// Package history persists run summaries across invocations and derives
// quality trends from them.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion identifies the on-disk history format.
const SchemaVersion = "1.0"

// defaultKeep bounds how many entries the file retains.
const defaultKeep = 50

// Trend classifies the direction of change between consecutive runs.
type Trend string

const (
	TrendImproved Trend = "improved"
	TrendDegraded Trend = "degraded"
	TrendStable   Trend = "stable"
	// TrendUnknown means there is no prior run to compare against.
	TrendUnknown Trend = "unknown"
)

// Entry is one recorded run.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	TargetPath string    `json:"targetPath"`
	TotalFiles int       `json:"totalFiles"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Fixed      int       `json:"fixed"`
	FixMode    bool      `json:"fixMode"`
}

type fileFormat struct {
	SchemaVersion string  `json:"schemaVersion"`
	Entries       []Entry `json:"entries"`
}

// Store reads and appends run history at a fixed path. Not safe for
// concurrent processes; the CLI runs one instance at a time.
type Store struct {
	path   string
	keep   int
	logger *slog.Logger
}

// NewStore opens a history store backed by path. A missing or corrupt file
// is treated as empty history, never as an error: history must not block
// analysis runs.
func NewStore(path string, handler slog.Handler) *Store {
	return &Store{
		path:   path,
		keep:   defaultKeep,
		logger: slog.New(handler).With(slog.String("component", "history")),
	}
}

// Load returns the recorded entries, oldest first.
func (s *Store) Load() []Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not read history file", slog.String("path", s.path), slog.Any("error", err))
		}
		return nil
	}
	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		s.logger.Warn("history file is corrupt, starting fresh", slog.String("path", s.path), slog.Any("error", err))
		return nil
	}
	return ff.Entries
}

// Append records a run and persists the file atomically (temp file + rename)
// so a crash mid-write never corrupts existing history.
func (s *Store) Append(e Entry) error {
	entries := append(s.Load(), e)
	if len(entries) > s.keep {
		entries = entries[len(entries)-s.keep:]
	}
	data, err := json.MarshalIndent(fileFormat{SchemaVersion: SchemaVersion, Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".codex_history_*.tmp")
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// TrendFor compares a run's failure count against the most recent prior
// entry for the same target.
func (s *Store) TrendFor(target string, failed int) Trend {
	entries := s.Load()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TargetPath != target {
			continue
		}
		switch {
		case failed < entries[i].Failed:
			return TrendImproved
		case failed > entries[i].Failed:
			return TrendDegraded
		default:
			return TrendStable
		}
	}
	return TrendUnknown
}
