// Package hooks bridges engine events to the CLI's presentation layer: the
// TUI when enabled, structured logs in verbose mode, or a progress bar on a
// plain TTY.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
)

// FileDiscoveredMsg signals that the walker accepted a file.
type FileDiscoveredMsg struct{ Path string }

// FileStatusUpdateMsg signals a per-file state transition.
type FileStatusUpdateMsg struct {
	Path     string
	Status   analyzer.Status
	Message  string
	Duration time.Duration
}

// RunCompleteMsg signals the end of the run with the final report.
type RunCompleteMsg struct{ Report analyzer.RunReport }

// TUIProgram is the subset of *tea.Program the hooks need.
type TUIProgram interface {
	Send(msg tea.Msg)
}

// ProgressBar is the subset of the progress bar the hooks need.
type ProgressBar interface {
	Add(num int) error
	Describe(description string)
	Close() error
}

// NoOpTUIProgram is the null TUIProgram.
type NoOpTUIProgram struct{}

func (*NoOpTUIProgram) Send(msg tea.Msg) {}

// NoOpProgressBar is the null ProgressBar.
type NoOpProgressBar struct{}

func (*NoOpProgressBar) Add(int) error         { return nil }
func (*NoOpProgressBar) Describe(string) {}
func (*NoOpProgressBar) Close() error          { return nil }

// CLIHooks implements analyzer.Hooks. OnFileStatusUpdate is called from
// worker goroutines, so progress bar access is mutex-protected.
type CLIHooks struct {
	logger      *slog.Logger
	tuiEnabled  bool
	verbose     bool
	tuiProgram  TUIProgram
	progressBar ProgressBar
	mu          sync.Mutex
}

// NewCLIHooks builds the hook bridge. Pass nil for tuiProg or progBar to get
// no-op implementations.
func NewCLIHooks(logger *slog.Logger, tuiEnabled, verbose bool, tuiProg TUIProgram, progBar ProgressBar) analyzer.Hooks {
	if tuiProg == nil {
		tuiProg = &NoOpTUIProgram{}
	}
	if progBar == nil {
		progBar = &NoOpProgressBar{}
	}
	return &CLIHooks{
		logger:      logger,
		tuiEnabled:  tuiEnabled,
		verbose:     verbose,
		tuiProgram:  tuiProg,
		progressBar: progBar,
	}
}

func (h *CLIHooks) OnFileDiscovered(path string) {
	if h.tuiEnabled {
		h.tuiProgram.Send(FileDiscoveredMsg{Path: path})
	} else if h.verbose {
		h.logger.Debug("file discovered", slog.String("path", path))
	}
}

func (h *CLIHooks) OnFileStatusUpdate(path string, status analyzer.Status, message string, duration time.Duration) {
	if h.tuiEnabled {
		h.tuiProgram.Send(FileStatusUpdateMsg{Path: path, Status: status, Message: message, Duration: duration})
		return
	}

	if h.verbose {
		level := slog.LevelDebug
		msg := "file status updated"
		attrs := []any{
			slog.String("path", path),
			slog.String("status", string(status)),
		}
		if duration > 0 {
			attrs = append(attrs, slog.Duration("duration", duration))
		}
		if message != "" {
			attrs = append(attrs, slog.String("message", message))
		}
		switch status {
		case analyzer.StatusPassed, analyzer.StatusSkipped:
			level = slog.LevelInfo
		case analyzer.StatusFailed, analyzer.StatusFixError:
			level = slog.LevelWarn
			msg = "file did not pass"
		}
		h.logger.Log(context.Background(), level, msg, attrs...)
		return
	}

	// Progress bar mode: advance only on final states.
	switch status {
	case analyzer.StatusPassed, analyzer.StatusFailed, analyzer.StatusFixError, analyzer.StatusSkipped:
		h.mu.Lock()
		_ = h.progressBar.Add(1)
		h.mu.Unlock()
	}
	if status == analyzer.StatusFixError {
		h.logger.Error("fix failed, file rolled back", slog.String("path", path), slog.String("error", message))
	}
}

func (h *CLIHooks) OnRunComplete(report analyzer.RunReport) {
	if h.tuiEnabled {
		h.tuiProgram.Send(RunCompleteMsg{Report: report})
		return
	}
	h.mu.Lock()
	_ = h.progressBar.Close()
	h.mu.Unlock()
	// Newline after the bar so the summary does not overlap it.
	fmt.Fprintf(os.Stderr, "\n")
}
