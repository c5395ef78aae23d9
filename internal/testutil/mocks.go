// Package testutil provides mock implementations of the analyzer interfaces
// for unit tests, plus small filesystem helpers.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer/toolset"
)

// MockInvoker mocks analyzer.ToolInvoker. Configure expectations with
// testify/mock (e.g. .On("Invoke", ...).Return(...)).
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, spec toolset.ToolSpec, absPath string) analyzer.ToolOutcome {
	args := m.Called(ctx, spec, absPath)
	outcome, _ := args.Get(0).(analyzer.ToolOutcome)
	return outcome
}

// MockDetector mocks analyzer.LanguageDetector.
type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Detect(path string, sample []byte) string {
	args := m.Called(path, sample)
	lang, _ := args.Get(0).(string)
	return lang
}

// StaticDetector maps file paths to fixed language keys without testify
// bookkeeping. Paths not listed resolve to the Default.
type StaticDetector struct {
	Languages map[string]string
	Default   string
}

func (d *StaticDetector) Detect(path string, sample []byte) string {
	if lang, ok := d.Languages[path]; ok {
		return lang
	}
	return d.Default
}

// RecordingHooks implements analyzer.Hooks and records every event,
// safe for concurrent workers.
type RecordingHooks struct {
	mu         sync.Mutex
	Discovered []string
	Updates    []StatusUpdate
	Reports    []analyzer.RunReport
}

// StatusUpdate is one recorded OnFileStatusUpdate call.
type StatusUpdate struct {
	Path     string
	Status   analyzer.Status
	Message  string
	Duration time.Duration
}

func (h *RecordingHooks) OnFileDiscovered(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Discovered = append(h.Discovered, path)
}

func (h *RecordingHooks) OnFileStatusUpdate(path string, status analyzer.Status, message string, duration time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Updates = append(h.Updates, StatusUpdate{Path: path, Status: status, Message: message, Duration: duration})
}

func (h *RecordingHooks) OnRunComplete(report analyzer.RunReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Reports = append(h.Reports, report)
}

// UpdatesFor returns the recorded status transitions for one path, in order.
func (h *RecordingHooks) UpdatesFor(path string) []StatusUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []StatusUpdate
	for _, u := range h.Updates {
		if u.Path == path {
			out = append(out, u)
		}
	}
	return out
}
