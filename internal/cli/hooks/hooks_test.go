package hooks

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
)

type recordingTUI struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (r *recordingTUI) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

type countingBar struct {
	mu     sync.Mutex
	adds   int
	closed bool
}

func (b *countingBar) Add(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adds += n
	return nil
}
func (b *countingBar) Describe(string) {}
func (b *countingBar) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestTUIModeForwardsMessages(t *testing.T) {
	tui := &recordingTUI{}
	var buf bytes.Buffer
	h := NewCLIHooks(newLogger(&buf), true, false, tui, nil)

	h.OnFileDiscovered("a.py")
	h.OnFileStatusUpdate("a.py", analyzer.StatusProcessing, "", 0)
	h.OnFileStatusUpdate("a.py", analyzer.StatusPassed, "", 10*time.Millisecond)
	h.OnRunComplete(analyzer.RunReport{})

	require.Len(t, tui.msgs, 4)
	assert.IsType(t, FileDiscoveredMsg{}, tui.msgs[0])
	assert.IsType(t, FileStatusUpdateMsg{}, tui.msgs[1])
	assert.IsType(t, FileStatusUpdateMsg{}, tui.msgs[2])
	assert.IsType(t, RunCompleteMsg{}, tui.msgs[3])

	update := tui.msgs[2].(FileStatusUpdateMsg)
	assert.Equal(t, analyzer.StatusPassed, update.Status)
	assert.Equal(t, 10*time.Millisecond, update.Duration)
}

func TestProgressBarModeCountsFinalStates(t *testing.T) {
	bar := &countingBar{}
	var buf bytes.Buffer
	h := NewCLIHooks(newLogger(&buf), false, false, nil, bar)

	h.OnFileStatusUpdate("a.py", analyzer.StatusProcessing, "", 0)
	h.OnFileStatusUpdate("a.py", analyzer.StatusPassed, "", 0)
	h.OnFileStatusUpdate("b.py", analyzer.StatusFailed, "2 issue(s)", 0)
	h.OnFileStatusUpdate("c.py", analyzer.StatusSkipped, "unrecognized language", 0)
	h.OnRunComplete(analyzer.RunReport{})

	assert.Equal(t, 3, bar.adds, "only final states advance the bar")
	assert.True(t, bar.closed)
}

func TestProgressBarModeIsConcurrencySafe(t *testing.T) {
	bar := &countingBar{}
	var buf bytes.Buffer
	h := NewCLIHooks(newLogger(&buf), false, false, nil, bar)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnFileStatusUpdate("f.py", analyzer.StatusPassed, "", 0)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, bar.adds)
}

func TestVerboseModeLogsUpdates(t *testing.T) {
	var buf bytes.Buffer
	h := NewCLIHooks(newLogger(&buf), false, true, nil, nil)

	h.OnFileDiscovered("a.py")
	h.OnFileStatusUpdate("a.py", analyzer.StatusFailed, "issues found", time.Second)

	out := buf.String()
	assert.Contains(t, out, "file discovered")
	assert.Contains(t, out, "file did not pass")
	assert.Contains(t, out, "a.py")
}

func TestFixErrorLoggedInBarMode(t *testing.T) {
	var buf bytes.Buffer
	h := NewCLIHooks(newLogger(&buf), false, false, nil, &countingBar{})

	h.OnFileStatusUpdate("a.py", analyzer.StatusFixError, "rollback done", 0)
	assert.Contains(t, buf.String(), "fix failed")
}
