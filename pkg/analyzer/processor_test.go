package analyzer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer/toolset"
)

// stubInvoker replays scripted outcomes per tool name and can mutate the
// target file to imitate a fix tool writing.
type stubInvoker struct {
	outcomes map[string]ToolOutcome
	writes   map[string]string
	calls    []string
}

func (s *stubInvoker) Invoke(ctx context.Context, spec toolset.ToolSpec, absPath string) ToolOutcome {
	s.calls = append(s.calls, spec.Name)
	if content, ok := s.writes[spec.Name]; ok {
		_ = os.WriteFile(absPath, []byte(content), 0o644)
	}
	out := s.outcomes[spec.Name]
	out.Tool = spec.Name
	out.Role = spec.Role
	return out
}

func newTestProcessor(t *testing.T, inv ToolInvoker, fixMode bool) Processor {
	t.Helper()
	opts := Options{
		Invoker: inv,
		Hooks:   NoOpHooks{},
		Logger:  slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}),
		FixMode: fixMode,
	}
	return newFileProcessor(opts)
}

func pythonTask(t *testing.T, dir string) FileTask {
	t.Helper()
	abs := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(abs, []byte("original\n"), 0o644))
	return FileTask{
		AbsPath:  abs,
		RelPath:  "app.py",
		Language: "python",
		Chain: []toolset.ToolSpec{
			{Name: "pylint", Command: []string{"pylint"}, Role: toolset.RoleCheck},
			{Name: "black", Command: []string{"black"}, Role: toolset.RoleFix},
		},
	}
}

func TestProcessAllClean(t *testing.T) {
	task := pythonTask(t, t.TempDir())
	inv := &stubInvoker{outcomes: map[string]ToolOutcome{
		"pylint": {Status: ToolOK},
		"black":  {Status: ToolOK},
	}}

	fr := newTestProcessor(t, inv, true).Process(context.Background(), task)

	assert.Equal(t, FilePassed, fr.Status)
	assert.True(t, fr.WasFixed)
	assert.Equal(t, []string{"pylint", "black"}, inv.calls)
	require.Len(t, fr.Outcomes, 2)

	// Backup must be committed away.
	_, err := os.Stat(task.AbsPath + BackupSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessCheckOnlySkipsFixTools(t *testing.T) {
	task := pythonTask(t, t.TempDir())
	inv := &stubInvoker{outcomes: map[string]ToolOutcome{
		"pylint": {Status: ToolOK},
	}}

	fr := newTestProcessor(t, inv, false).Process(context.Background(), task)

	assert.Equal(t, FilePassed, fr.Status)
	assert.False(t, fr.WasFixed)
	assert.Equal(t, []string{"pylint"}, inv.calls, "fix tools must not run in check mode")
	assert.Len(t, fr.Outcomes, 1)
}

func TestProcessCheckIssuesFailFile(t *testing.T) {
	task := pythonTask(t, t.TempDir())
	inv := &stubInvoker{outcomes: map[string]ToolOutcome{
		"pylint": {Status: ToolIssues, Issues: []Issue{{Severity: SeverityError, Message: "bad"}}},
		"black":  {Status: ToolOK},
	}}

	fr := newTestProcessor(t, inv, true).Process(context.Background(), task)

	assert.Equal(t, FileFailed, fr.Status)
	// Issues do not stop the chain: the fix tool still ran and committed.
	assert.True(t, fr.WasFixed)
	assert.Equal(t, []string{"pylint", "black"}, inv.calls)
}

func TestProcessFixCrashRollsBack(t *testing.T) {
	dir := t.TempDir()
	task := pythonTask(t, dir)
	inv := &stubInvoker{
		outcomes: map[string]ToolOutcome{
			"pylint": {Status: ToolOK},
			"black":  {Status: ToolCrashed, Issues: []Issue{{Severity: SeverityError, Message: "boom"}}},
		},
		writes: map[string]string{"black": "half-written garbage"},
	}

	fr := newTestProcessor(t, inv, true).Process(context.Background(), task)

	assert.Equal(t, FileFixError, fr.Status)
	assert.False(t, fr.WasFixed)

	data, err := os.ReadFile(task.AbsPath)
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data), "file must be byte-identical to its pre-run content")

	_, err = os.Stat(task.AbsPath + BackupSuffix)
	assert.True(t, os.IsNotExist(err), "restore must consume the backup")
}

func TestProcessFixTimeoutRollsBackAndStopsChain(t *testing.T) {
	dir := t.TempDir()
	task := pythonTask(t, dir)
	task.Chain = append(task.Chain, toolset.ToolSpec{Name: "isort", Command: []string{"isort"}, Role: toolset.RoleFix})
	inv := &stubInvoker{
		outcomes: map[string]ToolOutcome{
			"pylint": {Status: ToolOK},
			"black":  {Status: ToolTimedOut},
			"isort":  {Status: ToolOK},
		},
		writes: map[string]string{"black": "torn write"},
	}

	fr := newTestProcessor(t, inv, true).Process(context.Background(), task)

	assert.Equal(t, FileFixError, fr.Status)
	assert.Equal(t, []string{"pylint", "black"}, inv.calls, "chain must stop after a failed fix")

	data, err := os.ReadFile(task.AbsPath)
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data))
}

func TestProcessBackupFailureSkipsFixTools(t *testing.T) {
	dir := t.TempDir()
	task := pythonTask(t, dir)
	// Remove the file after task creation so the backup acquisition fails.
	require.NoError(t, os.Remove(task.AbsPath))

	inv := &stubInvoker{outcomes: map[string]ToolOutcome{
		"pylint": {Status: ToolOK},
	}}

	fr := newTestProcessor(t, inv, true).Process(context.Background(), task)

	assert.Equal(t, FileFixError, fr.Status)
	assert.Equal(t, []string{"pylint"}, inv.calls, "fix tool must not run without a backup")
}

func TestProcessMissingCheckToolDoesNotGate(t *testing.T) {
	task := pythonTask(t, t.TempDir())
	inv := &stubInvoker{outcomes: map[string]ToolOutcome{
		"pylint": {Status: ToolNotFound, Issues: []Issue{{Severity: SeverityWarning, Message: "pylint missing"}}},
		"black":  {Status: ToolOK},
	}}

	fr := newTestProcessor(t, inv, false).Process(context.Background(), task)
	assert.Equal(t, FilePassed, fr.Status, "a missing tool degrades coverage, it does not fail the gate")
	assert.Equal(t, []string{"pylint"}, inv.calls)
}

func TestProcessMissingFixToolRunsRestOfChain(t *testing.T) {
	task := pythonTask(t, t.TempDir())
	task.Chain = append(task.Chain, toolset.ToolSpec{Name: "isort", Command: []string{"isort"}, Role: toolset.RoleFix})
	inv := &stubInvoker{outcomes: map[string]ToolOutcome{
		"pylint": {Status: ToolOK},
		"black":  {Status: ToolNotFound, Issues: []Issue{{Severity: SeverityWarning, Message: "black missing"}}},
		"isort":  {Status: ToolOK},
	}}

	fr := newTestProcessor(t, inv, true).Process(context.Background(), task)

	assert.Equal(t, FilePassed, fr.Status)
	assert.True(t, fr.WasFixed, "the fix tool after the missing one completed")
	assert.Equal(t, []string{"pylint", "black", "isort"}, inv.calls)
}

func TestProcessOnlyFixToolMissingIsNotFixed(t *testing.T) {
	task := pythonTask(t, t.TempDir())
	inv := &stubInvoker{outcomes: map[string]ToolOutcome{
		"pylint": {Status: ToolOK},
		"black":  {Status: ToolNotFound, Issues: []Issue{{Severity: SeverityWarning, Message: "black missing"}}},
	}}

	fr := newTestProcessor(t, inv, true).Process(context.Background(), task)

	assert.Equal(t, FilePassed, fr.Status)
	assert.False(t, fr.WasFixed, "no fix tool completed, nothing was fixed")

	_, err := os.Stat(task.AbsPath + BackupSuffix)
	assert.True(t, os.IsNotExist(err), "unused backup must still be cleaned up")
}
