package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer/encoding"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer/toolset"
)

const (
	// maxCaptureBytes caps stdout/stderr capture per tool so a runaway
	// tool cannot exhaust memory.
	maxCaptureBytes = 10 << 20
	// maxIssuesPerTool caps the findings kept per tool invocation.
	maxIssuesPerTool = 100
	// killGracePeriod is how long a timed-out tool gets between SIGKILL of
	// its process group and the invoker giving up on Wait.
	killGracePeriod = 5 * time.Second
)

// execInvoker runs tools via os/exec with per-tool timeouts, capped output
// capture, and exit-code classification.
type execInvoker struct {
	logger      *slog.Logger
	toolTimeout time.Duration
}

// NewExecInvoker returns the production ToolInvoker. fallbackTimeout applies
// to tools whose spec declares no timeout of its own.
func NewExecInvoker(handler slog.Handler, fallbackTimeout time.Duration) ToolInvoker {
	if fallbackTimeout <= 0 {
		fallbackTimeout = DefaultToolTimeout
	}
	return &execInvoker{
		logger:      slog.New(handler).With(slog.String("component", "invoker")),
		toolTimeout: fallbackTimeout,
	}
}

// Invoke runs one tool against one file. The outcome status is always set;
// Invoke never returns an error because every failure mode is a classified
// result, not a run-stopping condition.
func (iv *execInvoker) Invoke(ctx context.Context, spec toolset.ToolSpec, absPath string) (outcome ToolOutcome) {
	outcome = ToolOutcome{Tool: spec.Name, Role: spec.Role}
	start := time.Now()
	defer func() { outcome.Duration = time.Since(start) }()

	argv := buildArgv(spec, absPath)
	if _, err := exec.LookPath(argv[0]); err != nil {
		iv.logger.Debug("tool not found on PATH", slog.String("tool", spec.Name), slog.String("binary", argv[0]))
		outcome.Status = ToolNotFound
		outcome.Issues = []Issue{{Severity: SeverityWarning, Message: fmt.Sprintf("%s: executable %q not found on PATH", spec.Name, argv[0])}}
		return outcome
	}

	// A started tool runs to completion (or its own timeout) even if the
	// run is being cancelled; interrupting a fix tool mid-write would leave
	// the file torn before the processor can roll back.
	toolCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), spec.Timeout(iv.toolTimeout))
	defer cancel()

	cmd := exec.CommandContext(toolCtx, argv[0], argv[1:]...)
	configureSysProc(cmd)
	cmd.WaitDelay = killGracePeriod

	stdout, stderr, runErr := runCapped(cmd)

	if toolCtx.Err() == context.DeadlineExceeded {
		iv.logger.Warn("tool timed out", slog.String("tool", spec.Name), slog.String("file", absPath), slog.Duration("timeout", spec.Timeout(iv.toolTimeout)))
		outcome.Status = ToolTimedOut
		outcome.Issues = []Issue{{Severity: SeverityError, Message: fmt.Sprintf("%s: timed out after %s", spec.Name, spec.Timeout(iv.toolTimeout))}}
		return outcome
	}

	stdout = encoding.ToUTF8(stdout)
	stderr = encoding.ToUTF8(stderr)

	if runErr == nil {
		outcome.Issues = parseIssues(spec, stdout, stderr)
		if len(outcome.Issues) > 0 {
			outcome.Status = ToolIssues
		} else {
			outcome.Status = ToolOK
		}
		return outcome
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		code := exitErr.ExitCode()
		if spec.IsIssueExit(code) {
			outcome.Status = ToolIssues
			outcome.Issues = parseIssues(spec, stdout, stderr)
			if len(outcome.Issues) == 0 {
				outcome.Issues = []Issue{{Severity: SeverityError, Message: fmt.Sprintf("%s: reported issues (exit %d) with no parseable output", spec.Name, code)}}
			}
			return outcome
		}
		iv.logger.Error("tool crashed", slog.String("tool", spec.Name), slog.Int("exitCode", code), slog.String("stderr", truncate(string(stderr), 512)))
		outcome.Status = ToolCrashed
		outcome.Issues = []Issue{{Severity: SeverityError, Message: crashMessage(spec.Name, code, stderr)}}
		return outcome
	}

	// A process that never started (resolution or permission failure between
	// LookPath and Start) is missing tooling, not a crash.
	var execErr *exec.Error
	if errors.As(runErr, &execErr) {
		iv.logger.Debug("tool could not be started", slog.String("tool", spec.Name), slog.Any("error", runErr))
		outcome.Status = ToolNotFound
		outcome.Issues = []Issue{{Severity: SeverityWarning, Message: fmt.Sprintf("%s: %v", spec.Name, runErr)}}
		return outcome
	}

	iv.logger.Error("tool failed to run", slog.String("tool", spec.Name), slog.Any("error", runErr))
	outcome.Status = ToolCrashed
	outcome.Issues = []Issue{{Severity: SeverityError, Message: fmt.Sprintf("%s: %v", spec.Name, runErr)}}
	return outcome
}

// buildArgv substitutes the file placeholder into the command, or appends the
// path when no placeholder is declared.
func buildArgv(spec toolset.ToolSpec, absPath string) []string {
	argv := make([]string, 0, len(spec.Command)+1)
	substituted := false
	for _, arg := range spec.Command {
		if strings.Contains(arg, toolset.FilePlaceholder) {
			arg = strings.ReplaceAll(arg, toolset.FilePlaceholder, absPath)
			substituted = true
		}
		argv = append(argv, arg)
	}
	if !substituted {
		argv = append(argv, absPath)
	}
	return argv
}

// runCapped starts the command with capture of both streams capped at
// maxCaptureBytes each and waits for completion.
func runCapped(cmd *exec.Cmd) (stdout, stderr []byte, err error) {
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	var outBuf, errBuf bytes.Buffer
	outDone := make(chan struct{})
	go func() {
		defer close(outDone)
		io.Copy(&outBuf, io.LimitReader(outPipe, maxCaptureBytes)) //nolint:errcheck
		io.Copy(io.Discard, outPipe)                               //nolint:errcheck
	}()
	io.Copy(&errBuf, io.LimitReader(errPipe, maxCaptureBytes)) //nolint:errcheck
	io.Copy(io.Discard, errPipe)                               //nolint:errcheck
	<-outDone

	err = cmd.Wait()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

func crashMessage(tool string, code int, stderr []byte) string {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return fmt.Sprintf("%s: crashed with exit code %d", tool, code)
	}
	return fmt.Sprintf("%s: crashed with exit code %d: %s", tool, code, truncate(msg, 512))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
