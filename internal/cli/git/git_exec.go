//go:build !gogit

package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const gitCommandTimeout = 60 * time.Second

// execClient shells out to the git binary on PATH.
type execClient struct {
	logger *slog.Logger
}

// NewClient returns the exec-backed git client.
func NewClient(handler slog.Handler) Client {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(handler).With(slog.String("component", "gitClient"), slog.String("backend", "exec"))
	return &execClient{logger: logger}
}

func (c *execClient) IsAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func (c *execClient) ChangedFiles(repoPath string) ([]string, error) {
	c.logger.Debug("listing changed files", slog.String("repo", repoPath))
	if !c.IsAvailable() {
		return nil, fmt.Errorf("%w: git binary not found on PATH", ErrGitOperation)
	}

	ctx, cancel := context.WithTimeout(context.Background(), gitCommandTimeout)
	defer cancel()

	stdout, stderr, err := c.run(ctx, repoPath, "status", "--porcelain=v1")
	if err != nil {
		c.logger.Error("git status failed", slog.String("repo", repoPath), slog.Any("error", err), slog.String("stderr", stderr))
		return nil, fmt.Errorf("%w: git status: %w", ErrGitOperation, err)
	}
	return parsePorcelain(stdout), nil
}

func (c *execClient) run(ctx context.Context, dir string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.String(), strings.TrimSpace(stderr.String()), fmt.Errorf("git %s in %s: %w", strings.Join(args, " "), dir, ctxErr)
		}
		return stdout.String(), strings.TrimSpace(stderr.String()), fmt.Errorf("git %s in %s: %w: %s", strings.Join(args, " "), dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), strings.TrimSpace(stderr.String()), nil
}
