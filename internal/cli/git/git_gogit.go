//go:build gogit

package git

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	gogit "github.com/go-git/go-git/v5"
)

// goGitClient uses go-git in-process, so it works without a git binary on
// PATH.
type goGitClient struct {
	logger *slog.Logger
}

// NewClient returns the go-git backed client.
func NewClient(handler slog.Handler) Client {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(handler).With(slog.String("component", "gitClient"), slog.String("backend", "go-git"))
	return &goGitClient{logger: logger}
}

func (c *goGitClient) IsAvailable() bool {
	return true
}

func (c *goGitClient) ChangedFiles(repoPath string) ([]string, error) {
	c.logger.Debug("listing changed files", slog.String("repo", repoPath))

	absRepoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve repository path '%s': %w", ErrGitOperation, repoPath, err)
	}
	repo, err := gogit.PlainOpenWithOptions(absRepoPath, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: no repository found at or above '%s'", ErrGitOperation, absRepoPath)
		}
		return nil, fmt.Errorf("%w: open repository '%s': %w", ErrGitOperation, absRepoPath, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: worktree for '%s': %w", ErrGitOperation, absRepoPath, err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("%w: status for '%s': %w", ErrGitOperation, absRepoPath, err)
	}

	var files []string
	for path, st := range status {
		if st.Staging == gogit.Untracked && st.Worktree == gogit.Untracked {
			continue
		}
		if st.Staging == gogit.Unmodified && st.Worktree == gogit.Unmodified {
			continue
		}
		files = append(files, filepath.ToSlash(path))
	}
	sort.Strings(files)
	return files, nil
}
