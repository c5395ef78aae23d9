// Package git resolves the working-tree changes used by --changed-only runs.
// Two backends exist: the default shells out to the git binary, and the
// "gogit" build tag swaps in an in-process go-git implementation.
package git

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrGitOperation wraps every failure from the git backends.
var ErrGitOperation = errors.New("git operation failed")

// Client lists files with uncommitted modifications in a repository.
type Client interface {
	// IsAvailable reports whether the backend can run at all.
	IsAvailable() bool
	// ChangedFiles returns repo-relative, slash-separated paths of tracked
	// files with working-tree or staged modifications. Untracked and ignored
	// files are excluded: a quality gate re-checks what changed, it does not
	// adopt new files.
	ChangedFiles(repoPath string) ([]string, error)
}

// parsePorcelain extracts changed paths from `git status --porcelain=v1`
// output. Renames keep the destination path.
func parsePorcelain(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		if strings.HasPrefix(code, "??") || strings.HasPrefix(code, "!!") {
			continue
		}
		rest := line[3:]
		if idx := strings.Index(rest, " -> "); idx >= 0 {
			rest = rest[idx+4:]
		}
		rest = strings.Trim(strings.TrimSpace(rest), `"`)
		if rest == "" {
			continue
		}
		files = append(files, filepath.ToSlash(rest))
	}
	return files
}
