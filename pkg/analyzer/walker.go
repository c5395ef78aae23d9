package analyzer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// detectSampleSize is how many leading bytes are read for content-based
// language detection.
const detectSampleSize = 8 * 1024

// fileWalker discovers candidate files under the target root, filters them,
// resolves each file's language and tool chain, and emits tasks.
type fileWalker struct {
	logger   *slog.Logger
	opts     Options
	skipDirs map[string]struct{}
}

func newFileWalker(opts Options) Walker {
	skip := make(map[string]struct{}, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		skip[d] = struct{}{}
	}
	return &fileWalker{
		logger:   slog.New(opts.Logger).With(slog.String("component", "walker")),
		opts:     opts,
		skipDirs: skip,
	}
}

// Walk emits one task per accepted file and returns how many it emitted.
// Sends respect context cancellation so workers shutting down never strand
// the walker. A single-file target bypasses directory filtering but still
// requires a recognized language.
func (w *fileWalker) Walk(ctx context.Context, tasks chan<- FileTask) (int, error) {
	root, err := filepath.Abs(w.opts.TargetPath)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve %s: %w", ErrWalkFailed, w.opts.TargetPath, err)
	}
	info, err := os.Lstat(root)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWalkFailed, err)
	}

	if !info.IsDir() {
		task, ok := w.buildTask(root, filepath.Base(root))
		if !ok {
			return 0, nil
		}
		w.opts.Hooks.OnFileDiscovered(task.RelPath)
		if !w.send(ctx, tasks, task) {
			return 1, nil
		}
		return 1, nil
	}

	discovered := 0
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("walk error, skipping entry", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if d.IsDir() {
			if path != root {
				if _, skip := w.skipDirs[d.Name()]; skip {
					return fs.SkipDir
				}
				if strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			// Symlinks are never followed; a link pointing outside the
			// root must not be analyzed or, worse, fixed.
			return nil
		}
		if strings.HasSuffix(d.Name(), BackupSuffix) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if w.excluded(rel) {
			return nil
		}
		if w.opts.ChangedFiles != nil {
			if _, ok := w.opts.ChangedFiles[rel]; !ok {
				return nil
			}
		}

		task, ok := w.buildTask(path, rel)
		if !ok {
			return nil
		}
		discovered++
		w.opts.Hooks.OnFileDiscovered(rel)
		if !w.send(ctx, tasks, task) {
			return fs.SkipAll
		}
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return discovered, fmt.Errorf("%w: %w", ErrWalkFailed, err)
	}
	return discovered, nil
}

// buildTask resolves language and chain for a file. Files with no detected
// language or no configured chain are reported as skipped, not queued.
func (w *fileWalker) buildTask(absPath, relPath string) (FileTask, bool) {
	sample := readSample(absPath)
	lang := w.opts.Detector.Detect(absPath, sample)
	if lang == "" {
		w.logger.Debug("no language detected", slog.String("file", relPath))
		w.opts.Hooks.OnFileStatusUpdate(relPath, StatusSkipped, "unrecognized language", 0)
		return FileTask{}, false
	}
	chain := w.opts.Tools.ChainFor(lang)
	if len(chain) == 0 {
		w.logger.Debug("no tools configured for language", slog.String("file", relPath), slog.String("language", lang))
		w.opts.Hooks.OnFileStatusUpdate(relPath, StatusSkipped, fmt.Sprintf("no tools for %s", lang), 0)
		return FileTask{}, false
	}
	return FileTask{AbsPath: absPath, RelPath: relPath, Language: lang, Chain: chain}, true
}

// excluded matches the slash-relative path against the configured globs.
// Invalid patterns were rejected at config load, so match errors are treated
// as non-matches.
func (w *fileWalker) excluded(rel string) bool {
	for _, pat := range w.opts.ExcludePatterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *fileWalker) send(ctx context.Context, tasks chan<- FileTask, task FileTask) bool {
	select {
	case tasks <- task:
		return true
	case <-ctx.Done():
		return false
	}
}

func readSample(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, detectSampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil
	}
	return buf[:n]
}
