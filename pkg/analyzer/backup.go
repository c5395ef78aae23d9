package analyzer

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BackupSuffix is appended to a file's path to form its backup sibling.
const BackupSuffix = ".codex.bak"

// backup is the rollback handle for one file while fix tools run against it.
// Exactly one of Commit or Restore must be called.
type backup struct {
	original string
	path     string
}

// acquireBackup snapshots the file's bytes and mode to a sibling backup file
// before any fix tool may touch it.
func acquireBackup(path string) (*backup, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrBackupFailed, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrBackupFailed, path)
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrBackupFailed, path, err)
	}
	defer src.Close()

	bakPath := path + BackupSuffix
	dst, err := os.OpenFile(bakPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrBackupFailed, bakPath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(bakPath)
		return nil, fmt.Errorf("%w: copy %s: %w", ErrBackupFailed, path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(bakPath)
		return nil, fmt.Errorf("%w: close %s: %w", ErrBackupFailed, bakPath, err)
	}
	return &backup{original: path, path: bakPath}, nil
}

// Commit accepts the fixed file and discards the backup.
func (b *backup) Commit() error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove backup %s: %w", ErrBackupFailed, b.path, err)
	}
	return nil
}

// Restore puts the original bytes back in place of whatever the fix tools
// left behind. Rename is atomic on the same filesystem, so the file is never
// observed half-restored.
func (b *backup) Restore() error {
	if err := os.Rename(b.path, b.original); err != nil {
		return fmt.Errorf("%w: restore %s: %w", ErrRestoreFailed, b.original, err)
	}
	return nil
}

// ScanOrphanedBackups walks root and returns the backup files left behind by
// crashed or killed runs, sorted by the walk order (lexicographic).
func ScanOrphanedBackups(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), BackupSuffix) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWalkFailed, err)
	}
	return found, nil
}

// CleanupOrphanedBackups removes the orphaned backups under root. When
// restore is true each backup is renamed over its original (recovering the
// pre-fix content) instead of deleted. Returns the paths acted on.
func CleanupOrphanedBackups(root string, restore bool) ([]string, error) {
	backups, err := ScanOrphanedBackups(root)
	if err != nil {
		return nil, err
	}
	var handled []string
	for _, bak := range backups {
		if restore {
			original := strings.TrimSuffix(bak, BackupSuffix)
			if err := os.Rename(bak, original); err != nil {
				return handled, fmt.Errorf("%w: restore %s: %w", ErrRestoreFailed, original, err)
			}
		} else {
			if err := os.Remove(bak); err != nil {
				return handled, fmt.Errorf("%w: remove %s: %w", ErrBackupFailed, bak, err)
			}
		}
		handled = append(handled, bak)
	}
	return handled, nil
}
