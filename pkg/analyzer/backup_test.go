package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func TestAcquireBackupCopiesContentAndMode(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "script.py")
	writeFile(t, orig, "print('hello')\n", 0o750)

	bak, err := acquireBackup(orig)
	require.NoError(t, err)

	data, err := os.ReadFile(orig + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, "print('hello')\n", string(data))

	info, err := os.Stat(orig + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())

	require.NoError(t, bak.Commit())
	_, err = os.Stat(orig + BackupSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestRestorePutsOriginalBytesBack(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "main.go")
	writeFile(t, orig, "original content", 0o644)

	bak, err := acquireBackup(orig)
	require.NoError(t, err)

	// Simulate a fix tool mangling the file.
	require.NoError(t, os.WriteFile(orig, []byte("mangled"), 0o644))

	require.NoError(t, bak.Restore())

	data, err := os.ReadFile(orig)
	require.NoError(t, err)
	assert.Equal(t, "original content", string(data))

	_, err = os.Stat(orig + BackupSuffix)
	assert.True(t, os.IsNotExist(err), "restore must consume the backup file")
}

func TestAcquireBackupMissingFile(t *testing.T) {
	_, err := acquireBackup(filepath.Join(t.TempDir(), "gone.py"))
	assert.ErrorIs(t, err, ErrBackupFailed)
}

func TestAcquireBackupRejectsNonRegularFile(t *testing.T) {
	dir := t.TempDir()
	_, err := acquireBackup(dir)
	assert.ErrorIs(t, err, ErrBackupFailed)
}

func TestScanOrphanedBackups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "x", 0o644)
	writeFile(t, filepath.Join(dir, "a.py"+BackupSuffix), "x", 0o644)
	writeFile(t, filepath.Join(dir, "sub", "b.js"+BackupSuffix), "y", 0o644)

	found, err := ScanOrphanedBackups(dir)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, filepath.Join(dir, "a.py"+BackupSuffix), found[0])
	assert.Equal(t, filepath.Join(dir, "sub", "b.js"+BackupSuffix), found[1])
}

func TestCleanupOrphanedBackupsRemove(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "current", 0o644)
	writeFile(t, filepath.Join(dir, "a.py"+BackupSuffix), "old", 0o644)

	handled, err := CleanupOrphanedBackups(dir, false)
	require.NoError(t, err)
	assert.Len(t, handled, 1)

	_, err = os.Stat(filepath.Join(dir, "a.py"+BackupSuffix))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(dir, "a.py"))
	require.NoError(t, err)
	assert.Equal(t, "current", string(data), "original must be untouched")
}

func TestCleanupOrphanedBackupsRestore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "mangled", 0o644)
	writeFile(t, filepath.Join(dir, "a.py"+BackupSuffix), "pre-fix", 0o644)

	handled, err := CleanupOrphanedBackups(dir, true)
	require.NoError(t, err)
	assert.Len(t, handled, 1)

	data, err := os.ReadFile(filepath.Join(dir, "a.py"))
	require.NoError(t, err)
	assert.Equal(t, "pre-fix", string(data))
}

func TestCleanupOrphanedBackupsEmptyTree(t *testing.T) {
	handled, err := CleanupOrphanedBackups(t.TempDir(), false)
	require.NoError(t, err)
	assert.Empty(t, handled)
}
