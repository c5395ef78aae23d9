package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateDummyFile writes content at path, creating parent directories.
func CreateDummyFile(t *testing.T, path string, content string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755), "create directory for %s", fullPath)
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644), "write dummy file %s", fullPath)
}

// CreateDummyDir ensures a directory exists at path.
func CreateDummyDir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Clean(path), 0o755), "create dummy directory %s", path)
}

// WriteFakeTool writes an executable shell script named name into dir and
// returns its path. Tests prepend dir to PATH to stand in for real tools.
// Skips the test on Windows, where sh scripts are not executable.
func WriteFakeTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake shell tools are not supported on windows")
	}
	path := filepath.Join(dir, name)
	content := fmt.Sprintf("#!/bin/sh\n%s\n", script)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755), "write fake tool %s", path)
	return path
}
