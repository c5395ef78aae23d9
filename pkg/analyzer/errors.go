package analyzer

import "errors"

// Exported error variables. These represent the categories of failure that
// can be returned by Run or surfaced while processing individual files.
// Library users can check against them with errors.Is.

var (
	// ErrConfigValidation indicates that the provided Options failed the
	// validation checks performed by NewEngine (e.g. missing tool map, invalid
	// target path, negative worker count). Always returned as a fatal error.
	ErrConfigValidation = errors.New("invalid configuration options provided")

	// ErrBackupFailed indicates the pre-fix backup copy of a file could not
	// be created. The fix attempt for that file is aborted before any fix
	// tool runs; the file's report carries status fix-error. Never fatal to
	// the run.
	ErrBackupFailed = errors.New("failed to create file backup")

	// ErrRestoreFailed indicates a backup existed but could not be moved
	// back over the original file after a failed fix. The backup is left on
	// disk for the cleanup utility. Never fatal to the run.
	ErrRestoreFailed = errors.New("failed to restore file from backup")

	// ErrToolExecution is the general category for a tool process that could
	// not be run to a classifiable outcome. Invocation failures are normally
	// converted into ToolOutcome statuses and never escape the invoker; this
	// error exists for wrapping in logs and tests.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrWalkFailed indicates the directory traversal itself failed
	// critically (e.g. the target directory is unreadable). Returned as a
	// fatal error by Run.
	ErrWalkFailed = errors.New("directory walk failed")

	// ErrInterrupted is returned by Run alongside a partial RunReport
	// when the run was cancelled before all discovered files were processed.
	ErrInterrupted = errors.New("analysis run interrupted")
)
