package analyzer

// ToolStatus classifies the outcome of a single tool invocation.
type ToolStatus string

// Constants representing the defined tool invocation outcomes.
const (
	ToolOK       ToolStatus = "ok"
	ToolIssues   ToolStatus = "issues-found"
	ToolNotFound ToolStatus = "tool-not-found"
	ToolTimedOut ToolStatus = "timed-out"
	ToolCrashed  ToolStatus = "crashed"
)

// FileStatus is the final verdict recorded for a file in a RunReport.
type FileStatus string

const (
	FilePassed   FileStatus = "passed"
	FileFailed   FileStatus = "failed"
	FileFixError FileStatus = "fix-error"
)

// Status describes the live processing state of a file as reported through
// event hooks. It is a superset of FileStatus: hooks also see transient and
// skip states that never appear in a RunReport.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPassed     Status = "passed"
	StatusFailed     Status = "failed"
	StatusFixError   Status = "fix-error"
	StatusSkipped    Status = "skipped"
)

// HookStatus converts a final FileStatus into its hook-event equivalent.
func HookStatus(s FileStatus) Status {
	switch s {
	case FilePassed:
		return StatusPassed
	case FileFixError:
		return StatusFixError
	default:
		return StatusFailed
	}
}

// Severity grades a single reported issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// OutputFormat defines the format for the final summary report printed to
// standard output.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)
