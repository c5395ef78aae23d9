package analyzer

import "time"

// Constants defining default values for configuration options. These are
// used when setting up Viper defaults in the configuration loading process.
const (
	// DefaultMaxWorkers determines the default number of workers.
	// 0 means runtime.NumCPU().
	DefaultMaxWorkers = 4
	// DefaultToolTimeout bounds a single tool invocation when the ToolSpec
	// does not declare its own timeout.
	DefaultToolTimeout = 30 * time.Second
	// DefaultTuiEnabled is the default state for the Terminal UI.
	DefaultTuiEnabled = true
	// DefaultFixMode is the default state for applying auto-fixes.
	DefaultFixMode = false
	// DefaultOutputFormat is the default format for the final summary report.
	DefaultOutputFormat = OutputFormatText
	// DefaultOutputDir is where JSON report exports are written.
	DefaultOutputDir = "reports"
	// DefaultHistoryFile is the default run-history location.
	DefaultHistoryFile = "codex_history.json"
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false

	// ReportSchemaVersion identifies the RunReport JSON structure. Increment
	// on incompatible changes so downstream consumers can detect mismatches.
	ReportSchemaVersion = "1.0"
)

// DefaultSkipDirs are directory names that are never descended into,
// regardless of configured exclude patterns.
var DefaultSkipDirs = []string{
	"node_modules", "venv", ".venv", "__pycache__", ".git",
	"build", "dist", ".ipynb_checkpoints", "site-packages", "vendor",
}
