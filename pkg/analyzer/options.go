package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer/toolset"
)

// Hooks receives progress events from the engine. Implementations must be
// safe for concurrent use: workers call OnFileStatusUpdate from multiple
// goroutines.
type Hooks interface {
	// OnFileDiscovered is called once per file the walker accepts, before
	// any worker picks it up.
	OnFileDiscovered(path string)
	// OnFileStatusUpdate is called on every per-file state transition.
	OnFileStatusUpdate(path string, status Status, message string, duration time.Duration)
	// OnRunComplete is called exactly once with the final aggregated report.
	OnRunComplete(report RunReport)
}

// NoOpHooks is a Hooks implementation that ignores every event. Embed it to
// implement only the events a consumer cares about.
type NoOpHooks struct{}

func (NoOpHooks) OnFileDiscovered(string)                                  {}
func (NoOpHooks) OnFileStatusUpdate(string, Status, string, time.Duration) {}
func (NoOpHooks) OnRunComplete(RunReport)                                  {}

// ToolInvoker runs one external tool against one file and classifies the
// result. The engine never deals with exec directly; tests substitute a mock.
type ToolInvoker interface {
	Invoke(ctx context.Context, spec toolset.ToolSpec, absPath string) ToolOutcome
}

// LanguageDetector maps a file to a tool-map language key. An empty return
// means the file is not recognized and is skipped.
type LanguageDetector interface {
	Detect(path string, sample []byte) string
}

// FileTask is one unit of work: a discovered file plus the tool chain the
// configuration assigns to its language.
type FileTask struct {
	AbsPath  string
	RelPath  string // slash-separated, relative to the target root
	Language string
	Chain    []toolset.ToolSpec
}

// Processor runs the full tool chain for one file.
type Processor interface {
	Process(ctx context.Context, task FileTask) FileReport
}

// Walker discovers files under the target root and emits tasks.
type Walker interface {
	Walk(ctx context.Context, tasks chan<- FileTask) (discovered int, err error)
}

// ProcessorFactory builds the per-run Processor. Overridable for tests.
type ProcessorFactory func(opts Options) Processor

// WalkerFactory builds the per-run Walker. Overridable for tests.
type WalkerFactory func(opts Options) Walker

// Options configures an engine run. Fields with mapstructure tags are bound
// from configuration; the rest are injected by the caller.
type Options struct {
	// TargetPath is the file or directory to analyze.
	TargetPath string `mapstructure:"targetPath"`
	// FixMode enables fix-role tools. Check-only runs never write.
	FixMode bool `mapstructure:"fixMode"`
	// Concurrency is the worker count; 0 selects DefaultMaxWorkers.
	Concurrency int `mapstructure:"concurrency"`
	// ToolTimeout is the per-tool fallback when a ToolSpec declares none.
	ToolTimeout time.Duration `mapstructure:"toolTimeout"`
	// ExcludePatterns are doublestar globs matched against slash-separated
	// relative paths.
	ExcludePatterns []string `mapstructure:"excludePatterns"`
	// SkipDirs are directory basenames pruned during the walk.
	SkipDirs []string `mapstructure:"skipDirs"`
	Verbose  bool     `mapstructure:"verbose"`

	// ChangedFiles, when non-nil, restricts the run to the listed
	// slash-separated relative paths (typically from git status).
	ChangedFiles map[string]struct{}

	// Tools is the validated language -> chain table. Required.
	Tools *toolset.ToolSet

	// Logger is the handler engine components derive their loggers from.
	// Nil disables logging.
	Logger slog.Handler

	Hooks    Hooks
	Invoker  ToolInvoker
	Detector LanguageDetector

	ProcessorFactory ProcessorFactory
	WalkerFactory    WalkerFactory
}

// setDefaults fills unset optional fields in place.
func (o *Options) setDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultMaxWorkers
	}
	if o.ToolTimeout <= 0 {
		o.ToolTimeout = DefaultToolTimeout
	}
	if o.SkipDirs == nil {
		o.SkipDirs = DefaultSkipDirs
	}
	if o.Hooks == nil {
		o.Hooks = NoOpHooks{}
	}
	if o.Logger == nil {
		o.Logger = slog.NewTextHandler(noopWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 4})
	}
	if o.ProcessorFactory == nil {
		o.ProcessorFactory = newFileProcessor
	}
	if o.WalkerFactory == nil {
		o.WalkerFactory = newFileWalker
	}
}

// validate rejects option sets the engine cannot run with.
func (o *Options) validate() error {
	if o.TargetPath == "" {
		return fmt.Errorf("%w: targetPath is required", ErrConfigValidation)
	}
	if o.Tools == nil {
		return fmt.Errorf("%w: tool map is required", ErrConfigValidation)
	}
	return nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
