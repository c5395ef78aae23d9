package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer/language"
)

// Engine orchestrates one analysis run: walker -> bounded worker pool ->
// aggregator. Engines are single-use; build a new one per run.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine validates options, applies defaults, and wires the default
// invoker and detector when the caller injected none.
func NewEngine(opts Options) (*Engine, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Invoker == nil {
		opts.Invoker = NewExecInvoker(opts.Logger, opts.ToolTimeout)
	}
	if opts.Detector == nil {
		opts.Detector = language.NewDetector()
	}
	return &Engine{
		opts:   opts,
		logger: slog.New(opts.Logger).With(slog.String("component", "engine")),
	}, nil
}

// Run executes the full pipeline and returns the aggregated report. A
// cancelled context stops dispatching new files but lets in-flight files
// finish; the report then carries Interrupted=true and counts the files that
// never started. Run returns ErrInterrupted alongside the report in that
// case so callers can map it to their exit status.
func (e *Engine) Run(ctx context.Context) (RunReport, error) {
	start := time.Now()
	e.logger.Info("run starting",
		slog.String("target", e.opts.TargetPath),
		slog.Int("concurrency", e.opts.Concurrency),
		slog.Bool("fixMode", e.opts.FixMode))

	tasks := make(chan FileTask, e.opts.Concurrency*2)
	results := make(chan FileReport, e.opts.Concurrency*2)

	walker := e.opts.WalkerFactory(e.opts)
	processor := e.opts.ProcessorFactory(e.opts)

	var (
		discovered int
		walkErr    error
	)
	var walkWG sync.WaitGroup
	walkWG.Add(1)
	go func() {
		defer walkWG.Done()
		defer close(tasks)
		discovered, walkErr = walker.Walk(ctx, tasks)
	}()

	var workerWG sync.WaitGroup
	for i := 0; i < e.opts.Concurrency; i++ {
		workerWG.Add(1)
		go func(id int) {
			defer workerWG.Done()
			e.worker(ctx, id, processor, tasks, results)
		}(i)
	}

	agg := newReportAggregator()
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for fr := range results {
			agg.add(fr)
		}
	}()

	workerWG.Wait()
	close(results)
	<-aggDone
	walkWG.Wait()

	interrupted := ctx.Err() != nil
	report := agg.finalize(start, discovered, e.opts, interrupted)
	e.opts.Hooks.OnRunComplete(report)

	e.logger.Info("run finished",
		slog.Int("total", report.Summary.TotalFiles),
		slog.Int("passed", report.Summary.Passed),
		slog.Int("failed", report.Summary.Failed),
		slog.Int("fixErrors", report.Summary.FixErrors),
		slog.Int("notStarted", report.Summary.NotStarted),
		slog.Bool("interrupted", interrupted),
		slog.Float64("seconds", report.Summary.DurationSeconds))

	if interrupted {
		return report, fmt.Errorf("%w: %d file(s) not started", ErrInterrupted, report.Summary.NotStarted)
	}
	if walkErr != nil {
		return report, walkErr
	}
	return report, nil
}

// worker pulls tasks until the channel closes or the context cancels. A file
// already picked up is processed to completion even under cancellation.
func (e *Engine) worker(ctx context.Context, id int, processor Processor, tasks <-chan FileTask, results chan<- FileReport) {
	log := e.logger.With(slog.Int("worker", id))
	for {
		// Cancellation wins over queued work: without the priority check the
		// select below could keep draining the task channel after interrupt.
		select {
		case <-ctx.Done():
			log.Debug("worker stopping", slog.Any("cause", ctx.Err()))
			return
		default:
		}
		select {
		case <-ctx.Done():
			log.Debug("worker stopping", slog.Any("cause", ctx.Err()))
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			results <- e.processSafely(ctx, processor, task, log)
		}
	}
}

// processSafely isolates a panicking tool run to the file that caused it: the
// file is reported as failed and the worker keeps serving the rest of the
// queue.
func (e *Engine) processSafely(ctx context.Context, processor Processor, task FileTask, log *slog.Logger) (fr FileReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing file",
				slog.String("file", task.RelPath),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			fr = FileReport{
				Path:     task.RelPath,
				Language: task.Language,
				Status:   FileFailed,
				Outcomes: []ToolOutcome{{
					Tool:   "internal",
					Status: ToolCrashed,
					Issues: []Issue{{Severity: SeverityError, Message: fmt.Sprintf("internal error: %v", r)}},
				}},
			}
			e.opts.Hooks.OnFileStatusUpdate(task.RelPath, StatusFailed, "internal error", 0)
		}
	}()
	return processor.Process(ctx, task)
}
