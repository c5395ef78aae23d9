package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer/toolset"
)

// fileProcessor runs a file's full tool chain: check tools always, fix tools
// only in fix mode and only under a backup it can roll back to.
type fileProcessor struct {
	logger  *slog.Logger
	invoker ToolInvoker
	hooks   Hooks
	fixMode bool
}

func newFileProcessor(opts Options) Processor {
	return &fileProcessor{
		logger:  slog.New(opts.Logger).With(slog.String("component", "processor")),
		invoker: opts.Invoker,
		hooks:   opts.Hooks,
		fixMode: opts.FixMode,
	}
}

// Process executes the chain in declared order. In fix mode a backup is
// acquired before the first fix tool runs; a fix tool that times out or
// crashes triggers an immediate restore and stops the chain, so the file on
// disk is either fully processed or byte-identical to its pre-run state.
func (p *fileProcessor) Process(ctx context.Context, task FileTask) FileReport {
	start := time.Now()
	log := p.logger.With(slog.String("file", task.RelPath))
	p.hooks.OnFileStatusUpdate(task.RelPath, StatusProcessing, "", 0)

	report := FileReport{
		Path:     task.RelPath,
		Language: task.Language,
	}

	var bak *backup
	fixFailed := false
	fixApplied := false

	for _, spec := range task.Chain {
		if spec.Role == toolset.RoleFix {
			if !p.fixMode {
				continue
			}
			if bak == nil {
				b, err := acquireBackup(task.AbsPath)
				if err != nil {
					log.Error("backup failed, skipping fix tools", slog.Any("error", err))
					report.Outcomes = append(report.Outcomes, ToolOutcome{
						Tool:   spec.Name,
						Role:   spec.Role,
						Status: ToolCrashed,
						Issues: []Issue{{Severity: SeverityError, Message: err.Error()}},
					})
					fixFailed = true
					break
				}
				bak = b
			}
		}

		outcome := p.invoker.Invoke(ctx, spec, task.AbsPath)
		report.Outcomes = append(report.Outcomes, outcome)
		log.Debug("tool finished",
			slog.String("tool", spec.Name),
			slog.String("status", string(outcome.Status)),
			slog.Int("issues", len(outcome.Issues)),
			slog.Duration("duration", outcome.Duration))

		if spec.Role == toolset.RoleFix {
			switch outcome.Status {
			case ToolTimedOut, ToolCrashed:
				fixFailed = true
			case ToolOK:
				fixApplied = true
			}
			if fixFailed {
				break
			}
		}
	}

	if bak != nil {
		if fixFailed {
			if err := bak.Restore(); err != nil {
				// The backup file stays on disk for manual recovery.
				log.Error("rollback failed", slog.Any("error", err))
				report.Outcomes = append(report.Outcomes, ToolOutcome{
					Tool:   "rollback",
					Role:   toolset.RoleFix,
					Status: ToolCrashed,
					Issues: []Issue{{Severity: SeverityError, Message: fmt.Sprintf("rollback failed, backup preserved at %s%s: %v", task.AbsPath, BackupSuffix, err)}},
				})
			} else {
				log.Warn("fix tool failed, file restored from backup")
			}
		} else {
			if err := bak.Commit(); err != nil {
				log.Warn("could not remove backup", slog.Any("error", err))
			}
			report.WasFixed = fixApplied
		}
	}

	report.Status = outcomeStatus(report.Outcomes)
	if fixFailed {
		report.Status = FileFixError
		report.WasFixed = false
	}
	report.Duration = time.Since(start)

	p.hooks.OnFileStatusUpdate(task.RelPath, HookStatus(report.Status), statusMessage(report), report.Duration)
	return report
}

// statusMessage summarizes a finished file for progress hooks.
func statusMessage(fr FileReport) string {
	total := 0
	for _, o := range fr.Outcomes {
		total += len(o.Issues)
	}
	switch fr.Status {
	case FilePassed:
		if fr.WasFixed {
			return "fixed"
		}
		return ""
	case FileFixError:
		return "fix failed, rolled back"
	default:
		return fmt.Sprintf("%d issue(s)", total)
	}
}
