// Package cli orchestrates a run after configuration loading: it wires the
// presentation layer (TUI, progress bar, or plain logs) into the engine,
// executes it, renders the result, and records history.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/FJ-cyberzilla/codex/internal/cli/config"
	"github.com/FJ-cyberzilla/codex/internal/cli/hooks"
	"github.com/FJ-cyberzilla/codex/internal/cli/ui"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer/history"
)

// Run executes one analysis run with the loaded configuration and returns
// the final report. The error is analyzer.ErrInterrupted when the run was
// cancelled, any other non-nil error for setup failures; issues found in
// files are reported through the report, not the error.
func Run(ctx context.Context, opts analyzer.Options, settings config.Settings, logger *slog.Logger, version string) (analyzer.RunReport, error) {
	var (
		program *tea.Program
		model   *ui.Model
		bar     hooks.ProgressBar
	)

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	useTUI := settings.TuiEnabled && interactive

	switch {
	case useTUI:
		model = ui.NewModel(version)
		program = tea.NewProgram(model, tea.WithOutput(os.Stderr))
	case interactive && !opts.Verbose:
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("analyzing"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
		)
	}

	var tuiProg hooks.TUIProgram
	if program != nil {
		tuiProg = program
	}
	opts.Hooks = hooks.NewCLIHooks(logger, useTUI, opts.Verbose, tuiProg, bar)

	eng, err := analyzer.NewEngine(opts)
	if err != nil {
		return analyzer.RunReport{}, err
	}

	var (
		report analyzer.RunReport
		runErr error
	)
	if useTUI {
		done := make(chan struct{})
		go func() {
			defer close(done)
			report, runErr = eng.Run(ctx)
			program.Quit()
		}()
		if _, tuiErr := program.Run(); tuiErr != nil {
			logger.Warn("terminal UI failed, run continues in background", slog.Any("error", tuiErr))
		}
		<-done
	} else {
		report, runErr = eng.Run(ctx)
	}

	if runErr != nil && !errors.Is(runErr, analyzer.ErrInterrupted) {
		return report, runErr
	}

	store := history.NewStore(settings.HistoryFile, opts.Logger)
	trend := store.TrendFor(opts.TargetPath, report.Summary.Failed+report.Summary.FixErrors)
	if err := store.Append(history.Entry{
		Timestamp:  report.Summary.Timestamp,
		TargetPath: opts.TargetPath,
		TotalFiles: report.Summary.TotalFiles,
		Passed:     report.Summary.Passed,
		Failed:     report.Summary.Failed + report.Summary.FixErrors,
		Fixed:      report.Summary.Fixed,
		FixMode:    opts.FixMode,
	}); err != nil {
		logger.Warn("could not record run history", slog.Any("error", err))
	}

	switch settings.OutputFormat {
	case analyzer.OutputFormatJSON:
		if err := WriteJSON(os.Stdout, report); err != nil {
			return report, fmt.Errorf("write report: %w", err)
		}
	default:
		RenderText(os.Stdout, report, trend)
	}

	if path, err := ExportJSONReport(settings.OutputDir, report); err != nil {
		logger.Warn("could not export report file", slog.Any("error", err))
	} else {
		logger.Debug("report exported", slog.String("path", path))
	}

	return report, runErr
}
