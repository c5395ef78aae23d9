package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/FJ-cyberzilla/codex/internal/cli"
	"github.com/FJ-cyberzilla/codex/internal/cli/config"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
)

// Exit codes: 0 all checks passed, 1 issues found or run failed, 130
// interrupted by signal.
const (
	exitOK          = 0
	exitIssues      = 1
	exitInterrupted = 130
)

var (
	// Set at build time via -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile     string
	profileName string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "codex [path]",
	Short: "Runs configured linters and formatters against a codebase.",
	Long: `codex scans a directory, detects each file's language, and runs the
configured chain of check and fix tools against it in parallel.

It features:
  - Bounded parallel execution with per-tool timeouts.
  - Automatic backup and rollback around fix tools.
  - Deterministic text or JSON reports suitable for CI gates.
  - Run history with quality trend tracking.
  - An interactive Terminal UI (TUI) for monitoring progress.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		target := "."
		if len(args) == 1 {
			target = args[0]
		}

		opts, settings, logger, err := config.LoadAndValidate(cfgFile, profileName, target, cmd.Flags())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitIssues)
		}

		// Give the TUI a moment to take over the terminal before output starts.
		if settings.TuiEnabled && term.IsTerminal(int(os.Stderr.Fd())) && !verbose {
			time.Sleep(100 * time.Millisecond)
		}

		report, runErr := cli.Run(ctx, opts, settings, logger, version)
		switch {
		case errors.Is(runErr, analyzer.ErrInterrupted):
			os.Exit(exitInterrupted)
		case runErr != nil:
			fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
			os.Exit(exitIssues)
		case !report.Summary.OverallSuccess:
			os.Exit(exitIssues)
		}
		return nil
	},
}

// Execute runs the root command. Cobra prints errors; the exit code mapping
// happens inside RunE.
func Execute() {
	rootCmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitIssues)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default searches ., $HOME/.config/codex/)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Name of configuration profile to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables TUI)")

	rootCmd.Flags().Bool("fix", analyzer.DefaultFixMode, "Run fix tools (formatters) in addition to check tools")
	rootCmd.Flags().Bool("no-tui", false, "Disable interactive Terminal UI even if in a TTY")
	rootCmd.Flags().Int("concurrency", analyzer.DefaultMaxWorkers, "Number of parallel workers (0 for auto-detect CPU cores)")
	rootCmd.Flags().Int("tool-timeout", int(analyzer.DefaultToolTimeout/time.Second), "Fallback per-tool timeout in seconds")
	rootCmd.Flags().StringArray("exclude", []string{}, "Glob patterns for files to exclude (can be specified multiple times)")
	rootCmd.Flags().Bool("changed-only", false, "Analyze only files with uncommitted git modifications")
	rootCmd.Flags().String("output-format", string(analyzer.DefaultOutputFormat), `Final report format ("text", "json")`)
	rootCmd.Flags().String("output-dir", analyzer.DefaultOutputDir, "Directory where JSON report files are exported")
	rootCmd.Flags().String("history-file", analyzer.DefaultHistoryFile, "Path of the run history file")

	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newCleanupCmd())
}
