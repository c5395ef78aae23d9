package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FJ-cyberzilla/codex/internal/cli"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer/history"
)

// newHistoryCmd lists the recorded runs from the history file.
func newHistoryCmd() *cobra.Command {
	var historyFile string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded analysis runs and their trend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			store := history.NewStore(historyFile, handler)
			cli.RenderHistory(os.Stdout, store.Load())
			return nil
		},
	}
	cmd.Flags().StringVar(&historyFile, "history-file", analyzer.DefaultHistoryFile, "Path of the run history file")
	return cmd
}
