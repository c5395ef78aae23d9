package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
)

// newCleanupCmd removes (or restores from) backup files that a crashed or
// killed run left behind.
func newCleanupCmd() *cobra.Command {
	var restore bool

	cmd := &cobra.Command{
		Use:   "cleanup [path]",
		Short: "Remove orphaned backup files left by interrupted fix runs.",
		Long: `cleanup scans for leftover ` + analyzer.BackupSuffix + ` files and removes them.
With --restore, each backup is renamed over its original file instead,
recovering the pre-fix content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			handled, err := analyzer.CleanupOrphanedBackups(root, restore)
			if err != nil {
				return err
			}
			if len(handled) == 0 {
				fmt.Fprintln(os.Stdout, "No orphaned backups found.")
				return nil
			}
			verb := "Removed"
			if restore {
				verb = "Restored"
			}
			for _, path := range handled {
				fmt.Fprintf(os.Stdout, "%s %s\n", verb, path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&restore, "restore", false, "Restore originals from backups instead of deleting them")
	return cmd
}
