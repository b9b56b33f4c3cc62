package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"printflow/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var taskID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			opts := logs.Options{Offset: -1, Lines: lines, Match: taskID}
			printLines := func(batch []string) error {
				for _, line := range batch {
					fmt.Fprintln(out, line)
				}
				return nil
			}
			if follow {
				return logs.Follow(cmd.Context(), cfg.LogPath(), opts, printLines)
			}
			chunk, err := logs.Read(cmd.Context(), cfg.LogPath(), opts)
			if err != nil {
				return err
			}
			if len(chunk.Lines) == 0 {
				fmt.Fprintf(out, "No log lines in %s\n", cfg.LogPath())
				return nil
			}
			return printLines(chunk.Lines)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&taskID, "task", "", "Only show lines mentioning this task id")
	return cmd
}
