package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and assignment statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Endings:          %d\n", stats.Total)
			fmt.Fprintf(out, "Highest id:       %d\n", stats.MaxID)
			fmt.Fprintf(out, "With pictures:    %d\n", stats.WithImages)
			fmt.Fprintf(out, "Without pictures: %d\n", stats.WithoutImages)
			fmt.Fprintf(out, "Assigned today:   %d\n", stats.AssignedToday)
			fmt.Fprintf(out, "History records:  %d\n", stats.HistoryRecorded)
			return nil
		},
	}
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete picture files no ending references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			removed, err := client.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"removed": removed})
			}
			out := cmd.OutOrStdout()
			if len(removed) == 0 {
				fmt.Fprintln(out, "No orphaned pictures found")
				return nil
			}
			for _, name := range removed {
				fmt.Fprintf(out, "Removed %s\n", name)
			}
			fmt.Fprintf(out, "%d orphaned pictures removed\n", len(removed))
			return nil
		},
	}
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <id>",
		Short: "Check an ending's stored picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}

			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			check, err := client.Validate(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, check)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatCheck(check, shouldColorize(out)))
			if check.Path != "" {
				fmt.Fprintf(out, "Path: %s\n", check.Path)
			}
			return nil
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var userFlag string
	var dayFlag string
	var limitFlag int
	var frequencyFlag bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past daily assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			if frequencyFlag {
				rows, err := client.Frequency(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, rows)
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No history records")
					return nil
				}
				fmt.Fprintln(out, renderFrequencyTable(rows))
				return nil
			}

			entries, err := client.History(cmd.Context(), userFlag, dayFlag, limitFlag)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history records")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "Filter by user id")
	cmd.Flags().StringVar(&dayFlag, "day", "", "Filter by day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum records for user queries")
	cmd.Flags().BoolVar(&frequencyFlag, "frequency", false, "Show pick counts per entry instead of rows")
	return cmd
}
