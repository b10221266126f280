package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Inspect and control the dorod daemon",
	}

	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))
	daemonCmd.AddCommand(newDaemonStopCommand(ctx))

	return daemonCmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon runtime information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.dialClient()
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			running := "no"
			if status.Running {
				running = "yes"
			}
			fmt.Fprintf(out, "Running:        %s\n", running)
			fmt.Fprintf(out, "PID:            %d\n", status.PID)
			fmt.Fprintf(out, "Session:        %s\n", status.SessionID)
			if status.StartedAt != "" {
				fmt.Fprintf(out, "Started:        %s\n", status.StartedAt)
			}
			fmt.Fprintf(out, "Catalog:        %s\n", status.CatalogPath)
			fmt.Fprintf(out, "Lock file:      %s\n", status.LockPath)
			fmt.Fprintf(out, "Socket:         %s\n", status.SocketPath)
			fmt.Fprintf(out, "Endings:        %d\n", status.EntryCount)
			fmt.Fprintf(out, "Assigned today: %d\n", status.AssignedToday)
			return nil
		},
	}
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask the daemon to shut down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.dialClient()
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Stop()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			if resp.Stopped {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopping")
			}
			return nil
		},
	}
}
