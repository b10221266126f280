package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPickCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pick <user-id>",
		Short: "Show the user's ending of the day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			result, err := client.DailyPick(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if result.Fresh {
				fmt.Fprintf(out, "Assigned for %s:\n", result.Date)
			} else {
				fmt.Fprintf(out, "Already assigned for %s:\n", result.Date)
			}
			renderEndingDetail(out, result.Ending)
			return nil
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var imageFlag string

	cmd := &cobra.Command{
		Use:   "add <name> <english-name>",
		Short: "Add an ending to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageURL, imageBytes, err := resolveImageFlag(imageFlag)
			if err != nil {
				return err
			}

			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			ending, err := client.Add(cmd.Context(), args[0], args[1], imageURL, imageBytes)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, ending)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added ending %d: %s\n", ending.ID, ending.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&imageFlag, "image", "", "Image URL or local file path")
	return cmd
}

// resolveImageFlag treats http(s) values as URLs and anything else as a
// local file to read.
func resolveImageFlag(value string) (string, []byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil, nil
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value, nil, nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return "", nil, fmt.Errorf("read image file: %w", err)
	}
	return "", data, nil
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|name>",
		Short: "Remove an ending and its picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			ending, err := client.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, ending)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed ending %d: %s\n", ending.ID, ending.Name)
			return nil
		},
	}
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var nameFlag string
	var englishFlag string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an ending's names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}

			fields := map[string]string{}
			if cmd.Flags().Changed("name") {
				fields["name"] = nameFlag
			}
			if cmd.Flags().Changed("english-name") {
				fields["english_name"] = englishFlag
			}
			if len(fields) == 0 {
				return errors.New("nothing to update; pass --name or --english-name")
			}

			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			ending, err := client.Update(cmd.Context(), id, fields)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, ending)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated ending %d\n", ending.ID)
			renderEndingDetail(cmd.OutOrStdout(), ending)
			return nil
		},
	}

	cmd.Flags().StringVar(&nameFlag, "name", "", "New display name")
	cmd.Flags().StringVar(&englishFlag, "english-name", "", "New english name")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all endings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			endings, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, endings)
			}
			out := cmd.OutOrStdout()
			if len(endings) == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}
			fmt.Fprintln(out, renderEndingTable(endings))
			fmt.Fprintf(out, "%d endings\n", len(endings))
			return nil
		},
	}
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search endings by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			endings, err := client.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, endings)
			}
			out := cmd.OutOrStdout()
			if len(endings) == 0 {
				fmt.Fprintf(out, "No endings match %q\n", args[0])
				return nil
			}
			fmt.Fprintln(out, renderEndingTable(endings))
			return nil
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show one ending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closer, err := ctx.endingAPI()
			if err != nil {
				return err
			}
			defer closer()

			ending, err := client.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, ending)
			}
			renderEndingDetail(cmd.OutOrStdout(), ending)
			return nil
		},
	}
}
