package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"doroending/internal/api"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// writeJSON encodes payload as indented JSON to the command's stdout. Used
// by every command's --json mode in place of the rendered views below.
func writeJSON(cmd *cobra.Command, payload any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(text, color string, enabled bool) string {
	if !enabled || color == "" {
		return text
	}
	return color + text + ansiReset
}

func renderEndingTable(endings []api.Ending) string {
	rows := make([][]string, 0, len(endings))
	for _, ending := range endings {
		pic := ending.Pic
		if pic == "" {
			pic = "-"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", ending.ID),
			ending.Name,
			ending.EnglishName,
			pic,
		})
	}
	return renderRows(endingColumns, rows)
}

func renderEndingDetail(out io.Writer, ending api.Ending) {
	fmt.Fprintf(out, "ID:           %d\n", ending.ID)
	fmt.Fprintf(out, "Name:         %s\n", ending.Name)
	fmt.Fprintf(out, "English name: %s\n", ending.EnglishName)
	if ending.Pic != "" {
		fmt.Fprintf(out, "Picture:      %s\n", ending.Pic)
	}
	if ending.PicPath != "" {
		fmt.Fprintf(out, "Picture path: %s\n", ending.PicPath)
	}
}

func renderHistoryTable(entries []api.HistoryEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.Day,
			entry.UserID,
			fmt.Sprintf("%d", entry.EntryID),
			entry.EntryName,
		})
	}
	return renderRows(historyColumns, rows)
}

func renderFrequencyTable(rows []api.FrequencyRow) string {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		name := row.EntryName
		if name == "" {
			name = "(removed)"
		}
		cells = append(cells, []string{
			fmt.Sprintf("%d", row.EntryID),
			name,
			fmt.Sprintf("%d", row.Picks),
		})
	}
	return renderRows(frequencyColumns, cells)
}

func formatCheck(check api.ImageCheck, color bool) string {
	if check.Valid {
		detail := strings.TrimSpace(fmt.Sprintf("%s %d bytes", check.Format, check.FileSize))
		return colorize("OK", ansiGreen, color) + " " + detail
	}
	problem := check.Problem
	if problem == "" {
		problem = "invalid"
	}
	return colorize("FAIL", ansiRed, color) + " " + problem
}
