package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns are right-aligned,
// headers always stay left-aligned.
type column struct {
	title   string
	numeric bool
}

// The fixed column sets of the CLI's tabular views.
var (
	endingColumns = []column{
		{title: "ID", numeric: true},
		{title: "Name"},
		{title: "English Name"},
		{title: "Picture"},
	}
	historyColumns = []column{
		{title: "Day"},
		{title: "User"},
		{title: "Entry ID", numeric: true},
		{title: "Entry"},
	}
	frequencyColumns = []column{
		{title: "Entry ID", numeric: true},
		{title: "Entry"},
		{title: "Picks", numeric: true},
	}
)

// renderRows draws rows under the given columns in the rounded style used
// across the CLI. Short rows are padded with empty cells.
func renderRows(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				cells[i] = row[i]
			} else {
				cells[i] = ""
			}
		}
		tw.AppendRow(cells)
	}

	return tw.Render()
}
