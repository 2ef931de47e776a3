package display

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/harrison/pydist/internal/rules"
)

// RenderRules prints the effective rule tables, one block per table.
func RenderRules(w io.Writer, title string, tables []rules.Table) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Table", "Entry"})

	for i, tbl := range tables {
		if i > 0 {
			t.AppendSeparator()
		}
		if len(tbl.Entries) == 0 {
			t.AppendRow(table.Row{tbl.Name, "(none)"})
			continue
		}
		for j, entry := range tbl.Entries {
			name := ""
			if j == 0 {
				name = tbl.Name
			}
			t.AppendRow(table.Row{name, entry})
		}
	}

	t.Render()
}

// RulesTitle formats the title line for RenderRules.
func RulesTitle(signature string, v rules.Version) string {
	return fmt.Sprintf("Rules for %s (%s)", v, signature)
}
