package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/harrison/pydist/internal/models"
)

// RenderSummary prints the report of a run as a table.
func RenderSummary(w io.Writer, r *models.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s -> %s", r.Prefix, r.Target))

	t.AppendHeader(table.Row{"Item", "Count", "Details"})
	t.AppendRow(table.Row{"Compiled", r.Compiled, ""})
	t.AppendRow(table.Row{"Copied", r.Copied, ""})
	t.AppendRow(table.Row{"Excluded", r.Excluded, ""})
	t.AppendRow(table.Row{"Not compilable", r.CompileFailed, ""})
	t.AppendRow(table.Row{"Write failures", r.WriteFailed, ""})
	t.AppendRow(table.Row{"Files written", r.FilesWritten(), ""})
	t.AppendSeparator()
	t.AppendRow(table.Row{"System libraries copied", len(r.SystemCopied), strings.Join(r.SystemCopied, ", ")})
	t.AppendRow(table.Row{"System libraries present", len(r.SystemPresent), strings.Join(r.SystemPresent, ", ")})
	t.AppendRow(table.Row{"System libraries missing", len(r.SystemMissing), strings.Join(r.SystemMissing, ", ")})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Unreadable paths", len(r.WalkErrors), ""})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Duration", r.Duration.Round(time.Millisecond).String(), ""})

	t.Render()
}
