// Package display renders the user-facing blocks printed at the end of a run:
// warnings about things the run could not do, and the optional summary table.
//
// All functions accept io.Writer interfaces. Colors are only emitted when the
// writer is a terminal and NO_COLOR is unset.
//
//	warning := display.Warning{
//	    Title:      "System libraries not found",
//	    Files:      []string{"vcruntime140.dll"},
//	    Suggestion: "Set SYSTEMROOT or pass --system-root",
//	}
//	warning.Display(os.Stderr)
//
//	display.RenderSummary(os.Stdout, report)
package display
