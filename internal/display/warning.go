package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning, in yellow when out is a terminal.
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}

		for i, file := range w.Files {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, file))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	text := b.String()
	if isTerminal(out) {
		c := color.New(color.FgYellow)
		c.EnableColor()
		text = c.Sprint(text)
	}
	fmt.Fprint(out, text)
}

// WarnMissingSystemFiles creates the warning shown when system libraries
// could not be found in the system directory.
func WarnMissingSystemFiles(systemDir string, names []string) Warning {
	return Warning{
		Title:      fmt.Sprintf("%d system librar%s not found", len(names), plural(len(names), "y", "ies")),
		Message:    fmt.Sprintf("Looked in %s", systemDir),
		Files:      names,
		Suggestion: "Set SYSTEMROOT or pass --system-root to a Windows directory that contains them",
	}
}

// WarnWalkErrors creates the warning shown when parts of the installation
// could not be read.
func WarnWalkErrors(errs []error) Warning {
	files := make([]string, len(errs))
	for i, err := range errs {
		files[i] = err.Error()
	}
	return Warning{
		Title:   fmt.Sprintf("%d path%s could not be read", len(errs), plural(len(errs), "", "s")),
		Message: "The packaged tree is missing these entries",
		Files:   files,
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// isTerminal reports whether w is a TTY that should get colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
