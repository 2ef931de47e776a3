package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for pydist
func NewRootCommand() *cobra.Command {
	return newRootCommand(newClientInterpreter)
}

func newRootCommand(newInterpreter InterpreterFactory) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "pydist <expected-version> <target-dir>",
		Short: "Package a Python installation into a trimmed, redistributable tree",
		Long: `pydist copies the installation of the running Python interpreter into a
target directory, leaving out tests, GUI toolkits, debug builds and caches,
compiling sources to bytecode and adding the system libraries the
interpreter needs next to it.

The expected version is the interpreter signature, e.g. 368x64 for a 64-bit
3.6.8 (see "pydist signature"). Nothing is written when it does not match.

Configuration is loaded from pydist.yaml in the working directory if present,
or from the file named by --config. PYDIST_* environment variables and
command line flags override it.

Exit codes:
  0  success
  1  missing argument, missing system library or other failure
  2  interpreter version does not match the expected version`,
		Version: Version,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(cmd, args, cfgFile, newInterpreter)
		},
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints errors so exit codes stay under its control
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "configuration file (default pydist.yaml in the working directory)")
	flags.String("interpreter", "", "interpreter executable to package")
	flags.String("prefix", "", "installation prefix to package (default: reported by the interpreter)")
	flags.String("system-root", "", "OS root holding the system libraries (default $SYSTEMROOT)")
	flags.String("rules-file", "", "YAML file extending the built-in rules")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.Bool("no-lock", false, "do not lock the target directory")
	flags.Bool("summary", false, "print a summary table when done")
	flags.Duration("probe-timeout", 0, "time limit for querying the interpreter")

	cmd.AddCommand(newSignatureCommand(&cfgFile, newInterpreter))
	cmd.AddCommand(newRulesCommand(&cfgFile, newInterpreter))

	return cmd
}
