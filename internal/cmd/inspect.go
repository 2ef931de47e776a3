package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/pydist/internal/config"
	"github.com/harrison/pydist/internal/display"
)

// newSignatureCommand creates the signature subcommand
func newSignatureCommand(cfgFile *string, newInterpreter InterpreterFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "signature",
		Short: "Print the version signature of the interpreter",
		Long: `Print the signature pydist compares the expected version against:
major, minor and micro version followed by x64 or x86.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			info, err := newInterpreter(cfg).Probe(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.Signature())
			return nil
		},
		SilenceUsage: true,
	}
}

// newRulesCommand creates the rules subcommand
func newRulesCommand(cfgFile *string, newInterpreter InterpreterFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the rules applied to the interpreter installation",
		Long: `Print the effective rule tables for the interpreter: the directories
walked, the excluded standard library packages, files and suffixes, the
sources copied without compiling and the system libraries added.
Entries from --rules-file are included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			info, err := newInterpreter(cfg).Probe(cmd.Context())
			if err != nil {
				return err
			}
			rs, err := loadRules(cfg, info)
			if err != nil {
				return err
			}
			display.RenderRules(cmd.OutOrStdout(), display.RulesTitle(info.Signature(), rs.Version()), rs.Tables())
			return nil
		},
		SilenceUsage: true,
	}
}
