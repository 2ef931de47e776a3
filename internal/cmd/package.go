package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/pydist/internal/config"
	"github.com/harrison/pydist/internal/display"
	"github.com/harrison/pydist/internal/interp"
	"github.com/harrison/pydist/internal/logger"
	"github.com/harrison/pydist/internal/packager"
	"github.com/harrison/pydist/internal/rules"
)

// runPackage is the default action: check the version, then package.
func runPackage(cmd *cobra.Command, args []string, cfgFile string, newInterpreter InterpreterFactory) error {
	if len(args) < 1 {
		return &ExitError{Code: ExitFailure, Message: "Expected version as first argument"}
	}
	expected := args[0]

	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	in := newInterpreter(cfg)
	info, err := in.Probe(ctx)
	if err != nil {
		return err
	}

	var mismatch *packager.VersionMismatchError
	if err := packager.CheckVersion(expected, *info); errors.As(err, &mismatch) {
		return &ExitError{
			Code:    ExitMismatch,
			Message: "Current version is " + mismatch.Current,
			Err:     err,
		}
	}

	if len(args) < 2 {
		return &ExitError{Code: ExitFailure, Message: "Expected target directory as second argument"}
	}
	target := args[1]

	rs, err := loadRules(cfg, info)
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	log := logger.NewConsoleLogger(out, errOut, cfg.LogLevel)
	if cfg.File != "" {
		log.LogDebug(fmt.Sprintf("Loaded configuration from %s", cfg.File))
	}

	session, err := in.StartSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.LogWarn(err.Error())
		}
	}()

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = info.Prefix
	}

	p := &packager.Packager{
		Rules:     rs,
		Prefix:    prefix,
		Target:    target,
		SystemDir: cfg.SystemDir(),
		Compiler:  session,
		Logger:    log,
		Lock:      cfg.Lock,
	}

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if len(report.WalkErrors) > 0 {
		display.WarnWalkErrors(report.WalkErrors).Display(errOut)
	}
	if report.Failed() {
		display.WarnMissingSystemFiles(cfg.SystemDir(), report.SystemMissing).Display(errOut)
	}
	if cfg.Summary {
		display.RenderSummary(out, report)
	}

	if report.Failed() {
		return &ExitError{Code: ExitFailure}
	}
	return nil
}

// loadRules builds the rule set for the probed interpreter, extended by the
// configured rules file.
func loadRules(cfg *config.Config, info *interp.Info) (*rules.RuleSet, error) {
	opts := rules.Options{Version: rules.Version{Major: info.Major, Minor: info.Minor}}
	if cfg.RulesFile != "" {
		extra, err := rules.LoadOverrides(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		opts.Extra = extra
	}
	return rules.New(opts)
}
