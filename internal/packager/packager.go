// Package packager turns an interpreter installation into a trimmed,
// redistributable tree.
//
// A run walks the installation prefix, prunes directories with a DirFilter,
// classifies every remaining file and then compiles it, copies it or drops
// it. System libraries the interpreter needs are appended at the end. Every
// file is written through a temporary file and a rename, so a target is
// either complete or absent.
package packager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/pydist/internal/filelock"
	"github.com/harrison/pydist/internal/fileutil"
	"github.com/harrison/pydist/internal/interp"
	"github.com/harrison/pydist/internal/models"
	"github.com/harrison/pydist/internal/rules"
)

// Compiler turns a source file into bytecode at dst.
// A source the interpreter rejects must be reported as *interp.CompileError
// and a failed read or write as *interp.IOError; any other error aborts the run.
type Compiler interface {
	Compile(src, dst string) error
}

// Logger receives progress and diagnostics.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// Packager copies one installation into one target directory
type Packager struct {
	Rules     *rules.RuleSet
	Prefix    string // Installation prefix to package
	Target    string // Directory receiving the trimmed tree
	SystemDir string // Directory holding the OS shared libraries
	Compiler  Compiler
	Logger    Logger

	// Lock takes an exclusive lock on the target for the duration of the run.
	Lock bool
}

// Run packages the installation. The returned report is complete even when
// system libraries are missing; check Report.Failed.
func (p *Packager) Run(ctx context.Context) (*models.Report, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &models.Report{Prefix: p.Prefix, Target: p.Target}

	if p.Lock {
		lock, err := filelock.LockTarget(p.Target)
		if err != nil {
			return nil, err
		}
		defer lock.Unlock()
		p.Logger.LogDebug(fmt.Sprintf("Locked %s", lock.Path()))
	}

	p.Logger.LogInfo(fmt.Sprintf("Copying Python install from %s", p.Prefix))

	filter := NewDirFilter(p.Rules, p.Prefix)
	result, err := fileutil.Walk(p.Prefix, fileutil.WalkOptions{Descend: filter.Descend}, func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return p.processFile(path, report)
	})
	if err != nil {
		return nil, err
	}
	report.WalkErrors = result.Errors
	p.Logger.LogDebug(fmt.Sprintf("Processed %d files", result.Files))
	for _, walkErr := range result.Errors {
		p.Logger.LogDebug(walkErr.Error())
	}

	AugmentSystemFiles(p.Target, p.SystemDir, p.Rules.SystemFiles(), p.Logger, report)

	report.Duration = time.Since(start)
	return report, nil
}

func (p *Packager) validate() error {
	switch {
	case p.Rules == nil:
		return errors.New("packager: rules are required")
	case p.Prefix == "":
		return errors.New("packager: installation prefix is required")
	case p.Target == "":
		return errors.New("packager: target directory is required")
	case p.Compiler == nil:
		return errors.New("packager: compiler is required")
	case p.Logger == nil:
		return errors.New("packager: logger is required")
	}
	return nil
}

// processFile handles one file of the walk. Only a broken compile session is
// returned as an error; every other problem is confined to the file.
func (p *Packager) processFile(path string, report *models.Report) error {
	rel, err := filepath.Rel(p.Prefix, path)
	if err != nil {
		return fmt.Errorf("failed to relativize %s: %w", path, err)
	}
	target := filepath.Join(p.Target, rel)

	switch Classify(p.Rules, path) {
	case models.ActionExclude:
		report.Excluded++
		p.Logger.LogTrace(fmt.Sprintf("excluded %s", rel))
		return nil

	case models.ActionCompile:
		return p.compile(path, rel, target, report)

	default:
		if err := filelock.AtomicCopy(path, target); err != nil {
			report.WriteFailed++
			p.Logger.LogWarn(fmt.Sprintf("Unable to copy %s: %v", rel, err))
			return nil
		}
		report.Copied++
		p.Logger.LogTrace(fmt.Sprintf("copied %s", rel))
		return nil
	}
}

func (p *Packager) compile(path, rel, target string, report *models.Report) error {
	dst := strings.TrimSuffix(target, filepath.Ext(target)) + p.Rules.CompiledSuffix()

	var sessionErr error
	err := filelock.AtomicReplace(dst, func(tmpPath string) error {
		err := p.Compiler.Compile(path, tmpPath)
		if err != nil && !isPerFileError(err) {
			sessionErr = err
		}
		return err
	})

	var compileErr *interp.CompileError
	switch {
	case sessionErr != nil:
		return fmt.Errorf("compiling %s: %w", rel, sessionErr)
	case errors.As(err, &compileErr):
		// Sources the interpreter rejects are left out of the tree.
		report.CompileFailed++
		p.Logger.LogDebug(fmt.Sprintf("not compiled %s: %s", rel, compileErr.Message))
	case err != nil:
		report.WriteFailed++
		p.Logger.LogWarn(fmt.Sprintf("Unable to write %s: %v", dst, err))
	default:
		report.Compiled++
		p.Logger.LogTrace(fmt.Sprintf("compiled %s", rel))
	}
	return nil
}

// isPerFileError reports whether a compile error concerns only the file at
// hand, leaving the session usable for the next one.
func isPerFileError(err error) bool {
	var compileErr *interp.CompileError
	var ioErr *interp.IOError
	return errors.As(err, &compileErr) || errors.As(err, &ioErr)
}
