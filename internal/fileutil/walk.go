package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WalkOptions configures the walk
type WalkOptions struct {
	// Descend reports whether the directory name inside parent is visited.
	// Nil descends everywhere. Never called for the root itself.
	Descend func(parent, name string) bool
}

// WalkResult contains the outcome of a walk
type WalkResult struct {
	// Files is the number of files handed to the visit function
	Files int
	// Errors contains the non-fatal errors encountered while reading the tree
	Errors []error
}

// Walk calls visit for each regular file under root.
func Walk(root string, opts WalkOptions, visit func(path string) error) (*WalkResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	result := &WalkResult{
		Errors: make([]error, 0),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if d.IsDir() {
			if opts.Descend != nil && !opts.Descend(filepath.Dir(path), d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("error resolving %s: %w", path, err))
				return nil
			}
			if target.IsDir() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		result.Files++
		if err := visit(path); err != nil {
			return &visitError{err: err}
		}
		return nil
	})

	if err != nil {
		var ve *visitError
		if errors.As(err, &ve) {
			return result, ve.err
		}
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return result, nil
}

// visitError marks an error coming from the visit callback so Walk returns it unwrapped.
type visitError struct {
	err error
}

func (e *visitError) Error() string { return e.err.Error() }

func (e *visitError) Unwrap() error { return e.err }
