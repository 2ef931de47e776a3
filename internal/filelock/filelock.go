// Package filelock guards a target tree against concurrent runs and replaces
// files atomically so that an interrupted or failed write never leaves a
// partial file behind.
package filelock

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock wraps a flock file lock for coordinating access to a target tree.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// TryLock attempts to acquire an exclusive lock on the file without blocking.
// Returns true if the lock was acquired, false if the lock is held by another process.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	err := fl.flock.Unlock()
	if err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// LockTarget takes the exclusive lock guarding the target directory dir.
// The lock file sits next to the directory ("<dir>.lock") so it never ends up
// inside the packaged tree. Fails at once if another run holds it.
func LockTarget(dir string) (*FileLock, error) {
	clean := filepath.Clean(dir)
	if err := os.MkdirAll(filepath.Dir(clean), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for lock: %w", err)
	}

	lock := NewFileLock(clean + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("target %s is locked by another run (%s)", dir, lock.Path())
	}
	return lock, nil
}

// AtomicReplace produces the file at path through fill, which receives the
// name of a temporary file in the same directory and must leave the full
// content there. On success the temporary file is renamed over path; on any
// failure it is removed and path is left untouched.
//
// Parent directories of path are created as needed.
func AtomicReplace(path string, fill func(tmpPath string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Same directory as the target so the rename stays on one filesystem
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			os.Remove(tempPath)
		}
	}()

	if err := fill(tempPath); err != nil {
		return err
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	committed = true

	return nil
}

// AtomicCopy copies the bytes of src to dst through AtomicReplace.
func AtomicCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	return AtomicReplace(dst, func(tmpPath string) error {
		out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("failed to open temp file: %w", err)
		}

		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return fmt.Errorf("failed to copy %s: %w", src, err)
		}

		if err := out.Sync(); err != nil {
			out.Close()
			return fmt.Errorf("failed to sync temp file: %w", err)
		}

		if err := out.Close(); err != nil {
			return fmt.Errorf("failed to close temp file: %w", err)
		}
		return nil
	})
}
