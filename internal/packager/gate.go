package packager

import (
	"fmt"

	"github.com/harrison/pydist/internal/interp"
)

// VersionMismatchError is returned when the interpreter found is not the one
// the caller expected to package.
type VersionMismatchError struct {
	Expected string
	Current  string
}

// Error implements the error interface for VersionMismatchError.
func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("version mismatch: expected %s, current version is %s", e.Expected, e.Current)
}

// CheckVersion compares the interpreter signature with the expected one.
// It touches nothing on disk.
func CheckVersion(expected string, info interp.Info) error {
	if current := info.Signature(); current != expected {
		return &VersionMismatchError{Expected: expected, Current: current}
	}
	return nil
}
