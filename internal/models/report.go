package models

import "time"

// Report summarizes a single packaging run
type Report struct {
	Prefix string // Installation prefix that was packaged
	Target string // Target directory that was written

	Compiled      int // Sources compiled to bytecode
	CompileFailed int // Sources the interpreter refused to compile (skipped)
	Copied        int // Files copied verbatim
	Excluded      int // Files dropped by the exclusion rules
	WriteFailed   int // Files whose target could not be written

	SystemCopied  []string // System libraries copied into the target
	SystemPresent []string // System libraries already present in the target
	SystemMissing []string // System libraries not found in the system directory

	WalkErrors []error // Non-fatal errors raised while reading the tree

	Duration time.Duration
}

// Failed reports whether the run should end with a failure exit status.
// Only missing system libraries downgrade the status; per-file problems do not.
func (r *Report) Failed() bool {
	return len(r.SystemMissing) > 0
}

// FilesWritten returns the number of files written under the target tree,
// system libraries excluded.
func (r *Report) FilesWritten() int {
	return r.Compiled + r.Copied
}
