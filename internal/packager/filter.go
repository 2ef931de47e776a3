package packager

import (
	"path/filepath"
	"strings"

	"github.com/harrison/pydist/internal/models"
	"github.com/harrison/pydist/internal/rules"
)

// DirFilter restricts descent into the installation tree
type DirFilter struct {
	rules   *rules.RuleSet
	prefix  string
	libRoot string
}

// NewDirFilter creates the filter for the installation at prefix.
func NewDirFilter(rs *rules.RuleSet, prefix string) *DirFilter {
	prefix = filepath.Clean(prefix)
	return &DirFilter{
		rules:   rs,
		prefix:  prefix,
		libRoot: filepath.Join(prefix, rs.LibDir()),
	}
}

// Descend reports whether the subdirectory name of parent is walked.
//
// At the installation root only the known root directories are walked, at the
// library root excluded stdlib packages are pruned, and bytecode caches are
// skipped everywhere.
func (f *DirFilter) Descend(parent, name string) bool {
	if f.rules.IsCacheDir(name) {
		return false
	}

	switch filepath.Clean(parent) {
	case f.prefix:
		return f.rules.IsRootDir(name)
	case f.libRoot:
		return !f.rules.IsExcludedStdlib(name)
	default:
		return true
	}
}

// Classify decides the treatment of the file at path.
func Classify(rs *rules.RuleSet, path string) models.Action {
	if rs.IsExcludedFile(path) {
		return models.ActionExclude
	}

	suffix := strings.ToLower(filepath.Ext(path))
	if rs.IsExcludedSuffix(suffix) {
		return models.ActionExclude
	}

	if suffix == rs.SourceSuffix() && !rs.IsDoNotCompile(path) {
		return models.ActionCompile
	}

	return models.ActionCopy
}
