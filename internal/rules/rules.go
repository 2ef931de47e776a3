// Package rules holds the tables that decide what part of an interpreter
// installation ends up in a packaged tree.
//
// A RuleSet is built once per run from Options and never changes afterwards.
// All path matchers run against slash-separated paths, so the same tables work
// for installations laid out with either separator.
package rules

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Version identifies the interpreter release the rules are built for
type Version struct {
	Major int
	Minor int
}

// String returns "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Options enumerates everything a RuleSet is derived from
type Options struct {
	Version Version

	// Extra is merged on top of the built-in tables. Optional.
	Extra *Overrides
}

// RuleSet is the immutable decision table for one run
type RuleSet struct {
	version          Version
	rootDirs         []string
	libDir           string
	excludedStdlib   []Matcher
	excludedFiles    []Matcher
	doNotCompile     []Matcher
	excludedSuffixes map[string]bool
	cacheDirs        map[string]bool
	sourceSuffix     string
	compiledSuffix   string
	systemFiles      []string
}

var (
	baseExcludedStdlib = []Matcher{
		Literal("test"),
		MustPattern(`plat-.+`),
	}

	py3ExcludedStdlib = []Matcher{
		Literal("ensurepip"),
		Literal("idlelib"),
		Literal("tkinter"),
		Literal("turtledemo"),
		Literal("venv"),
	}

	py2ExcludedStdlib = []Matcher{
		Literal("lib-tk"),
		Literal("pydoc_data"),
	}

	baseExcludedFiles = []Matcher{
		MustPattern(`tcl.+\.dll$`),
		MustPattern(`tk.+\.dll$`),
		MustPattern(`/_test.+\.pyd$`),
		MustPattern(`_test\.pyd$`),
		MustPattern(`.+_d\.(pyd|dll|exe)$`),
	}

	// Sources that inspect themselves at runtime and must ship as text.
	baseDoNotCompile = []Matcher{
		MustPattern(`/pip/_vendor/distlib/__init__\.py$`),
		MustPattern(`/wfastcgi\.py$`),
	}

	baseExcludedSuffixes = []string{".pyc", ".pyo", ".pdb"}
)

// SystemFiles returns the OS shared libraries the given release needs next to
// its executable. Releases without a known list are rejected.
func SystemFiles(v Version) ([]string, error) {
	switch {
	case v.Major == 2 && v.Minor == 7:
		return []string{"python27.dll"}, nil
	case v.Major == 3 && v.Minor >= 5:
		return []string{fmt.Sprintf("python3%d.dll", v.Minor), "vcruntime140.dll"}, nil
	default:
		return nil, fmt.Errorf("no system library list for interpreter version %s", v)
	}
}

// New builds the rule set for opts.
func New(opts Options) (*RuleSet, error) {
	systemFiles, err := SystemFiles(opts.Version)
	if err != nil {
		return nil, err
	}

	rs := &RuleSet{
		version:          opts.Version,
		rootDirs:         []string{"DLLs", "Lib"},
		libDir:           "Lib",
		excludedStdlib:   append([]Matcher(nil), baseExcludedStdlib...),
		excludedFiles:    append([]Matcher(nil), baseExcludedFiles...),
		doNotCompile:     append([]Matcher(nil), baseDoNotCompile...),
		excludedSuffixes: make(map[string]bool),
		cacheDirs:        map[string]bool{"__pycache__": true},
		sourceSuffix:     ".py",
		compiledSuffix:   ".pyc",
		systemFiles:      systemFiles,
	}

	switch opts.Version.Major {
	case 3:
		rs.excludedStdlib = append(rs.excludedStdlib, py3ExcludedStdlib...)
	case 2:
		rs.excludedStdlib = append(rs.excludedStdlib, py2ExcludedStdlib...)
	}

	for _, s := range baseExcludedSuffixes {
		rs.excludedSuffixes[s] = true
	}

	if x := opts.Extra; x != nil {
		rs.excludedStdlib = append(rs.excludedStdlib, x.ExcludedStdlib...)
		rs.excludedFiles = append(rs.excludedFiles, x.ExcludedFiles...)
		rs.doNotCompile = append(rs.doNotCompile, x.DoNotCompile...)
		for _, s := range x.ExcludedSuffixes {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			if !strings.HasPrefix(s, ".") {
				s = "." + s
			}
			rs.excludedSuffixes[s] = true
		}
	}

	return rs, nil
}

// Version returns the release the rules were built for.
func (rs *RuleSet) Version() Version { return rs.version }

// RootDirs returns the only directories descended into at the installation root.
func (rs *RuleSet) RootDirs() []string {
	return append([]string(nil), rs.rootDirs...)
}

// IsRootDir reports whether name is descended into at the installation root.
func (rs *RuleSet) IsRootDir(name string) bool {
	for _, d := range rs.rootDirs {
		if d == name {
			return true
		}
	}
	return false
}

// LibDir returns the name of the standard library directory.
func (rs *RuleSet) LibDir() string { return rs.libDir }

// IsExcludedStdlib reports whether a directory directly under the library
// root is pruned.
func (rs *RuleSet) IsExcludedStdlib(name string) bool {
	return MatchAny(rs.excludedStdlib, name)
}

// IsCacheDir reports whether a directory name is a bytecode cache.
func (rs *RuleSet) IsCacheDir(name string) bool {
	return rs.cacheDirs[strings.ToLower(name)]
}

// IsExcludedFile reports whether the file at path is never shipped.
func (rs *RuleSet) IsExcludedFile(path string) bool {
	return MatchAny(rs.excludedFiles, filepath.ToSlash(path))
}

// IsExcludedSuffix reports whether files with the suffix are dropped.
func (rs *RuleSet) IsExcludedSuffix(suffix string) bool {
	return rs.excludedSuffixes[strings.ToLower(suffix)]
}

// IsDoNotCompile reports whether the source at path must ship uncompiled.
func (rs *RuleSet) IsDoNotCompile(path string) bool {
	return MatchAny(rs.doNotCompile, filepath.ToSlash(path))
}

// SourceSuffix returns the suffix of compilable sources.
func (rs *RuleSet) SourceSuffix() string { return rs.sourceSuffix }

// CompiledSuffix returns the suffix given to compiled targets.
func (rs *RuleSet) CompiledSuffix() string { return rs.compiledSuffix }

// SystemFiles returns the OS shared libraries to append to the target.
func (rs *RuleSet) SystemFiles() []string {
	return append([]string(nil), rs.systemFiles...)
}

// Table is a named, printable view of one rule table
type Table struct {
	Name    string
	Entries []string
}

// Tables returns every table of the rule set in a fixed order, for display.
func (rs *RuleSet) Tables() []Table {
	return []Table{
		{Name: "root_dirs", Entries: rs.RootDirs()},
		{Name: "excluded_stdlib", Entries: matcherStrings(rs.excludedStdlib)},
		{Name: "excluded_files", Entries: matcherStrings(rs.excludedFiles)},
		{Name: "do_not_compile", Entries: matcherStrings(rs.doNotCompile)},
		{Name: "excluded_suffixes", Entries: sortedKeys(rs.excludedSuffixes)},
		{Name: "cache_dirs", Entries: sortedKeys(rs.cacheDirs)},
		{Name: "system_files", Entries: rs.SystemFiles()},
	}
}

func matcherStrings(ms []Matcher) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.String()
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
