package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/pydist/internal/interp"
	"github.com/harrison/pydist/internal/models"
	"github.com/harrison/pydist/internal/rules"
)

// fakeCompiler writes a marker instead of real bytecode.
type fakeCompiler struct {
	mu       sync.Mutex
	reject   map[string]bool // base names answered with a CompileError
	ioFail   map[string]bool // base names answered with an IOError
	brokenAt string          // base name answered with a session error
	calls    []string
}

func (f *fakeCompiler) Compile(src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := filepath.Base(src)
	f.calls = append(f.calls, base)
	if base == f.brokenAt {
		return errors.New("broken pipe")
	}
	if f.reject[base] {
		return &interp.CompileError{Source: src, Message: "invalid syntax"}
	}
	if f.ioFail[base] {
		return &interp.IOError{Source: src, Message: "No such file or directory"}
	}
	return os.WriteFile(dst, []byte("bytecode:"+base), 0644)
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+msg)
}

func (l *recordingLogger) LogTrace(msg string) { l.add("TRACE", msg) }
func (l *recordingLogger) LogDebug(msg string) { l.add("DEBUG", msg) }
func (l *recordingLogger) LogInfo(msg string)  { l.add("INFO", msg) }
func (l *recordingLogger) LogWarn(msg string)  { l.add("WARN", msg) }
func (l *recordingLogger) LogError(msg string) { l.add("ERROR", msg) }

func (l *recordingLogger) contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+" ") && strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("content of "+f), 0644))
	}
}

// fixture lays out an installation, an empty target location and a system
// directory holding both libraries a 3.6 interpreter needs.
type fixture struct {
	prefix    string
	target    string
	systemDir string
	rules     *rules.RuleSet
	compiler  *fakeCompiler
	logger    *recordingLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		prefix:    filepath.Join(base, "install"),
		target:    filepath.Join(base, "out", "dist"),
		systemDir: filepath.Join(base, "system32"),
		compiler:  &fakeCompiler{reject: map[string]bool{"bad.py": true}},
		logger:    &recordingLogger{},
	}

	writeTree(t, f.prefix,
		"python.exe",
		"LICENSE.txt",
		"DLLs/_ssl.pyd",
		"DLLs/tcl86t.dll",
		"DLLs/_ctypes_test.pyd",
		"DLLs/python36_d.dll",
		"DLLs/python36.pdb",
		"Lib/os.py",
		"Lib/bad.py",
		"Lib/README.txt",
		"Lib/stale.pyc",
		"Lib/json/__init__.py",
		"Lib/json/__pycache__/__init__.cpython-36.pyc",
		"Lib/test/test_os.py",
		"Lib/idlelib/idle.py",
		"Lib/plat-win/regen",
		"Lib/pip/_vendor/distlib/__init__.py",
		"Lib/site-packages/test/helper.py",
		"Tools/scripts/2to3.py",
	)
	writeTree(t, f.systemDir, "python36.dll", "vcruntime140.dll")

	rs, err := rules.New(rules.Options{Version: rules.Version{Major: 3, Minor: 6}})
	require.NoError(t, err)
	f.rules = rs
	return f
}

func (f *fixture) packager() *Packager {
	return &Packager{
		Rules:     f.rules,
		Prefix:    f.prefix,
		Target:    f.target,
		SystemDir: f.systemDir,
		Compiler:  f.compiler,
		Logger:    f.logger,
		Lock:      true,
	}
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.target, filepath.FromSlash(rel)))
	return err == nil
}

func TestRunPackagesInstallation(t *testing.T) {
	f := newFixture(t)

	report, err := f.packager().Run(context.Background())
	require.NoError(t, err)

	present := []string{
		"python.exe",
		"LICENSE.txt",
		"DLLs/_ssl.pyd",
		"Lib/os.pyc",
		"Lib/README.txt",
		"Lib/json/__init__.pyc",
		"Lib/pip/_vendor/distlib/__init__.py",
		"Lib/site-packages/test/helper.pyc",
		"python36.dll",
		"vcruntime140.dll",
	}
	for _, rel := range present {
		assert.True(t, f.exists(rel), "expected %s in target", rel)
	}

	absent := []string{
		"Tools",
		"DLLs/tcl86t.dll",
		"DLLs/_ctypes_test.pyd",
		"DLLs/python36_d.dll",
		"DLLs/python36.pdb",
		"Lib/os.py",
		"Lib/bad.py",
		"Lib/bad.pyc",
		"Lib/stale.pyc",
		"Lib/json/__init__.py",
		"Lib/json/__pycache__",
		"Lib/test",
		"Lib/idlelib",
		"Lib/plat-win",
		"Lib/pip/_vendor/distlib/__init__.pyc",
	}
	for _, rel := range absent {
		assert.False(t, f.exists(rel), "did not expect %s in target", rel)
	}

	assert.Equal(t, 3, report.Compiled)
	assert.Equal(t, 1, report.CompileFailed)
	assert.Equal(t, 5, report.Copied)
	assert.Equal(t, 5, report.Excluded)
	assert.Zero(t, report.WriteFailed)
	assert.Equal(t, []string{"python36.dll", "vcruntime140.dll"}, report.SystemCopied)
	assert.Empty(t, report.SystemMissing)
	assert.False(t, report.Failed())

	assert.True(t, f.logger.contains("INFO", "Copying Python install from "+f.prefix))
	assert.True(t, f.logger.contains("INFO", "Copying python36.dll from"))
	assert.True(t, f.logger.contains("DEBUG", "bad.py"))
	assert.True(t, f.logger.contains("DEBUG", "Processed 14 files"))
	assert.True(t, f.logger.contains("DEBUG", "Locked "+filepath.Clean(f.target)+".lock"))
	assert.False(t, f.logger.contains("WARN", "bad.py"), "compile failures are not warnings")
}

func TestRunCopiesBytesVerbatim(t *testing.T) {
	f := newFixture(t)

	_, err := f.packager().Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.target, "Lib", "README.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content of Lib/README.txt", string(data))

	data, err = os.ReadFile(filepath.Join(f.target, "Lib", "os.pyc"))
	require.NoError(t, err)
	assert.Equal(t, "bytecode:os.py", string(data))
}

// snapshot maps every file under root to its content.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestRunIsRepeatable(t *testing.T) {
	f := newFixture(t)

	first, err := f.packager().Run(context.Background())
	require.NoError(t, err)
	before := snapshot(t, f.target)

	second, err := f.packager().Run(context.Background())
	require.NoError(t, err)
	after := snapshot(t, f.target)

	assert.Equal(t, before, after)
	assert.NotEmpty(t, before)
	assert.Equal(t, first.Compiled, second.Compiled)
	assert.Equal(t, first.Copied, second.Copied)
	assert.Empty(t, second.SystemCopied)
	assert.Equal(t, []string{"python36.dll", "vcruntime140.dll"}, second.SystemPresent)

	for rel := range after {
		assert.False(t, strings.HasPrefix(filepath.Base(rel), ".tmp-"), "leftover temp file %s", rel)
	}
}

func TestRunOverwritesChangedTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.packager().Run(context.Background())
	require.NoError(t, err)
	want := snapshot(t, f.target)

	readme := filepath.Join(f.target, "Lib", "README.txt")
	require.NoError(t, os.WriteFile(readme, []byte("edited"), 0644))

	_, err = f.packager().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, snapshot(t, f.target))
}

func TestRunSourceIOErrorIsCountedAndWarned(t *testing.T) {
	f := newFixture(t)
	f.compiler.ioFail = map[string]bool{"os.py": true}

	report, err := f.packager().Run(context.Background())
	require.NoError(t, err, "a per-file I/O failure must not abort the run")

	assert.Equal(t, 1, report.WriteFailed)
	assert.Equal(t, 2, report.Compiled)
	assert.Equal(t, 1, report.CompileFailed)
	assert.True(t, f.logger.contains("WARN", "os.pyc"))
	assert.False(t, f.exists("Lib/os.pyc"))
	assert.True(t, f.exists("Lib/json/__init__.pyc"), "later sources are still compiled")
}

func TestRunMissingSystemLibrary(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.systemDir, "vcruntime140.dll")))

	report, err := f.packager().Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Failed())
	assert.Equal(t, []string{"vcruntime140.dll"}, report.SystemMissing)
	assert.Equal(t, []string{"python36.dll"}, report.SystemCopied)
	assert.True(t, f.logger.contains("ERROR", "Unable to locate vcruntime140.dll"))

	// The tree itself is still complete.
	assert.True(t, f.exists("Lib/os.pyc"))
}

func TestRunWithoutSystemDir(t *testing.T) {
	f := newFixture(t)
	p := f.packager()
	p.SystemDir = ""

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"python36.dll", "vcruntime140.dll"}, report.SystemMissing)
}

func TestRunSessionErrorAborts(t *testing.T) {
	f := newFixture(t)
	f.compiler.brokenAt = "os.py"

	report, err := f.packager().Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.False(t, f.exists("Lib/os.pyc"))
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.packager().Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.compiler.calls)
}

func TestRunRejectsLockedTarget(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.target), 0755))

	holder := f.packager()
	holder.Compiler = &blockingCompiler{
		fakeCompiler: f.compiler,
		inside:       make(chan struct{}),
		release:      make(chan struct{}),
	}
	bc := holder.Compiler.(*blockingCompiler)

	done := make(chan error, 1)
	go func() {
		_, err := holder.Run(context.Background())
		done <- err
	}()
	<-bc.inside

	_, err := f.packager().Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	close(bc.release)
	require.NoError(t, <-done)
}

func TestRunWithoutLock(t *testing.T) {
	f := newFixture(t)
	p := f.packager()
	p.Lock = false

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Clean(f.target) + ".lock")
	assert.True(t, os.IsNotExist(statErr))
}

// blockingCompiler parks the first compile until released.
type blockingCompiler struct {
	*fakeCompiler
	once    sync.Once
	inside  chan struct{}
	release chan struct{}
}

func (b *blockingCompiler) Compile(src, dst string) error {
	b.once.Do(func() {
		close(b.inside)
		<-b.release
	})
	return b.fakeCompiler.Compile(src, dst)
}

func TestRunValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(p *Packager)
		want   string
	}{
		{"no rules", func(p *Packager) { p.Rules = nil }, "rules"},
		{"no prefix", func(p *Packager) { p.Prefix = "" }, "prefix"},
		{"no target", func(p *Packager) { p.Target = "" }, "target"},
		{"no compiler", func(p *Packager) { p.Compiler = nil }, "compiler"},
		{"no logger", func(p *Packager) { p.Logger = nil }, "logger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.packager()
			tt.mutate(p)
			_, err := p.Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.False(t, f.exists(""), "validation failures must not create the target")
}

func TestRunMissingPrefix(t *testing.T) {
	f := newFixture(t)
	p := f.packager()
	p.Prefix = filepath.Join(t.TempDir(), "nope")
	p.Lock = false

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.False(t, f.exists(""))
}

func TestRunWithOverrides(t *testing.T) {
	f := newFixture(t)
	extra, err := rules.ParseOverrides([]byte(`
excluded_stdlib: [json]
excluded_suffixes: [txt]
do_not_compile:
  - pattern: '/os\.py$'
`))
	require.NoError(t, err)
	f.rules, err = rules.New(rules.Options{Version: rules.Version{Major: 3, Minor: 6}, Extra: extra})
	require.NoError(t, err)

	_, err = f.packager().Run(context.Background())
	require.NoError(t, err)

	assert.False(t, f.exists("Lib/json"))
	assert.False(t, f.exists("Lib/README.txt"))
	assert.True(t, f.exists("Lib/os.py"))
	assert.False(t, f.exists("Lib/os.pyc"))
}

func TestAugmentSystemFiles(t *testing.T) {
	target := t.TempDir()
	systemDir := t.TempDir()
	writeTree(t, systemDir, "a.dll")
	writeTree(t, target, "b.dll")

	log := &recordingLogger{}
	report := &models.Report{}
	AugmentSystemFiles(target, systemDir, []string{"a.dll", "b.dll", "c.dll"}, log, report)

	assert.Equal(t, []string{"a.dll"}, report.SystemCopied)
	assert.Equal(t, []string{"b.dll"}, report.SystemPresent)
	assert.Equal(t, []string{"c.dll"}, report.SystemMissing)
	assert.True(t, log.contains("ERROR", "Unable to locate c.dll"))

	data, err := os.ReadFile(filepath.Join(target, "a.dll"))
	require.NoError(t, err)
	assert.Equal(t, "content of a.dll", string(data))
}

func TestAugmentSystemFilesIgnoresDirectories(t *testing.T) {
	target := t.TempDir()
	systemDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(systemDir, "x.dll"), 0755))

	report := &models.Report{}
	AugmentSystemFiles(target, systemDir, []string{"x.dll"}, &recordingLogger{}, report)
	assert.Equal(t, []string{"x.dll"}, report.SystemMissing)
}

func ExampleVersionMismatchError() {
	err := CheckVersion("395x64", interp.Info{Major: 3, Minor: 9, Micro: 5})
	fmt.Println(err)
	// Output: version mismatch: expected 395x64, current version is 395x86
}
