package interp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// compileScript serves one compile request per stdin line and answers with
// one ASCII JSON line on stdout. Requests are read as UTF-8 whatever the
// console code page is.
const compileScript = `import io, json, py_compile, sys
if hasattr(sys.stdin, "buffer"):
    requests = io.TextIOWrapper(sys.stdin.buffer, encoding="utf-8")
else:
    requests = sys.stdin
for line in iter(requests.readline, ""):
    if not line.strip():
        continue
    req = json.loads(line)
    try:
        py_compile.compile(req["src"], req["dst"], doraise=True)
    except py_compile.PyCompileError as e:
        resp = {"ok": False, "kind": "compile", "error": str(e.msg)}
    except Exception as e:
        resp = {"ok": False, "kind": "io", "error": str(e)}
    else:
        resp = {"ok": True}
    sys.stdout.write(json.dumps(resp) + "\n")
    sys.stdout.flush()
`

// CompileError reports a source the interpreter refused to compile.
// The session stays usable after a CompileError.
type CompileError struct {
	Source  string
	Message string
}

// Error implements the error interface for CompileError.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %s", e.Source, e.Message)
}

// IOError reports a request the interpreter could not carry out for reasons
// other than the source itself, such as an unreadable source or a destination
// that cannot be written. The session stays usable after an IOError.
type IOError struct {
	Source  string
	Message string
}

// Error implements the error interface for IOError.
func (e *IOError) Error() string {
	return fmt.Sprintf("compile %s: %s", e.Source, e.Message)
}

type compileRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

type compileResponse struct {
	OK    bool   `json:"ok"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Compiler is a running compile session
type Compiler struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	enc    *json.Encoder
	stderr *lockedBuffer
	closed bool
}

// StartCompiler launches a compile session. The session lives until Close or
// until ctx is cancelled.
func (c *Client) StartCompiler(ctx context.Context) (*Compiler, error) {
	cmd := exec.CommandContext(ctx, c.Path, "-u", "-c", compileScript)
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open compiler stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open compiler stdout: %w", err)
	}
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start compiler %s: %w", c.Path, err)
	}

	return &Compiler{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		enc:    json.NewEncoder(stdin),
		stderr: stderr,
	}, nil
}

// Compile writes the bytecode for src to dst.
// A rejected source yields *CompileError and a failed read or write *IOError;
// any other error means the session is broken and should be closed.
func (cp *Compiler) Compile(src, dst string) error {
	if cp.closed {
		return fmt.Errorf("compile session is closed")
	}

	if err := cp.enc.Encode(compileRequest{Src: src, Dst: dst}); err != nil {
		return fmt.Errorf("failed to send compile request: %w%s", err, cp.stderrSuffix())
	}

	line, err := cp.stdout.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("failed to read compile response: %w%s", err, cp.stderrSuffix())
	}

	var resp compileResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("malformed compile response %q: %w", strings.TrimSpace(string(line)), err)
	}
	switch {
	case resp.OK:
		return nil
	case resp.Kind == "compile":
		return &CompileError{Source: src, Message: resp.Error}
	default:
		return &IOError{Source: src, Message: resp.Error}
	}
}

// Close ends the session and waits for the interpreter to exit.
func (cp *Compiler) Close() error {
	if cp.closed {
		return nil
	}
	cp.closed = true

	if err := cp.stdin.Close(); err != nil {
		return fmt.Errorf("failed to close compiler stdin: %w", err)
	}
	if err := cp.cmd.Wait(); err != nil {
		return fmt.Errorf("compiler exited: %w%s", err, cp.stderrSuffix())
	}
	return nil
}

func (cp *Compiler) stderrSuffix() string {
	msg := strings.TrimSpace(cp.stderr.String())
	if msg == "" {
		return ""
	}
	return " (stderr: " + msg + ")"
}

// lockedBuffer collects the child's stderr, which os/exec copies from
// another goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
