// Package interp talks to the interpreter whose installation is being packaged.
//
// The interpreter is driven as a child process: a one-shot probe reports its
// version, word size and installation prefix, and a long-lived compile session
// turns sources into bytecode one request at a time.
package interp

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// probeScript prints the interpreter facts as a single JSON object.
// It must stay valid for both 2.7 and 3.x interpreters.
const probeScript = `import json, sys
sys.stdout.write(json.dumps({
    "major": sys.version_info[0],
    "minor": sys.version_info[1],
    "micro": sys.version_info[2],
    "is64bit": sys.maxsize > 2**32,
    "prefix": sys.prefix,
}))
`

// DefaultProbeTimeout bounds a single probe when the client has no timeout set.
const DefaultProbeTimeout = 30 * time.Second

// Info describes the running interpreter
type Info struct {
	Major   int    `json:"major"`
	Minor   int    `json:"minor"`
	Micro   int    `json:"micro"`
	Is64Bit bool   `json:"is64bit"`
	Prefix  string `json:"prefix"`
}

// Arch returns "x64" for 64-bit interpreters and "x86" otherwise.
func (i Info) Arch() string {
	if i.Is64Bit {
		return "x64"
	}
	return "x86"
}

// Signature returns the version signature callers compare against,
// e.g. "395x64" for a 64-bit 3.9.5.
func (i Info) Signature() string {
	return fmt.Sprintf("%d%d%d%s", i.Major, i.Minor, i.Micro, i.Arch())
}

// Client runs an interpreter binary.
// It follows the http.Client pattern: create once, use many times.
type Client struct {
	// Path is the interpreter executable, looked up in PATH when not absolute.
	Path string

	// Timeout bounds a probe. Zero means DefaultProbeTimeout.
	Timeout time.Duration
}

// NewClient creates a Client for the interpreter at path.
func NewClient(path string) *Client {
	return &Client{Path: path}
}

// Probe asks the interpreter for its version, word size and prefix.
func (c *Client) Probe(ctx context.Context) (*Info, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Path, "-c", probeScript)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("interpreter probe failed with exit code %d: %s",
				exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("failed to run interpreter %s: %w", c.Path, err)
	}

	return ParseInfo(output)
}

// ParseInfo decodes the probe output.
func ParseInfo(output []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse interpreter probe output %q: %w", string(output), err)
	}
	if info.Major == 0 {
		return nil, fmt.Errorf("interpreter probe output has no version: %q", string(output))
	}
	if info.Prefix == "" {
		return nil, fmt.Errorf("interpreter probe output has no prefix: %q", string(output))
	}
	return &info, nil
}
