package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides are additions to the built-in tables read from a rules file
type Overrides struct {
	ExcludedStdlib   []Matcher `yaml:"excluded_stdlib"`
	ExcludedFiles    []Matcher `yaml:"excluded_files"`
	DoNotCompile     []Matcher `yaml:"do_not_compile"`
	ExcludedSuffixes []string  `yaml:"excluded_suffixes"`
}

// LoadOverrides reads a YAML rules file.
// Unknown keys are rejected so that typos do not silently ship files.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	ov, err := ParseOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return ov, nil
}

// ParseOverrides decodes rules file content. Empty content yields empty overrides.
func ParseOverrides(data []byte) (*Overrides, error) {
	var ov Overrides

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ov); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &ov, nil
}
