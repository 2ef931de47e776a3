// Package config loads pydist settings from defaults, an optional YAML file,
// PYDIST_* environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/harrison/pydist/internal/logger"
)

// DefaultConfigFile is picked up from the working directory when no
// configuration file is named explicitly.
const DefaultConfigFile = "pydist.yaml"

// EnvPrefix prefixes the environment variables that override configuration keys.
const EnvPrefix = "PYDIST_"

// Config represents pydist configuration options
type Config struct {
	// Interpreter is the executable whose installation is packaged
	Interpreter string `koanf:"interpreter"`

	// Prefix overrides the installation prefix reported by the interpreter
	Prefix string `koanf:"prefix"`

	// SystemRoot is the OS root holding the system library directory
	SystemRoot string `koanf:"system_root"`

	// SystemDirName is the system library directory, relative to SystemRoot
	// unless absolute
	SystemDirName string `koanf:"system_dir"`

	// RulesFile names an optional YAML file extending the built-in rules
	RulesFile string `koanf:"rules_file"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `koanf:"log_level"`

	// Lock takes an exclusive lock on the target during a run
	Lock bool `koanf:"lock"`

	// Summary prints a table of the run when it finishes
	Summary bool `koanf:"summary"`

	// ProbeTimeout bounds the interpreter probe
	ProbeTimeout time.Duration `koanf:"probe_timeout"`

	// File is the configuration file that was loaded, if any
	File string `koanf:"-"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	interpreter := "python3"
	if runtime.GOOS == "windows" {
		interpreter = "python"
	}

	return &Config{
		Interpreter:   interpreter,
		SystemRoot:    os.Getenv("SYSTEMROOT"),
		SystemDirName: "System32",
		LogLevel:      "info",
		Lock:          true,
		Summary:       false,
		ProbeTimeout:  30 * time.Second,
	}
}

func (c *Config) defaults() map[string]interface{} {
	return map[string]interface{}{
		"interpreter":   c.Interpreter,
		"prefix":        c.Prefix,
		"system_root":   c.SystemRoot,
		"system_dir":    c.SystemDirName,
		"rules_file":    c.RulesFile,
		"log_level":     c.LogLevel,
		"lock":          c.Lock,
		"summary":       c.Summary,
		"probe_timeout": c.ProbeTimeout.String(),
	}
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// cfgFile must exist when given; otherwise DefaultConfigFile is used if the
// working directory has one. Only flags that were explicitly set override
// other sources. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(DefaultConfig().defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// PYDIST_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			if f.Name == "no-lock" {
				noLock, _ := flags.GetBool("no-lock")
				return "lock", !noLock
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile resolves the configuration file to read, or "" for none.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}
	return "", nil
}

// SystemDir returns the directory the system libraries are copied from,
// or "" when no system root is known.
func (c *Config) SystemDir() string {
	if filepath.IsAbs(c.SystemDirName) {
		return c.SystemDirName
	}
	if c.SystemRoot == "" {
		return ""
	}
	return filepath.Join(c.SystemRoot, c.SystemDirName)
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Interpreter) == "" {
		return errors.New("interpreter cannot be empty")
	}

	if !logger.ValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.ProbeTimeout < 0 {
		return fmt.Errorf("probe_timeout must be >= 0, got %v", c.ProbeTimeout)
	}

	return nil
}
