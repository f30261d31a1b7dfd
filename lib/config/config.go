// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/buildwatch/lib/attribution"
	"github.com/bureau-foundation/buildwatch/lib/nix"
	"github.com/bureau-foundation/buildwatch/lib/present"
	"github.com/bureau-foundation/buildwatch/lib/router"
	"github.com/bureau-foundation/buildwatch/lib/verbosity"
)

// Config is the merged buildwatch configuration.
type Config struct {
	// Level selects what reaches the user: compiler, errors, or verbose.
	Level verbosity.Mode `yaml:"level"`

	// Color enables styled output. NO_COLOR and --no-color turn it off.
	Color bool `yaml:"color"`

	// Debug lowers the log level to debug.
	Debug bool `yaml:"debug"`

	// TUI renders through the inline interactive program instead of
	// plain line output.
	TUI bool `yaml:"tui"`

	// RetentionLimit bounds how many stopped, unfailed units keep their
	// transcript in errors mode. Zero keeps none.
	RetentionLimit int `yaml:"retention_limit"`

	// TraceFile, when set, records every decoded event to this path.
	TraceFile string `yaml:"trace_file"`

	Attribution AttributionConfig `yaml:"attribution"`

	// ThemeOverrides replaces theme colors by key (done, expected,
	// running, failed, phase, error, warn, notice, info, spinner).
	// Values are lipgloss colors: ANSI numbers or "#rrggbb".
	ThemeOverrides map[string]string `yaml:"theme,omitempty"`
}

// AttributionConfig selects how failure messages are matched to units.
type AttributionConfig struct {
	// Pattern is a regular expression with exactly one capture group
	// that extracts a unit token from message text. Empty uses the
	// derivation path pattern.
	Pattern string `yaml:"pattern"`

	// Names are templates expanded with the captured token (${1}) to
	// produce candidate unit names, tried in order.
	Names []string `yaml:"names"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Level:          verbosity.DefaultMode,
		Color:          true,
		RetentionLimit: router.DefaultRetentionLimit,
	}
}

// Load reads the configuration file, if any, and applies environment
// overrides. path is the --config flag value; when empty,
// BUILDWATCH_CONFIG names the file. environ is the process environment
// as a map; nil reads the real environment.
func Load(path string, environ map[string]string) (*Config, error) {
	overrides, err := LookupEnvironment(environ)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = overrides.ConfigPath
	}

	cfg := Default()
	if path != "" {
		cfg, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnvironment(overrides)
	cfg.TraceFile = expandVars(cfg.TraceFile, environ)
	return cfg, nil
}

// LoadFile loads configuration from a specific file path on top of
// Default. An empty file yields the defaults.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Environment holds the settings read from environment variables.
type Environment struct {
	ConfigPath string         `env:"BUILDWATCH_CONFIG"`
	Level      verbosity.Mode `env:"BUILDWATCH_LEVEL"`
	Debug      bool           `env:"BUILDWATCH_DEBUG"`
	TraceFile  string         `env:"BUILDWATCH_TRACE_FILE"`

	// NoColor follows the no-color.org convention: presence with any
	// non-empty value disables color.
	NoColor string `env:"NO_COLOR"`
}

// LookupEnvironment parses the environment variables buildwatch reads.
// environ nil means the process environment.
func LookupEnvironment(environ map[string]string) (Environment, error) {
	var result Environment
	if err := env.ParseWithOptions(&result, env.Options{Environment: environ}); err != nil {
		return Environment{}, fmt.Errorf("reading environment: %w", err)
	}
	return result, nil
}

// ApplyEnvironment overlays the variables that are set. BUILDWATCH_DEBUG
// can only turn debug logging on.
func (c *Config) ApplyEnvironment(overrides Environment) {
	if overrides.Level != 0 {
		c.Level = overrides.Level
	}
	if overrides.Debug {
		c.Debug = true
	}
	if overrides.TraceFile != "" {
		c.TraceFile = overrides.TraceFile
	}
	if overrides.NoColor != "" {
		c.Color = false
	}
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default} from vars, or from the
// process environment when vars is nil. Unset or empty variables take
// the default, or expand to nothing.
func expandVars(s string, vars map[string]string) string {
	lookup := os.Getenv
	if vars != nil {
		lookup = func(name string) string { return vars[name] }
	}
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := lookup(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Attributor builds the failure attribution rules.
func (c *Config) Attributor() (*attribution.Attributor, error) {
	pattern := c.Attribution.Pattern
	if pattern == "" {
		pattern = nix.DerivationPattern
	}
	attributor, err := attribution.New(pattern, c.Attribution.Names)
	if err != nil {
		return nil, fmt.Errorf("attribution: %w", err)
	}
	return attributor, nil
}

// Theme returns the default theme with the configured overrides.
func (c *Config) Theme() (present.Theme, error) {
	theme, err := present.DefaultTheme.WithOverrides(c.ThemeOverrides)
	if err != nil {
		return present.Theme{}, fmt.Errorf("theme: %w", err)
	}
	return theme, nil
}

// Validate checks the configuration for errors, reporting all of them.
func (c *Config) Validate() error {
	var errs []error

	if !c.Level.Valid() {
		errs = append(errs, fmt.Errorf("invalid level: %d", int(c.Level)))
	}
	if c.RetentionLimit < 0 {
		errs = append(errs, fmt.Errorf("retention_limit must not be negative, got %d", c.RetentionLimit))
	}
	if _, err := c.Attributor(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Theme(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
