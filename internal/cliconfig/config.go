package cliconfig

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/eegio/ktlx/pkg/log"
)

// Output formats understood by the dump command.
const (
	FormatYAML = "yaml"
	FormatText = "text"
)

// Config holds CLI configuration for ktlxdump.
type Config struct {
	// Format selects the summary output encoding: yaml or text.
	Format string

	// CachedSegments bounds how many decoded segments are retained while
	// dumping samples. Zero keeps everything.
	CachedSegments int

	// Workers caps concurrent segment decodes per read.
	Workers int

	// Verbose enables debug-level logging.
	Verbose bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Format:         FormatYAML,
		CachedSegments: 0,
		Workers:        0, // library default: one per CPU
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Format != FormatYAML && c.Format != FormatText {
		return fmt.Errorf("format must be %q or %q, got %q", FormatYAML, FormatText, c.Format)
	}
	if c.CachedSegments < 0 {
		return fmt.Errorf("cached-segments must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

// Logger builds the CLI logger honoring the verbosity setting.
func (c *Config) Logger() log.Logger {
	adapter := log.NewZerologAdapter()
	level := zerolog.InfoLevel
	if c.Verbose {
		level = zerolog.DebugLevel
	}
	return log.NewZerologAdapterWithLogger(adapter.Logger().Level(level))
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination if valid.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = b
	return nil
}
