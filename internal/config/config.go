// Package config loads cmdschema settings from defaults, a YAML file and
// CMDSCHEMA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// DefaultFile is loaded from the working directory when no path is given.
const DefaultFile = ".cmdschema.yaml"

// ErrInvalid indicates a configuration value failed validation.
var ErrInvalid = errors.New("invalid config")

// Config holds the grammar markers and run settings.
type Config struct {
	FuncKeyword    string `yaml:"func_keyword"`
	CommentMarker  string `yaml:"comment_marker"`
	CommandMarker  string `yaml:"command_marker"`
	ArgsKeyword    string `yaml:"args_keyword"`
	ArgumentMarker string `yaml:"argument_marker"`
	NilLiteral     string `yaml:"nil_literal"`

	// DistinctIntegerType resolves Int to "number" instead of "string".
	DistinctIntegerType bool `yaml:"distinct_integer_type"`

	// SourceGlob selects source files when the input is a directory.
	SourceGlob string `yaml:"source_glob"`

	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	Workers int      `yaml:"workers"`
}

// Default returns the settings for Fastlane.swift.
func Default() Config {
	return Config{
		FuncKeyword:    "func",
		CommentMarker:  "//",
		CommandMarker:  "RubyCommand(",
		ArgsKeyword:    "args:",
		ArgumentMarker: "RubyCommand.Argument",
		NilLiteral:     "nil",
		SourceGlob:     "**/Fastlane.swift",
	}
}

// Load returns the defaults overlaid with the YAML file at path and the
// environment. An empty path loads DefaultFile if it exists; an explicit path
// must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := loadYAMLFile(path, explicit, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := applyEnvironment(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func loadYAMLFile(path string, required bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) error {
	strs := map[string]*string{
		"CMDSCHEMA_FUNC_KEYWORD":    &cfg.FuncKeyword,
		"CMDSCHEMA_COMMAND_MARKER":  &cfg.CommandMarker,
		"CMDSCHEMA_ARGS_KEYWORD":    &cfg.ArgsKeyword,
		"CMDSCHEMA_ARGUMENT_MARKER": &cfg.ArgumentMarker,
		"CMDSCHEMA_SOURCE_GLOB":     &cfg.SourceGlob,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("CMDSCHEMA_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CMDSCHEMA_WORKERS=%q", ErrInvalid, v)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("CMDSCHEMA_DISTINCT_INTEGER_TYPE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: CMDSCHEMA_DISTINCT_INTEGER_TYPE=%q", ErrInvalid, v)
		}
		cfg.DistinctIntegerType = b
	}
	return nil
}

// Validate rejects empty markers, negative worker counts and patterns that
// do not compile.
func (c Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"func_keyword", c.FuncKeyword},
		{"comment_marker", c.CommentMarker},
		{"command_marker", c.CommandMarker},
		{"args_keyword", c.ArgsKeyword},
		{"argument_marker", c.ArgumentMarker},
		{"source_glob", c.SourceGlob},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalid, r.key)
		}
	}
	if strings.ContainsAny(c.FuncKeyword, " \t") {
		return fmt.Errorf("%w: func_keyword must be a single word", ErrInvalid)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	if _, err := glob.Compile(c.SourceGlob, '/'); err != nil {
		return fmt.Errorf("%w: source_glob: %w", ErrInvalid, err)
	}
	for _, p := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("%w: pattern %q: %w", ErrInvalid, p, err)
		}
	}
	return nil
}
