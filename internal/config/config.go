// Package config loads the optional pack configuration file (pack.hcl) and
// resolves it, together with built-in defaults, into the settings the
// packaging pipeline runs with. Command-line flags override these settings;
// that merge happens in the cli package.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sscpack/internal/mk"
)

// Log output formats.
const (
	FormatAuto = "auto" // text on a TTY, json otherwise
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the resolved pipeline configuration.
type Config struct {
	// Ignore patterns are matched against base names while walking the
	// input tree; matches are not copied or transformed.
	Ignore []*regexp.Regexp
	// Transforms are run over every simfile, in order, by registry name.
	Transforms []string
	// Policy is the make DSL failure policy.
	Policy mk.Policy

	LogLevel  slog.Level
	LogFormat string
}

// DefaultIgnore skips metadata directories and editor backup files.
var DefaultIgnore = []string{`^__`, `.*\.old$`}

// Default returns the configuration used when no file and no flags are given.
func Default() *Config {
	cfg := &Config{
		Policy:    mk.PolicyStop,
		LogLevel:  slog.LevelInfo,
		LogFormat: FormatAuto,
	}
	if err := cfg.SetIgnore(DefaultIgnore); err != nil {
		panic(fmt.Sprintf("built-in ignore patterns: %v", err))
	}
	return cfg
}

// fileSchema is the raw shape of pack.hcl.
type fileSchema struct {
	Ignore     []string      `hcl:"ignore,optional"`
	Transforms []string      `hcl:"transforms,optional"`
	Make       *makeBlock    `hcl:"make,block"`
	Logging    *loggingBlock `hcl:"logging,block"`
}

type makeBlock struct {
	OnFailure string `hcl:"on_failure,optional"`
}

type loggingBlock struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

// Load parses the configuration file at path and applies it on top of the
// defaults. Expressions in the file may reference process environment
// variables as env.NAME.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %q: %w", path, diags)
	}

	var raw fileSchema
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %q: %w", path, diags)
	}

	cfg := Default()
	if raw.Ignore != nil {
		if err := cfg.SetIgnore(raw.Ignore); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.Transforms = raw.Transforms
	if raw.Make != nil && raw.Make.OnFailure != "" {
		policy, err := mk.ParsePolicy(raw.Make.OnFailure)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg.Policy = policy
	}
	if raw.Logging != nil {
		if raw.Logging.Level != "" {
			level, err := ParseLevel(raw.Logging.Level)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			cfg.LogLevel = level
		}
		if raw.Logging.Format != "" {
			format, err := ParseFormat(raw.Logging.Format)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			cfg.LogFormat = format
		}
	}
	return cfg, nil
}

// evalContext exposes the process environment to pack.hcl as env.NAME.
func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	vars := map[string]cty.Value{}
	if len(env) > 0 {
		vars["env"] = cty.MapVal(env)
	}
	return &hcl.EvalContext{Variables: vars}
}

// SetIgnore compiles and installs the ignore patterns.
func (c *Config) SetIgnore(patterns []string) error {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("ignore pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	c.Ignore = compiled
	return nil
}

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel maps a configuration name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	if level, ok := levelNames[strings.ToLower(s)]; ok {
		return level, nil
	}
	return 0, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
}

// ParseFormat validates a log format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(s) {
	case FormatAuto, FormatText, FormatJSON:
		return strings.ToLower(s), nil
	}
	return "", fmt.Errorf("unknown log format %q (want auto, text or json)", s)
}
