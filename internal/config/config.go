// Package config provides configuration loading and discovery for forgecheck.
//
// Configuration is loaded from multiple sources with the following priority
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (FORGECHECK_* prefix)
//  3. Config file (closest .forgecheck.toml or forgecheck.toml)
//  4. Built-in defaults
//
// Config file discovery walks up from the validated directory until a config
// file is found. The closest config wins (no merging).
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames defines the config file names to search for, in priority order.
var ConfigFileNames = []string{".forgecheck.toml", "forgecheck.toml"}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "FORGECHECK_"

// Config represents the complete forgecheck configuration.
type Config struct {
	// Compliance bounds the evaluated language levels.
	Compliance ComplianceConfig `json:"compliance" koanf:"compliance"`

	// Evaluation selects and tunes the per-level evaluator.
	Evaluation EvaluationConfig `json:"evaluation" koanf:"evaluation"`

	// Validation controls filtering and the failure policy.
	Validation ValidationConfig `json:"validation" koanf:"validation"`

	// Source describes where the validated sources are hosted.
	Source SourceConfig `json:"source" koanf:"source"`

	// Output configures output format and destination.
	Output OutputConfig `json:"output" koanf:"output"`

	// Log configures diagnostic logging on stderr.
	Log LogConfig `json:"log" koanf:"log"`

	// ConfigFile is the path to the config file that was loaded (if any).
	// This is metadata, not loaded from config.
	ConfigFile string `json:"-" koanf:"-"`
}

// ComplianceConfig bounds the compliance level range.
//
//	[compliance]
//	min = "3.0"
//	max = "4.0"
type ComplianceConfig struct {
	Min string `json:"min,omitempty" koanf:"min"`
	Max string `json:"max,omitempty" koanf:"max"`
}

// EvaluationConfig configures the evaluator.
//
// Exactly one of Fixture or Command should be set. Command arguments may use
// the {level}, {level_name} and {dir} placeholders.
//
//	[evaluation]
//	command = ["puppet-lint-json", "--level", "{level}", "{dir}"]
//	concurrency = 2
//	timeout = "2m"
type EvaluationConfig struct {
	// Fixture is a recorded per-level diagnostics document.
	Fixture string `json:"fixture,omitempty" koanf:"fixture"`

	// Command is an external program argv run once per level.
	Command []string `json:"command,omitempty" koanf:"command"`

	// Concurrency is how many levels are evaluated at once.
	Concurrency int `json:"concurrency,omitempty" koanf:"concurrency"`

	// Timeout bounds one command evaluation (e.g. "90s"). Empty means none.
	Timeout string `json:"timeout,omitempty" koanf:"timeout"`

	// Retries is how many times a command that failed to start is retried.
	Retries int `json:"retries,omitempty" koanf:"retries"`
}

// ValidationConfig configures diagnostic filtering and the failure policy.
type ValidationConfig struct {
	// Impact is do-not-fail, fail-on-all or fail-on-any.
	Impact string `json:"impact,omitempty" koanf:"impact"`

	// Exclude lists glob patterns skipped by discovery and dropped from results.
	Exclude []string `json:"exclude,omitempty" koanf:"exclude"`

	// Ignore lists diagnostic categories to drop.
	Ignore []string `json:"ignore,omitempty" koanf:"ignore"`

	// SeverityCaps maps a diagnostic category to its maximum severity.
	SeverityCaps map[string]string `json:"severity-caps,omitempty" koanf:"severity-caps"`

	// InlineDirectives honors suppression comments in manifests.
	InlineDirectives bool `json:"inline-directives,omitempty" koanf:"inline-directives"`
}

// SourceConfig describes the hosted source for result links.
type SourceConfig struct {
	URI    string `json:"uri,omitempty" koanf:"uri"`
	Branch string `json:"branch,omitempty" koanf:"branch"`
}

// OutputConfig configures output formatting and behavior.
type OutputConfig struct {
	// Format specifies the output format.
	Format string `json:"format,omitempty" koanf:"format"`

	// Path specifies where to write output.
	Path string `json:"path,omitempty" koanf:"path"`

	// ShowDiff includes diagnostics of the other levels in text output.
	ShowDiff bool `json:"show-diff,omitempty" koanf:"show-diff"`
}

// LogConfig configures the stderr logger.
type LogConfig struct {
	Level  string `json:"level,omitempty" koanf:"level"`
	Format string `json:"format,omitempty" koanf:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Compliance: ComplianceConfig{
			Min: "4.0",
			Max: "4.0",
		},
		Evaluation: EvaluationConfig{
			Concurrency: 1,
			Retries:     2,
		},
		Validation: ValidationConfig{
			Impact:           "fail-on-all",
			InlineDirectives: true,
		},
		Source: SourceConfig{
			Branch: "HEAD",
		},
		Output: OutputConfig{
			Format:   "text",
			Path:     "stdout",
			ShowDiff: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load loads configuration for a target directory.
// It discovers the closest config file, loads it, and applies
// environment variable overrides.
func Load(targetPath string) (*Config, error) {
	return LoadWithOverrides(Discover(targetPath), nil)
}

// LoadFromFile loads configuration from a specific config file path.
// Unlike Load, it does not perform config discovery.
func LoadFromFile(configPath string) (*Config, error) {
	return LoadWithOverrides(configPath, nil)
}

// LoadWithOverrides loads config from configPath (may be empty) and applies
// overrides on top of environment variables.
//
// Overrides use the same nested shape as the TOML file, for example:
//
//	overrides := map[string]any{
//	  "output": map[string]any{"format": "json"},
//	}
func LoadWithOverrides(configPath string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	// 2. Config file
	if err := loadConfigFile(k, configPath); err != nil {
		return nil, err
	}

	// 3. Environment variables (FORGECHECK_* prefix)
	// FORGECHECK_EVALUATION_CONCURRENCY -> evaluation.concurrency
	if err := loadEnv(k); err != nil {
		return nil, err
	}

	// 4. CLI overrides
	if err := loadOverrides(k, overrides); err != nil {
		return nil, err
	}

	// 5. Validate merged raw config and decode.
	cfg, err := decodeConfig(k)
	if err != nil {
		return nil, err
	}

	cfg.ConfigFile = configPath
	return cfg, nil
}

func loadConfigFile(k *koanf.Koanf, configPath string) error {
	if configPath == "" {
		return nil
	}
	return k.Load(file.Provider(configPath), toml.Parser())
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil)
}

func loadOverrides(k *koanf.Koanf, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(overrides, "."), nil)
}

// knownHyphenatedKeys maps dot-separated patterns to their hyphenated equivalents.
var knownHyphenatedKeys = map[string]string{
	"severity.caps":     "severity-caps",
	"show.diff":         "show-diff",
	"inline.directives": "inline-directives",
}

var allowedEnvTopLevelKeys = map[string]struct{}{
	"compliance": {},
	"evaluation": {},
	"validation": {},
	"source":     {},
	"output":     {},
	"log":        {},
}

// Environment values arrive as strings; these keys are converted so the
// merged config still satisfies the config schema.
var (
	envIntKeys  = map[string]struct{}{"evaluation.concurrency": {}, "evaluation.retries": {}}
	envBoolKeys = map[string]struct{}{
		"output.show-diff":             {},
		"validation.inline-directives": {},
	}
	envListKeys = map[string]struct{}{
		"evaluation.command": {},
		"validation.exclude": {},
		"validation.ignore":  {},
	}
)

// envKeyTransform converts environment variable names to config keys.
// FORGECHECK_OUTPUT_FORMAT -> output.format
// FORGECHECK_VALIDATION_SEVERITY_CAPS_LINT -> validation.severity-caps.lint
func envKeyTransform(k, v string) (string, any) {
	s := strings.TrimPrefix(k, EnvPrefix)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", ".")
	for pattern, replacement := range knownHyphenatedKeys {
		s = strings.ReplaceAll(s, pattern, replacement)
	}

	topLevel := s
	if before, _, ok := strings.Cut(s, "."); ok {
		topLevel = before
	}
	if _, ok := allowedEnvTopLevelKeys[topLevel]; !ok {
		return "", nil
	}

	return s, envValue(s, v)
}

func envValue(key, v string) any {
	if _, ok := envIntKeys[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		return v
	}
	if _, ok := envBoolKeys[key]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		return v
	}
	if _, ok := envListKeys[key]; ok {
		if strings.TrimSpace(v) == "" {
			return []any{}
		}
		parts := strings.Split(v, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return v
}

// Discover finds the closest config file for a target path.
// A directory target is searched first, then each parent; a file target
// starts at its directory. Returns empty string if no config file is found.
func Discover(targetPath string) string {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return ""
	}

	dir := absPath
	if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	for {
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if fileExists(configPath) {
				return configPath
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
