package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
	schemavalidator "github.com/wharflab/forgecheck/internal/schemas/runtime"
)

// ErrEvaluatorConflict is returned when both a fixture and a command are configured.
var ErrEvaluatorConflict = errors.New("evaluation.fixture and evaluation.command are mutually exclusive")

func decodeConfig(k *koanf.Koanf) (*Config, error) {
	validator, err := schemavalidator.DefaultValidator()
	if err != nil {
		return nil, err
	}
	raw, err := schemavalidator.ToJSONValue(k.Raw())
	if err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	}
	rawMap, _ := raw.(map[string]any)
	dropNulls(rawMap)
	if err := validator.ValidateConfig(rawMap); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// dropNulls removes unset values (nil slices and maps from the defaults)
// so they do not trip the schema's type checks.
func dropNulls(m map[string]any) {
	for key, value := range m {
		switch v := value.(type) {
		case nil:
			delete(m, key)
		case map[string]any:
			dropNulls(v)
		}
	}
}

// Validate checks values the config schema cannot express.
func (c *Config) Validate() error {
	var errs []error

	if _, _, err := c.Compliance.Levels(); err != nil {
		errs = append(errs, err)
	}

	if c.Evaluation.Fixture != "" && len(c.Evaluation.Command) > 0 {
		errs = append(errs, ErrEvaluatorConflict)
	}
	if _, err := c.Evaluation.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if c.Evaluation.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("evaluation.concurrency must not be negative, got %d", c.Evaluation.Concurrency))
	}
	if c.Evaluation.Retries < 0 {
		errs = append(errs, fmt.Errorf("evaluation.retries must not be negative, got %d", c.Evaluation.Retries))
	}

	if _, err := c.Validation.Caps(); err != nil {
		errs = append(errs, err)
	}
	if slices.Contains(c.Validation.Ignore, "") {
		errs = append(errs, errors.New("validation.ignore: empty category"))
	}

	return errors.Join(errs...)
}

// Levels parses the configured bounds. An empty bound falls back to the default level.
func (c ComplianceConfig) Levels() (compliance.Level, compliance.Level, error) {
	parse := func(field, s string) (compliance.Level, error) {
		if strings.TrimSpace(s) == "" {
			return compliance.Default, nil
		}
		l, err := compliance.Parse(s)
		if err != nil {
			return 0, fmt.Errorf("compliance.%s: %w", field, err)
		}
		return l, nil
	}

	minLevel, minErr := parse("min", c.Min)
	maxLevel, maxErr := parse("max", c.Max)
	if err := errors.Join(minErr, maxErr); err != nil {
		return 0, 0, err
	}
	return minLevel, maxLevel, nil
}

// TimeoutDuration parses Timeout. Empty means no timeout.
func (e EvaluationConfig) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(e.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("evaluation.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("evaluation.timeout must not be negative, got %s", e.Timeout)
	}
	return d, nil
}

// Categories returns Ignore as diagnostic categories.
func (v ValidationConfig) Categories() []diag.Category {
	if len(v.Ignore) == 0 {
		return nil
	}
	out := make([]diag.Category, 0, len(v.Ignore))
	for _, c := range v.Ignore {
		out = append(out, diag.Category(strings.ToLower(strings.TrimSpace(c))))
	}
	return out
}

// Caps parses SeverityCaps.
func (v ValidationConfig) Caps() (map[diag.Category]diag.Severity, error) {
	if len(v.SeverityCaps) == 0 {
		return nil, nil
	}
	caps := make(map[diag.Category]diag.Severity, len(v.SeverityCaps))
	var errs []error
	for category, sev := range v.SeverityCaps {
		parsed, err := diag.ParseSeverity(sev)
		if err != nil {
			errs = append(errs, fmt.Errorf("validation.severity-caps.%s: %w", category, err))
			continue
		}
		caps[diag.Category(strings.ToLower(category))] = parsed
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return caps, nil
}
