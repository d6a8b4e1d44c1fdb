package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output.Format != "text" {
		t.Errorf("Default format = %q, want %q", cfg.Output.Format, "text")
	}
	if cfg.Validation.Impact != "fail-on-all" {
		t.Errorf("Default impact = %q, want %q", cfg.Validation.Impact, "fail-on-all")
	}
	if cfg.Evaluation.Concurrency != 1 {
		t.Errorf("Default concurrency = %d, want 1", cfg.Evaluation.Concurrency)
	}
	if !cfg.Validation.InlineDirectives {
		t.Error("Default inline directives = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}

	minLevel, maxLevel, err := cfg.Compliance.Levels()
	if err != nil {
		t.Fatal(err)
	}
	if minLevel != compliance.Default || maxLevel != compliance.Default {
		t.Errorf("Default levels = %s..%s, want %s..%s", minLevel, maxLevel, compliance.Default, compliance.Default)
	}
}

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()

	moduleDir := filepath.Join(tmpDir, "project", "modules", "apache")
	if err := os.MkdirAll(moduleDir, 0o750); err != nil {
		t.Fatal(err)
	}

	t.Run("no config file", func(t *testing.T) {
		if got := Discover(moduleDir); got != "" {
			t.Errorf("Discover() = %q, want empty string", got)
		}
	})

	t.Run("config in target directory", func(t *testing.T) {
		configPath := filepath.Join(moduleDir, ".forgecheck.toml")
		writeConfig(t, configPath, "")
		defer os.Remove(configPath)

		if got := Discover(moduleDir); got != configPath {
			t.Errorf("Discover() = %q, want %q", got, configPath)
		}
	})

	t.Run("config in parent directory", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "project", "forgecheck.toml")
		writeConfig(t, configPath, "")
		defer os.Remove(configPath)

		if got := Discover(moduleDir); got != configPath {
			t.Errorf("Discover() = %q, want %q", got, configPath)
		}
	})

	t.Run("file target starts at its directory", func(t *testing.T) {
		configPath := filepath.Join(moduleDir, "forgecheck.toml")
		writeConfig(t, configPath, "")
		defer os.Remove(configPath)
		manifest := filepath.Join(moduleDir, "metadata.json")
		writeConfig(t, manifest, "{}")
		defer os.Remove(manifest)

		if got := Discover(manifest); got != configPath {
			t.Errorf("Discover() = %q, want %q", got, configPath)
		}
	})

	t.Run("dotfile has priority", func(t *testing.T) {
		dotPath := filepath.Join(moduleDir, ".forgecheck.toml")
		plainPath := filepath.Join(moduleDir, "forgecheck.toml")
		writeConfig(t, dotPath, "")
		writeConfig(t, plainPath, "")
		defer os.Remove(dotPath)
		defer os.Remove(plainPath)

		if got := Discover(moduleDir); got != dotPath {
			t.Errorf("Discover() = %q, want %q", got, dotPath)
		}
	})
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("loads defaults when no config", func(t *testing.T) {
		cfg, err := Load(tmpDir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Output.Format != "text" {
			t.Errorf("Format = %q, want %q", cfg.Output.Format, "text")
		}
		if cfg.ConfigFile != "" {
			t.Errorf("ConfigFile = %q, want empty", cfg.ConfigFile)
		}
	})

	t.Run("loads config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, ".forgecheck.toml")
		writeConfig(t, configPath, `
[compliance]
min = "3.0"
max = "PUPPET_4_0"

[evaluation]
command = ["puppet-lint-json", "{level}", "{dir}"]
concurrency = 3
timeout = "90s"

[validation]
impact = "fail-on-any"
exclude = ["**/vendor/**"]
ignore = ["lint"]

[validation.severity-caps]
semantic = "warning"

[output]
format = "json"
show-diff = false
`)
		defer os.Remove(configPath)

		cfg, err := Load(tmpDir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.ConfigFile != configPath {
			t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, configPath)
		}
		if cfg.Output.Format != "json" {
			t.Errorf("Format = %q, want %q", cfg.Output.Format, "json")
		}
		if cfg.Output.ShowDiff {
			t.Error("ShowDiff = true, want false")
		}
		if cfg.Output.Path != "stdout" {
			t.Errorf("Path = %q, want default %q", cfg.Output.Path, "stdout")
		}
		if want := []string{"puppet-lint-json", "{level}", "{dir}"}; !reflect.DeepEqual(cfg.Evaluation.Command, want) {
			t.Errorf("Command = %v, want %v", cfg.Evaluation.Command, want)
		}
		if cfg.Evaluation.Concurrency != 3 {
			t.Errorf("Concurrency = %d, want 3", cfg.Evaluation.Concurrency)
		}
		if d, _ := cfg.Evaluation.TimeoutDuration(); d != 90*time.Second {
			t.Errorf("Timeout = %s, want 90s", d)
		}
		if cfg.Validation.Impact != "fail-on-any" {
			t.Errorf("Impact = %q, want %q", cfg.Validation.Impact, "fail-on-any")
		}
		if want := []diag.Category{diag.CategoryLint}; !reflect.DeepEqual(cfg.Validation.Categories(), want) {
			t.Errorf("Categories() = %v, want %v", cfg.Validation.Categories(), want)
		}

		caps, err := cfg.Validation.Caps()
		if err != nil {
			t.Fatal(err)
		}
		if caps[diag.CategorySemantic] != diag.SeverityWarning {
			t.Errorf("Caps()[semantic] = %s, want WARNING", caps[diag.CategorySemantic])
		}

		minLevel, maxLevel, err := cfg.Compliance.Levels()
		if err != nil {
			t.Fatal(err)
		}
		if minLevel != compliance.Puppet30 || maxLevel != compliance.Puppet40 {
			t.Errorf("Levels() = %s..%s, want 3.0..4.0", minLevel, maxLevel)
		}
	})

	t.Run("environment variables override config", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, ".forgecheck.toml")
		writeConfig(t, configPath, `
[output]
format = "json"

[evaluation]
concurrency = 3
`)
		defer os.Remove(configPath)

		t.Setenv("FORGECHECK_OUTPUT_FORMAT", "sarif")
		t.Setenv("FORGECHECK_EVALUATION_CONCURRENCY", "5")
		t.Setenv("FORGECHECK_VALIDATION_EXCLUDE", "**/a/**, **/b/**")
		t.Setenv("FORGECHECK_OUTPUT_SHOW_DIFF", "false")

		cfg, err := Load(tmpDir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Output.Format != "sarif" {
			t.Errorf("Format = %q, want %q (env should override)", cfg.Output.Format, "sarif")
		}
		if cfg.Evaluation.Concurrency != 5 {
			t.Errorf("Concurrency = %d, want 5 (env should override)", cfg.Evaluation.Concurrency)
		}
		if want := []string{"**/a/**", "**/b/**"}; !reflect.DeepEqual(cfg.Validation.Exclude, want) {
			t.Errorf("Exclude = %v, want %v", cfg.Validation.Exclude, want)
		}
		if cfg.Output.ShowDiff {
			t.Error("ShowDiff = true, want false")
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, ".forgecheck.toml")
		writeConfig(t, configPath, `
[output]
format = "yaml"
`)
		defer os.Remove(configPath)

		if _, err := Load(tmpDir); err == nil {
			t.Error("Load() error = nil, want schema error for unknown format")
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, ".forgecheck.toml")
		writeConfig(t, configPath, `
[rules]
max-lines = 3
`)
		defer os.Remove(configPath)

		if _, err := Load(tmpDir); err == nil {
			t.Error("Load() error = nil, want schema error for unknown section")
		}
	})
}

func TestLoadWithOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "forgecheck.toml")
	writeConfig(t, configPath, `
[output]
format = "json"

[compliance]
min = "2.7"
`)
	t.Setenv("FORGECHECK_OUTPUT_FORMAT", "markdown")

	cfg, err := LoadWithOverrides(configPath, map[string]any{
		"output.format": "github-actions",
		"compliance":    map[string]any{"max": "3.5"},
	})
	if err != nil {
		t.Fatalf("LoadWithOverrides() error = %v", err)
	}
	if cfg.Output.Format != "github-actions" {
		t.Errorf("Format = %q, want %q (overrides beat env)", cfg.Output.Format, "github-actions")
	}
	if cfg.Compliance.Min != "2.7" || cfg.Compliance.Max != "3.5" {
		t.Errorf("Compliance = %+v, want min 2.7 max 3.5", cfg.Compliance)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		is      error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown level", mutate: func(c *Config) { c.Compliance.Max = "5.0" }, wantErr: true},
		{name: "empty level uses default", mutate: func(c *Config) { c.Compliance.Min = "" }},
		{name: "bad timeout", mutate: func(c *Config) { c.Evaluation.Timeout = "soon" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Evaluation.Timeout = "-1s" }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Evaluation.Retries = -1 }, wantErr: true},
		{
			name: "fixture and command",
			mutate: func(c *Config) {
				c.Evaluation.Fixture = "levels.yaml"
				c.Evaluation.Command = []string{"lint"}
			},
			wantErr: true,
			is:      ErrEvaluatorConflict,
		},
		{
			name:    "bad severity cap",
			mutate:  func(c *Config) { c.Validation.SeverityCaps = map[string]string{"lint": "loud"} },
			wantErr: true,
		},
		{name: "empty ignore", mutate: func(c *Config) { c.Validation.Ignore = []string{""} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Validate() error = %v, want errors.Is %v", err, tt.is)
			}
		})
	}
}

func TestEnvKeyTransform(t *testing.T) {
	tests := []struct {
		input     string
		value     string
		wantKey   string
		wantValue any
	}{
		{"FORGECHECK_OUTPUT_FORMAT", "json", "output.format", "json"},
		{"FORGECHECK_OUTPUT_SHOW_DIFF", "true", "output.show-diff", true},
		{"FORGECHECK_VALIDATION_INLINE_DIRECTIVES", "false", "validation.inline-directives", false},
		{"FORGECHECK_EVALUATION_RETRIES", "4", "evaluation.retries", 4},
		{"FORGECHECK_EVALUATION_COMMAND", "lint,{level}", "evaluation.command", []any{"lint", "{level}"}},
		{"FORGECHECK_VALIDATION_SEVERITY_CAPS_LINT", "info", "validation.severity-caps.lint", "info"},
		{"FORGECHECK_LOG_LEVEL", "debug", "log.level", "debug"},
		{"FORGECHECK_LEVEL", "3.4", "", nil},
	}

	for _, tt := range tests {
		gotKey, gotValue := envKeyTransform(tt.input, tt.value)
		if gotKey != tt.wantKey {
			t.Errorf("envKeyTransform(%q) key = %q, want %q", tt.input, gotKey, tt.wantKey)
		}
		if !reflect.DeepEqual(gotValue, tt.wantValue) {
			t.Errorf("envKeyTransform(%q) value = %#v, want %#v", tt.input, gotValue, tt.wantValue)
		}
	}
}
