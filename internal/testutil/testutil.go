// Package testutil provides test helpers for building modules, diagnostics
// and multi-level results.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/multilevel"
)

// ApacheMetadata is a complete metadata.json for a single-module checkout.
const ApacheMetadata = `{"name": "puppetlabs-apache", "version": "1.10.0", "author": "puppetlabs"}`

// WriteModule creates files (slash-separated relative paths) under a fresh
// temporary directory and returns it.
func WriteModule(tb testing.TB, files map[string]string) string {
	tb.Helper()

	dir := tb.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			tb.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// Error returns an ERROR leaf at file:line.
func Error(category diag.Category, message, file string, line int) *diag.Diagnostic {
	return diag.NewAt(diag.SeverityError, category, message, diag.NewLineLocation(file, line))
}

// Warning returns a WARNING leaf at file:line.
func Warning(category diag.Category, message, file string, line int) *diag.Diagnostic {
	return diag.NewAt(diag.SeverityWarning, category, message, diag.NewLineLocation(file, line))
}

// ByLevel returns an evaluator reporting the given diagnostics per level.
// Levels missing from m report nothing.
func ByLevel(m map[compliance.Level][]*diag.Diagnostic) multilevel.Evaluator {
	return multilevel.EvaluatorFunc(func(_ context.Context, level compliance.Level) (*multilevel.LevelResult, error) {
		return multilevel.NewLevelResult(level, m[level]...), nil
	})
}

// Select runs level selection over minLevel..maxLevel with ByLevel(m) and
// fails the test on error.
func Select(
	tb testing.TB,
	minLevel, maxLevel compliance.Level,
	m map[compliance.Level][]*diag.Diagnostic,
) *multilevel.MultiLevelResult {
	tb.Helper()

	res, err := multilevel.SelectBestLevel(context.Background(), minLevel, maxLevel, ByLevel(m))
	if err != nil {
		tb.Fatalf("SelectBestLevel: %v", err)
	}
	return res
}

// Keys renders diagnostics as their comparison keys, for readable assertions.
func Keys(ds []*diag.Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Key().String()
	}
	return out
}
