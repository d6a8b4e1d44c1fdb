package evaluator

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/multilevel"
	"github.com/wharflab/forgecheck/internal/schemas/runtime"
)

type fixtureDocument struct {
	Description string             `json:"description"`
	Levels      map[string][]Entry `json:"levels"`
}

// Fixture replays diagnostics recorded per compliance level. It is used to
// check a module against known validator output without running Puppet.
type Fixture struct {
	// Name identifies the fixture in diagnostics (usually its path).
	Name string

	// Description is the optional free-text description from the document.
	Description string

	levels map[compliance.Level][]*diag.Diagnostic
}

// LoadFixture reads and validates the fixture at path.
func LoadFixture(path string) (*Fixture, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	f, err := ParseFixture(data, format)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	f.Name = path
	return f, nil
}

// ParseFixture decodes and validates a fixture document.
func ParseFixture(data []byte, format Format) (*Fixture, error) {
	raw, err := decodeGeneric(data, format)
	if err != nil {
		return nil, err
	}

	v, err := runtime.DefaultValidator()
	if err != nil {
		return nil, err
	}
	if err := v.ValidateFixture(raw); err != nil {
		return nil, err
	}

	var doc fixtureDocument
	if err := remarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	f := &Fixture{
		Description: doc.Description,
		levels:      make(map[compliance.Level][]*diag.Diagnostic, len(doc.Levels)),
	}
	for key, entries := range doc.Levels {
		level, err := compliance.Parse(key)
		if err != nil {
			return nil, err
		}
		if _, dup := f.levels[level]; dup {
			return nil, fmt.Errorf("compliance level %s is listed more than once", level)
		}
		diagnostics, err := Diagnostics(entries)
		if err != nil {
			return nil, fmt.Errorf("level %s: %w", level, err)
		}
		f.levels[level] = diagnostics
	}
	return f, nil
}

// Levels returns the recorded levels in ascending order.
func (f *Fixture) Levels() []compliance.Level {
	out := make([]compliance.Level, 0, len(f.levels))
	for level := range f.levels {
		out = append(out, level)
	}
	slices.Sort(out)
	return out
}

// Evaluate implements multilevel.Evaluator. A level that was not recorded
// produces a single FATAL evaluator diagnostic.
func (f *Fixture) Evaluate(ctx context.Context, level compliance.Level) (*multilevel.LevelResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	diagnostics, ok := f.levels[level]
	if !ok {
		msg := fmt.Sprintf("no diagnostics recorded for compliance level %s", level)
		if f.Name != "" {
			msg += " in " + f.Name
		}
		return multilevel.NewLevelResult(level, diag.New(diag.SeverityFatal, diag.CategoryEvaluator, msg)), nil
	}
	return multilevel.NewLevelResult(level, diagnostics...), nil
}
