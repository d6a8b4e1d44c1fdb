package validator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/multilevel"
)

const apacheMetadata = `{"name": "puppetlabs-apache", "version": "1.10.0", "author": "puppetlabs"}`

func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// byLevel returns an evaluator reporting the given diagnostics per level.
func byLevel(m map[compliance.Level][]*diag.Diagnostic) multilevel.Evaluator {
	return multilevel.EvaluatorFunc(func(_ context.Context, level compliance.Level) (*multilevel.LevelResult, error) {
		return multilevel.NewLevelResult(level, m[level]...), nil
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := writeModule(t, map[string]string{
		"metadata.json":     apacheMetadata,
		"manifests/init.pp": "class apache {}",
	})

	unless := diag.NewAt(diag.SeverityError, diag.CategorySyntax, "Syntax error at 'unless'",
		diag.NewLineLocation(filepath.ToSlash(filepath.Join(dir, "manifests", "init.pp")), 12))
	quoted := diag.NewAt(diag.SeverityWarning, diag.CategoryLint, "double quoted string",
		diag.NewLineLocation("manifests/init.pp", 3))
	fixture := diag.NewAt(diag.SeverityError, diag.CategorySyntax, "broken fixture",
		diag.NewLineLocation("spec/fixtures/modules/stdlib/init.pp", 1))

	res, err := Run(context.Background(), Input{
		Dir:      dir,
		MinLevel: compliance.Puppet34,
		MaxLevel: compliance.Puppet40,
		Evaluator: byLevel(map[compliance.Level][]*diag.Diagnostic{
			compliance.Puppet34: {unless, quoted, fixture},
			compliance.Puppet35: {unless, quoted},
			compliance.Puppet40: {quoted, fixture},
		}),
	})
	require.NoError(t, err)

	require.Len(t, res.Modules, 1)
	slug, ok := res.ModuleSlug()
	require.True(t, ok)
	assert.Equal(t, "puppetlabs-apache-1.10.0", slug)

	best, ok := res.BestLevel()
	require.True(t, ok)
	assert.Equal(t, compliance.Puppet40, best)
	assert.Equal(t, diag.SeverityWarning, res.Severity())
	assert.Equal(t, diag.SeverityError, res.WorstLevelSeverity())
	assert.Equal(t, "1 warning", res.Summary())

	// Absolute locations are made relative and fixture paths are dropped
	// before the levels are compared.
	require.Len(t, res.OtherDiagnostics(), 2)
	for _, lr := range res.OtherDiagnostics() {
		require.Equal(t, 1, lr.Len())
		assert.Equal(t, "ERROR syntax: Syntax error at 'unless' (manifests/init.pp:12)", lr.Children()[0].String())
	}

	assert.True(t, res.Passed(ImpactDoNotFail))
	assert.True(t, res.Passed(ImpactFailOnAll))
	assert.False(t, res.Passed(ImpactFailOnAny))
}

func TestRunNoModules(t *testing.T) {
	t.Parallel()

	called := false
	eval := multilevel.EvaluatorFunc(func(_ context.Context, level compliance.Level) (*multilevel.LevelResult, error) {
		called = true
		return multilevel.NewLevelResult(level), nil
	})

	res, err := Run(context.Background(), Input{Dir: t.TempDir(), Evaluator: eval})
	require.NoError(t, err)

	assert.False(t, called)
	assert.Nil(t, res.Levels)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "ERROR module: No modules found in repository", res.Diagnostics[0].String())
	assert.Equal(t, diag.SeverityError, res.Severity())
	assert.Equal(t, "No errors or warnings", res.Summary())
	assert.False(t, res.Passed(ImpactDoNotFail))
}

func TestRunMetadataError(t *testing.T) {
	t.Parallel()

	dir := writeModule(t, map[string]string{
		"modules/a/metadata.json": `{"name": `,
		"modules/b/metadata.json": apacheMetadata,
	})

	res, err := Run(context.Background(), Input{Dir: dir, Evaluator: byLevel(nil)})
	require.NoError(t, err)

	assert.Nil(t, res.Levels)
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, diag.SeverityError, d.Severity())
	assert.Equal(t, "modules/a/metadata.json", d.Location.File)
	_, ok := res.ModuleSlug()
	assert.False(t, ok)
}

func TestRunSeveralModules(t *testing.T) {
	t.Parallel()

	dir := writeModule(t, map[string]string{
		"modules/a/metadata.json": apacheMetadata,
		"modules/b/Modulefile":    "name 'acme-ntp'\nversion '0.1.0'\n",
	})

	res, err := Run(context.Background(), Input{
		Dir:       dir,
		MinLevel:  compliance.Puppet40,
		MaxLevel:  compliance.Puppet40,
		Evaluator: byLevel(nil),
	})
	require.NoError(t, err)

	assert.Len(t, res.Modules, 2)
	assert.Empty(t, res.Diagnostics)
	_, ok := res.ModuleSlug()
	assert.False(t, ok, "no slug when several modules are validated")
	assert.Equal(t, diag.SeverityOK, res.Severity())
}

func TestRunIncompleteMetadata(t *testing.T) {
	t.Parallel()

	dir := writeModule(t, map[string]string{"metadata.json": `{"name": "apache"}`})

	res, err := Run(context.Background(), Input{
		Dir:       dir,
		MinLevel:  compliance.Puppet40,
		MaxLevel:  compliance.Puppet40,
		Evaluator: byLevel(nil),
	})
	require.NoError(t, err)

	require.NotNil(t, res.Levels)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.SeverityWarning, res.Diagnostics[0].Severity())
	assert.Contains(t, res.Diagnostics[0].Message, "missing owner, version")
}

func TestRunEvaluatorFault(t *testing.T) {
	t.Parallel()

	dir := writeModule(t, map[string]string{"metadata.json": apacheMetadata})
	cause := errors.New("puppet crashed")

	res, err := Run(context.Background(), Input{
		Dir: dir,
		Evaluator: multilevel.EvaluatorFunc(func(context.Context, compliance.Level) (*multilevel.LevelResult, error) {
			return nil, cause
		}),
		Concurrency: 2,
	})
	require.ErrorIs(t, err, multilevel.ErrEvaluationFailed)
	assert.Nil(t, res)
}

func TestRunRequiresEvaluator(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), Input{Dir: t.TempDir()})
	require.ErrorIs(t, err, ErrNoEvaluator)
}

func TestRunIgnoreAndCaps(t *testing.T) {
	t.Parallel()

	dir := writeModule(t, map[string]string{"metadata.json": apacheMetadata})

	res, err := Run(context.Background(), Input{
		Dir:      dir,
		MinLevel: compliance.Puppet40,
		MaxLevel: compliance.Puppet40,
		Evaluator: byLevel(map[compliance.Level][]*diag.Diagnostic{
			compliance.Puppet40: {
				diag.New(diag.SeverityError, diag.CategoryLint, "140 characters"),
				diag.New(diag.SeverityError, diag.CategorySemantic, "unresolved reference"),
			},
		}),
		Ignore:       []diag.Category{diag.CategorySemantic},
		SeverityCaps: map[diag.Category]diag.Severity{diag.CategoryLint: diag.SeverityWarning},
	})
	require.NoError(t, err)

	assert.Equal(t, "1 warning", res.Summary())
	assert.True(t, res.Passed(ImpactFailOnAny))
}

func TestRunInlineDirectives(t *testing.T) {
	t.Parallel()

	dir := writeModule(t, map[string]string{
		"metadata.json":     apacheMetadata,
		"manifests/init.pp": "class apache {\n  $port = 80 # lint:ignore:variable_is_lowercase\n}\n",
	})
	lint := diag.NewAt(diag.SeverityWarning, diag.CategoryLint, "variable contains uppercase",
		diag.NewLineLocation("manifests/init.pp", 2))
	eval := byLevel(map[compliance.Level][]*diag.Diagnostic{compliance.Puppet40: {lint}})

	tests := []struct {
		name    string
		enabled bool
		summary string
	}{
		{"enabled", true, "No errors or warnings"},
		{"disabled", false, "1 warning"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(context.Background(), Input{
				Dir:              dir,
				MinLevel:         compliance.Puppet40,
				MaxLevel:         compliance.Puppet40,
				Evaluator:        eval,
				InlineDirectives: tt.enabled,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.summary, res.Summary())
		})
	}
}
