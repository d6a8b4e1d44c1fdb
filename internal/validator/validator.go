// Package validator runs the module validation pipeline shared by the CLI
// commands.
//
// The pipeline: module discovery → metadata → multi-level evaluation →
// best-level selection → level differences. Callers render the [Result]
// with a reporter and decide the exit status with [Result.Passed].
package validator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/discovery"
	"github.com/wharflab/forgecheck/internal/evaluator"
	"github.com/wharflab/forgecheck/internal/multilevel"
	"github.com/wharflab/forgecheck/internal/processor"
)

// ReleasePrefix starts the INFO diagnostic naming the validated release.
const ReleasePrefix = "Release: "

// MessageNoModules is reported when discovery finds nothing to validate.
const MessageNoModules = "No modules found in repository"

// ErrNoEvaluator is returned when Input has no evaluator.
var ErrNoEvaluator = errors.New("no evaluator configured")

// Input configures a single invocation of [Run].
type Input struct {
	// Dir is the source directory to validate.
	Dir string

	// MinLevel and MaxLevel bound the compliance levels to evaluate.
	// Inverted bounds are swapped.
	MinLevel compliance.Level
	MaxLevel compliance.Level

	// Evaluator validates the source at one compliance level.
	Evaluator multilevel.Evaluator

	// Excludes are glob patterns skipped by discovery and dropped from
	// evaluator diagnostics. Nil means discovery.DefaultExcludes().
	Excludes []string

	// Ignore lists diagnostic categories to drop.
	Ignore []diag.Category

	// SeverityCaps limits the severity per diagnostic category.
	SeverityCaps map[diag.Category]diag.Severity

	// InlineDirectives honors suppression comments in manifests.
	InlineDirectives bool

	// Concurrency is the number of levels evaluated at once (default 1).
	Concurrency int

	// Logger receives progress output. Nil means silent.
	Logger logrus.FieldLogger
}

// Run validates the modules under in.Dir.
//
// Problems with the modules are reported as diagnostics in the Result.
// An error is returned only when the run itself could not be carried out;
// evaluator faults match multilevel.ErrEvaluationFailed.
func Run(ctx context.Context, in Input) (*Result, error) {
	if in.Evaluator == nil {
		return nil, ErrNoEvaluator
	}
	log := in.Logger
	if log == nil {
		silent := logrus.New()
		silent.SetLevel(logrus.PanicLevel)
		log = silent
	}

	dir, err := filepath.Abs(in.Dir)
	if err != nil {
		return nil, err
	}

	excludes := in.Excludes
	if excludes == nil {
		excludes = discovery.DefaultExcludes()
	}
	modules, err := discovery.Discover([]string{dir}, discovery.Options{ExcludePatterns: excludes})
	if err != nil {
		return nil, fmt.Errorf("discover modules: %w", err)
	}

	res := &Result{Dir: dir, Modules: modules}
	if len(modules) == 0 {
		res.Diagnostics = append(res.Diagnostics, diag.New(diag.SeverityError, diag.CategoryModule, MessageNoModules))
		return res, nil
	}
	log.WithField("modules", len(modules)).Info("discovered modules")

	res.Diagnostics = append(res.Diagnostics, readMetadata(dir, modules, res)...)
	if diag.MaxSeverity(res.Diagnostics) >= diag.SeverityError {
		log.Warn("module metadata errors, skipping evaluation")
		return res, nil
	}

	eval := evaluator.NewProcessed(in.Evaluator, nil, &processor.Context{
		Root:             dir,
		Excludes:         excludes,
		Ignore:           in.Ignore,
		SeverityCaps:     in.SeverityCaps,
		InlineDirectives: in.InlineDirectives,
	})
	levels, err := multilevel.SelectBestLevel(ctx, in.MinLevel, in.MaxLevel, eval,
		multilevel.WithConcurrency(in.Concurrency),
		multilevel.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	res.Levels = levels
	res.Differences = multilevel.FilterLevelDiagnostics(levels)

	if best, ok := levels.BestLevel(); ok {
		log.WithFields(logrus.Fields{
			"level":    best.String(),
			"severity": levels.Severity().String(),
		}).Info("selected best compliance level")
	}
	return res, nil
}

// readMetadata reads every module's manifest. It records the release slug
// when exactly one module was found.
func readMetadata(dir string, modules []discovery.Module, res *Result) []*diag.Diagnostic {
	var out []*diag.Diagnostic
	for _, m := range modules {
		md, err := discovery.ReadMetadata(m)
		if err != nil {
			out = append(out, diag.NewAt(diag.SeverityError, diag.CategoryModule, err.Error(),
				diag.NewFileLocation(relPath(dir, m.Manifest))))
			continue
		}
		res.Metadata = append(res.Metadata, md)
	}
	if len(modules) != 1 || len(res.Metadata) != 1 {
		return out
	}

	slug, err := res.Metadata[0].Slug()
	if err != nil {
		return append(out, diag.NewAt(diag.SeverityWarning, diag.CategoryModule, err.Error(),
			diag.NewFileLocation(relPath(dir, modules[0].Manifest))))
	}
	return append(out, diag.New(diag.SeverityInfo, diag.CategoryModule, ReleasePrefix+slug))
}

func relPath(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
