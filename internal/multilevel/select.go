package multilevel

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
)

// Option configures a selection.
type Option func(*options)

type options struct {
	concurrency int
	logger      logrus.FieldLogger
}

func defaultOptions() options {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return options{concurrency: 1, logger: logger}
}

// WithConcurrency sets how many levels are evaluated at once.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = max(n, 1)
	}
}

// WithLogger sets the logger used to trace the selection.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// SelectBestLevel evaluates every compliance level from minLevel to maxLevel
// inclusive and selects the best one. Inverted bounds are swapped.
func SelectBestLevel(
	ctx context.Context,
	minLevel, maxLevel compliance.Level,
	evaluator Evaluator,
	opts ...Option,
) (*MultiLevelResult, error) {
	return Select(ctx, compliance.Range(minLevel, maxLevel), evaluator, opts...)
}

// Select evaluates the given levels and selects the best one. Levels are
// sorted ascending and duplicates removed first. An empty list yields an
// empty result with no best level.
//
// Any evaluator error aborts the selection: the returned error is an
// *EvaluationError and no result is returned.
func Select(ctx context.Context, levels []compliance.Level, evaluator Evaluator, opts ...Option) (*MultiLevelResult, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	levels = slices.Clone(levels)
	slices.Sort(levels)
	levels = slices.Compact(levels)

	results, err := evaluateAll(ctx, levels, evaluator, o)
	if err != nil {
		return nil, err
	}

	best := fold(results, o.logger)
	return newMultiLevelResult(best, results), nil
}

// fold walks the results in ascending order and returns the best one.
//
// A later level replaces the current best when it has fewer errors than the
// maximum error count seen so far, or the same number of errors and no more
// warnings than the maximum warning count seen so far. The maxima cover every
// previously evaluated level, not only the current best.
func fold(results []*LevelResult, logger logrus.FieldLogger) *LevelResult {
	var (
		best        *LevelResult
		maxErrors   int
		maxWarnings int
	)
	for i, lr := range results {
		c := lr.Counts()
		entry := logger.WithFields(logrus.Fields{
			"level":    lr.Level.String(),
			"errors":   c.Errors,
			"warnings": c.Warnings,
		})
		if i == 0 || c.Errors < maxErrors || (c.Errors == maxErrors && c.Warnings <= maxWarnings) {
			best = lr
			entry.Debug("level selected as best so far")
		} else {
			entry.Debug("level not better than previous levels")
		}
		maxErrors = max(maxErrors, c.Errors)
		maxWarnings = max(maxWarnings, c.Warnings)
	}
	return best
}

func evaluateAll(ctx context.Context, levels []compliance.Level, evaluator Evaluator, o options) ([]*LevelResult, error) {
	results := make([]*LevelResult, len(levels))
	if len(levels) == 0 {
		return results, nil
	}

	if o.concurrency == 1 {
		for i, level := range levels {
			lr, err := evaluateOne(ctx, level, evaluator, o.logger)
			if err != nil {
				return nil, err
			}
			results[i] = lr
		}
		return results, nil
	}

	// Each goroutine writes its own index.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(o.concurrency, len(levels)))
	for i, level := range levels {
		g.Go(func() error {
			lr, err := evaluateOne(gctx, level, evaluator, o.logger)
			if err != nil {
				return err
			}
			results[i] = lr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluateOne(ctx context.Context, level compliance.Level, evaluator Evaluator, logger logrus.FieldLogger) (*LevelResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &EvaluationError{Level: level, Err: err}
	}
	logger.WithField("level", level.String()).Debug("evaluating compliance level")

	lr, err := evaluator.Evaluate(ctx, level)
	if err != nil {
		var evalErr *EvaluationError
		if errors.As(err, &evalErr) {
			return nil, err
		}
		return nil, &EvaluationError{Level: level, Err: err}
	}
	if lr == nil {
		return nil, &EvaluationError{Level: level, Err: errors.New("evaluator returned no result")}
	}
	if lr.Level != level {
		return nil, &EvaluationError{
			Level: level,
			Err:   fmt.Errorf("evaluator returned a result for level %s", lr.Level),
		}
	}
	if lr.Diagnostic == nil {
		lr = NewLevelResult(level)
	}
	return lr, nil
}

// FilterLevelDiagnostics returns, for every level other than the best one, a
// copy holding only the direct children that do not appear among the best
// level's direct children. Levels left with nothing are dropped. The
// comparison is one level deep.
func FilterLevelDiagnostics(m *MultiLevelResult) []*LevelResult {
	if m == nil || m.best == nil {
		return nil
	}

	seen := make(map[diag.Key]struct{}, m.best.Len())
	for d := range m.best.All() {
		seen[d.Key()] = struct{}{}
	}

	var out []*LevelResult
	for _, lr := range m.OtherResults() {
		var kept []*diag.Diagnostic
		for d := range lr.All() {
			if _, ok := seen[d.Key()]; !ok {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, lr.withChildren(kept))
	}
	return out
}
