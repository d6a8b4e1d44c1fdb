// Package multilevel evaluates a module at several compliance levels, selects
// the level with the fewest problems and diffs the remaining levels against it.
package multilevel

import (
	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
)

// LevelResult is the diagnostic tree produced by evaluating one compliance level.
type LevelResult struct {
	*diag.Diagnostic

	// Level is the compliance level that produced the children.
	Level compliance.Level
}

// NewLevelResult creates a LevelResult holding diagnostics in order.
func NewLevelResult(level compliance.Level, diagnostics ...*diag.Diagnostic) *LevelResult {
	return &LevelResult{
		Diagnostic: diag.NewComposite(diag.CategoryCompliance, level.String(), diagnostics...),
		Level:      level,
	}
}

// Counts tallies the direct children of the result.
func (r *LevelResult) Counts() diag.Counts {
	return diag.Count(r.Children())
}

// withChildren returns a copy of r holding only diagnostics.
func (r *LevelResult) withChildren(diagnostics []*diag.Diagnostic) *LevelResult {
	return &LevelResult{
		Diagnostic: r.WithChildren(diagnostics),
		Level:      r.Level,
	}
}

// bestLevelSeverity reports the severity of the best level only, so a
// pass/fail decision ignores the levels that were not selected.
type bestLevelSeverity struct {
	best *LevelResult
}

func (r bestLevelSeverity) Severity(*diag.Diagnostic) diag.Severity {
	if r.best == nil {
		return diag.SeverityOK
	}
	return r.best.Severity()
}

// MultiLevelResult aggregates the LevelResults of every evaluated level.
//
// Its Severity is the severity of the best level. WorstSeverity gives the
// true maximum over all levels.
type MultiLevelResult struct {
	*diag.Diagnostic

	best   *LevelResult
	levels []*LevelResult
}

// newMultiLevelResult assembles the result. levels must be ascending and best
// must be one of them (or nil when levels is empty).
func newMultiLevelResult(best *LevelResult, levels []*LevelResult) *MultiLevelResult {
	children := make([]*diag.Diagnostic, len(levels))
	for i, lr := range levels {
		children[i] = lr.Diagnostic
	}
	message := "no compliance level evaluated"
	if best != nil {
		message = "best compliance level " + best.Level.String()
	}
	return &MultiLevelResult{
		Diagnostic: diag.NewCompositeWithRule(diag.CategoryCompliance, message, bestLevelSeverity{best: best}, children...),
		best:       best,
		levels:     levels,
	}
}

// BestLevel returns the selected level. ok is false when no level was evaluated.
func (m *MultiLevelResult) BestLevel() (level compliance.Level, ok bool) {
	if m.best == nil {
		return 0, false
	}
	return m.best.Level, true
}

// BestResult returns the LevelResult of the best level, or nil.
func (m *MultiLevelResult) BestResult() *LevelResult {
	return m.best
}

// Levels returns every LevelResult in ascending level order.
func (m *MultiLevelResult) Levels() []*LevelResult {
	out := make([]*LevelResult, len(m.levels))
	copy(out, m.levels)
	return out
}

// OtherResults returns the LevelResults other than the best, ascending.
func (m *MultiLevelResult) OtherResults() []*LevelResult {
	var out []*LevelResult
	for _, lr := range m.levels {
		if m.best != nil && lr.Level == m.best.Level {
			continue
		}
		out = append(out, lr)
	}
	return out
}

// Result returns the LevelResult for level, or nil if it was not evaluated.
func (m *MultiLevelResult) Result(level compliance.Level) *LevelResult {
	for _, lr := range m.levels {
		if lr.Level == level {
			return lr
		}
	}
	return nil
}

// WorstSeverity returns the maximum severity over every level.
func (m *MultiLevelResult) WorstSeverity() diag.Severity {
	return diag.MaxSeverity(m.Children())
}

// VisibleDiagnostics returns the diagnostics of the best level. Build
// pass/fail checks should consult these.
func (m *MultiLevelResult) VisibleDiagnostics() []*diag.Diagnostic {
	if m.best == nil {
		return nil
	}
	return m.best.Children()
}
