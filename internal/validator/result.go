package validator

import (
	"strconv"
	"strings"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/discovery"
	"github.com/wharflab/forgecheck/internal/multilevel"
)

// Result is the outcome of [Run].
type Result struct {
	// Dir is the absolute source directory.
	Dir string

	// Modules are the discovered module roots.
	Modules []discovery.Module

	// Metadata holds the manifests that could be read.
	Metadata []*discovery.Metadata

	// Diagnostics are reported by the run itself (discovery, metadata).
	Diagnostics []*diag.Diagnostic

	// Levels is nil when evaluation did not take place.
	Levels *multilevel.MultiLevelResult

	// Differences are the other levels' diagnostics not present at the best level.
	Differences []*multilevel.LevelResult
}

// Severity returns the overall severity: the maximum of the run diagnostics
// and the best level's severity.
func (r *Result) Severity() diag.Severity {
	sev := diag.MaxSeverity(r.Diagnostics)
	if r.Levels != nil {
		sev = diag.Max(sev, r.Levels.Severity())
	}
	return sev
}

// BestLevel returns the selected compliance level.
func (r *Result) BestLevel() (compliance.Level, bool) {
	if r.Levels == nil {
		return 0, false
	}
	return r.Levels.BestLevel()
}

// ResultDiagnostics returns the best level's direct diagnostics.
func (r *Result) ResultDiagnostics() []*diag.Diagnostic {
	if r.Levels == nil {
		return nil
	}
	return r.Levels.VisibleDiagnostics()
}

// OtherDiagnostics returns the per-level differences against the best level.
func (r *Result) OtherDiagnostics() []*multilevel.LevelResult {
	return r.Differences
}

// WorstLevelSeverity returns the highest severity over all evaluated levels.
func (r *Result) WorstLevelSeverity() diag.Severity {
	if r.Levels == nil {
		return diag.SeverityOK
	}
	return r.Levels.WorstSeverity()
}

// Summary describes the best level's diagnostics, e.g. "1 error and 2 warnings".
func (r *Result) Summary() string {
	return Summary(r.ResultDiagnostics())
}

// ModuleSlug returns the release slug recorded when exactly one module was
// validated.
func (r *Result) ModuleSlug() (string, bool) {
	for _, d := range r.Diagnostics {
		if d.Severity() == diag.SeverityInfo && strings.HasPrefix(d.Message, ReleasePrefix) {
			return strings.TrimPrefix(d.Message, ReleasePrefix), true
		}
	}
	return "", false
}

// Summary counts the direct diagnostics in ds. FATAL counts as an error.
func Summary(ds []*diag.Diagnostic) string {
	c := diag.Count(ds)
	switch {
	case c.Errors == 0 && c.Warnings == 0:
		return "No errors or warnings"
	case c.Errors == 0:
		return plural(c.Warnings, "warning")
	case c.Warnings == 0:
		return plural(c.Errors, "error")
	default:
		return plural(c.Errors, "error") + " and " + plural(c.Warnings, "warning")
	}
}

func plural(n int, word string) string {
	s := strconv.Itoa(n) + " " + word
	if n != 1 {
		s += "s"
	}
	return s
}
