package reporter

import (
	"encoding/json"
	"io"

	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/multilevel"
)

// JSONOutput is the top-level structure for JSON output.
type JSONOutput struct {
	// Release is the module slug, when exactly one module was validated.
	Release string `json:"release,omitempty"`
	// BestLevel is the selected compliance level.
	BestLevel string `json:"best_level,omitempty"`
	// Severity is the overall severity.
	Severity diag.Severity `json:"severity"`
	// Passed is the verdict under Impact.
	Passed bool   `json:"passed"`
	Impact string `json:"impact"`
	// Summary describes the best level's diagnostics.
	Summary string `json:"summary"`
	// Diagnostics are reported by the run itself.
	Diagnostics []*diag.Diagnostic `json:"diagnostics"`
	// Levels holds every evaluated level in ascending order.
	Levels []LevelOutput `json:"levels"`
	// Differences holds, per other level, what the best level does not report.
	Differences []LevelOutput `json:"differences"`
	// Version is the tool version.
	Version string `json:"version,omitempty"`
}

// LevelOutput is the result of one compliance level.
type LevelOutput struct {
	Level       string             `json:"level"`
	Name        string             `json:"name"`
	Severity    diag.Severity      `json:"severity"`
	Counts      diag.Counts        `json:"counts"`
	Diagnostics []*diag.Diagnostic `json:"diagnostics"`
}

// JSONReporter formats results as JSON output.
type JSONReporter struct {
	writer  io.Writer
	version string
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(w io.Writer, version string) *JSONReporter {
	return &JSONReporter{writer: w, version: version}
}

// Report implements Reporter.
func (r *JSONReporter) Report(rep Report) error {
	res := rep.Result
	output := JSONOutput{
		Severity:    res.Severity(),
		Passed:      rep.Passed(),
		Impact:      string(rep.Impact),
		Summary:     res.Summary(),
		Diagnostics: nonNil(res.Diagnostics),
		Levels:      []LevelOutput{},
		Differences: levelOutputs(res.OtherDiagnostics()),
		Version:     r.version,
	}
	if slug, ok := res.ModuleSlug(); ok {
		output.Release = slug
	}
	if best, ok := res.BestLevel(); ok {
		output.BestLevel = best.String()
	}
	if res.Levels != nil {
		output.Levels = levelOutputs(res.Levels.Levels())
	}

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func levelOutputs(levels []*multilevel.LevelResult) []LevelOutput {
	out := make([]LevelOutput, 0, len(levels))
	for _, lr := range levels {
		out = append(out, LevelOutput{
			Level:       lr.Level.String(),
			Name:        lr.Level.Name(),
			Severity:    lr.Severity(),
			Counts:      lr.Counts(),
			Diagnostics: nonNil(lr.Children()),
		})
	}
	return out
}

func nonNil(ds []*diag.Diagnostic) []*diag.Diagnostic {
	if ds == nil {
		return []*diag.Diagnostic{}
	}
	return ds
}
