package reporter

import (
	"io"
	"slices"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/wharflab/forgecheck/internal/diag"
)

// Default SARIF tool information.
const (
	defaultToolName = "forgecheck"
	defaultToolURI  = "https://github.com/wharflab/forgecheck"
)

// SARIFReporter formats the visible diagnostics as SARIF (Static Analysis
// Results Interchange Format). Rules are the diagnostic categories.
//
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/
type SARIFReporter struct {
	writer      io.Writer
	toolName    string
	toolVersion string
	toolURI     string
}

// NewSARIFReporter creates a new SARIF reporter.
func NewSARIFReporter(w io.Writer, toolName, toolVersion, toolURI string) *SARIFReporter {
	if toolName == "" {
		toolName = defaultToolName
	}
	if toolURI == "" {
		toolURI = defaultToolURI
	}
	return &SARIFReporter{
		writer:      w,
		toolName:    toolName,
		toolVersion: toolVersion,
		toolURI:     toolURI,
	}
}

// Report implements Reporter.
func (r *SARIFReporter) Report(rep Report) error {
	report := sarif.NewReport()

	run := sarif.NewRunWithInformationURI(r.toolName, r.toolURI)
	if r.toolVersion != "" {
		run.Tool.Driver.WithVersion(r.toolVersion)
	}

	entries := VisibleEntries(rep)

	var ruleIDs, files []string
	for _, e := range entries {
		if id := ruleID(e.Diagnostic); !slices.Contains(ruleIDs, id) {
			ruleIDs = append(ruleIDs, id)
		}
		if file := e.Location.Slash().File; file != "" && !slices.Contains(files, file) {
			files = append(files, file)
		}
	}
	slices.Sort(ruleIDs)
	slices.Sort(files)

	for _, id := range ruleIDs {
		run.AddRule(id).
			WithShortDescription(sarif.NewMultiformatMessageString().WithText(id + " diagnostics"))
	}
	for _, file := range files {
		run.AddDistinctArtifact(file)
	}

	for _, e := range entries {
		result := sarif.NewRuleResult(ruleID(e.Diagnostic)).
			WithMessage(sarif.NewTextMessage(e.Message)).
			WithLevel(sarifLevel(e.Severity()))

		if file := e.Location.Slash().File; file != "" {
			physicalLocation := sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(file))
			if e.Location.Line > 0 {
				physicalLocation.WithRegion(sarif.NewRegion().WithStartLine(e.Location.Line))
			}
			result.WithLocations([]*sarif.Location{
				sarif.NewLocationWithPhysicalLocation(physicalLocation),
			})
		}

		run.AddResult(result)
	}

	report.AddRun(run)

	return report.PrettyWrite(r.writer)
}

func ruleID(d *diag.Diagnostic) string {
	if d.Category == "" {
		return "forgecheck"
	}
	return "forgecheck/" + string(d.Category)
}

// sarifLevel maps a severity to a SARIF result level.
func sarifLevel(s diag.Severity) string {
	switch {
	case s >= diag.SeverityError:
		return "error"
	case s == diag.SeverityWarning:
		return "warning"
	case s == diag.SeverityInfo:
		return "note"
	default:
		return "none"
	}
}
