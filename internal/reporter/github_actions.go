package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/wharflab/forgecheck/internal/diag"
)

// GitHubActionsReporter formats the visible diagnostics as GitHub Actions
// workflow commands. These commands appear as annotations in the GitHub
// Actions UI.
//
// Format: ::{level} file={file},line={line},title={title}::{message}
//
// See: https://docs.github.com/actions/using-workflows/workflow-commands-for-github-actions#setting-an-error-message
type GitHubActionsReporter struct {
	writer io.Writer
}

// NewGitHubActionsReporter creates a new GitHub Actions reporter.
func NewGitHubActionsReporter(w io.Writer) *GitHubActionsReporter {
	return &GitHubActionsReporter{writer: w}
}

// Report implements Reporter.
func (r *GitHubActionsReporter) Report(rep Report) error {
	for _, e := range VisibleEntries(rep) {
		var parts []string
		if file := e.Location.Slash().File; file != "" {
			parts = append(parts, "file="+escapeGitHubProperty(file))
			if e.Location.Line > 0 {
				parts = append(parts, fmt.Sprintf("line=%d", e.Location.Line))
			}
		}
		parts = append(parts, "title="+escapeGitHubProperty(annotationTitle(rep, e)))

		if _, err := fmt.Fprintf(r.writer, "::%s %s::%s\n",
			annotationLevel(e.Severity()),
			strings.Join(parts, ","),
			escapeGitHubMessage(e.Message),
		); err != nil {
			return err
		}
	}
	return nil
}

func annotationTitle(rep Report, e Entry) string {
	title := "forgecheck"
	if e.Category != "" {
		title += " " + string(e.Category)
	}
	if best, ok := rep.Result.BestLevel(); ok {
		title += " (Puppet " + best.String() + ")"
	}
	return title
}

// annotationLevel maps a severity to an annotation command. FATAL and ERROR
// are both "error"; INFO and OK become "notice".
func annotationLevel(s diag.Severity) string {
	switch {
	case s >= diag.SeverityError:
		return "error"
	case s == diag.SeverityWarning:
		return "warning"
	default:
		return "notice"
	}
}

// Workflow command escaping, following escapeData and escapeProperty in
// https://github.com/actions/toolkit/blob/main/packages/core/src/command.ts.
// Messages keep ":" and ",".
var (
	ghMessageEscaper  = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	ghPropertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeGitHubMessage(s string) string {
	return ghMessageEscaper.Replace(s)
}

func escapeGitHubProperty(s string) string {
	return ghPropertyEscaper.Replace(s)
}
