package reporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wharflab/forgecheck/internal/diag"
)

// MarkdownReporter formats results as concise markdown tables, suitable for
// pull request comments.
type MarkdownReporter struct {
	writer   io.Writer
	showDiff bool
}

// NewMarkdownReporter creates a new Markdown reporter.
func NewMarkdownReporter(w io.Writer, showDiff bool) *MarkdownReporter {
	return &MarkdownReporter{writer: w, showDiff: showDiff}
}

// Report implements Reporter.
func (r *MarkdownReporter) Report(rep Report) error {
	var b strings.Builder
	res := rep.Result

	verdict := "✅ Passed"
	if !rep.Passed() {
		verdict = "❌ Failed"
	}
	fmt.Fprintf(&b, "**%s**: %s\n\n", verdict, res.Summary())

	if slug, ok := res.ModuleSlug(); ok {
		fmt.Fprintf(&b, "- Release: `%s`\n", slug)
	}
	if best, ok := res.BestLevel(); ok {
		fmt.Fprintf(&b, "- Best compliance level: `%s`\n", best)
	}
	fmt.Fprintf(&b, "- Fail: %s\n", rep.Impact.Label())

	entries := VisibleEntries(rep)
	if len(entries) > 0 {
		b.WriteString("\n| File | Line | Issue |\n")
		b.WriteString("|------|------|-------|\n")
		for _, e := range entries {
			writeMarkdownRow(&b, rep, e)
		}
	}

	if r.showDiff {
		diffs := DifferenceEntries(rep)
		if len(diffs) > 0 {
			b.WriteString("\n<details><summary>Only at other compliance levels</summary>\n\n")
			b.WriteString("| Level | File | Line | Issue |\n")
			b.WriteString("|-------|------|------|-------|\n")
			for _, e := range diffs {
				fmt.Fprintf(&b, "| %s ", *e.Level)
				writeMarkdownRow(&b, rep, e)
			}
			b.WriteString("\n</details>\n")
		}
	}

	_, err := io.WriteString(r.writer, b.String())
	return err
}

func writeMarkdownRow(b *strings.Builder, rep Report, e Entry) {
	file := "-"
	if f := e.Location.Slash().File; f != "" {
		file = "`" + escapeMarkdown(f) + "`"
		if href := rep.Href(e.Location); href != "" {
			file = "[" + file + "](" + href + ")"
		}
	}
	fmt.Fprintf(b, "| %s | %s | %s %s |\n",
		file, formatLineNumber(e.Location), severityEmoji(e.Severity()), escapeMarkdown(e.Message))
}

// formatLineNumber returns the display string for a location's line number.
func formatLineNumber(loc diag.Location) string {
	if loc.Line > 0 {
		return strconv.Itoa(loc.Line)
	}
	return "-"
}

// severityEmoji returns an emoji indicator for the severity level.
func severityEmoji(s diag.Severity) string {
	switch s {
	case diag.SeverityFatal:
		return "💥"
	case diag.SeverityError:
		return "❌"
	case diag.SeverityWarning:
		return "⚠️"
	case diag.SeverityInfo:
		return "ℹ️"
	case diag.SeverityOK:
		return "✅"
	default:
		return "⚠️"
	}
}

// escapeMarkdown escapes special markdown characters in table cells.
func escapeMarkdown(s string) string {
	// Escape pipe characters which break table formatting
	s = strings.ReplaceAll(s, "|", "\\|")
	// Replace newlines with spaces
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
