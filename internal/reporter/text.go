package reporter

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/muesli/termenv"

	"github.com/wharflab/forgecheck/internal/diag"
)

// Styles for different parts of the output
var (
	// Color detection using termenv (respects NO_COLOR, CLICOLOR_FORCE, terminal detection)
	useColors = termenv.EnvColorProfile() != termenv.Ascii

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")) // Light gray

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // Gray

	fileLocStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Dark gray

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // Blue
			Underline(true)

	passStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")) // Green

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	severityStyles = map[diag.Severity]lipgloss.Style{
		diag.SeverityFatal: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("201")), // Magenta
		diag.SeverityError: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		diag.SeverityWarning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")), // Orange
		diag.SeverityInfo: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")), // Blue
		diag.SeverityOK: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")), // Green
	}
)

// TextOptions configures the text reporter output.
type TextOptions struct {
	// Color enables/disables colored output. Default: auto-detect.
	Color *bool

	// ShowDiff lists the diagnostics found only at the other levels.
	ShowDiff bool
}

// TextReporter formats results as styled text output.
type TextReporter struct {
	writer io.Writer
	opts   TextOptions
	color  bool
}

// NewTextReporter creates a new text reporter with the given options.
func NewTextReporter(w io.Writer, opts TextOptions) *TextReporter {
	colorEnabled := useColors
	if opts.Color != nil {
		colorEnabled = *opts.Color
	}
	return &TextReporter{writer: w, opts: opts, color: colorEnabled}
}

// Report implements Reporter.
func (r *TextReporter) Report(rep Report) error {
	var b strings.Builder
	res := rep.Result

	if best, ok := res.BestLevel(); ok {
		fmt.Fprintf(&b, "%s %s (%s)\n", r.style(headingStyle, "Best compliance level:"), best, best.Name())
	}

	for _, e := range VisibleEntries(rep) {
		r.writeEntry(&b, rep, e)
	}

	if r.opts.ShowDiff {
		diffs := DifferenceEntries(rep)
		if len(diffs) > 0 {
			fmt.Fprintf(&b, "\n%s\n", r.style(headingStyle, "Only at other compliance levels:"))
		}
		for _, e := range diffs {
			r.writeEntry(&b, rep, e)
		}
	}

	verdict := r.style(passStyle, "PASS")
	if !rep.Passed() {
		verdict = r.style(failStyle, "FAIL")
	}
	fmt.Fprintf(&b, "\n%s %s (fail: %s)\n", verdict, res.Summary(), rep.Impact.Label())

	_, err := io.WriteString(r.writer, b.String())
	return err
}

// writeEntry formats a single diagnostic:
//
//	ERROR [3.0] syntax: message
//	  manifests/init.pp:3 https://...
func (r *TextReporter) writeEntry(b *strings.Builder, rep Report, e Entry) {
	sev := e.Severity()
	label := strings.ToUpper(sev.String())
	if style, ok := severityStyles[sev]; ok {
		label = r.style(style, label)
	}

	b.WriteString(label)
	if e.Level != nil {
		fmt.Fprintf(b, " [%s]", *e.Level)
	}
	if e.Category != "" {
		b.WriteString(" " + r.style(categoryStyle, string(e.Category)+":"))
	}
	b.WriteString(" " + e.Message + "\n")

	if loc := e.Location.Slash().String(); loc != "" {
		b.WriteString("  " + r.style(fileLocStyle, loc))
		if href := rep.Href(e.Location); href != "" {
			b.WriteString(" " + r.style(urlStyle, href))
		}
		b.WriteString("\n")
	}
}

func (r *TextReporter) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}
