// Package reporter provides output formatters for validation results.
//
// The package supports multiple output formats:
//   - text: Human-readable terminal output with colors
//   - json: Machine-readable JSON output
//   - sarif: Static Analysis Results Interchange Format for CI/CD integration
//   - github-actions: Native GitHub Actions workflow annotations
//   - markdown: Concise markdown tables
package reporter

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/validator"
)

// Report is one validation run as handed to a reporter.
type Report struct {
	// Result is the validation result. Required.
	Result *validator.Result

	// Impact decides the pass/fail verdict shown in the report.
	Impact validator.Impact

	// HrefPrefix links locations to the hosted source (optional).
	HrefPrefix string
}

// Passed reports the verdict under the report's impact.
func (r Report) Passed() bool {
	return r.Result.Passed(r.Impact)
}

// Href returns the source link for loc, or "".
func (r Report) Href(loc diag.Location) string {
	return validator.Href(r.HrefPrefix, loc)
}

// Reporter formats and outputs validation results.
type Reporter interface {
	// Report writes the result to the configured output.
	Report(report Report) error
}

// Entry is a leaf diagnostic flattened out of the result tree.
type Entry struct {
	*diag.Diagnostic

	// Level is set for diagnostics that only occur at another compliance level.
	Level *compliance.Level
}

// VisibleEntries returns the run diagnostics followed by the leaves of the
// best level, sorted for stable output.
func VisibleEntries(rep Report) []Entry {
	entries := leaves(rep.Result.Diagnostics, nil)
	entries = append(entries, leaves(rep.Result.ResultDiagnostics(), nil)...)
	return SortEntries(entries)
}

// DifferenceEntries returns the leaves found only at the other levels, in
// ascending level order.
func DifferenceEntries(rep Report) []Entry {
	var entries []Entry
	for _, lr := range rep.Result.OtherDiagnostics() {
		level := lr.Level
		entries = append(entries, SortEntries(leaves(lr.Children(), &level))...)
	}
	return entries
}

func leaves(ds []*diag.Diagnostic, level *compliance.Level) []Entry {
	var out []Entry
	for _, d := range ds {
		if !d.IsComposite() {
			out = append(out, Entry{Diagnostic: d, Level: level})
			continue
		}
		for leaf := range d.Flatten() {
			loc := leaf.Location
			if loc.IsZero() {
				loc = d.Location
			}
			out = append(out, Entry{Diagnostic: leaf.WithLocation(loc), Level: level})
		}
	}
	return out
}

// SortEntries sorts entries by file, line, severity (most severe first) and
// message for stable output.
func SortEntries(entries []Entry) []Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.Location.Slash().File, b.Location.Slash().File),
			cmp.Compare(a.Location.Line, b.Location.Line),
			cmp.Compare(b.Severity(), a.Severity()),
			strings.Compare(a.Message, b.Message),
		)
	})
	return sorted
}

// Format represents an output format type.
type Format string

const (
	// FormatText is human-readable terminal output.
	FormatText Format = "text"
	// FormatJSON is machine-readable JSON output.
	FormatJSON Format = "json"
	// FormatSARIF is Static Analysis Results Interchange Format.
	FormatSARIF Format = "sarif"
	// FormatGitHubActions is GitHub Actions workflow command output.
	FormatGitHubActions Format = "github-actions"
	// FormatMarkdown is concise markdown tables.
	FormatMarkdown Format = "markdown"
)

// ParseFormat parses a format string into a Format type.
// Returns an error if the format is unknown.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "sarif":
		return FormatSARIF, nil
	case "github-actions", "github":
		return FormatGitHubActions, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format: %q (valid: text, json, sarif, github-actions, markdown)", s)
	}
}

// Options configures reporter creation.
type Options struct {
	// Format specifies the output format.
	Format Format

	// Writer is the output destination.
	Writer io.Writer

	// Color enables/disables colored output (text format only).
	// nil means auto-detect.
	Color *bool

	// ShowDiff lists diagnostics of the other levels (text and markdown).
	ShowDiff bool

	// ToolVersion is included in SARIF and JSON output.
	ToolVersion string

	// ToolName is the tool name for SARIF output.
	ToolName string

	// ToolURI is the tool information URI for SARIF output.
	ToolURI string
}

// DefaultOptions returns sensible defaults for reporter options.
func DefaultOptions() Options {
	return Options{
		Format:      FormatText,
		Writer:      os.Stdout,
		Color:       nil, // auto-detect
		ShowDiff:    true,
		ToolName:    defaultToolName,
		ToolURI:     defaultToolURI,
		ToolVersion: "dev",
	}
}

// New creates a reporter based on the format specified in options.
func New(opts Options) (Reporter, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch opts.Format {
	case FormatText, "":
		return NewTextReporter(opts.Writer, TextOptions{
			Color:    opts.Color,
			ShowDiff: opts.ShowDiff,
		}), nil

	case FormatJSON:
		return NewJSONReporter(opts.Writer, opts.ToolVersion), nil

	case FormatSARIF:
		return NewSARIFReporter(opts.Writer, opts.ToolName, opts.ToolVersion, opts.ToolURI), nil

	case FormatGitHubActions:
		return NewGitHubActionsReporter(opts.Writer), nil

	case FormatMarkdown:
		return NewMarkdownReporter(opts.Writer, opts.ShowDiff), nil

	default:
		return nil, fmt.Errorf("unknown format: %q", opts.Format)
	}
}

// GetWriter returns an io.Writer for the given output path.
// Supports "stdout", "stderr", or file paths.
func GetWriter(path string) (io.Writer, func() error, error) {
	switch path {
	case "stdout", "":
		return os.Stdout, func() error { return nil }, nil
	case "stderr":
		return os.Stderr, func() error { return nil }, nil
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		return f, f.Close, nil
	}
}
