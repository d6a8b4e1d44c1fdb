package directive

import (
	"regexp"
	"strings"

	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/sourcemap"
)

var (
	// # forgecheck [global] ignore=CAT1,CAT2
	forgecheckPattern = regexp.MustCompile(`(?i)^#\s*forgecheck\s+(global\s+)?ignore\s*=\s*([A-Za-z0-9_,-]*)`)

	// reason=... up to the end of the comment
	reasonPattern = regexp.MustCompile(`(?i)\breason\s*=\s*(.+)$`)

	// # lint:ignore:CHECK [lint:ignore:CHECK2] [reason]
	lintIgnorePattern = regexp.MustCompile(`lint:ignore:([A-Za-z0-9_]+)`)

	lintEndPattern = regexp.MustCompile(`lint:endignore\b`)
)

// Parse extracts all inline directives from a manifest.
func Parse(sm *sourcemap.SourceMap) *ParseResult {
	result := &ParseResult{}
	var open *Directive

	for _, c := range sm.Comments() {
		if m := forgecheckPattern.FindStringSubmatch(c.Text); m != nil {
			d, err := parseForgecheck(c, m, sm)
			if err != nil {
				result.Errors = append(result.Errors, *err)
				continue
			}
			result.Directives = append(result.Directives, *d)
			continue
		}

		if lintEndPattern.MatchString(c.Text) {
			if open == nil {
				result.Errors = append(result.Errors, ParseError{
					Line:    c.Line,
					Message: "lint:endignore without an opening lint:ignore",
					RawText: c.Text,
				})
				continue
			}
			open.AppliesTo.End = c.Line
			result.Directives = append(result.Directives, *open)
			open = nil
			continue
		}

		if d := parsePuppetLint(c); d != nil {
			if d.Type == TypeLine {
				result.Directives = append(result.Directives, *d)
				continue
			}
			if open != nil {
				// A new block closes the previous one.
				open.AppliesTo.End = c.Line - 1
				result.Directives = append(result.Directives, *open)
			}
			open = d
		}
	}

	if open != nil {
		open.AppliesTo.End = max(sm.LineCount(), open.Line)
		result.Directives = append(result.Directives, *open)
	}
	return result
}

func parseForgecheck(c sourcemap.Comment, m []string, sm *sourcemap.SourceMap) (*Directive, *ParseError) {
	categories := parseCategoryList(m[2])
	if len(categories) == 0 {
		return nil, &ParseError{Line: c.Line, Message: "empty category list", RawText: c.Text}
	}

	d := &Directive{
		Categories: categories,
		Line:       c.Line,
		RawText:    c.Text,
		Source:     SourceForgecheck,
		Reason:     extractReason(c.Text),
	}
	switch {
	case strings.TrimSpace(m[1]) != "":
		d.Type = TypeGlobal
		d.AppliesTo = GlobalRange()
	case c.Trailing:
		d.Type = TypeLine
		d.AppliesTo = LineRange{Start: c.Line, End: c.Line}
	default:
		d.Type = TypeNextLine
		if next := sm.NextCodeLine(c.Line); next > 0 {
			d.AppliesTo = LineRange{Start: next, End: next}
		} else {
			d.AppliesTo = LineRange{Start: -1, End: -1}
		}
	}
	return d, nil
}

// parsePuppetLint returns nil when the comment holds no lint:ignore.
// A block directive is returned with an open end.
func parsePuppetLint(c sourcemap.Comment) *Directive {
	matches := lintIgnorePattern.FindAllStringSubmatch(c.Text, -1)
	if len(matches) == 0 {
		return nil
	}

	checks := make([]string, len(matches))
	for i, m := range matches {
		checks[i] = m[1]
	}

	// Whatever follows the last check is the reason.
	rest := c.Text[lintIgnorePattern.FindAllStringIndex(c.Text, -1)[len(matches)-1][1]:]

	d := &Directive{
		Categories: []diag.Category{diag.CategoryLint},
		Checks:     checks,
		Line:       c.Line,
		RawText:    c.Text,
		Source:     SourcePuppetLint,
		Reason:     strings.TrimSpace(rest),
	}
	if c.Trailing {
		d.Type = TypeLine
		d.AppliesTo = LineRange{Start: c.Line, End: c.Line}
	} else {
		d.Type = TypeBlock
		d.AppliesTo = LineRange{Start: c.Line + 1, End: c.Line}
	}
	return d
}

func parseCategoryList(s string) []diag.Category {
	var out []diag.Category
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, diag.Category(part))
		}
	}
	return out
}

func extractReason(text string) string {
	if m := reasonPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
