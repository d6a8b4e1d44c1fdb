// Package directive provides inline suppression comments for Puppet manifests.
//
// Two syntaxes are recognized:
//   - forgecheck: # forgecheck ignore=lint,semantic [reason=...]
//     On its own line it applies to the next code line; after code it
//     applies to its own line. # forgecheck global ignore=... applies to the
//     whole file.
//   - puppet-lint: # lint:ignore:<check> after code suppresses lint
//     diagnostics on that line. On its own line it opens a block that ends
//     at # lint:endignore, or at the end of the file.
//
// Directives select diagnostic categories, or "all".
package directive

import (
	"math"
	"slices"

	"github.com/wharflab/forgecheck/internal/diag"
)

// Type indicates the scope of a directive.
type Type int

const (
	// TypeLine affects the line the directive is on.
	TypeLine Type = iota
	// TypeNextLine affects the next code line.
	TypeNextLine
	// TypeBlock affects the lines up to the closing lint:endignore.
	TypeBlock
	// TypeGlobal affects the entire file.
	TypeGlobal
)

// String returns a human-readable name for the directive type.
func (t Type) String() string {
	switch t {
	case TypeLine:
		return "line"
	case TypeNextLine:
		return "next-line"
	case TypeBlock:
		return "block"
	case TypeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// LineRange is an inclusive range of 1-based lines.
type LineRange struct {
	Start int
	End   int
}

// Contains reports whether line is within the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// GlobalRange returns a LineRange that covers the entire file.
func GlobalRange() LineRange {
	return LineRange{Start: 1, End: math.MaxInt}
}

// Source identifies which syntax a directive used.
type Source string

const (
	SourceForgecheck Source = "forgecheck"
	SourcePuppetLint Source = "puppet-lint"
)

// Directive is a parsed inline suppression comment.
type Directive struct {
	Type Type

	// Categories lists the suppressed diagnostic categories.
	// A single "all" entry suppresses every category.
	Categories []diag.Category

	// Checks holds the puppet-lint check names of a lint:ignore directive.
	Checks []string

	// Line is where the directive appears.
	Line int

	// AppliesTo is the range of lines affected by this directive.
	AppliesTo LineRange

	// RawText is the original comment text.
	RawText string

	Source Source

	// Reason is the optional explanation given with the directive.
	Reason string
}

// CategoryAll matches every diagnostic category.
const CategoryAll diag.Category = "all"

// Suppresses reports whether the directive covers the diagnostic's line and
// category.
func (d *Directive) Suppresses(dg *diag.Diagnostic) bool {
	if dg.Location.Line <= 0 || !d.AppliesTo.Contains(dg.Location.Line) {
		return false
	}
	return slices.Contains(d.Categories, CategoryAll) || slices.Contains(d.Categories, dg.Category)
}

// ParseResult contains all directives parsed from a file plus any errors.
type ParseResult struct {
	Directives []Directive
	Errors     []ParseError
}

// Suppresses reports whether any directive suppresses dg.
func (r *ParseResult) Suppresses(dg *diag.Diagnostic) bool {
	if r == nil {
		return false
	}
	for i := range r.Directives {
		if r.Directives[i].Suppresses(dg) {
			return true
		}
	}
	return false
}

// ParseError is a malformed directive.
type ParseError struct {
	Line    int
	Message string
	RawText string
}
