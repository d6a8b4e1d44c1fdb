// Package processor provides a composable diagnostic processing pipeline.
//
// Each compliance level's direct diagnostics flow through a sequence of
// processors before the best level is selected, so every level is compared
// on the same normalized data.
//
// Standard pipeline order:
//  1. PathNormalization - Slash paths relative to the module root
//  2. InlineDirectives - Drop diagnostics suppressed by manifest comments
//  3. CategoryFilter - Drop ignored diagnostic categories
//  4. ExcludeFilter - Drop diagnostics in excluded files
//  5. SeverityCap - Cap severities per category
//  6. Deduplication - Remove duplicate diagnostics
package processor

import (
	"github.com/wharflab/forgecheck/internal/diag"
)

// Processor transforms a slice of diagnostics.
// Implementations should be stateless where possible, using Context for shared state.
type Processor interface {
	// Name returns the processor's identifier (for debugging/logging).
	Name() string

	// Process applies the processor's logic to diagnostics.
	// Must not modify the input slice or the nodes it holds; return new
	// slices and copies instead.
	Process(diagnostics []*diag.Diagnostic, ctx *Context) []*diag.Diagnostic
}

// Context provides shared state for processors.
type Context struct {
	// Root is the module root that file locations are made relative to.
	Root string

	// Excludes are doublestar patterns matched against slash-separated,
	// root-relative file locations.
	Excludes []string

	// Ignore lists categories whose diagnostics are dropped.
	Ignore []diag.Category

	// SeverityCaps maps a category to the highest severity it may report.
	SeverityCaps map[diag.Category]diag.Severity

	// InlineDirectives enables suppression comments in manifests.
	InlineDirectives bool
}

// Chain runs processors in sequence.
type Chain struct {
	processors []Processor
}

// NewChain creates a new processor chain.
func NewChain(processors ...Processor) *Chain {
	return &Chain{processors: processors}
}

// NewStandardChain returns the chain in the standard pipeline order.
func NewStandardChain() *Chain {
	return NewChain(
		NewPathNormalization(),
		NewInlineDirectives(),
		NewCategoryFilter(),
		NewExcludeFilter(),
		NewSeverityCap(),
		NewDeduplication(),
	)
}

// Names returns the processor names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.processors))
	for i, p := range c.processors {
		names[i] = p.Name()
	}
	return names
}

// Process runs all processors in sequence.
func (c *Chain) Process(diagnostics []*diag.Diagnostic, ctx *Context) []*diag.Diagnostic {
	if ctx == nil {
		ctx = &Context{}
	}
	for _, p := range c.processors {
		diagnostics = p.Process(diagnostics, ctx)
	}
	return diagnostics
}

// filterDiagnostics returns a new slice containing only the diagnostics where keep() returns true.
func filterDiagnostics(diagnostics []*diag.Diagnostic, keep func(d *diag.Diagnostic) bool) []*diag.Diagnostic {
	result := make([]*diag.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		if keep(d) {
			result = append(result, d)
		}
	}
	return result
}

// filterLeaves returns a new slice keeping the leaves, at any depth, where
// keep() returns true. Composite nodes are copied with their kept children;
// a composite that loses all of its children is dropped, while one that was
// empty to begin with is kept.
func filterLeaves(diagnostics []*diag.Diagnostic, keep func(d *diag.Diagnostic) bool) []*diag.Diagnostic {
	result := make([]*diag.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		if !d.IsComposite() {
			if keep(d) {
				result = append(result, d)
			}
			continue
		}
		if d.Len() == 0 {
			result = append(result, d)
			continue
		}
		if children := filterLeaves(d.Children(), keep); len(children) > 0 {
			result = append(result, d.WithChildren(children))
		}
	}
	return result
}

// transformLeaves returns a new slice where every leaf, at any depth, is
// replaced by transform(leaf). Composite nodes are copied with their
// transformed children.
func transformLeaves(
	diagnostics []*diag.Diagnostic,
	transform func(d *diag.Diagnostic) *diag.Diagnostic,
) []*diag.Diagnostic {
	result := make([]*diag.Diagnostic, len(diagnostics))
	for i, d := range diagnostics {
		if d.IsComposite() {
			result[i] = transform(d.WithChildren(transformLeaves(d.Children(), transform)))
			continue
		}
		result[i] = transform(d)
	}
	return result
}
