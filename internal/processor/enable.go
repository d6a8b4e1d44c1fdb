package processor

import (
	"slices"

	"github.com/wharflab/forgecheck/internal/diag"
)

// CategoryFilter removes diagnostics whose category is listed in Context.Ignore.
// Only direct diagnostics are considered.
type CategoryFilter struct{}

// NewCategoryFilter creates a new category filter processor.
func NewCategoryFilter() *CategoryFilter {
	return &CategoryFilter{}
}

// Name returns the processor's identifier.
func (p *CategoryFilter) Name() string {
	return "category-filter"
}

// Process filters out diagnostics in ignored categories.
func (p *CategoryFilter) Process(diagnostics []*diag.Diagnostic, ctx *Context) []*diag.Diagnostic {
	if len(ctx.Ignore) == 0 {
		return diagnostics
	}
	return filterDiagnostics(diagnostics, func(d *diag.Diagnostic) bool {
		return !slices.Contains(ctx.Ignore, d.Category)
	})
}
