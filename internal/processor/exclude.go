package processor

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/wharflab/forgecheck/internal/diag"
)

// ExcludeFilter removes leaves, at any depth, located in files matching
// Context.Excludes. Leaves without a file location are kept; composites left
// without children are dropped.
type ExcludeFilter struct{}

// NewExcludeFilter creates a new exclude filter processor.
func NewExcludeFilter() *ExcludeFilter {
	return &ExcludeFilter{}
}

// Name returns the processor's identifier.
func (p *ExcludeFilter) Name() string {
	return "exclude-filter"
}

// Process filters out leaves in files that match exclusion patterns.
func (p *ExcludeFilter) Process(diagnostics []*diag.Diagnostic, ctx *Context) []*diag.Diagnostic {
	if len(ctx.Excludes) == 0 {
		return diagnostics
	}
	return filterLeaves(diagnostics, func(d *diag.Diagnostic) bool {
		if d.Location.File == "" {
			return true
		}
		file := d.Location.Slash().File
		for _, pattern := range ctx.Excludes {
			matched, err := doublestar.Match(pattern, file)
			if err != nil {
				// Invalid pattern - skip this check
				continue
			}
			if matched {
				return false
			}
		}
		return true
	})
}
