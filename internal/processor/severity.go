package processor

import (
	"github.com/wharflab/forgecheck/internal/diag"
)

// SeverityCap lowers the severity of leaf diagnostics to the cap configured
// for their category. A lint run limited to warnings is expressed as
// {lint: warning}. Severities below the cap are left alone.
type SeverityCap struct{}

// NewSeverityCap creates a new severity cap processor.
func NewSeverityCap() *SeverityCap {
	return &SeverityCap{}
}

// Name returns the processor's identifier.
func (p *SeverityCap) Name() string {
	return "severity-cap"
}

// Process applies severity caps to every leaf in the tree.
func (p *SeverityCap) Process(diagnostics []*diag.Diagnostic, ctx *Context) []*diag.Diagnostic {
	if len(ctx.SeverityCaps) == 0 {
		return diagnostics
	}
	return transformLeaves(diagnostics, func(d *diag.Diagnostic) *diag.Diagnostic {
		if d.IsComposite() {
			return d
		}
		limit, ok := ctx.SeverityCaps[d.Category]
		if !ok || d.Severity() <= limit {
			return d
		}
		return d.WithSeverity(limit)
	})
}
