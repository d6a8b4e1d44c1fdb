package processor

import (
	"github.com/wharflab/forgecheck/internal/diag"
)

// Deduplication removes duplicate diagnostics.
// Two diagnostics are duplicates if their keys (severity, category, message
// and location) are equal. The first occurrence wins.
type Deduplication struct{}

// NewDeduplication creates a new deduplication processor.
func NewDeduplication() *Deduplication {
	return &Deduplication{}
}

// Name returns the processor's identifier.
func (p *Deduplication) Name() string {
	return "deduplication"
}

// Process removes duplicate direct diagnostics.
func (p *Deduplication) Process(diagnostics []*diag.Diagnostic, _ *Context) []*diag.Diagnostic {
	seen := make(map[diag.Key]bool, len(diagnostics))
	return filterDiagnostics(diagnostics, func(d *diag.Diagnostic) bool {
		key := d.Key()
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})
}
