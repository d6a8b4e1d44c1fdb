package directive

import (
	"github.com/wharflab/forgecheck/internal/diag"
)

// Lookup returns the parsed directives of a file, or nil if it has none.
type Lookup func(file string) *ParseResult

// Filter returns the diagnostics left after removing the leaves suppressed
// by their file's directives. Composite nodes keep their unsuppressed
// children; a composite left without children is dropped. Leaves without a
// file and line are kept. The input is not modified.
func Filter(ds []*diag.Diagnostic, lookup Lookup) []*diag.Diagnostic {
	kept := make([]*diag.Diagnostic, 0, len(ds))
	for _, d := range ds {
		if d.IsComposite() {
			children := d.Children()
			if len(children) == 0 {
				kept = append(kept, d)
				continue
			}
			if remaining := Filter(children, lookup); len(remaining) > 0 {
				kept = append(kept, d.WithChildren(remaining))
			}
			continue
		}
		if d.Location.File != "" && d.Location.Line > 0 && lookup(d.Location.File).Suppresses(d) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}
