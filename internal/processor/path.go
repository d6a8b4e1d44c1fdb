package processor

import (
	"path/filepath"
	"strings"

	"github.com/wharflab/forgecheck/internal/diag"
)

// PathNormalization rewrites file locations as forward-slash paths relative
// to the module root. Paths outside the root stay absolute.
type PathNormalization struct{}

// NewPathNormalization creates a new path normalization processor.
func NewPathNormalization() *PathNormalization {
	return &PathNormalization{}
}

// Name returns the processor's identifier.
func (p *PathNormalization) Name() string {
	return "path-normalization"
}

// Process normalizes the file path of every diagnostic in the tree.
func (p *PathNormalization) Process(diagnostics []*diag.Diagnostic, ctx *Context) []*diag.Diagnostic {
	return transformLeaves(diagnostics, func(d *diag.Diagnostic) *diag.Diagnostic {
		if d.Location.File == "" {
			return d
		}
		file := normalizePath(d.Location.File, ctx.Root)
		if file == d.Location.File {
			return d
		}
		return d.WithLocation(diag.Location{File: file, Line: d.Location.Line})
	})
}

func normalizePath(file, root string) string {
	// Backslashes come from Windows tools regardless of the host OS.
	file = strings.ReplaceAll(file, "\\", "/")
	if root != "" && filepath.IsAbs(filepath.FromSlash(file)) {
		rel, err := filepath.Rel(root, filepath.FromSlash(file))
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			file = filepath.ToSlash(rel)
		}
	}
	return strings.TrimPrefix(file, "./")
}
