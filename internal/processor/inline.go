package processor

import (
	"path/filepath"
	"sync"

	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/directive"
	"github.com/wharflab/forgecheck/internal/fileval"
	"github.com/wharflab/forgecheck/internal/sourcemap"
)

// InlineDirectives removes diagnostics suppressed by comments in the
// manifests they point at, such as # forgecheck ignore=lint or puppet-lint's
// # lint:ignore:<check>. Malformed directives are reported as validator
// warnings. Files that cannot be read carry no directives.
//
// Parsed files are cached, so one instance serves every level of a run.
type InlineDirectives struct {
	mu    sync.Mutex
	cache map[string]*directive.ParseResult
}

// NewInlineDirectives creates a new inline directive processor.
func NewInlineDirectives() *InlineDirectives {
	return &InlineDirectives{cache: make(map[string]*directive.ParseResult)}
}

// Name returns the processor's identifier.
func (p *InlineDirectives) Name() string {
	return "inline-directives"
}

// Process drops suppressed leaves when Context.InlineDirectives is set.
func (p *InlineDirectives) Process(diagnostics []*diag.Diagnostic, ctx *Context) []*diag.Diagnostic {
	if !ctx.InlineDirectives {
		return diagnostics
	}

	// Files are listed in first-seen order so reported errors are stable.
	var files []string
	listed := make(map[string]bool)
	kept := directive.Filter(diagnostics, func(file string) *directive.ParseResult {
		if !listed[file] {
			listed[file] = true
			files = append(files, file)
		}
		return p.parse(ctx.Root, file)
	})

	for _, file := range files {
		r := p.parse(ctx.Root, file)
		for _, e := range r.Errors {
			kept = append(kept, diag.NewAt(diag.SeverityWarning, diag.CategoryValidator,
				"invalid suppression comment: "+e.Message, diag.NewLineLocation(file, e.Line)))
		}
	}
	return kept
}

// parse returns the directives of file, reading it on first use.
func (p *InlineDirectives) parse(root, file string) *directive.ParseResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.cache[file]; ok {
		return r
	}

	path := filepath.FromSlash(file)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	r := &directive.ParseResult{}
	if data, err := fileval.ReadText(path, 0); err == nil {
		r = directive.Parse(sourcemap.New(data))
	}
	p.cache[file] = r
	return r
}
