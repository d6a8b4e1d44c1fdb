package evaluator

import (
	"context"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/multilevel"
	"github.com/wharflab/forgecheck/internal/processor"
)

// Processed runs every level's direct diagnostics through a processor chain
// before they reach the selector.
type Processed struct {
	inner multilevel.Evaluator
	chain *processor.Chain
	ctx   *processor.Context
}

// NewProcessed wraps inner. A nil chain means the standard chain.
func NewProcessed(inner multilevel.Evaluator, chain *processor.Chain, pctx *processor.Context) *Processed {
	if chain == nil {
		chain = processor.NewStandardChain()
	}
	if pctx == nil {
		pctx = &processor.Context{}
	}
	return &Processed{inner: inner, chain: chain, ctx: pctx}
}

// Evaluate implements multilevel.Evaluator.
func (p *Processed) Evaluate(ctx context.Context, level compliance.Level) (*multilevel.LevelResult, error) {
	lr, err := p.inner.Evaluate(ctx, level)
	if err != nil || lr == nil || lr.Diagnostic == nil {
		return lr, err
	}
	return multilevel.NewLevelResult(lr.Level, p.chain.Process(lr.Children(), p.ctx)...), nil
}
