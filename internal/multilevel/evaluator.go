package multilevel

import (
	"context"
	"errors"
	"fmt"

	"github.com/wharflab/forgecheck/internal/compliance"
)

// Evaluator validates a module snapshot at one compliance level.
//
// Problems found in the module are returned as diagnostics inside the
// LevelResult. A non-nil error means the evaluation itself could not be
// carried out (I/O failure, missing tool) and aborts the whole selection.
type Evaluator interface {
	Evaluate(ctx context.Context, level compliance.Level) (*LevelResult, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, level compliance.Level) (*LevelResult, error)

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(ctx context.Context, level compliance.Level) (*LevelResult, error) {
	return f(ctx, level)
}

// ErrEvaluationFailed matches every error returned when an evaluator fault
// aborted a selection.
var ErrEvaluationFailed = errors.New("evaluation failed")

// EvaluationError reports an operational fault while evaluating a level.
type EvaluationError struct {
	Level compliance.Level
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed at compliance level %s: %v", e.Level, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrEvaluationFailed) true for every EvaluationError.
func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluationFailed
}
