package validator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wharflab/forgecheck/internal/config"
	"github.com/wharflab/forgecheck/internal/discovery"
	"github.com/wharflab/forgecheck/internal/evaluator"
	"github.com/wharflab/forgecheck/internal/multilevel"
)

// NewEvaluator builds the evaluator named by cfg.Evaluation.
// A fixture takes the place of a command when both are somehow set.
func NewEvaluator(cfg *config.Config, dir string, log logrus.FieldLogger) (multilevel.Evaluator, error) {
	ev := cfg.Evaluation
	switch {
	case ev.Fixture != "":
		f, err := evaluator.LoadFixture(ev.Fixture)
		if err != nil {
			return nil, err
		}
		return f, nil
	case len(ev.Command) > 0:
		timeout, err := ev.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		opts := []evaluator.CommandOption{
			evaluator.WithTimeout(timeout),
			evaluator.WithRetries(ev.Retries),
		}
		if log != nil {
			opts = append(opts, evaluator.WithCommandLogger(log))
		}
		cmd, err := evaluator.NewCommand(ev.Command, dir, opts...)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("%w: set evaluation.fixture or evaluation.command", ErrNoEvaluator)
	}
}

// InputFromConfig builds the Input for validating dir with cfg.
func InputFromConfig(dir string, cfg *config.Config, log logrus.FieldLogger) (Input, error) {
	minLevel, maxLevel, err := cfg.Compliance.Levels()
	if err != nil {
		return Input{}, err
	}
	caps, err := cfg.Validation.Caps()
	if err != nil {
		return Input{}, err
	}
	eval, err := NewEvaluator(cfg, dir, log)
	if err != nil {
		return Input{}, err
	}

	return Input{
		Dir:              dir,
		MinLevel:         minLevel,
		MaxLevel:         maxLevel,
		Evaluator:        eval,
		Excludes:         excludes(cfg.Validation.Exclude),
		Ignore:           cfg.Validation.Categories(),
		SeverityCaps:     caps,
		InlineDirectives: cfg.Validation.InlineDirectives,
		Concurrency:      cfg.Evaluation.Concurrency,
		Logger:           log,
	}, nil
}

// excludes appends configured patterns to the discovery defaults.
func excludes(configured []string) []string {
	if len(configured) == 0 {
		return nil
	}
	out := discovery.DefaultExcludes()
	return append(out, configured...)
}
