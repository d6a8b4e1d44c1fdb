package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/multilevel"
	"github.com/wharflab/forgecheck/internal/schemas/runtime"
)

// Placeholders expanded in command arguments.
const (
	PlaceholderLevel     = "{level}"
	PlaceholderLevelName = "{level_name}"
	PlaceholderDir       = "{dir}"
)

// Environment variables set for the validator command.
const (
	EnvLevel     = "FORGECHECK_LEVEL"
	EnvLevelName = "FORGECHECK_LEVEL_NAME"
)

const (
	defaultStderrLimit = 4096
	defaultRetries     = 2
)

// ErrEmptyCommand is returned when no command arguments are configured.
var ErrEmptyCommand = errors.New("validator command is empty")

// Command runs an external validator once per compliance level.
//
// The validator must print {"diagnostics": [...]} on stdout. Its exit status
// is not interpreted: validators commonly exit non-zero when they report
// errors. Output that cannot be decoded becomes a FATAL evaluator diagnostic
// carrying the tail of stderr.
type Command struct {
	args        []string
	dir         string
	timeout     time.Duration
	retries     int
	stderrLimit int
	logger      logrus.FieldLogger
	newBackOff  func() backoff.BackOff
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithTimeout bounds each level's run. Zero means no timeout.
func WithTimeout(d time.Duration) CommandOption {
	return func(c *Command) { c.timeout = d }
}

// WithRetries sets how many times a command that failed to start is retried.
func WithRetries(n int) CommandOption {
	return func(c *Command) { c.retries = max(n, 0) }
}

// WithStderrLimit sets how many trailing bytes of stderr are kept.
func WithStderrLimit(n int) CommandOption {
	return func(c *Command) { c.stderrLimit = n }
}

// WithCommandLogger sets the logger.
func WithCommandLogger(logger logrus.FieldLogger) CommandOption {
	return func(c *Command) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCommand creates a command evaluator running args in dir.
func NewCommand(args []string, dir string, opts ...CommandOption) (*Command, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, ErrEmptyCommand
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	c := &Command{
		args:        append([]string(nil), args...),
		dir:         dir,
		retries:     defaultRetries,
		stderrLimit: defaultStderrLimit,
		logger:      logger,
		newBackOff:  newStartBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newStartBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.Multiplier = 2.0
	return b
}

// Args returns the arguments expanded for level.
func (c *Command) Args(level compliance.Level) []string {
	r := strings.NewReplacer(
		PlaceholderLevelName, level.Name(),
		PlaceholderLevel, level.String(),
		PlaceholderDir, c.dir,
	)
	out := make([]string, len(c.args))
	for i, a := range c.args {
		out[i] = r.Replace(a)
	}
	return out
}

type runOutput struct {
	stdout  []byte
	stderr  *tailBuffer
	waitErr error
}

// Evaluate implements multilevel.Evaluator.
func (c *Command) Evaluate(ctx context.Context, level compliance.Level) (*multilevel.LevelResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := c.Args(level)
	log := c.logger.WithFields(logrus.Fields{
		"evaluator": "command",
		"level":     level.String(),
		"command":   args[0],
	})

	attempt := 0
	out, err := backoff.Retry(ctx, func() (runOutput, error) {
		attempt++
		out, err := c.run(ctx, level, args)
		if err == nil {
			return out, nil
		}
		if isPermanentStartError(err) {
			return out, backoff.Permanent(err)
		}
		log.WithError(err).WithField("attempt", attempt).Warn("validator command failed to start")
		return out, err
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.retries)+1),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", args[0], err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && c.timeout > 0 {
			return nil, fmt.Errorf("%s timed out after %s: %w", args[0], c.timeout, ctxErr)
		}
		return nil, ctxErr
	}

	diagnostics, err := parseOutput(out.stdout)
	if err != nil {
		log.WithError(err).Debug("validator output rejected")
		return multilevel.NewLevelResult(level, outputFailure(args[0], err, out)), nil
	}
	log.WithField("diagnostics", len(diagnostics)).Debug("validator command finished")
	return multilevel.NewLevelResult(level, diagnostics...), nil
}

// run starts the command and waits for it. Only a failure to start is
// returned as an error.
func (c *Command) run(ctx context.Context, level compliance.Level, args []string) (runOutput, error) {
	var stdout bytes.Buffer
	stderr := newTailBuffer(c.stderrLimit)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.dir
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(),
		EnvLevel+"="+level.String(),
		EnvLevelName+"="+level.Name(),
	)
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return runOutput{}, err
	}
	waitErr := cmd.Wait()
	return runOutput{stdout: stdout.Bytes(), stderr: stderr, waitErr: waitErr}, nil
}

func isPermanentStartError(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, exec.ErrDot) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

type outputDocument struct {
	Diagnostics []Entry `json:"diagnostics"`
}

func parseOutput(stdout []byte) ([]*diag.Diagnostic, error) {
	if len(bytes.TrimSpace(stdout)) == 0 {
		return nil, errors.New("no output")
	}
	raw, err := decodeGeneric(stdout, FormatJSON)
	if err != nil {
		return nil, err
	}
	v, err := runtime.DefaultValidator()
	if err != nil {
		return nil, err
	}
	if err := v.ValidateOutput(raw); err != nil {
		return nil, err
	}
	var doc outputDocument
	if err := remarshal(raw, &doc); err != nil {
		return nil, err
	}
	return Diagnostics(doc.Diagnostics)
}

func outputFailure(name string, cause error, out runOutput) *diag.Diagnostic {
	var b strings.Builder
	fmt.Fprintf(&b, "unreadable output from %s: %v", name, cause)
	if out.waitErr != nil {
		fmt.Fprintf(&b, " (%v)", out.waitErr)
	}
	if tail := strings.TrimSpace(out.stderr.String()); tail != "" {
		b.WriteString("\nstderr:")
		if out.stderr.Truncated() {
			b.WriteString(" ...")
		}
		b.WriteString("\n")
		b.WriteString(tail)
	}
	return diag.New(diag.SeverityFatal, diag.CategoryEvaluator, b.String())
}
