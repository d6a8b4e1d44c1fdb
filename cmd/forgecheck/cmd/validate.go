package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gkampitakis/ciinfo"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/config"
	"github.com/wharflab/forgecheck/internal/multilevel"
	"github.com/wharflab/forgecheck/internal/reporter"
	"github.com/wharflab/forgecheck/internal/validator"
	"github.com/wharflab/forgecheck/internal/version"
)

// Exit codes
const (
	ExitSuccess          = 0 // Passed under the configured impact
	ExitFailed           = 1 // Failed under the configured impact
	ExitConfigError      = 2 // Config, usage or output error
	ExitEvaluationFailed = 3 // An evaluator could not produce a level result
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate Puppet module(s) at every compliance level in range",
		ArgsUsage: "[DIR]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: auto-discover)",
			},
			&cli.StringFlag{
				Name:    "min-level",
				Usage:   "Lowest compliance level to evaluate (e.g. 3.0)",
				Sources: cli.EnvVars("FORGECHECK_MIN_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "max-level",
				Usage:   "Highest compliance level to evaluate (e.g. 4.0)",
				Sources: cli.EnvVars("FORGECHECK_MAX_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "impact",
				Usage:   "When to fail: do-not-fail, fail-on-all, fail-on-any",
				Sources: cli.EnvVars("FORGECHECK_IMPACT"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, sarif, github-actions, markdown",
				Sources: cli.EnvVars("FORGECHECK_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path: stdout, stderr, or file path",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Glob pattern to exclude (can be repeated)",
			},
			&cli.StringFlag{
				Name:  "fixture",
				Usage: "Per-level diagnostics document (.yaml, .toml or .json)",
			},
			&cli.StringFlag{
				Name:  "command",
				Usage: "Evaluator command line, with {level}, {level_name} and {dir} placeholders",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Number of levels evaluated at once",
			},
			&cli.StringFlag{
				Name:  "timeout",
				Usage: "Per-level command timeout (e.g., 90s)",
			},
			&cli.StringFlag{
				Name:  "source-uri",
				Usage: "Repository URI used to link diagnostics to sources",
			},
			&cli.StringFlag{
				Name:  "branch",
				Usage: "Branch used in source links",
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "Disable colored output",
				Sources: cli.EnvVars("NO_COLOR"),
			},
			&cli.BoolFlag{
				Name:  "no-inline-directives",
				Usage: "Ignore suppression comments in manifests",
			},
			&cli.BoolFlag{
				Name:  "hide-diff",
				Usage: "Do not list diagnostics found only at other levels",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text, json",
			},
		},
		Action: runValidate,
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = "."
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: %s is not a directory\n", dir)
		return cli.Exit("", ExitConfigError)
	}

	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	log, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}
	if cfg.ConfigFile != "" {
		log.WithField("config", cfg.ConfigFile).Debug("loaded config file")
	}

	impact, err := validator.ParseImpact(cfg.Validation.Impact)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	in, err := validator.InputFromConfig(dir, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	timeout, _ := cfg.Evaluation.TimeoutDuration() //nolint:errcheck // checked by InputFromConfig
	stop := startProgress(os.Stderr, log, progressMessage(len(compliance.Range(in.MinLevel, in.MaxLevel)), timeout))
	res, err := validator.Run(ctx, in)
	stop()
	if err != nil {
		if errors.Is(err, multilevel.ErrEvaluationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return cli.Exit("", ExitEvaluationFailed)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	return writeReport(cmd, cfg, log, reporter.Report{
		Result:     res,
		Impact:     impact,
		HrefPrefix: validator.HrefPrefix(cfg.Source.URI, cfg.Source.Branch),
	})
}

// loadConfig loads configuration for dir, applying CLI overrides.
func loadConfig(cmd *cli.Command, dir string) (*config.Config, error) {
	overrides, err := flagOverrides(cmd)
	if err != nil {
		return nil, err
	}

	configPath := cmd.String("config")
	if configPath == "" {
		configPath = config.Discover(dir)
	}
	cfg, err := config.LoadWithOverrides(configPath, overrides)
	if err != nil {
		return nil, err
	}

	// --exclude adds to the configured patterns.
	cfg.Validation.Exclude = append(cfg.Validation.Exclude, cmd.StringSlice("exclude")...)
	return cfg, nil
}

// stringFlagKeys maps string flags to their config keys.
var stringFlagKeys = map[string]string{
	"min-level":  "compliance.min",
	"max-level":  "compliance.max",
	"impact":     "validation.impact",
	"format":     "output.format",
	"output":     "output.path",
	"timeout":    "evaluation.timeout",
	"source-uri": "source.uri",
	"branch":     "source.branch",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// flagOverrides returns the explicitly set flags as config overrides.
// Setting one evaluator source clears the other.
func flagOverrides(cmd *cli.Command) (map[string]any, error) {
	overrides := make(map[string]any)
	for flag, key := range stringFlagKeys {
		if cmd.IsSet(flag) {
			overrides[key] = cmd.String(flag)
		}
	}

	if cmd.IsSet("fixture") {
		overrides["evaluation.fixture"] = cmd.String("fixture")
		overrides["evaluation.command"] = []any{}
	}
	if cmd.IsSet("command") {
		if cmd.IsSet("fixture") {
			return nil, errors.New("--fixture and --command are mutually exclusive")
		}
		argv, err := parseCommand(cmd.String("command"))
		if err != nil {
			return nil, fmt.Errorf("--command: %w", err)
		}
		args := make([]any, len(argv))
		for i, a := range argv {
			args[i] = a
		}
		overrides["evaluation.command"] = args
		overrides["evaluation.fixture"] = ""
	}
	if cmd.IsSet("concurrency") {
		overrides["evaluation.concurrency"] = cmd.Int("concurrency")
	}
	if cmd.IsSet("hide-diff") && cmd.Bool("hide-diff") {
		overrides["output.show-diff"] = false
	}
	if cmd.IsSet("no-inline-directives") && cmd.Bool("no-inline-directives") {
		overrides["validation.inline-directives"] = false
	}
	return overrides, nil
}

// writeReport formats and writes the report, then maps the verdict to an
// exit code.
func writeReport(cmd *cli.Command, cfg *config.Config, log logrus.FieldLogger, rep reporter.Report) error {
	formatType, err := reporter.ParseFormat(cfg.Output.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	writer, closeWriter, err := reporter.GetWriter(cfg.Output.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}
	defer func() {
		if err := closeWriter(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output: %v\n", err)
		}
	}()

	opts := reporter.Options{
		Format:      formatType,
		Writer:      writer,
		ShowDiff:    cfg.Output.ShowDiff,
		ToolName:    "forgecheck",
		ToolVersion: version.Version(),
		ToolURI:     "https://github.com/wharflab/forgecheck",
	}

	switch {
	case cmd.IsSet("no-color") && cmd.Bool("no-color"):
		noColor := false
		opts.Color = &noColor
	case ciinfo.IsCI && !cmd.IsSet("format"):
		// CI logs keep escape codes verbatim.
		log.WithField("ci", ciinfo.Name).Info("running in CI, disabling colors")
		noColor := false
		opts.Color = &noColor
	}

	r, err := reporter.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create reporter: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	if err := r.Report(rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to write output: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	if code := exitCode(rep); code != ExitSuccess {
		return cli.Exit("", code)
	}
	return nil
}

// exitCode returns ExitFailed when the result does not pass under the impact.
func exitCode(rep reporter.Report) int {
	if !rep.Passed() {
		return ExitFailed
	}
	return ExitSuccess
}
