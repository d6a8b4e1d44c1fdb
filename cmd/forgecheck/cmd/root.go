package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/forgecheck/internal/version"
)

// NewApp creates the CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "forgecheck",
		Usage:   "Multi-level compliance validator for Puppet modules",
		Version: version.Version(),
		Description: `forgecheck validates a Puppet module checkout at a range of Puppet
language compliance levels, picks the level with the fewest problems
and reports what changes at the other levels.

Each level is validated by an evaluator: a fixture document or an external
command run once per level.

Examples:
  forgecheck validate --fixture levels.yaml .
  forgecheck validate --command "puppet-validate --level {level} {dir}" --min-level 3.0
  forgecheck levels
  forgecheck schema fixture`,
		Commands: []*cli.Command{
			validateCommand(),
			levelsCommand(),
			schemaCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
