package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/schemas"
)

func levelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "levels",
		Usage: "List the Puppet compliance levels in ascending order",
		Action: func(_ context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			for _, l := range compliance.All() {
				marker := ""
				if l == compliance.Default {
					marker = " (default)"
				}
				if _, err := fmt.Fprintf(w, "%s\t%s%s\n", l, l.Name(), marker); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print the JSON Schema of an evaluator document",
		ArgsUsage: "[" + strings.Join(schemas.Names(), "|") + "]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				name = "fixture"
			}
			id, ok := schemas.SchemaIDByName(name)
			if !ok {
				fmt.Fprintf(os.Stderr, "Error: unknown schema %q (valid: %s)\n", name, strings.Join(schemas.Names(), ", "))
				return cli.Exit("", ExitConfigError)
			}
			data, err := schemas.ReadSchemaByID(id)
			if err != nil {
				return fmt.Errorf("read schema %s: %w", name, err)
			}
			_, err = cmd.Root().Writer.Write(data)
			return err
		},
	}
}
