package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bashhack/periodic-commit/internal/config"
	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
)

// NewRootCommand creates the periodic-commit command bound to app's config.
func NewRootCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periodic-commit [flags] <period>",
		Short: "Periodically commit staged changes with model-written messages",
		Long: `periodic-commit waits <period> seconds, stages every change in the repository,
asks a local Ollama model to summarize the staged diff, and commits it with the
ticket ID from the current branch name as a prefix:

  [INSTA-123] Add password reset feature via email

It repeats until interrupted. Any git or model failure stops it.

` + config.EnvironmentHelp(),
		Example: `  periodic-commit 300
  periodic-commit --prefix-regex '(PROJ-\d+)' --model-name mistral 120
  periodic-commit --once 1`,
		Args: cobra.MaximumNArgs(1),
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Load(cmd.Flags(), args); err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}

	app.Config.SetupFlags(cmd.Flags())
	cmd.Flags().SortFlags = false
	cmd.SetOut(app.Stdout)
	cmd.SetErr(app.Stderr)

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		_, _ = fmt.Fprintf(c.ErrOrStderr(), "Run '%s --help' for usage.\n", c.CommandPath())
		return pcErrors.NewConfigError("flags", nil, pcErrors.Wrap(pcErrors.ErrInvalidFlag, err.Error()))
	})

	return cmd
}

// execute parses args and runs the application.
func execute(ctx context.Context, app *App, args []string) error {
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
