package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	serve := newServeCommand()
	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Session-bound JWT authentication API",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand starts the server.
		RunE: serve.RunE,
	}
	cmd.AddCommand(serve, newMigrateCommand(), newCreateSuperuserCommand())
	return cmd
}
