package server

import (
	"github.com/spf13/cobra"
)

const cliExecutable = "server"

// NewCommand returns the 'stackscan server' command group.
func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     cliExecutable,
		Short:   "Run the detection HTTP API",
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	command.SuggestionsMinimumDistance = 1

	// Subcommands
	command.AddCommand(newStartServerCommand())

	return command
}
