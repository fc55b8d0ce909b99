// Package commands implements the poller CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Exposed for tests.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "poller",
		Short:         "Mountain weather, air quality and vigilance poller",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCmd(), resolveCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
