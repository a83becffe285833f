package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "callrouter",
		Short:        "Caller identity and territory routing for the voice agent",
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newTownCmd())
	return cmd
}
