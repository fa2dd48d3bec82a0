package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for apitrail.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apitrail",
		Short: "Discover the link structure of REST APIs",
		Long: `apitrail crawls a REST API breadth-first starting from a seed URL,
following HAL _links, JSON:API links, and plain href/url references found
in JSON responses. It produces a machine-readable map of every endpoint it
discovered, as a flat list, grouped by parent, or as a nested tree.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
