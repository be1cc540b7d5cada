package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/funnel/internal/cli"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "List, inspect and remove stored funnel sessions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "Print the IDs of stored sessions",
			Args:    cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return cli.ListSessions(c.Context(), optionsFrom(c), c.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "inspect SESSION",
			Short: "Print a session's answers, variables and visited pages as YAML",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return cli.InspectSession(c.Context(), optionsFrom(c), args[0], c.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:     "rm SESSION...",
			Aliases: []string{"delete"},
			Short:   "Delete sessions; unknown IDs are ignored",
			Args:    cobra.MinimumNArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return cli.RemoveSessions(c.Context(), optionsFrom(c), args, c.OutOrStdout())
			},
		},
	)
	return cmd
}

func init() {
	rootCmd.AddCommand(newSessionCmd())
}
