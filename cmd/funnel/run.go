package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/funnel/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Fill in a funnel interactively",
	Long: `Starts a new session, or resumes the one given with --session, and drives it on the terminal.
With --json, the session reads and writes newline-delimited JSON instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := optionsFrom(cmd)
		if !cmd.Flags().Changed("dir") && len(args) > 0 {
			opts.Dir = args[0]
		}
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")

		return cli.Run(cmd.Context(), opts, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	addFunnelFlags(runCmd)
	flags.String("session", "", "Session id to start or resume (generated when empty)")
	flags.Bool("fresh", false, "Discard any stored progress of --session first")
	flags.Bool("json", false, "Read and write newline-delimited JSON")
	flags.Bool("strict", false, "Treat definition warnings as errors")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flags.String("events-out", "", "Append analytics events and answers to this file as JSON lines")
	flags.StringSlice("pii", nil, "Regular expressions of block ids and variables masked before saving")
}

// addFunnelFlags registers the flags selecting which definition to use.
func addFunnelFlags(cmd *cobra.Command) {
	cmd.Flags().String("funnel", "", "Funnel id (optional when the directory holds a single funnel)")
	cmd.Flags().String("version", "", "Definition version: published (default) or draft")
}
