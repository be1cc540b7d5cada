package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/funnel/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session API over HTTP",
	Long: `Exposes sessions as a JSON API: start, submit, back and a server-sent event stream
of state diffs. Prometheus metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return cli.Serve(cmd.Context(), optionsFrom(cmd), addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("strict", false, "Treat definition warnings as errors")
	serveCmd.Flags().String("events-out", "", "Append analytics events and answers to this file as JSON lines")
	serveCmd.Flags().StringSlice("pii", nil, "Regular expressions of block ids and variables masked before saving")
}
