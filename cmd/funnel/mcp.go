package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/funnel/internal/cli"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve sessions as Model Context Protocol tools",
	Long: `Starts an MCP server so agents can list funnels, start sessions, submit pages and go back.
Uses stdio by default; --transport=sse listens on --addr instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		return cli.ServeMCP(cmd.Context(), optionsFrom(cmd), transport, addr)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", cli.TransportStdio, "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on with --transport=sse")
	mcpCmd.Flags().StringSlice("pii", nil, "Regular expressions of block ids and variables masked before saving")
}
