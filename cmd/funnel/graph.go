package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/funnel/internal/cli"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the funnel as a Mermaid flowchart",
	Long: `Outputs a Mermaid diagram (graph TD) of the pages and the rules between them.
With --session, the visited, current and hidden pages of that session are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Graph(cmd.Context(), optionsFrom(cmd), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addFunnelFlags(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the progress of this session")
}
