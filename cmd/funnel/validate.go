package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/funnel/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check definitions for schema and rule errors",
	Long: `Validates every definition file under path (default --dir) against the JSON Schema,
then checks rules for unknown pages, blocks and variables and for type mismatches.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("dir")
		if len(args) > 0 {
			path = args[0]
		}
		strict, _ := cmd.Flags().GetBool("strict")
		return cli.Validate(path, strict, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Fail on warnings too")
}
