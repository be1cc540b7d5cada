package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/funnel"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of funnel",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("funnel version %s\n", strings.TrimSpace(funnel.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
