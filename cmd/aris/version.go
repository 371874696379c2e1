package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of aris",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aris %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
