// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// breakerDependencies are the external dependencies each session guards
// with its own circuit breaker.
var breakerDependencies = []string{"search", "reasoning", "embedding"}

var breakersCmd = &cobra.Command{
	Use:   "breakers",
	Short: "Show circuit breaker configuration",
	Long: `Breakers shows the per-dependency circuit breaker thresholds in effect.
Breakers live in the research process and start closed; this command reports
the configuration they will run with.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}

		fmt.Printf("%-12s %-18s %-18s %s\n", "DEPENDENCY", "FAILURE THRESHOLD", "SUCCESS THRESHOLD", "OPEN TIMEOUT")
		for _, dep := range breakerDependencies {
			fmt.Printf("%-12s %-18d %-18d %s\n",
				dep, cfg.Breaker.FailureThreshold, cfg.Breaker.SuccessThreshold, cfg.Breaker.Timeout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(breakersCmd)
}
