// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kryptobaseddev/aris/internal/store"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect past research sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		summaries, err := st.ListSummaries(cmd.Context())
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}
		for _, s := range summaries {
			fmt.Printf("%s  %-16s  $%.4f  %q\n", s.SessionID, s.Status, s.TotalCost, s.Query)
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show one session's full summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		summary, err := st.GetSummary(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

var sessionExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all session summaries to sessions.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ExportYAML(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Exported", filepath.Join(cfg.Store.Dir, "sessions.yaml"))
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionExportCmd)

	rootCmd.AddCommand(sessionCmd)
}
