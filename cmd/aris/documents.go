// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kryptobaseddev/aris/internal/store"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List stored research documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, _ := cmd.Flags().GetStringSlice("topic")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := st.ListDocumentsByTopic(cmd.Context(), topics)
		if err != nil {
			return err
		}

		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(docs)
		}
		if len(docs) == 0 {
			fmt.Println("No documents found.")
			return nil
		}
		for _, d := range docs {
			fmt.Printf("%s  [%s]  confidence %.2f  updated %s\n",
				d.ID, strings.Join(d.Topics, ", "), d.Confidence, d.LastUpdated.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit [document-id]",
	Short: "Show a document's resolution history",
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

		trail, err := st.AuditTrail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(trail) == 0 {
			fmt.Printf("No resolution history for %s.\n", args[0])
			return nil
		}
		for i, action := range trail {
			fmt.Printf("%d. %s\n", i+1, action)
		}
		return nil
	},
}

func init() {
	documentsCmd.Flags().StringSlice("topic", nil, "filter by topic tag (repeatable)")
	documentsCmd.Flags().Bool("json", false, "output documents as JSON")
	documentsCmd.AddCommand(auditCmd)

	rootCmd.AddCommand(documentsCmd)
}
