// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kryptobaseddev/aris/internal/breaker"
	"github.com/kryptobaseddev/aris/internal/provider"
	"github.com/kryptobaseddev/aris/internal/session"
	"github.com/kryptobaseddev/aris/internal/store"
	"github.com/kryptobaseddev/aris/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [query...]",
	Short: "Run a research session for a query",
	Long: `Research runs one session: it plans search hops against OpenAlex, tests
hypotheses through the Claude API, tracks spend against the depth's budget,
and resolves the synthesized findings into the document store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		depth, _ := cmd.Flags().GetString("depth")
		budget, _ := cmd.Flags().GetFloat64("budget")
		strategy, _ := cmd.Flags().GetString("strategy")
		model, _ := cmd.Flags().GetString("model")
		apiKey, _ := cmd.Flags().GetString("api-key")
		asJSON, _ := cmd.Flags().GetBool("json")

		key := loadedSecrets.Get("anthropic-api-key", apiKey)
		if key == "" {
			return fmt.Errorf("no Anthropic API key: set --api-key, .secrets/anthropic-api-key, or ARIS_SECRET_ANTHROPIC_API_KEY")
		}

		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}

		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		orch := session.New(cfg, session.Deps{
			Search: provider.NewOpenAlex(cfg.Search),
			Reasoning: &provider.ClaudeReasoner{
				APIKey: key,
				Model:  model,
				Client: &http.Client{Timeout: cfg.Search.Timeout},
			},
			Storage:          st,
			Sink:             st,
			SearchBreaker:    breaker.New("search", cfg.Breaker),
			ReasoningBreaker: breaker.New("reasoning", cfg.Breaker),
			Logger:           logger,
		})

		sess, err := orch.Run(cmd.Context(), session.Request{
			Query:       query,
			Depth:       types.Depth(depth),
			BudgetLimit: budget,
			Strategy:    types.MergeStrategy(strategy),
		})
		if err != nil {
			return err
		}

		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(orch.Summary(sess))
		}
		printSession(sess)
		if sess.Status != types.StatusComplete {
			return fmt.Errorf("session ended %s", sess.Status)
		}
		return nil
	},
}

func printSession(sess *types.Session) {
	fmt.Printf("Session %s (%s)\n", sess.ID, sess.Depth)
	fmt.Printf("  Status:  %s\n", sess.Status)
	fmt.Printf("  Spend:   $%.4f of $%.2f\n", sess.TotalCost, sess.BudgetLimit)
	for _, h := range sess.Hops {
		if h.Failed {
			fmt.Printf("  Hop %d:   failed: %s\n", h.Number, h.FailureReason)
			continue
		}
		fmt.Printf("  Hop %d:   $%.4f, confidence %.2f\n", h.Number, h.Cost, h.Confidence)
	}
	if sess.Resolution != "" {
		fmt.Printf("  Result:  %s -> %s\n", sess.Resolution, sess.DocumentID)
	}
	for _, w := range sess.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
}

func init() {
	researchCmd.Flags().String("depth", "standard", "research depth: quick, standard, or deep")
	researchCmd.Flags().Float64("budget", 0, "budget limit in dollars (default: the depth's budget)")
	researchCmd.Flags().String("strategy", "", "merge strategy when findings fold into an existing document: append, integrate, or replace")
	researchCmd.Flags().String("model", "claude-sonnet-4-5", "Claude model for hop planning and hypothesis testing")
	researchCmd.Flags().String("api-key", "", "Anthropic API key (overrides stored secrets)")
	researchCmd.Flags().Bool("json", false, "print the session summary as JSON")

	rootCmd.AddCommand(researchCmd)
}
