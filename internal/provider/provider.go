// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider defines the external collaborator contracts the
// orchestrator depends on: search, reasoning, embedding, and document
// storage. Implementations live behind these interfaces so the core
// never sees a wire protocol.
package provider

import (
	"context"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// SearchResult is one hit from the search provider.
type SearchResult struct {
	Title   string  `json:"title" yaml:"title"`
	URL     string  `json:"url" yaml:"url"`
	Snippet string  `json:"snippet" yaml:"snippet"`
	Score   float64 `json:"score" yaml:"score"`
}

// SearchProvider issues search and extraction calls. Each Search or
// Extract call consumes one unit of search cost.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
	Extract(ctx context.Context, url string) (string, error)
}

// HopPlan is the reasoning provider's plan for one hop: what to search
// for and which hypothesis the hop should test. TokensUsed feeds the
// cost ledger.
type HopPlan struct {
	Query      string `json:"query" yaml:"query"`
	Hypothesis string `json:"hypothesis" yaml:"hypothesis"`
	TokensUsed int    `json:"tokens_used" yaml:"tokens_used"`
}

// HypothesisResult is the reasoning provider's verdict on a hop's
// hypothesis given the gathered evidence.
type HypothesisResult struct {
	Findings   string        `json:"findings" yaml:"findings"`
	Claims     []types.Claim `json:"claims,omitempty" yaml:"claims,omitempty"`
	Confidence float64       `json:"confidence" yaml:"confidence"`
	TokensUsed int           `json:"tokens_used" yaml:"tokens_used"`
}

// ReasoningProvider plans hops and evaluates hypotheses. Reported token
// counts feed reasoning cost.
type ReasoningProvider interface {
	PlanHop(ctx context.Context, query string, priorFindings []string) (HopPlan, error)
	TestHypothesis(ctx context.Context, hypothesis string, evidence []SearchResult) (HypothesisResult, error)
}

// Embedder is the optional embedding capability. When absent the
// similarity scorer runs in lexical mode.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Storage is the document persistence collaborator. The orchestrator
// calls ListDocumentsByTopic before the deduplication gate runs and
// Persist after resolving.
type Storage interface {
	ListDocumentsByTopic(ctx context.Context, tags []string) ([]types.ExistingDocument, error)
	Persist(ctx context.Context, action types.DedupAction, targetID, content string, meta types.DocumentMeta) (string, error)
}
