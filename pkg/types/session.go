// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the value types shared across the research
// orchestration components: sessions and hops, candidate and stored
// documents, deduplication and merge results, cost accounting, and
// circuit breaker status.
package types

import "time"

// Depth selects how much effort a research session spends: each depth
// implies a default budget limit and maximum hop count.
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// SessionStatus tracks a session through its state machine.
type SessionStatus string

const (
	StatusPlanning        SessionStatus = "planning"
	StatusResearching     SessionStatus = "researching"
	StatusSynthesizing    SessionStatus = "synthesizing"
	StatusResolving       SessionStatus = "resolving"
	StatusComplete        SessionStatus = "complete"
	StatusFailed          SessionStatus = "failed"
	StatusBudgetExhausted SessionStatus = "budget_exhausted"
)

// Terminal reports whether the status admits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusBudgetExhausted
}

// Claim is a single extracted finding: a statement about a subject with
// its supporting sources.
type Claim struct {
	Subject    string   `json:"subject" yaml:"subject"`
	Statement  string   `json:"statement" yaml:"statement"`
	Sources    []string `json:"sources,omitempty" yaml:"sources,omitempty"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
}

// Hop is one iteration of the research loop. Hops are append-only:
// once recorded on a session they are never mutated.
type Hop struct {
	Number      int     `json:"number" yaml:"number"`
	SearchCount int     `json:"search_count" yaml:"search_count"`
	TokenCount  int     `json:"token_count" yaml:"token_count"`
	Cost        float64 `json:"cost" yaml:"cost"`

	// Findings is the free-text summary produced by the hop's reasoning
	// call; Claims are the structured findings extracted alongside it.
	Findings   string  `json:"findings,omitempty" yaml:"findings,omitempty"`
	Claims     []Claim `json:"claims,omitempty" yaml:"claims,omitempty"`
	Confidence float64 `json:"confidence" yaml:"confidence"`

	Failed        bool   `json:"failed,omitempty" yaml:"failed,omitempty"`
	FailureReason string `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
}

// Session is one research request's lifecycle. It is owned exclusively
// by the orchestrator and becomes immutable once Status is terminal.
type Session struct {
	ID          string        `json:"id" yaml:"id"`
	Query       string        `json:"query" yaml:"query"`
	Depth       Depth         `json:"depth" yaml:"depth"`
	BudgetLimit float64       `json:"budget_limit" yaml:"budget_limit"`
	TotalCost   float64       `json:"total_cost" yaml:"total_cost"`
	Hops        []Hop         `json:"hops" yaml:"hops"`
	Status      SessionStatus `json:"status" yaml:"status"`
	Warnings    []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Resolution fields are set when the session reaches RESOLVING.
	Resolution DedupAction `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	DocumentID string      `json:"document_id,omitempty" yaml:"document_id,omitempty"`

	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// HopCost is the per-hop entry in a session summary.
type HopCost struct {
	Number        int     `json:"number" yaml:"number"`
	SearchCost    float64 `json:"search_cost" yaml:"search_cost"`
	ReasoningCost float64 `json:"reasoning_cost" yaml:"reasoning_cost"`
	Total         float64 `json:"total" yaml:"total"`
	Failed        bool    `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// SessionSummary is the stable export record consumed by external
// reporting tooling. Field names and tags must not change without a
// coordinated consumer update.
type SessionSummary struct {
	SessionID   string        `json:"session_id" yaml:"session_id"`
	Query       string        `json:"query" yaml:"query"`
	Depth       Depth         `json:"depth" yaml:"depth"`
	Status      SessionStatus `json:"status" yaml:"status"`
	TotalCost   float64       `json:"total_cost" yaml:"total_cost"`
	BudgetLimit float64       `json:"budget_limit" yaml:"budget_limit"`
	Hops        []HopCost     `json:"hops" yaml:"hops"`
	Alerts      []BudgetAlert `json:"alerts,omitempty" yaml:"alerts,omitempty"`
	Resolution  DedupAction   `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	DocumentID  string        `json:"document_id,omitempty" yaml:"document_id,omitempty"`
}
