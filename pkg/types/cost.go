// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CostBreakdown is the per-service cost of a single hop. Values are in
// dollars, rounded to four decimal places for reproducibility.
type CostBreakdown struct {
	SessionID     string  `json:"session_id" yaml:"session_id"`
	HopNumber     int     `json:"hop_number" yaml:"hop_number"`
	SearchCost    float64 `json:"search_cost" yaml:"search_cost"`
	ReasoningCost float64 `json:"reasoning_cost" yaml:"reasoning_cost"`
	Total         float64 `json:"total" yaml:"total"`
}

// BudgetAlert is emitted the first time a session's running total
// crosses one of the 75/90/100 percent thresholds. Each threshold
// fires at most once per session.
type BudgetAlert struct {
	Threshold int     `json:"threshold" yaml:"threshold"`
	Message   string  `json:"message" yaml:"message"`
	Current   float64 `json:"current" yaml:"current"`
	Limit     float64 `json:"limit" yaml:"limit"`
}
