// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. It must stay shorter than
	// the breaker's open-state timeout so a hung call cannot outlive
	// the breaker's bookkeeping window.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "aris/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BreakerConfig holds per-dependency circuit breaker thresholds.
// Independent dependencies get independent breaker instances, each
// with its own copy of these settings.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker (default 5).
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`

	// SuccessThreshold is the consecutive-success count that closes a
	// half-open breaker (default 2).
	SuccessThreshold int `json:"success_threshold" yaml:"success_threshold"`

	// Timeout is how long an open breaker waits before admitting a
	// half-open probe (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Normalize applies defaults to unset fields.
func (c *BreakerConfig) Normalize() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// CostConfig holds the linear pricing model for paid operations.
type CostConfig struct {
	// PerSearchRate is the dollar cost of one search operation
	// (default $0.01).
	PerSearchRate float64 `json:"per_search_rate" yaml:"per_search_rate"`

	// PerThousandTokenRate is the dollar cost of 1000 reasoning tokens
	// (default $0.015).
	PerThousandTokenRate float64 `json:"per_thousand_token_rate" yaml:"per_thousand_token_rate"`
}

// Normalize applies defaults to unset fields.
func (c *CostConfig) Normalize() {
	if c.PerSearchRate <= 0 {
		c.PerSearchRate = 0.01
	}
	if c.PerThousandTokenRate <= 0 {
		c.PerThousandTokenRate = 0.015
	}
}

// SimilarityMode selects the scoring strategy.
type SimilarityMode string

const (
	ModeEmbedding SimilarityMode = "embedding"
	ModeLexical   SimilarityMode = "lexical"
)

// SimilarityWeights holds the blend weights for one scoring strategy.
// Weights should sum to 1.0; Normalize rescales them if they do not.
type SimilarityWeights struct {
	Content  float64 `json:"content" yaml:"content"`
	Topic    float64 `json:"topic" yaml:"topic"`
	Question float64 `json:"question" yaml:"question"`
}

// Normalize rescales the weights to sum to 1.0, substituting the given
// defaults when all weights are zero.
func (w *SimilarityWeights) Normalize(def SimilarityWeights) {
	sum := w.Content + w.Topic + w.Question
	if sum <= 0 {
		*w = def
		return
	}
	w.Content /= sum
	w.Topic /= sum
	w.Question /= sum
}

// SimilarityConfig holds the per-strategy score weights. The two
// strategies deliberately carry different blends: embedding vectors are
// a stronger content signal than term overlap, so embedding mode leans
// harder on content similarity.
type SimilarityConfig struct {
	Embedding SimilarityWeights `json:"embedding" yaml:"embedding"`
	Lexical   SimilarityWeights `json:"lexical" yaml:"lexical"`
}

// Normalize applies the default 60/30/10 embedding and 40/40/20
// lexical blends to unset strategies.
func (c *SimilarityConfig) Normalize() {
	c.Embedding.Normalize(SimilarityWeights{Content: 0.6, Topic: 0.3, Question: 0.1})
	c.Lexical.Normalize(SimilarityWeights{Content: 0.4, Topic: 0.4, Question: 0.2})
}

// DedupConfig holds the gate's decision thresholds.
type DedupConfig struct {
	// UpdateThreshold is the similarity at or above which the gate
	// chooses update (default 0.85).
	UpdateThreshold float64 `json:"update_threshold" yaml:"update_threshold"`

	// MergeThreshold is the similarity at or above which the gate
	// chooses merge (default 0.70). Below it the gate chooses create.
	MergeThreshold float64 `json:"merge_threshold" yaml:"merge_threshold"`

	// TieMargin is the score window within which candidates tie and the
	// most recently updated document wins (default 0.01).
	TieMargin float64 `json:"tie_margin" yaml:"tie_margin"`
}

// Normalize applies defaults to unset fields.
func (c *DedupConfig) Normalize() {
	if c.UpdateThreshold <= 0 {
		c.UpdateThreshold = 0.85
	}
	if c.MergeThreshold <= 0 {
		c.MergeThreshold = 0.70
	}
	if c.TieMargin <= 0 {
		c.TieMargin = 0.01
	}
}

// MergeConfig holds the merger's conflict-detection thresholds.
type MergeConfig struct {
	// ConfidenceDelta flags a metadata conflict when confidence values
	// differ by more than this fraction (default 0.15).
	ConfidenceDelta float64 `json:"confidence_delta" yaml:"confidence_delta"`

	// TopicOverlapFloor flags a metadata conflict when topic/purpose
	// overlap falls below this fraction (default 0.50).
	TopicOverlapFloor float64 `json:"topic_overlap_floor" yaml:"topic_overlap_floor"`

	// StructuralDivergence flags a structural conflict when topic sets
	// diverge beyond this Jaccard distance (default 0.75).
	StructuralDivergence float64 `json:"structural_divergence" yaml:"structural_divergence"`

	// ConfidenceGap flags a confidence conflict when new content's
	// confidence is more than this far below existing (default 0.20).
	ConfidenceGap float64 `json:"confidence_gap" yaml:"confidence_gap"`
}

// Normalize applies defaults to unset fields.
func (c *MergeConfig) Normalize() {
	if c.ConfidenceDelta <= 0 {
		c.ConfidenceDelta = 0.15
	}
	if c.TopicOverlapFloor <= 0 {
		c.TopicOverlapFloor = 0.50
	}
	if c.StructuralDivergence <= 0 {
		c.StructuralDivergence = 0.75
	}
	if c.ConfidenceGap <= 0 {
		c.ConfidenceGap = 0.20
	}
}

// DepthProfile is the default budget and hop ceiling one Depth implies.
type DepthProfile struct {
	Budget  float64 `json:"budget" yaml:"budget"`
	MaxHops int     `json:"max_hops" yaml:"max_hops"`
}

// SessionConfig holds orchestrator settings.
type SessionConfig struct {
	Quick    DepthProfile `json:"quick" yaml:"quick"`
	Standard DepthProfile `json:"standard" yaml:"standard"`
	Deep     DepthProfile `json:"deep" yaml:"deep"`

	// RetryBudget is the number of consecutive failed hops tolerated
	// before the session fails (default 2).
	RetryBudget int `json:"retry_budget" yaml:"retry_budget"`

	// PlateauDelta is the minimum confidence improvement a hop must
	// deliver to count as progress (default 0.05).
	PlateauDelta float64 `json:"plateau_delta" yaml:"plateau_delta"`

	// PlateauHops is how many consecutive non-improving hops end the
	// research loop early (default 2).
	PlateauHops int `json:"plateau_hops" yaml:"plateau_hops"`

	// TargetConfidence ends the loop early once reached (default 0.9).
	TargetConfidence float64 `json:"target_confidence" yaml:"target_confidence"`

	// MaxConcurrent bounds how many sessions the runner executes in
	// parallel (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// SearchesPerHop is how many search calls each hop issues
	// (default 3).
	SearchesPerHop int `json:"searches_per_hop" yaml:"searches_per_hop"`
}

// Normalize applies defaults to unset fields.
func (c *SessionConfig) Normalize() {
	if c.Quick.Budget <= 0 {
		c.Quick = DepthProfile{Budget: 0.25, MaxHops: 2}
	}
	if c.Standard.Budget <= 0 {
		c.Standard = DepthProfile{Budget: 1.00, MaxHops: 4}
	}
	if c.Deep.Budget <= 0 {
		c.Deep = DepthProfile{Budget: 3.00, MaxHops: 8}
	}
	if c.RetryBudget <= 0 {
		c.RetryBudget = 2
	}
	if c.PlateauDelta <= 0 {
		c.PlateauDelta = 0.05
	}
	if c.PlateauHops <= 0 {
		c.PlateauHops = 2
	}
	if c.TargetConfidence <= 0 {
		c.TargetConfidence = 0.9
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.SearchesPerHop <= 0 {
		c.SearchesPerHop = 3
	}
}

// Profile returns the depth's default budget and hop ceiling.
func (c SessionConfig) Profile(d Depth) DepthProfile {
	switch d {
	case DepthQuick:
		return c.Quick
	case DepthDeep:
		return c.Deep
	default:
		return c.Standard
	}
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	// Dir is the base directory for the store (contains research.db
	// and exported summaries).
	Dir string `json:"dir" yaml:"dir"`
}

// Normalize applies defaults to unset fields.
func (c *StoreConfig) Normalize() {
	if c.Dir == "" {
		c.Dir = "knowledge"
	}
}

// SearchProviderConfig holds settings for the concrete search provider.
type SearchProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the per-search result cap (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Email is sent as the mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Normalize applies defaults to unset fields.
func (c *SearchProviderConfig) Normalize() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "aris/0.1"
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 10
	}
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	Breaker    BreakerConfig        `json:"breaker" yaml:"breaker"`
	Cost       CostConfig           `json:"cost" yaml:"cost"`
	Similarity SimilarityConfig     `json:"similarity" yaml:"similarity"`
	Dedup      DedupConfig          `json:"dedup" yaml:"dedup"`
	Merge      MergeConfig          `json:"merge" yaml:"merge"`
	Session    SessionConfig        `json:"session" yaml:"session"`
	Store      StoreConfig          `json:"store" yaml:"store"`
	Search     SearchProviderConfig `json:"search" yaml:"search"`
}

// Normalize applies defaults to every section.
func (c *EngineConfig) Normalize() {
	c.Breaker.Normalize()
	c.Cost.Normalize()
	c.Similarity.Normalize()
	c.Dedup.Normalize()
	c.Merge.Normalize()
	c.Session.Normalize()
	c.Store.Normalize()
	c.Search.Normalize()
}
