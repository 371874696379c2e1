// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DedupAction is the deduplication gate's decision for a candidate
// document.
type DedupAction string

const (
	ActionCreate DedupAction = "create"
	ActionUpdate DedupAction = "update"
	ActionMerge  DedupAction = "merge"
)

// ScoreBreakdown holds the per-component similarity scores alongside
// the weighted overall score. All values are in [0, 1].
type ScoreBreakdown struct {
	Overall           float64 `json:"overall" yaml:"overall"`
	TopicOverlap      float64 `json:"topic_overlap" yaml:"topic_overlap"`
	ContentSimilarity float64 `json:"content_similarity" yaml:"content_similarity"`
	QuestionOverlap   float64 `json:"question_overlap" yaml:"question_overlap"`
}

// DeduplicationResult is the gate's decision. TargetID is set exactly
// when Action is update or merge; create never carries a target.
type DeduplicationResult struct {
	Action     DedupAction    `json:"action" yaml:"action"`
	Confidence float64        `json:"confidence" yaml:"confidence"`
	TargetID   string         `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Similarity float64        `json:"similarity" yaml:"similarity"`
	Breakdown  ScoreBreakdown `json:"breakdown" yaml:"breakdown"`
}
