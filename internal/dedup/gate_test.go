// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryptobaseddev/aris/internal/similarity"
	"github.com/kryptobaseddev/aris/pkg/types"
)

// stubScorer returns a canned overall score per document id.
type stubScorer struct {
	scores map[string]float64
}

func (s *stubScorer) Score(_ types.CandidateDocument, existing types.ExistingDocument) types.ScoreBreakdown {
	overall := s.scores[existing.ID]
	return types.ScoreBreakdown{Overall: overall, ContentSimilarity: overall}
}

func docs(ids ...string) []types.ExistingDocument {
	out := make([]types.ExistingDocument, len(ids))
	for i, id := range ids {
		out[i] = types.ExistingDocument{ID: id, Topics: []string{"ai"}}
	}
	return out
}

func candidate() types.CandidateDocument {
	return types.CandidateDocument{Content: "findings", Topics: []string{"ai"}}
}

func TestEmptyExistingSetCreatesWithFullConfidence(t *testing.T) {
	g := NewGate(&stubScorer{}, types.DedupConfig{})

	res := g.CheckBeforeWrite(candidate(), nil, "query")

	assert.Equal(t, types.ActionCreate, res.Action)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
	assert.Empty(t, res.TargetID)
}

func TestThresholdDecisions(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		wantAction types.DedupAction
		wantTarget bool
	}{
		{"well above update", 0.95, types.ActionUpdate, true},
		{"exactly update threshold", 0.85, types.ActionUpdate, true},
		{"just below update", 0.849, types.ActionMerge, true},
		{"exactly merge threshold", 0.70, types.ActionMerge, true},
		{"just below merge", 0.699, types.ActionCreate, false},
		{"far below", 0.10, types.ActionCreate, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(&stubScorer{scores: map[string]float64{"d1": tt.score}}, types.DedupConfig{})

			res := g.CheckBeforeWrite(candidate(), docs("d1"), "")

			assert.Equal(t, tt.wantAction, res.Action)
			assert.InDelta(t, tt.score, res.Similarity, 1e-9)
			if tt.wantTarget {
				assert.Equal(t, "d1", res.TargetID)
				assert.InDelta(t, tt.score, res.Confidence, 1e-9)
			} else {
				assert.Empty(t, res.TargetID)
			}
		})
	}
}

func TestCreateConfidenceIsInverseOfScore(t *testing.T) {
	g := NewGate(&stubScorer{scores: map[string]float64{"d1": 0.30}}, types.DedupConfig{})

	res := g.CheckBeforeWrite(candidate(), docs("d1"), "")

	require.Equal(t, types.ActionCreate, res.Action)
	assert.InDelta(t, 0.70, res.Confidence, 1e-9)
}

func TestCreateConfidenceCappedAtBestMatchGap(t *testing.T) {
	// Two documents close together below the merge threshold: create
	// confidence shrinks to the gap between best and runner-up.
	g := NewGate(&stubScorer{scores: map[string]float64{"d1": 0.60, "d2": 0.50}}, types.DedupConfig{})

	res := g.CheckBeforeWrite(candidate(), docs("d1", "d2"), "")

	require.Equal(t, types.ActionCreate, res.Action)
	assert.InDelta(t, 0.10, res.Confidence, 1e-9)
}

func TestBestMatchWins(t *testing.T) {
	g := NewGate(&stubScorer{scores: map[string]float64{
		"low": 0.40, "mid": 0.75, "high": 0.90,
	}}, types.DedupConfig{})

	res := g.CheckBeforeWrite(candidate(), docs("low", "mid", "high"), "")

	assert.Equal(t, types.ActionUpdate, res.Action)
	assert.Equal(t, "high", res.TargetID)
}

func TestTieBrokenByMostRecentlyUpdated(t *testing.T) {
	g := NewGate(&stubScorer{scores: map[string]float64{"older": 0.881, "newer": 0.875}}, types.DedupConfig{})

	existing := docs("older", "newer")
	existing[0].LastUpdated = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	existing[1].LastUpdated = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	res := g.CheckBeforeWrite(candidate(), existing, "")

	// Scores within 0.01 tie; the fresher document is the target.
	assert.Equal(t, types.ActionUpdate, res.Action)
	assert.Equal(t, "newer", res.TargetID)
}

func TestNoTieBreakOutsideMargin(t *testing.T) {
	g := NewGate(&stubScorer{scores: map[string]float64{"older": 0.90, "newer": 0.86}}, types.DedupConfig{})

	existing := docs("older", "newer")
	existing[1].LastUpdated = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	res := g.CheckBeforeWrite(candidate(), existing, "")
	assert.Equal(t, "older", res.TargetID)
}

func TestTopicPrefilterExcludesUnrelatedDocuments(t *testing.T) {
	// The unrelated document would score highest but shares no topic,
	// so it never enters the pool.
	g := NewGate(&stubScorer{scores: map[string]float64{"related": 0.72, "unrelated": 0.99}}, types.DedupConfig{})

	existing := []types.ExistingDocument{
		{ID: "related", Topics: []string{"ai", "ml"}},
		{ID: "unrelated", Topics: []string{"cooking"}},
	}

	res := g.CheckBeforeWrite(candidate(), existing, "")

	assert.Equal(t, types.ActionMerge, res.Action)
	assert.Equal(t, "related", res.TargetID)
}

func TestNoTopicOverlapAnywhereCreates(t *testing.T) {
	g := NewGate(&stubScorer{scores: map[string]float64{"d1": 0.99}}, types.DedupConfig{})

	existing := []types.ExistingDocument{{ID: "d1", Topics: []string{"cooking"}}}

	res := g.CheckBeforeWrite(candidate(), existing, "")
	assert.Equal(t, types.ActionCreate, res.Action)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
}

func TestEndToEndLexicalUpdate(t *testing.T) {
	// High lexical overlap on a shared topic resolves to update
	// against the stored document.
	scorer := similarity.NewLexicalScorer(types.SimilarityWeights{})
	g := NewGate(scorer, types.DedupConfig{})

	existing := []types.ExistingDocument{{
		ID:         "doc-ai",
		Content:    "large language models improve reasoning through chain of thought prompting and scale while alignment remains an open research problem for the field",
		Topics:     []string{"ai"},
		Confidence: 0.9,
	}}
	cand := types.CandidateDocument{
		Content: "large language models improve reasoning through chain of thought prompting and scale while alignment remains an open research problem today",
		Topics:  []string{"ai"},
	}

	res := g.CheckBeforeWrite(cand, existing, "language models reasoning alignment")

	assert.GreaterOrEqual(t, res.Similarity, 0.85)
	assert.Equal(t, types.ActionUpdate, res.Action)
	assert.Equal(t, "doc-ai", res.TargetID)
}

func TestQueryArgumentOverridesCandidateQuery(t *testing.T) {
	scorer := similarity.NewLexicalScorer(types.SimilarityWeights{})
	g := NewGate(scorer, types.DedupConfig{})

	existing := []types.ExistingDocument{{
		ID:      "d1",
		Content: "graph databases store relationships natively",
		Topics:  []string{"databases"},
	}}
	cand := types.CandidateDocument{
		Content: "graph databases store relationships natively",
		Topics:  []string{"databases"},
		Query:   "unrelated stale question",
	}

	withQuery := g.CheckBeforeWrite(cand, existing, "graph databases relationships")
	stale := g.CheckBeforeWrite(cand, existing, "")

	assert.Greater(t, withQuery.Breakdown.QuestionOverlap, stale.Breakdown.QuestionOverlap)
}
