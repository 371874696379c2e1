// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import "github.com/kryptobaseddev/aris/pkg/types"

// LexicalScorer blends term-frequency content overlap, topic-tag
// Jaccard, and question coverage. Used when no embedding index is
// available.
type LexicalScorer struct {
	weights types.SimilarityWeights
}

// NewLexicalScorer returns a scorer with the given blend weights.
func NewLexicalScorer(weights types.SimilarityWeights) *LexicalScorer {
	weights.Normalize(types.SimilarityWeights{Content: 0.4, Topic: 0.4, Question: 0.2})
	return &LexicalScorer{weights: weights}
}

// Score computes the weighted lexical similarity breakdown.
func (s *LexicalScorer) Score(candidate types.CandidateDocument, existing types.ExistingDocument) types.ScoreBreakdown {
	bd := types.ScoreBreakdown{
		ContentSimilarity: tfCosine(
			termFreq(tokenize(candidate.Content)),
			termFreq(tokenize(existing.Content)),
		),
		TopicOverlap:    jaccard(candidate.Topics, existing.Topics),
		QuestionOverlap: questionOverlap(candidate.Query, existing),
	}
	bd.Overall = clamp01(
		s.weights.Content*bd.ContentSimilarity +
			s.weights.Topic*bd.TopicOverlap +
			s.weights.Question*bd.QuestionOverlap,
	)
	return bd
}
