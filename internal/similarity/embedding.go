// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"math"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// EmbeddingScorer blends embedding-vector cosine similarity with topic
// Jaccard and question coverage. Vectors are attached to documents by
// the orchestrator before scoring; the scorer itself never calls the
// embedding provider. When either side lacks a vector the content
// component falls back to lexical term overlap, so a partially indexed
// corpus still scores sensibly.
type EmbeddingScorer struct {
	weights types.SimilarityWeights
	lexical LexicalScorer
}

// NewEmbeddingScorer returns a scorer with the given blend weights.
func NewEmbeddingScorer(weights types.SimilarityWeights) *EmbeddingScorer {
	weights.Normalize(types.SimilarityWeights{Content: 0.6, Topic: 0.3, Question: 0.1})
	return &EmbeddingScorer{
		weights: weights,
		lexical: LexicalScorer{weights: types.SimilarityWeights{Content: 0.4, Topic: 0.4, Question: 0.2}},
	}
}

// Score computes the weighted embedding similarity breakdown.
func (s *EmbeddingScorer) Score(candidate types.CandidateDocument, existing types.ExistingDocument) types.ScoreBreakdown {
	bd := types.ScoreBreakdown{
		TopicOverlap:    jaccard(candidate.Topics, existing.Topics),
		QuestionOverlap: questionOverlap(candidate.Query, existing),
	}

	if len(candidate.Embedding) > 0 && len(existing.Embedding) > 0 {
		bd.ContentSimilarity = clamp01(vectorCosine(candidate.Embedding, existing.Embedding))
	} else {
		bd.ContentSimilarity = tfCosine(
			termFreq(tokenize(candidate.Content)),
			termFreq(tokenize(existing.Content)),
		)
	}

	bd.Overall = clamp01(
		s.weights.Content*bd.ContentSimilarity +
			s.weights.Topic*bd.TopicOverlap +
			s.weights.Question*bd.QuestionOverlap,
	)
	return bd
}

// vectorCosine is the cosine similarity of two equal-length vectors.
// Mismatched lengths or zero vectors score 0.
func vectorCosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
