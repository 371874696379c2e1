// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores how closely a candidate document matches an
// existing one. Two strategies implement the same Scorer interface:
// embedding-vector cosine (when an embedding provider attached vectors)
// and lexical term overlap (the fallback). The deduplication gate is
// mode-agnostic; strategy selection happens at construction.
package similarity

import (
	"math"
	"strings"
	"unicode"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// Scorer computes a component-wise similarity between a candidate and
// one existing document. Implementations are pure computation: no I/O.
type Scorer interface {
	Score(candidate types.CandidateDocument, existing types.ExistingDocument) types.ScoreBreakdown
}

// NewScorer selects the strategy for the given mode. Lexical is the
// default for unknown modes.
func NewScorer(mode types.SimilarityMode, cfg types.SimilarityConfig) Scorer {
	cfg.Normalize()
	if mode == types.ModeEmbedding {
		return &EmbeddingScorer{weights: cfg.Embedding, lexical: LexicalScorer{weights: cfg.Lexical}}
	}
	return &LexicalScorer{weights: cfg.Lexical}
}

// tokenize lowercases text and splits on any non-letter/digit rune,
// dropping single-character fragments.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// termFreq builds a term-frequency map over tokens.
func termFreq(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	return tf
}

// tfCosine is the cosine similarity of two term-frequency maps.
func tfCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for term, fa := range a {
		normA += fa * fa
		if fb, ok := b[term]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range b {
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// jaccard is the set-overlap ratio of two string slices, case
// insensitive. Two empty sets score 1.0: identical absence of topics is
// agreement, not divergence.
func jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for s := range setA {
		if setB[s] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = true
		}
	}
	return set
}

// questionOverlap compares the candidate's originating query against
// the existing document's content: the fraction of query terms the
// document already covers.
func questionOverlap(query string, existing types.ExistingDocument) float64 {
	qTokens := tokenize(query)
	if len(qTokens) == 0 {
		return 0
	}
	docTerms := toSetFromTokens(tokenize(existing.Content))
	for _, topic := range existing.Topics {
		for _, tok := range tokenize(topic) {
			docTerms[tok] = true
		}
	}
	covered := 0
	for _, tok := range qTokens {
		if docTerms[tok] {
			covered++
		}
	}
	return float64(covered) / float64(len(qTokens))
}

func toSetFromTokens(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

// clamp01 keeps a score inside [0, 1] against float drift.
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
