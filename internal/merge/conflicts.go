// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// negationMarkers flag a sentence as negative-polarity.
var negationMarkers = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"cannot":  true,
	"without": true,
	"neither": true,
	"nor":     true,
	"dont":    true,
	"doesnt":  true,
	"didnt":   true,
	"isnt":    true,
	"arent":   true,
	"wasnt":   true,
	"werent":  true,
	"wont":    true,
	"cant":    true,
	"fails":   true,
	"lacks":   true,
}

// stopwords are excluded when comparing sentence subjects.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"to": true, "of": true, "in": true, "on": true, "for": true,
	"and": true, "or": true, "that": true, "this": true, "it": true,
	"with": true, "as": true, "by": true, "at": true, "from": true,
	"has": true, "have": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "can": true, "could": true,
	"should": true, "may": true, "might": true,
}

// detectConflicts runs all four conflict checks. Detection is
// independent of the merge strategy; resolutions are filled in later by
// the strategy application.
func (m *Merger) detectConflicts(existingContent string, existingMeta types.DocumentMeta, newContent string, newMeta types.DocumentMeta) []types.Conflict {
	var conflicts []types.Conflict

	// METADATA: confidence values far apart, or declared purpose/topic
	// sets that barely overlap.
	if delta := abs(existingMeta.Confidence - newMeta.Confidence); delta > m.cfg.ConfidenceDelta {
		conflicts = append(conflicts, types.Conflict{
			Type:     types.ConflictMetadata,
			Severity: types.SeverityMedium,
			Description: fmt.Sprintf("confidence values differ by %.2f (existing %.2f, new %.2f)",
				delta, existingMeta.Confidence, newMeta.Confidence),
		})
	}
	if len(existingMeta.Topics) > 0 && len(newMeta.Topics) > 0 {
		if overlap := setJaccard(existingMeta.Topics, newMeta.Topics); overlap < m.cfg.TopicOverlapFloor {
			conflicts = append(conflicts, types.Conflict{
				Type:     types.ConflictMetadata,
				Severity: types.SeverityMedium,
				Description: fmt.Sprintf("topic sets overlap only %.0f%% (existing %v, new %v)",
					overlap*100, existingMeta.Topics, newMeta.Topics),
			})
		}
	}
	if existingMeta.Purpose != "" && newMeta.Purpose != "" {
		if overlap := tokenOverlap(existingMeta.Purpose, newMeta.Purpose); overlap < m.cfg.TopicOverlapFloor {
			conflicts = append(conflicts, types.Conflict{
				Type:     types.ConflictMetadata,
				Severity: types.SeverityMedium,
				Description: fmt.Sprintf("declared purposes diverge (%q vs %q)",
					existingMeta.Purpose, newMeta.Purpose),
			})
		}
	}

	// CONTENT: contradictory claims about the same subject, found by
	// pairing sentences with high word overlap but opposite polarity.
	conflicts = append(conflicts, m.contentConflicts(existingContent, newContent)...)

	// STRUCTURAL: topic tag sets diverged beyond the configured
	// distance.
	if len(existingMeta.Topics) > 0 && len(newMeta.Topics) > 0 {
		if dist := 1 - setJaccard(existingMeta.Topics, newMeta.Topics); dist > m.cfg.StructuralDivergence {
			conflicts = append(conflicts, types.Conflict{
				Type:     types.ConflictStructural,
				Severity: types.SeverityMedium,
				Description: fmt.Sprintf("topic structure diverged %.0f%% (existing %v, new %v)",
					dist*100, existingMeta.Topics, newMeta.Topics),
			})
		}
	}

	// CONFIDENCE: new content materially less reliable than existing.
	if newMeta.Confidence > 0 && existingMeta.Confidence-newMeta.Confidence > m.cfg.ConfidenceGap {
		conflicts = append(conflicts, types.Conflict{
			Type:     types.ConflictConfidence,
			Severity: types.SeverityLow,
			Description: fmt.Sprintf("new content confidence %.2f is materially below existing %.2f",
				newMeta.Confidence, existingMeta.Confidence),
		})
	}

	return conflicts
}

// contentConflicts pairs each new sentence against existing sentences
// sharing most of their content words; a pair with opposite negation
// polarity is a contradictory claim about the same subject.
func (m *Merger) contentConflicts(existingContent, newContent string) []types.Conflict {
	existingSents := splitSentences(existingContent)
	newSents := splitSentences(newContent)

	var conflicts []types.Conflict
	for _, ns := range newSents {
		nWords, nNeg := sentenceSignature(ns)
		if len(nWords) == 0 {
			continue
		}
		for _, es := range existingSents {
			eWords, eNeg := sentenceSignature(es)
			if len(eWords) == 0 || nNeg == eNeg {
				continue
			}
			if wordSetOverlap(nWords, eWords) >= 0.6 {
				conflicts = append(conflicts, types.Conflict{
					Type:     types.ConflictContent,
					Severity: types.SeverityHigh,
					Description: fmt.Sprintf("contradictory claims: existing %q vs new %q",
						truncate(es, 120), truncate(ns, 120)),
				})
				break
			}
		}
	}
	return conflicts
}

// sentenceSignature returns the sentence's content words (stopwords and
// negation markers removed) and its negation polarity.
func sentenceSignature(sentence string) (map[string]bool, bool) {
	words := make(map[string]bool)
	negative := false
	for _, tok := range wordTokens(sentence) {
		if negationMarkers[tok] {
			negative = true
			continue
		}
		if !stopwords[tok] {
			words[tok] = true
		}
	}
	return words, negative
}

// wordSetOverlap is the fraction of the smaller set covered by the
// intersection.
func wordSetOverlap(a, b map[string]bool) float64 {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	if len(small) == 0 {
		return 0
	}
	inter := 0
	for w := range small {
		if large[w] {
			inter++
		}
	}
	return float64(inter) / float64(len(small))
}

// splitSentences breaks text into sentences on terminal punctuation and
// newlines.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?', '\n':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return sentences
}

// wordTokens lowercases and splits on non-letter/digit runes. Unlike
// the similarity tokenizer it strips apostrophes first so "doesn't"
// matches the negation marker "doesnt".
func wordTokens(text string) []string {
	text = strings.ReplaceAll(text, "'", "")
	text = strings.ReplaceAll(text, "’", "")
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func setJaccard(a, b []string) float64 {
	setA := lowerSet(a)
	setB := lowerSet(b)
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
	return float64(inter) / float64(len(setA)+len(setB)-inter)
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = true
		}
	}
	return set
}

func tokenOverlap(a, b string) float64 {
	setA := make(map[string]bool)
	for _, tok := range wordTokens(a) {
		if !stopwords[tok] {
			setA[tok] = true
		}
	}
	setB := make(map[string]bool)
	for _, tok := range wordTokens(b) {
		if !stopwords[tok] {
			setB[tok] = true
		}
	}
	return wordSetOverlap(setA, setB)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
