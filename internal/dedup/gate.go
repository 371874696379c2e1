// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup decides whether a candidate document becomes a new
// document or folds into an existing one. The gate is decision-only:
// it performs no I/O and no mutation; the orchestrator acts on the
// result.
package dedup

import (
	"strings"

	"github.com/kryptobaseddev/aris/internal/similarity"
	"github.com/kryptobaseddev/aris/pkg/types"
)

// Gate scores a candidate against existing documents and picks the
// create/update/merge action.
type Gate struct {
	scorer similarity.Scorer
	cfg    types.DedupConfig
}

// NewGate returns a gate using the given scorer and thresholds.
func NewGate(scorer similarity.Scorer, cfg types.DedupConfig) *Gate {
	cfg.Normalize()
	return &Gate{scorer: scorer, cfg: cfg}
}

// CheckBeforeWrite scores candidate against every existing document
// sharing at least one topic tag and decides the action from the best
// score: at or above the update threshold the candidate updates the
// best match, between the merge and update thresholds it merges into
// it, below the merge threshold it becomes a new document. Ties within
// the tie margin go to the most recently updated document.
func (g *Gate) CheckBeforeWrite(candidate types.CandidateDocument, existing []types.ExistingDocument, query string) types.DeduplicationResult {
	if query != "" {
		candidate.Query = query
	}

	pool := filterByTopic(candidate.Topics, existing)
	if len(pool) == 0 {
		return types.DeduplicationResult{
			Action:     types.ActionCreate,
			Confidence: 1.0,
		}
	}

	type scored struct {
		doc types.ExistingDocument
		bd  types.ScoreBreakdown
	}
	results := make([]scored, 0, len(pool))
	best := -1.0
	var runnerUp float64
	for _, doc := range pool {
		bd := g.scorer.Score(candidate, doc)
		results = append(results, scored{doc: doc, bd: bd})
		if bd.Overall > best {
			runnerUp = max(best, 0)
			best = bd.Overall
		} else if bd.Overall > runnerUp {
			runnerUp = bd.Overall
		}
	}

	// Among documents within the tie margin of the maximum, the most
	// recently updated wins.
	winner := results[0]
	for _, r := range results[1:] {
		switch {
		case r.bd.Overall > winner.bd.Overall+g.cfg.TieMargin:
			winner = r
		case winner.bd.Overall-r.bd.Overall <= g.cfg.TieMargin &&
			r.doc.LastUpdated.After(winner.doc.LastUpdated):
			winner = r
		}
	}

	s := winner.bd.Overall
	result := types.DeduplicationResult{
		Similarity: s,
		Breakdown:  winner.bd,
	}

	switch {
	case s >= g.cfg.UpdateThreshold:
		result.Action = types.ActionUpdate
		result.TargetID = winner.doc.ID
		result.Confidence = s
	case s >= g.cfg.MergeThreshold:
		result.Action = types.ActionMerge
		result.TargetID = winner.doc.ID
		result.Confidence = s
	default:
		result.Action = types.ActionCreate
		// Confidence in creating is how far the best match falls short,
		// capped at the gap between best and runner-up so a crowded
		// field near the threshold reads as less certain.
		conf := 1 - s
		if gap := best - runnerUp; len(results) > 1 && gap < conf {
			conf = gap
		}
		result.Confidence = conf
	}
	return result
}

// filterByTopic restricts the search space to documents sharing at
// least one topic tag with the candidate. A candidate with no topics
// is compared against everything.
func filterByTopic(topics []string, docs []types.ExistingDocument) []types.ExistingDocument {
	if len(topics) == 0 {
		return docs
	}
	want := make(map[string]bool, len(topics))
	for _, t := range topics {
		want[strings.ToLower(strings.TrimSpace(t))] = true
	}

	var pool []types.ExistingDocument
	for _, doc := range docs {
		for _, t := range doc.Topics {
			if want[strings.ToLower(strings.TrimSpace(t))] {
				pool = append(pool, doc)
				break
			}
		}
	}
	return pool
}
