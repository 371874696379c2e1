// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge reconciles an existing document's content with new
// findings without silent data loss. Conflict detection always runs
// before merging and is independent of the chosen strategy; every
// detected conflict appears in the report with a resolution note.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// ErrMalformedContent aborts a merge when the existing content has no
// usable structure for integration. This is the merger's only fatal
// condition; callers treat it as a session-level failure.
var ErrMalformedContent = errors.New("existing content is malformed")

// ErrInvalidInput rejects empty new content at the boundary.
var ErrInvalidInput = errors.New("invalid merge input")

// Merger applies a merge strategy to two bodies of findings.
type Merger struct {
	cfg types.MergeConfig
}

// NewMerger returns a merger with the given conflict thresholds.
func NewMerger(cfg types.MergeConfig) *Merger {
	cfg.Normalize()
	return &Merger{cfg: cfg}
}

// Merge reconciles existing and new content under the requested
// strategy and returns the merged content with a full report. An empty
// strategy means integrate. Replace downgrades to integrate when
// content conflicts were detected, recording the downgrade.
func (m *Merger) Merge(existingContent string, existingMeta types.DocumentMeta, newContent string, newMeta types.DocumentMeta, strategy types.MergeStrategy) (string, types.MergeReport, error) {
	if strings.TrimSpace(newContent) == "" {
		return "", types.MergeReport{}, fmt.Errorf("%w: new content is empty", ErrInvalidInput)
	}
	if strategy == "" {
		strategy = types.StrategyIntegrate
	}

	conflicts := m.detectConflicts(existingContent, existingMeta, newContent, newMeta)

	report := types.MergeReport{
		Requested: strategy,
		Applied:   strategy,
		Conflicts: conflicts,
	}

	if strategy == types.StrategyReplace && hasContentConflict(conflicts) {
		report.Applied = types.StrategyIntegrate
		report.Downgraded = true
		report.DowngradeNote = "replace refused: unresolved content conflicts, downgraded to integrate"
	}

	var merged string
	var err error
	switch report.Applied {
	case types.StrategyAppend:
		merged = applyAppend(existingContent, newContent)
	case types.StrategyReplace:
		merged = newContent
	case types.StrategyIntegrate:
		merged, err = applyIntegrate(existingContent, newContent)
		if err != nil {
			return "", report, err
		}
	default:
		return "", report, fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, strategy)
	}

	resolveConflicts(report.Conflicts, report.Applied)
	report.WordsAdded, report.WordsRemoved = wordDelta(existingContent, merged)

	return merged, report, nil
}

// hasContentConflict reports whether any detected conflict is a
// content contradiction.
func hasContentConflict(conflicts []types.Conflict) bool {
	for _, c := range conflicts {
		if c.Type == types.ConflictContent {
			return true
		}
	}
	return false
}

// resolveConflicts fills in the resolution note for every conflict.
// Content conflicts under integrate keep both statements; under append
// or replace the strategy itself is the resolution.
func resolveConflicts(conflicts []types.Conflict, applied types.MergeStrategy) {
	for i := range conflicts {
		switch {
		case conflicts[i].Type == types.ConflictContent && applied == types.StrategyIntegrate:
			conflicts[i].Resolution = "kept both statements"
		case conflicts[i].Type == types.ConflictContent:
			conflicts[i].Resolution = fmt.Sprintf("resolved by strategy: %s", applied)
		default:
			conflicts[i].Resolution = fmt.Sprintf("noted; resolved by strategy: %s", applied)
		}
	}
}

// applyAppend places new content verbatim after existing content.
func applyAppend(existing, incoming string) string {
	existing = strings.TrimRight(existing, "\n")
	if existing == "" {
		return strings.TrimSpace(incoming)
	}
	return existing + "\n\n" + strings.TrimSpace(incoming)
}

// section is one heading-delimited block of a document. The preamble
// before the first heading is a section with an empty heading.
type section struct {
	heading string
	body    []string // paragraphs
}

// applyIntegrate walks the new content's sections, interleaving each
// into the existing section with the matching heading and appending
// unmatched sections at the end. Paragraphs already present in the
// target section are skipped, so integrating a document into itself is
// a no-op.
func applyIntegrate(existing, incoming string) (string, error) {
	if strings.TrimSpace(existing) == "" {
		// Nothing to integrate into: a blank existing document is
		// malformed input at this point, since integrate is only
		// requested against a real merge target.
		return "", fmt.Errorf("%w: no existing content to integrate into", ErrMalformedContent)
	}

	existingSections := splitSections(existing)
	newSections := splitSections(incoming)

	index := make(map[string]int, len(existingSections))
	for i, sec := range existingSections {
		index[normalizeHeading(sec.heading)] = i
	}

	var unmatched []section
	for _, ns := range newSections {
		i, ok := index[normalizeHeading(ns.heading)]
		if !ok {
			unmatched = append(unmatched, ns)
			continue
		}
		existingSections[i].body = interleave(existingSections[i].body, ns.body)
	}

	var b strings.Builder
	writeSection := func(sec section) {
		if sec.heading != "" {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(sec.heading)
		}
		for _, p := range sec.body {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(p)
		}
	}
	for _, sec := range existingSections {
		writeSection(sec)
	}
	// Unmatched new sections fall back to append.
	for _, sec := range unmatched {
		if sec.heading == "" && len(sec.body) == 0 {
			continue
		}
		writeSection(sec)
	}

	return b.String(), nil
}

// interleave appends the new paragraphs that are not already present.
func interleave(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[strings.TrimSpace(p)] = true
	}
	for _, p := range incoming {
		if !seen[strings.TrimSpace(p)] {
			existing = append(existing, p)
		}
	}
	return existing
}

// splitSections chunks content by Markdown headings. Non-heading text
// accumulates into paragraphs split on blank lines.
func splitSections(content string) []section {
	var sections []section
	current := section{}
	var para []string

	flushPara := func() {
		if len(para) > 0 {
			current.body = append(current.body, strings.Join(para, "\n"))
			para = nil
		}
	}
	flushSection := func() {
		flushPara()
		if current.heading != "" || len(current.body) > 0 {
			sections = append(sections, current)
		}
		current = section{}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			flushSection()
			current.heading = trimmed
		case trimmed == "":
			flushPara()
		default:
			para = append(para, line)
		}
	}
	flushSection()

	return sections
}

// normalizeHeading strips markers and case so "## Results" matches
// "# results".
func normalizeHeading(heading string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimLeft(heading, "# ")))
}

// wordDelta counts words present in merged but not existing (added)
// and vice versa (removed), as multiset differences.
func wordDelta(existing, merged string) (added, removed int) {
	ec := wordCounts(existing)
	mc := wordCounts(merged)
	for w, n := range mc {
		if n > ec[w] {
			added += n - ec[w]
		}
	}
	for w, n := range ec {
		if n > mc[w] {
			removed += n - mc[w]
		}
	}
	return added, removed
}

func wordCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range wordTokens(text) {
		counts[tok]++
	}
	return counts
}
