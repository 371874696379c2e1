// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryptobaseddev/aris/pkg/types"
)

func testMerger() *Merger {
	return NewMerger(types.MergeConfig{})
}

func meta(confidence float64, topics ...string) types.DocumentMeta {
	return types.DocumentMeta{Topics: topics, Confidence: confidence}
}

const sectionedDoc = `# Overview

Transformers use self attention to process sequences.

# Results

Scaling improves benchmark accuracy.`

func TestAppendKeepsBothVerbatim(t *testing.T) {
	m := testMerger()

	merged, report, err := m.Merge(
		"existing findings", meta(0.8, "ai"),
		"new findings", meta(0.8, "ai"),
		types.StrategyAppend,
	)
	require.NoError(t, err)

	assert.Equal(t, "existing findings\n\nnew findings", merged)
	assert.Equal(t, types.StrategyAppend, report.Applied)
	assert.False(t, report.Downgraded)
	assert.Equal(t, 2, report.WordsAdded)
	assert.Zero(t, report.WordsRemoved)
}

func TestIntegrateSelfMergeIsNoOp(t *testing.T) {
	m := testMerger()

	merged, report, err := m.Merge(
		sectionedDoc, meta(0.8, "ai"),
		sectionedDoc, meta(0.8, "ai"),
		types.StrategyIntegrate,
	)
	require.NoError(t, err)

	assert.Equal(t, sectionedDoc, merged)
	assert.Zero(t, report.WordsAdded)
	assert.Zero(t, report.WordsRemoved)
	for _, c := range report.Conflicts {
		assert.NotEqual(t, types.ConflictContent, c.Type)
	}
}

func TestIntegrateInterleavesMatchingSections(t *testing.T) {
	m := testMerger()

	incoming := `# Results

Longer context windows also improve accuracy.`

	merged, report, err := m.Merge(
		sectionedDoc, meta(0.8, "ai"),
		incoming, meta(0.8, "ai"),
		types.StrategyIntegrate,
	)
	require.NoError(t, err)

	// New paragraph lands inside the Results section, before any later
	// sections would appear.
	assert.Contains(t, merged, "Scaling improves benchmark accuracy.\n\nLonger context windows also improve accuracy.")
	// Existing sections keep their order.
	assert.Less(t, strings.Index(merged, "# Overview"), strings.Index(merged, "# Results"))
	assert.Positive(t, report.WordsAdded)
	assert.Zero(t, report.WordsRemoved)
}

func TestIntegrateAppendsUnmatchedSections(t *testing.T) {
	m := testMerger()

	incoming := `# Limitations

Hallucination remains unsolved.`

	merged, _, err := m.Merge(
		sectionedDoc, meta(0.8, "ai"),
		incoming, meta(0.8, "ai"),
		types.StrategyIntegrate,
	)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(merged, "# Limitations\n\nHallucination remains unsolved."))
}

func TestIntegrateRejectsBlankExisting(t *testing.T) {
	m := testMerger()

	_, _, err := m.Merge("   \n", meta(0.8), "new findings", meta(0.8), types.StrategyIntegrate)
	assert.ErrorIs(t, err, ErrMalformedContent)
}

func TestReplaceWithoutConflicts(t *testing.T) {
	m := testMerger()

	merged, report, err := m.Merge(
		"old text about topic", meta(0.8, "ai"),
		"entirely new text about topic", meta(0.8, "ai"),
		types.StrategyReplace,
	)
	require.NoError(t, err)

	assert.Equal(t, "entirely new text about topic", merged)
	assert.Equal(t, types.StrategyReplace, report.Applied)
	assert.False(t, report.Downgraded)
	assert.Positive(t, report.WordsRemoved)
}

func TestReplaceDowngradesOnContentConflict(t *testing.T) {
	m := testMerger()

	existing := "The model scales linearly with parameter count."
	incoming := "The model does not scale linearly with parameter count."

	merged, report, err := m.Merge(existing, meta(0.8, "ai"), incoming, meta(0.8, "ai"), types.StrategyReplace)
	require.NoError(t, err)

	assert.Equal(t, types.StrategyReplace, report.Requested)
	assert.Equal(t, types.StrategyIntegrate, report.Applied)
	assert.True(t, report.Downgraded)
	assert.NotEmpty(t, report.DowngradeNote)
	// Integrate keeps the existing claim instead of discarding it.
	assert.Contains(t, merged, existing)
}

func TestContentConflictDetection(t *testing.T) {
	m := testMerger()

	conflicts := m.detectConflicts(
		"The benchmark results are reproducible across runs.",
		meta(0.8, "ai"),
		"The benchmark results are not reproducible across runs.",
		meta(0.8, "ai"),
	)

	require.Len(t, conflicts, 1)
	assert.Equal(t, types.ConflictContent, conflicts[0].Type)
	assert.Equal(t, types.SeverityHigh, conflicts[0].Severity)
	assert.Contains(t, conflicts[0].Description, "contradictory claims")
}

func TestNoContentConflictOnUnrelatedSentences(t *testing.T) {
	m := testMerger()

	conflicts := m.detectConflicts(
		"Coral reefs are not recovering in warm waters.",
		meta(0.8, "biology"),
		"Transformers process sequences with attention.",
		meta(0.8, "biology"),
	)

	for _, c := range conflicts {
		assert.NotEqual(t, types.ConflictContent, c.Type)
	}
}

func TestMetadataConflictOnConfidenceDelta(t *testing.T) {
	m := testMerger()

	conflicts := m.detectConflicts("same text", meta(0.90, "ai"), "same text", meta(0.60, "ai"))

	var metadataSeen, confidenceSeen bool
	for _, c := range conflicts {
		switch c.Type {
		case types.ConflictMetadata:
			metadataSeen = true
		case types.ConflictConfidence:
			confidenceSeen = true
		}
	}
	// 0.30 apart: both the symmetric metadata check and the
	// less-reliable-update check fire.
	assert.True(t, metadataSeen)
	assert.True(t, confidenceSeen)
}

func TestStructuralConflictOnTopicDivergence(t *testing.T) {
	m := testMerger()

	conflicts := m.detectConflicts(
		"text", meta(0.8, "ai", "ml", "nlp"),
		"text", meta(0.8, "cooking", "travel"),
	)

	var structural bool
	for _, c := range conflicts {
		if c.Type == types.ConflictStructural {
			structural = true
		}
	}
	assert.True(t, structural)
}

func TestEveryConflictCarriesResolution(t *testing.T) {
	m := testMerger()

	for _, strategy := range []types.MergeStrategy{types.StrategyAppend, types.StrategyIntegrate, types.StrategyReplace} {
		_, report, err := m.Merge(
			"The approach is not sound for production use.",
			meta(0.95, "ai"),
			"The approach is sound for production use.",
			meta(0.40, "ai"),
			strategy,
		)
		require.NoError(t, err, "strategy %s", strategy)
		require.NotEmpty(t, report.Conflicts, "strategy %s", strategy)
		for _, c := range report.Conflicts {
			assert.NotEmpty(t, c.Resolution, "strategy %s conflict %q", strategy, c.Description)
		}
		assert.False(t, report.HasUnresolvedContent())
	}
}

func TestEmptyNewContentRejected(t *testing.T) {
	m := testMerger()

	_, _, err := m.Merge("existing", meta(0.8), "  ", meta(0.8), types.StrategyAppend)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUnknownStrategyRejected(t *testing.T) {
	m := testMerger()

	_, _, err := m.Merge("existing", meta(0.8), "new", meta(0.8), types.MergeStrategy("overwrite"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDefaultStrategyIsIntegrate(t *testing.T) {
	m := testMerger()

	_, report, err := m.Merge(sectionedDoc, meta(0.8, "ai"), "# Overview\n\nA fresh observation.", meta(0.8, "ai"), "")
	require.NoError(t, err)
	assert.Equal(t, types.StrategyIntegrate, report.Applied)
}

func TestSplitSections(t *testing.T) {
	sections := splitSections(sectionedDoc)

	require.Len(t, sections, 2)
	assert.Equal(t, "# Overview", sections[0].heading)
	assert.Equal(t, []string{"Transformers use self attention to process sequences."}, sections[0].body)
	assert.Equal(t, "# Results", sections[1].heading)
}

func TestSplitSectionsPreamble(t *testing.T) {
	sections := splitSections("intro paragraph\n\n# Heading\n\nbody")

	require.Len(t, sections, 2)
	assert.Empty(t, sections[0].heading)
	assert.Equal(t, []string{"intro paragraph"}, sections[0].body)
}

func TestNegationVariants(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		negative bool
	}{
		{"plain", "the model converges quickly", false},
		{"not", "the model does not converge quickly", true},
		{"contraction", "the model doesn't converge quickly", true},
		{"never", "the model never converges", true},
		{"cannot", "the model cannot converge", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, negative := sentenceSignature(tt.sentence)
			assert.Equal(t, tt.negative, negative)
		})
	}
}

func TestErrMalformedContentIsTyped(t *testing.T) {
	m := testMerger()
	_, _, err := m.Merge("", meta(0.8), "content", meta(0.8), types.StrategyIntegrate)
	assert.True(t, errors.Is(err, ErrMalformedContent))
}
