// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MergeStrategy selects how the merger combines existing and new
// content.
type MergeStrategy string

const (
	// StrategyAppend appends new content verbatim after the existing
	// content with no restructuring.
	StrategyAppend MergeStrategy = "append"

	// StrategyIntegrate interleaves new findings into matching sections
	// of the existing content, appending unmatched sections. Default.
	StrategyIntegrate MergeStrategy = "integrate"

	// StrategyReplace discards existing content in favor of new. Only
	// permitted when no unresolved content conflicts exist; otherwise
	// the merger downgrades to integrate.
	StrategyReplace MergeStrategy = "replace"
)

// ConflictType classifies a detected merge conflict.
type ConflictType string

const (
	ConflictMetadata   ConflictType = "metadata"
	ConflictContent    ConflictType = "content"
	ConflictStructural ConflictType = "structural"
	ConflictConfidence ConflictType = "confidence"
)

// ConflictSeverity grades how strongly a conflict should influence
// strategy selection.
type ConflictSeverity string

const (
	SeverityLow    ConflictSeverity = "low"
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

// Conflict is a single detected disagreement between existing and new
// content. Every conflict carries a resolution note, even when the
// strategy resolves it implicitly.
type Conflict struct {
	Type        ConflictType     `json:"type" yaml:"type"`
	Severity    ConflictSeverity `json:"severity" yaml:"severity"`
	Description string           `json:"description" yaml:"description"`
	Resolution  string           `json:"resolution" yaml:"resolution"`
}

// MergeReport records what the merger did: the strategy actually
// applied (after any downgrade), all detected conflicts, and word-level
// delta counts against the existing content.
type MergeReport struct {
	Requested    MergeStrategy `json:"requested" yaml:"requested"`
	Applied      MergeStrategy `json:"applied" yaml:"applied"`
	Downgraded   bool          `json:"downgraded,omitempty" yaml:"downgraded,omitempty"`
	DowngradeNote string       `json:"downgrade_note,omitempty" yaml:"downgrade_note,omitempty"`
	Conflicts    []Conflict    `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	WordsAdded   int           `json:"words_added" yaml:"words_added"`
	WordsRemoved int           `json:"words_removed" yaml:"words_removed"`
}

// HasUnresolvedContent reports whether any content conflict lacks an
// explicit resolution note.
func (r MergeReport) HasUnresolvedContent() bool {
	for _, c := range r.Conflicts {
		if c.Type == ConflictContent && c.Resolution == "" {
			return true
		}
	}
	return false
}
