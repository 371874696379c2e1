// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CandidateDocument is the not-yet-persisted output of a session. It
// exists only during finalization; the deduplication gate decides
// whether it becomes a new document or folds into an existing one.
type CandidateDocument struct {
	Content    string   `json:"content" yaml:"content"`
	Topics     []string `json:"topics" yaml:"topics"`
	Sources    []string `json:"sources,omitempty" yaml:"sources,omitempty"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Query      string   `json:"query" yaml:"query"`

	// Embedding is attached by the orchestrator when an embedding
	// provider is available. The similarity scorer never computes it.
	Embedding []float64 `json:"-" yaml:"-"`
}

// ExistingDocument is a read-only view of a stored document. The core
// never mutates it; it produces merged content for the storage
// collaborator to persist.
type ExistingDocument struct {
	ID          string    `json:"id" yaml:"id"`
	Content     string    `json:"content" yaml:"content"`
	Topics      []string  `json:"topics" yaml:"topics"`
	Confidence  float64   `json:"confidence" yaml:"confidence"`
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated"`

	Embedding []float64 `json:"-" yaml:"-"`
}

// DocumentMeta carries the metadata the merger compares when detecting
// conflicts between an existing document and new content.
type DocumentMeta struct {
	Topics     []string `json:"topics" yaml:"topics"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Purpose    string   `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	Sources    []string `json:"sources,omitempty" yaml:"sources,omitempty"`
}
