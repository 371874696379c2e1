// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists research documents and session summaries in
// SQLite. It implements the storage collaborator contract the
// orchestrator depends on: topic-filtered document listing before
// deduplication, and create/update/merge persistence after resolution.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kryptobaseddev/aris/pkg/types"
)

const dbFile = "research.db"

// Store manages the document database.
type Store struct {
	db  *sql.DB
	dir string
}

// NewStore opens or creates the SQLite database at cfg.Dir/research.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	cfg.Normalize()
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: cfg.Dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			topics TEXT NOT NULL,
			confidence REAL,
			purpose TEXT,
			sources TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS resolution_audit (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL REFERENCES documents(id),
			action TEXT NOT NULL,
			resolved_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_document ON resolution_audit(document_id)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			total_cost REAL NOT NULL,
			summary TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ListDocumentsByTopic returns documents sharing at least one of the
// given topic tags. An empty tag list returns every document.
func (s *Store) ListDocumentsByTopic(ctx context.Context, tags []string) ([]types.ExistingDocument, error) {
	query := `SELECT id, content, topics, confidence, updated_at FROM documents`
	var args []any
	if len(tags) > 0 {
		query += ` WHERE EXISTS (SELECT 1 FROM json_each(documents.topics) WHERE value IN (`
		for i, tag := range tags {
			if i > 0 {
				query += `, `
			}
			query += `?`
			args = append(args, tag)
		}
		query += `))`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []types.ExistingDocument
	for rows.Next() {
		var (
			doc        types.ExistingDocument
			topicsJSON string
			updatedAt  string
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &topicsJSON, &doc.Confidence, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if err := json.Unmarshal([]byte(topicsJSON), &doc.Topics); err != nil {
			return nil, fmt.Errorf("document %s has malformed topics: %w", doc.ID, err)
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
			doc.LastUpdated = t
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Persist applies a resolution: create inserts a new document, update
// and merge overwrite the target's content and metadata. It returns the
// affected document id and records the action in the audit trail.
func (s *Store) Persist(ctx context.Context, action types.DedupAction, targetID, content string, meta types.DocumentMeta) (string, error) {
	if content == "" {
		return "", fmt.Errorf("persist: content is empty")
	}

	topicsJSON, _ := json.Marshal(meta.Topics)
	sourcesJSON, _ := json.Marshal(meta.Sources)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	switch action {
	case types.ActionCreate:
		if targetID != "" {
			return "", fmt.Errorf("persist: create must not carry a target id")
		}
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (id, content, topics, confidence, purpose, sources, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, content, string(topicsJSON), meta.Confidence, meta.Purpose, string(sourcesJSON), now, now,
		)
		if err != nil {
			return "", fmt.Errorf("inserting document: %w", err)
		}

	case types.ActionUpdate, types.ActionMerge:
		if targetID == "" {
			return "", fmt.Errorf("persist: %s requires a target id", action)
		}
		id = targetID
		res, execErr := tx.ExecContext(ctx,
			`UPDATE documents SET content = ?, topics = ?, confidence = ?, sources = ?, updated_at = ?
			 WHERE id = ?`,
			content, string(topicsJSON), meta.Confidence, string(sourcesJSON), now, targetID,
		)
		if execErr != nil {
			return "", fmt.Errorf("updating document: %w", execErr)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return "", fmt.Errorf("persist: target document %s not found", targetID)
		}

	default:
		return "", fmt.Errorf("persist: unknown action %q", action)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO resolution_audit (document_id, action, resolved_at) VALUES (?, ?, ?)`,
		id, string(action), now,
	); err != nil {
		return "", fmt.Errorf("recording audit entry: %w", err)
	}

	return id, tx.Commit()
}

// AuditTrail returns the recorded resolution actions for a document,
// oldest first.
func (s *Store) AuditTrail(ctx context.Context, documentID string) ([]types.DedupAction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT action FROM resolution_audit WHERE document_id = ? ORDER BY rowid`, documentID)
	if err != nil {
		return nil, fmt.Errorf("reading audit trail: %w", err)
	}
	defer rows.Close()

	var actions []types.DedupAction
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		actions = append(actions, types.DedupAction(a))
	}
	return actions, rows.Err()
}
