// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// ErrSessionNotFound is returned when a summary lookup misses.
var ErrSessionNotFound = errors.New("session not found")

// SaveSummary upserts a session's summary record. The summary is the
// stable export contract, so it is stored whole as JSON alongside the
// columns used for listing.
func (s *Store) SaveSummary(ctx context.Context, summary types.SessionSummary) error {
	if summary.SessionID == "" {
		return fmt.Errorf("save summary: session id is empty")
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, status, total_cost, summary, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, total_cost=excluded.total_cost,
			summary=excluded.summary, updated_at=excluded.updated_at`,
		summary.SessionID, string(summary.Status), summary.TotalCost,
		string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving summary: %w", err)
	}
	return nil
}

// GetSummary returns one session's summary.
func (s *Store) GetSummary(ctx context.Context, sessionID string) (types.SessionSummary, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary FROM sessions WHERE id = ?`, sessionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SessionSummary{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return types.SessionSummary{}, fmt.Errorf("reading summary: %w", err)
	}

	var summary types.SessionSummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return types.SessionSummary{}, fmt.Errorf("parsing summary %s: %w", sessionID, err)
	}
	return summary, nil
}

// ListSummaries returns all session summaries, most recent first.
func (s *Store) ListSummaries(ctx context.Context) ([]types.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT summary FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	defer rows.Close()

	var summaries []types.SessionSummary
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		var summary types.SessionSummary
		if err := json.Unmarshal([]byte(payload), &summary); err != nil {
			return nil, fmt.Errorf("parsing summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// ExportYAML writes every session summary to dir/sessions.yaml for
// external reporting tooling.
func (s *Store) ExportYAML(ctx context.Context) error {
	summaries, err := s.ListSummaries(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, "sessions.yaml"), data, 0o644)
}
