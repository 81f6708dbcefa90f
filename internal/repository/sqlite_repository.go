package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"relay-chat/internal/model"
)

type sqliteDebugRepository struct {
	db *sql.DB
}

func NewSQLiteDebugRepository(db *sql.DB) DebugRepository {
	return &sqliteDebugRepository{db: db}
}

func (r *sqliteDebugRepository) SaveEntry(ctx context.Context, e *model.DebugEntry) error {
	headers, err := json.Marshal(e.Headers)
	if err != nil {
		return fmt.Errorf("could not marshal headers: %w", err)
	}

	var errText sql.NullString
	if e.Error != "" {
		errText = sql.NullString{String: e.Error, Valid: true}
	}

	query := `
		INSERT INTO debug_entries (id, session_id, endpoint, headers, payload, status, body, outcome, error, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID,
		e.SessionID,
		e.Endpoint,
		string(headers),
		e.Payload,
		e.Status,
		e.Body,
		string(e.Outcome),
		errText,
		e.Latency.Milliseconds(),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("could not insert debug entry: %w", err)
	}
	return nil
}

func (r *sqliteDebugRepository) ListEntries(ctx context.Context, sessionID string, limit int) ([]model.DebugEntry, error) {
	query := `
		SELECT id, session_id, endpoint, headers, payload, status, body, outcome, error, latency_ms, created_at
		FROM debug_entries
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.DebugEntry
	for rows.Next() {
		var (
			e         model.DebugEntry
			headers   string
			outcome   string
			errText   sql.NullString
			latencyMS int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Endpoint, &headers, &e.Payload, &e.Status, &e.Body, &outcome, &errText, &latencyMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(headers), &e.Headers); err != nil {
			return nil, fmt.Errorf("could not decode headers of entry %s: %w", e.ID, err)
		}
		e.Outcome = model.Outcome(outcome)
		if errText.Valid {
			e.Error = errText.String
		}
		e.Latency = time.Duration(latencyMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *sqliteDebugRepository) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM debug_entries WHERE session_id = ?", sessionID)
	return err
}

// DebugSink adapts a DebugRepository to the debug channel. Write failures
// are logged and swallowed so a broken log never fails a turn.
type DebugSink struct {
	repo DebugRepository
}

func NewDebugSink(repo DebugRepository) *DebugSink {
	return &DebugSink{repo: repo}
}

func (s *DebugSink) Record(ctx context.Context, e model.DebugEntry) {
	// The turn may already be cancelled; the record is still wanted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.repo.SaveEntry(ctx, &e); err != nil {
		slog.Warn("Failed to persist debug entry", "session_id", e.SessionID, "error", err)
	}
}
