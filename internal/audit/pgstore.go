package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"evident.org/internal/auth"
	"evident.org/internal/ids"
)

// PGStore persists audit entries in the audit_logs table. It shares the
// connection pool opened by the primary store.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

const entryColumns = `id, user_id, query_text, retrieved_documents, answer, confidence_score, refusal_reason, sources, timestamp, response_time_ms`

func (s *PGStore) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	docsJSON, err := json.Marshal(e.RetrievedDocuments)
	if err != nil {
		return fmt.Errorf("encode retrieved documents: %w", err)
	}
	sourcesJSON, err := json.Marshal(e.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into audit_logs (id, user_id, query_text, retrieved_documents, answer, confidence_score, refusal_reason, sources, timestamp, response_time_ms)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.UserID, e.QueryText, docsJSON, nullStr(e.Answer), nullFloat(e.ConfidenceScore), nullStr(e.RefusalReason), sourcesJSON, e.Timestamp, e.ResponseTimeMS)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Entry, error) {
	return scanEntry(s.db.QueryRowContext(ctx, `select `+entryColumns+` from audit_logs where id=$1`, id))
}

func (s *PGStore) List(ctx context.Context, f Filter) ([]*Entry, error) {
	query := `select ` + entryColumns + ` from audit_logs where 1=1`
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		query += fmt.Sprintf(" and user_id=$%d", len(args))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		query += fmt.Sprintf(" and timestamp >= $%d", len(args))
	}
	if !f.Until.IsZero() {
		args = append(args, f.Until)
		query += fmt.Sprintf(" and timestamp < $%d", len(args))
	}
	query += " order by timestamp desc"
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" limit $%d", len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" offset $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	var (
		e       Entry
		docs    []byte
		sources []byte
		answer  sql.NullString
		score   sql.NullFloat64
		refusal sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &e.QueryText, &docs, &answer, &score, &refusal, &sources, &e.Timestamp, &e.ResponseTimeMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.Answer = answer.String
	e.ConfidenceScore = score.Float64
	e.RefusalReason = refusal.String
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &e.RetrievedDocuments); err != nil {
			return nil, fmt.Errorf("decode retrieved documents: %w", err)
		}
	}
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &e.Sources); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
	}
	return &e, nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
