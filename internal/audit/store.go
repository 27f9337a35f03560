package audit

import (
	"context"
	"time"
)

// Entry is one persisted question-answering interaction. Every query a
// user runs produces one row, including refusals.
type Entry struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	QueryText          string    `json:"query_text"`
	RetrievedDocuments []string  `json:"retrieved_documents,omitempty"`
	Answer             string    `json:"answer,omitempty"`
	ConfidenceScore    float64   `json:"confidence_score,omitempty"`
	RefusalReason      string    `json:"refusal_reason,omitempty"`
	Sources            []Source  `json:"sources,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	ResponseTimeMS     int64     `json:"response_time_ms"`
}

// Source points at the document span an answer drew from.
type Source struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score,omitempty"`
}

// Filter narrows a trail listing. Zero values mean "no constraint".
type Filter struct {
	UserID string
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// Store persists the query audit trail.
type Store interface {
	Record(ctx context.Context, e *Entry) error
	Find(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, f Filter) ([]*Entry, error)
}
