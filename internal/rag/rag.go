// Package rag holds the question-answering surface of the service. The
// retrieval and generation pipeline runs out of process; this package
// carries its request/response types and a placeholder service so the
// HTTP surface, access checks and audit trail are exercised end to end.
package rag

import (
	"context"
	"errors"
	"strings"
)

// ErrNotImplemented is returned while the retrieval pipeline is not wired.
var ErrNotImplemented = errors.New("rag: query pipeline not implemented")

// QueryRequest is a user question plus optional retrieval constraints.
type QueryRequest struct {
	Question    string   `json:"question"`
	Mission     string   `json:"mission,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
}

// Answer is the generated response with its provenance.
type Answer struct {
	Text            string   `json:"text"`
	ConfidenceScore float64  `json:"confidence_score"`
	Sources         []Source `json:"sources"`
	RefusalReason   string   `json:"refusal_reason,omitempty"`
}

// Source identifies the chunk an answer statement drew from.
type Source struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// Settings mirrors the retrieval configuration the pipeline will consume.
type Settings struct {
	EmbeddingModel      string
	TopK                int
	ConfidenceThreshold float64
}

// Service answers questions over the document corpus.
type Service struct {
	settings Settings
}

func NewService(settings Settings) *Service {
	if settings.TopK <= 0 {
		settings.TopK = 5
	}
	return &Service{settings: settings}
}

func (s *Service) Settings() Settings { return s.settings }

// Query validates the request and returns ErrNotImplemented until the
// retrieval pipeline lands. Callers still audit the attempt.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*Answer, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, errors.New("rag: question is required")
	}
	return nil, ErrNotImplemented
}
