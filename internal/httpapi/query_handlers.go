package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"evident.org/internal/audit"
	"evident.org/internal/auth"
	"evident.org/internal/rag"
)

// handleQuery is the question-answering entry point. The pipeline is not
// wired yet, but the access check and audit trail behave as they will in
// production: every attempt leaves a row.
func (a *API) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := a.ensurePermission(w, r, auth.PermDocumentsRead)
	if !ok {
		return
	}
	var req rag.QueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, http.StatusBadRequest, "question is required")
		return
	}

	start := time.Now()
	answer, err := a.qa.Query(r.Context(), req)
	entry := &audit.Entry{
		UserID:         user.ID,
		QueryText:      req.Question,
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.RefusalReason = "pipeline unavailable"
	} else {
		entry.Answer = answer.Text
		entry.ConfidenceScore = answer.ConfidenceScore
		for _, src := range answer.Sources {
			entry.RetrievedDocuments = append(entry.RetrievedDocuments, src.DocumentID)
			entry.Sources = append(entry.Sources, audit.Source{
				DocumentID: src.DocumentID,
				Title:      src.Title,
				ChunkIndex: src.ChunkIndex,
				Score:      src.Score,
			})
		}
	}
	if recErr := a.trail.Record(r.Context(), entry); recErr != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	if err != nil {
		if errors.Is(err, rag.ErrNotImplemented) {
			writeError(w, r, http.StatusNotImplemented, "question answering is not available yet")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, r, http.StatusOK, "", answer)
}

// handleQueryHistory lists the audit trail. Admins see every user's
// queries and may filter by user; everyone else sees only their own.
func (a *API) handleQueryHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}

	filter := audit.Filter{UserID: user.ID}
	if a.svc.Checker().HasRole(user, auth.RoleAdmin) {
		filter.UserID = strings.TrimSpace(r.URL.Query().Get("user_id"))
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeError(w, r, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}

	entries, err := a.trail.List(r.Context(), filter)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	respond(w, r, http.StatusOK, "", entries)
}
