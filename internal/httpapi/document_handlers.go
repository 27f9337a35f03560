package httpapi

import (
	"net/http"
	"strings"

	"evident.org/internal/audit"
	"evident.org/internal/auth"
)

type grantPermissionRequest struct {
	UserID         string `json:"user_id,omitempty"`
	Role           string `json:"role,omitempty"`
	PermissionType string `json:"permission_type"`
}

type documentAccessResponse struct {
	DocumentID string `json:"document_id"`
	CanRead    bool   `json:"can_read"`
	CanModify  bool   `json:"can_modify"`
}

func (a *API) handleDocumentScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/documents/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	docID := parts[0]
	switch {
	case len(parts) == 2 && parts[1] == "permissions":
		a.handleDocumentPermissions(w, r, docID)
	case len(parts) == 3 && parts[1] == "permissions":
		a.handleDocumentPermission(w, r, docID, parts[2])
	case len(parts) == 2 && parts[1] == "access":
		a.handleDocumentAccess(w, r, docID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleDocumentPermissions(w http.ResponseWriter, r *http.Request, docID string) {
	switch r.Method {
	case http.MethodPost:
		a.grantPermission(w, r, docID)
	case http.MethodGet:
		a.listPermissions(w, r, docID)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) grantPermission(w http.ResponseWriter, r *http.Request, docID string) {
	actor, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req grantPermissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	perm, err := a.svc.GrantDocumentPermission(r.Context(), actor, auth.GrantInput{
		DocumentID:     docID,
		UserID:         req.UserID,
		Role:           req.Role,
		PermissionType: req.PermissionType,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "document.permission.granted", map[string]any{
		"document_id":     docID,
		"permission_id":   perm.ID,
		"target_user_id":  perm.UserID,
		"target_role":     string(perm.Role),
		"permission_type": string(perm.Type),
	})
	respond(w, r, http.StatusCreated, "permission granted", perm)
}

func (a *API) listPermissions(w http.ResponseWriter, r *http.Request, docID string) {
	actor, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	perms, err := a.svc.ListDocumentPermissions(r.Context(), actor, docID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "", perms)
}

func (a *API) handleDocumentPermission(w http.ResponseWriter, r *http.Request, docID, permID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	actor, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	if err := a.svc.RevokeDocumentPermission(r.Context(), actor, docID, permID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "document.permission.revoked", map[string]any{
		"document_id":   docID,
		"permission_id": permID,
	})
	respond(w, r, http.StatusOK, "permission revoked", nil)
}

// handleDocumentAccess reports the caller's effective access to a
// document. Useful for front-ends deciding which actions to offer.
func (a *API) handleDocumentAccess(w http.ResponseWriter, r *http.Request, docID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	canRead, err := a.svc.CanAccessDocument(r.Context(), user, docID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	canModify, err := a.svc.CanModifyDocument(r.Context(), user, docID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "", documentAccessResponse{
		DocumentID: docID,
		CanRead:    canRead,
		CanModify:  canModify,
	})
}
