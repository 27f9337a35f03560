package httpapi

import (
	"net/http"
	"strings"

	"evident.org/internal/audit"
	"evident.org/internal/auth"
)

type assignRoleRequest struct {
	Role string `json:"role"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.ensureRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}
	users, err := a.svc.ListUsers(r.Context(), actor)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "", users)
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		a.handleUser(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "role":
		a.handleUserRole(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleUser(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	actor, ok := a.ensureRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}
	if err := a.svc.Deactivate(r.Context(), actor, userID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.user.deactivated", map[string]any{
		"target_user_id": userID,
	})
	respond(w, r, http.StatusOK, "user deactivated", nil)
}

func (a *API) handleUserRole(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	actor, ok := a.ensureRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.svc.AssignRole(r.Context(), actor, userID, req.Role)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.user.role_assigned", map[string]any{
		"target_user_id": userID,
		"role":           req.Role,
	})
	respond(w, r, http.StatusOK, "role updated", user)
}
