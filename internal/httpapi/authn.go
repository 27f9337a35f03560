package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"evident.org/internal/auth"
	"evident.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/api/auth/login",
	"/api/auth/refresh",
	"/api/auth/reset-password",
	"/api/auth/reset-password/confirm",
	"/api/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.CountAuthFailure("missing_token")
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		user, err := a.svc.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				obs.CountAuthFailure("invalid_token")
				writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			case errors.Is(err, auth.ErrInactive):
				obs.CountAuthFailure("inactive_account")
				writeError(w, r, http.StatusForbidden, "account is inactive")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := auth.ContextWithUser(r.Context(), user)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser pulls the authenticated user out of the request context.
// withAuth guarantees it is set on protected paths; a miss means a
// wiring bug, reported as 401 rather than a panic.
func (a *API) currentUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

// ensureRole enforces role membership, logging the denial with the role
// that was required.
func (a *API) ensureRole(w http.ResponseWriter, r *http.Request, roles ...auth.Role) (*auth.User, bool) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return nil, false
	}
	if !a.svc.Checker().HasAnyRole(user, roles...) {
		names := make([]string, len(roles))
		for i, role := range roles {
			names[i] = string(role)
		}
		obs.CountAuthFailure("role_denied")
		obs.LogRequest(map[string]any{
			"level":         "warn",
			"msg":           "authorization_denied",
			"request_id":    RequestIDFromContext(r.Context()),
			"user_id":       user.ID,
			"required_role": strings.Join(names, "|"),
			"actual_role":   string(user.Role),
			"path":          r.URL.Path,
		})
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return nil, false
	}
	return user, true
}

// ensurePermission enforces a permission string, logging the denial with
// the permission that was required.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, perm string) (*auth.User, bool) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return nil, false
	}
	if !a.svc.Checker().HasPermission(user, perm) {
		obs.CountAuthFailure("permission_denied")
		obs.LogRequest(map[string]any{
			"level":               "warn",
			"msg":                 "authorization_denied",
			"request_id":          RequestIDFromContext(r.Context()),
			"user_id":             user.ID,
			"required_permission": perm,
			"actual_role":         string(user.Role),
			"path":                r.URL.Path,
		})
		writeError(w, r, http.StatusForbidden, "insufficient permissions")
		return nil, false
	}
	return user, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
