package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"evident.org/internal/audit"
	"evident.org/internal/auth"
	"evident.org/internal/config"
	"evident.org/internal/obs"
	"evident.org/internal/rag"
)

// ReadyProbe reports whether the service can take traffic.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	svc        *auth.Service
	trail      audit.Store
	qa         *rag.Service
	readyProbe ReadyProbe
	version    string

	corsOrigins   []string
	maxBodyBytes  int64
	rateBurst     int
	ratePerSecond int
}

func New(svc *auth.Service, trail audit.Store, qa *rag.Service, rp ReadyProbe, cfg config.Config, version string) *API {
	a := &API{
		mux:           http.NewServeMux(),
		svc:           svc,
		trail:         trail,
		qa:            qa,
		readyProbe:    rp,
		version:       version,
		corsOrigins:   cfg.CORS.Origins,
		maxBodyBytes:  cfg.Server.MaxBodyBytes,
		rateBurst:     cfg.Rate.Burst,
		ratePerSecond: cfg.Rate.PerSecond,
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)
	a.mux.HandleFunc("/api/auth/reset-password", a.handleResetRequest)
	a.mux.HandleFunc("/api/auth/reset-password/confirm", a.handleResetConfirm)

	// admin
	a.mux.HandleFunc("/api/admin/users", a.handleUsersCollection)
	a.mux.HandleFunc("/api/admin/users/", a.handleUserResource)

	// documents
	a.mux.HandleFunc("/api/documents/", a.handleDocumentScoped)

	// question answering
	a.mux.HandleFunc("/api/query", a.handleQuery)
	a.mux.HandleFunc("/api/query/history", a.handleQueryHistory)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	if a.rateBurst > 0 && a.ratePerSecond > 0 {
		h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	}
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "evident-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "evident-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
