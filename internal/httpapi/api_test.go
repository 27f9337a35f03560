package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"evident.org/internal/audit"
	"evident.org/internal/auth"
	"evident.org/internal/config"
	"evident.org/internal/rag"
)

// fakeStore is an in-memory auth.Store for handler tests.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*auth.User
	docs  map[string]*auth.Document
	perms map[string]*auth.DocumentPermission
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*auth.User),
		docs:  make(map[string]*auth.Document),
		perms: make(map[string]*auth.DocumentPermission),
	}
}

func (f *fakeStore) Users() auth.UserStore                             { return (*fakeUsers)(f) }
func (f *fakeStore) Documents() auth.DocumentStore                     { return (*fakeDocs)(f) }
func (f *fakeStore) DocumentPermissions() auth.DocumentPermissionStore { return (*fakePerms)(f) }

type fakeUsers fakeStore

func (f *fakeUsers) Create(_ context.Context, u *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return auth.ErrConflict
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Find(_ context.Context, id string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context) ([]*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*auth.User, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, role auth.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.IsActive = active
	return nil
}

type fakeDocs fakeStore

func (f *fakeDocs) Find(_ context.Context, id string) (*auth.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.docs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, auth.ErrNotFound
}

type fakePerms fakeStore

func (f *fakePerms) Grant(_ context.Context, p *auth.DocumentPermission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.perms[p.ID] = &cp
	return nil
}

func (f *fakePerms) Revoke(_ context.Context, documentID, permissionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.perms[permissionID]
	if !ok || p.DocumentID != documentID {
		return auth.ErrNotFound
	}
	delete(f.perms, permissionID)
	return nil
}

func (f *fakePerms) ForUser(_ context.Context, documentID, userID string) ([]auth.DocumentPermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []auth.DocumentPermission
	for _, p := range f.perms {
		if p.DocumentID == documentID && p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePerms) ForRole(_ context.Context, documentID string, role auth.Role) ([]auth.DocumentPermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []auth.DocumentPermission
	for _, p := range f.perms {
		if p.DocumentID == documentID && p.UserID == "" && p.Role == role {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePerms) ListForDocument(_ context.Context, documentID string) ([]auth.DocumentPermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []auth.DocumentPermission
	for _, p := range f.perms {
		if p.DocumentID == documentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakeTrail is an in-memory audit.Store.
type fakeTrail struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (f *fakeTrail) Record(_ context.Context, e *audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	cp := *e
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeTrail) Find(_ context.Context, id string) (*audit.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeTrail) List(_ context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*audit.Entry
	for _, e := range f.entries {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

type testAPI struct {
	t     *testing.T
	srv   *httptest.Server
	store *fakeStore
	trail *fakeTrail
	svc   *auth.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := newFakeStore()
	trail := &fakeTrail{}

	tokens, err := auth.NewTokens("test-secret")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	svc, err := auth.NewService(store, tokens, auth.NewResetTokenStore(time.Hour))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	cfg := config.Default()
	cfg.Rate = config.Rate{}
	api := New(svc, trail, rag.NewService(rag.Settings{}), ReadyProbe{}, cfg, "test")
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv, store: store, trail: trail, svc: svc}
}

func (a *testAPI) seedUser(username string, role auth.Role, password string, active bool) *auth.User {
	a.t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		a.t.Fatalf("HashPassword: %v", err)
	}
	u := &auth.User{
		ID:           "id-" + username,
		Username:     username,
		Email:        username + "@example.org",
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}
	a.store.mu.Lock()
	a.store.users[u.ID] = u
	a.store.mu.Unlock()
	return u
}

func (a *testAPI) seedDoc(d *auth.Document) {
	a.store.mu.Lock()
	a.store.docs[d.ID] = d
	a.store.mu.Unlock()
}

func (a *testAPI) do(method, path string, body any, headers map[string]string) *http.Response {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	if err != nil {
		a.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (a *testAPI) login(username, password string) string {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	var env struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		a.t.Fatalf("decode login response: %v", err)
	}
	if env.Data.AccessToken == "" {
		a.t.Fatal("empty access token")
	}
	return env.Data.AccessToken
}

func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}
