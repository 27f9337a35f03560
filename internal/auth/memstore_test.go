package auth

import (
	"context"
	"sync"
)

// memStore is an in-memory Store used by the service tests.
type memStore struct {
	mu    sync.Mutex
	users map[string]*User
	docs  map[string]*Document
	perms map[string]*DocumentPermission
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*User),
		docs:  make(map[string]*Document),
		perms: make(map[string]*DocumentPermission),
	}
}

func (m *memStore) Users() UserStore                             { return (*memUsers)(m) }
func (m *memStore) Documents() DocumentStore                     { return (*memDocs)(m) }
func (m *memStore) DocumentPermissions() DocumentPermissionStore { return (*memPerms)(m) }

func (m *memStore) addUser(u *User) {
	cp := *u
	m.users[u.ID] = &cp
}

func (m *memStore) addDoc(d *Document) { m.docs[d.ID] = d }

type memUsers memStore

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return ErrConflict
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) Find(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) List(_ context.Context) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) UpdateRole(_ context.Context, id string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *memUsers) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}

type memDocs memStore

func (m *memDocs) Find(_ context.Context, id string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

type memPerms memStore

func (m *memPerms) Grant(_ context.Context, p *DocumentPermission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.perms[p.ID] = &cp
	return nil
}

func (m *memPerms) Revoke(_ context.Context, documentID, permissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.perms[permissionID]
	if !ok || p.DocumentID != documentID {
		return ErrNotFound
	}
	delete(m.perms, permissionID)
	return nil
}

func (m *memPerms) ForUser(_ context.Context, documentID, userID string) ([]DocumentPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DocumentPermission
	for _, p := range m.perms {
		if p.DocumentID == documentID && p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPerms) ForRole(_ context.Context, documentID string, role Role) ([]DocumentPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DocumentPermission
	for _, p := range m.perms {
		if p.DocumentID == documentID && p.UserID == "" && p.Role == role {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPerms) ListForDocument(_ context.Context, documentID string) ([]DocumentPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DocumentPermission
	for _, p := range m.perms {
		if p.DocumentID == documentID {
			out = append(out, *p)
		}
	}
	return out, nil
}
