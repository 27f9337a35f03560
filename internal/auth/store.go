package auth

import "context"

// Store describes the persistence operations the auth subsystem needs.
type Store interface {
	Users() UserStore
	Documents() DocumentStore
	DocumentPermissions() DocumentPermissionStore
}

// UserStore manages account records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id string, role Role) error
	SetActive(ctx context.Context, id string, active bool) error
}

// DocumentStore exposes the document metadata the engine scopes over.
// Documents are owned by the ingestion side of the system; this interface
// covers only what authorization needs.
type DocumentStore interface {
	Find(ctx context.Context, id string) (*Document, error)
}

// DocumentPermissionStore manages per-document overrides.
type DocumentPermissionStore interface {
	Grant(ctx context.Context, p *DocumentPermission) error
	Revoke(ctx context.Context, documentID, permissionID string) error
	ForUser(ctx context.Context, documentID, userID string) ([]DocumentPermission, error)
	ForRole(ctx context.Context, documentID string, role Role) ([]DocumentPermission, error)
	ListForDocument(ctx context.Context, documentID string) ([]DocumentPermission, error)
}
