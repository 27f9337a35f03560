package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is one of the three fixed account roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEngineer Role = "engineer"
	RoleViewer   Role = "viewer"
)

// ParseRole validates a role string supplied by a client.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleEngineer:
		return RoleEngineer, nil
	case RoleViewer:
		return RoleViewer, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q, must be one of admin, engineer, viewer", ErrInvalidInput, s)
	}
}

// PermissionType classifies a document-level override.
type PermissionType string

const (
	PermissionRead   PermissionType = "read"
	PermissionWrite  PermissionType = "write"
	PermissionDelete PermissionType = "delete"
)

// ParsePermissionType validates a permission type string.
func ParsePermissionType(s string) (PermissionType, error) {
	switch PermissionType(strings.ToLower(strings.TrimSpace(s))) {
	case PermissionRead:
		return PermissionRead, nil
	case PermissionWrite:
		return PermissionWrite, nil
	case PermissionDelete:
		return PermissionDelete, nil
	default:
		return "", fmt.Errorf("%w: unknown permission type %q", ErrInvalidInput, s)
	}
}

// User is an account record. Accounts are deactivated, never deleted, so
// document ownership and audit references stay intact.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Document is the metadata record the authorization engine scopes access
// over. An empty Mission means the document is unscoped and always passes
// the mission check.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	FilePath    string    `json:"file_path"`
	FileType    string    `json:"file_type"`
	Mission     string    `json:"mission,omitempty"`
	Project     string    `json:"project,omitempty"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
	TotalChunks int       `json:"total_chunks"`
}

// DocumentPermission is a per-document override. Exactly one of UserID or
// Role is expected to be set; rows carrying both are treated as
// user-specific because user lookup happens first.
type DocumentPermission struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	UserID     string         `json:"user_id,omitempty"`
	Role       Role           `json:"role,omitempty"`
	Type       PermissionType `json:"permission_type"`
	CreatedAt  time.Time      `json:"created_at"`
}
