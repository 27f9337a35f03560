package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"evident.org/internal/ids"
)

// Service provides the high-level authentication and authorization
// operations the HTTP layer calls into: credential login, token refresh,
// admin-only account management, password reset, and document access
// decisions composed from store lookups plus the pure Checker.
type Service struct {
	store   Store
	tokens  *Tokens
	checker *Checker
	resets  *ResetTokenStore
	now     func() time.Time
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the Service. All three collaborators are required.
func NewService(store Store, tokens *Tokens, resets *ResetTokenStore, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	if resets == nil {
		return nil, errors.New("auth: reset token store is required")
	}
	s := &Service{
		store:   store,
		tokens:  tokens,
		checker: NewChecker(),
		resets:  resets,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Checker exposes the authorization engine for callers that already hold
// a user and need a pure role/permission decision.
func (s *Service) Checker() *Checker { return s.checker }

// Tokens exposes the token service for diagnostics endpoints.
func (s *Service) Tokens() *Tokens { return s.tokens }

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Login authenticates a username/password pair and issues a token pair.
// Unknown usernames and wrong passwords both return ErrInvalidCredentials;
// an inactive account returns ErrInactive.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, *User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, err
	}
	if !user.IsActive {
		return TokenPair{}, nil, ErrInactive
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	access, accessExp, err := s.tokens.IssueAccess(user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, user, nil
}

// Refresh verifies a refresh token and issues a fresh access token for the
// subject, re-checking that the account still exists and is active.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, *User, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	user, err := s.store.Users().Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, nil, ErrInvalidToken
		}
		return "", time.Time{}, nil, err
	}
	if !user.IsActive {
		return "", time.Time{}, nil, ErrInactive
	}
	access, exp, err := s.tokens.IssueAccess(user)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	return access, exp, user, nil
}

// Authenticate verifies an access token and loads its subject. Unknown
// subjects map to ErrInvalidToken so callers cannot probe for user ids;
// inactive accounts map to ErrInactive.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	claims, err := s.tokens.Verify(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users().Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactive
	}
	return user, nil
}

// RegisterInput is the payload for admin-initiated account creation.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     string
}

// Register creates an account. Only admins may register users; the role
// check fails closed before any validation runs.
func (s *Service) Register(ctx context.Context, actor *User, in RegisterInput) (*User, error) {
	if !s.checker.HasRole(actor, RoleAdmin) {
		return nil, fmt.Errorf("%w: only administrators can register users", ErrForbidden)
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Username == "" {
		return nil, &ValidationError{Field: "username", Reason: "username is required"}
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, &ValidationError{Field: "email", Reason: "valid email is required"}
	}
	if err := ValidatePasswordStrength(in.Password); err != nil {
		return nil, err
	}
	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           ids.NewUUID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AssignRole changes a user's role. Admin-only. An admin cannot remove
// their own admin role; the guard runs before any mutation.
func (s *Service) AssignRole(ctx context.Context, actor *User, targetID, roleName string) (*User, error) {
	if !s.checker.HasRole(actor, RoleAdmin) {
		return nil, fmt.Errorf("%w: only administrators can assign roles", ErrForbidden)
	}
	role, err := ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	if actor.ID == targetID && role != RoleAdmin {
		return nil, fmt.Errorf("%w: administrators cannot remove their own admin role", ErrInvalidInput)
	}
	target, err := s.store.Users().Find(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Users().UpdateRole(ctx, target.ID, role); err != nil {
		return nil, err
	}
	target.Role = role
	return target, nil
}

// Deactivate disables an account instead of deleting it, preserving audit
// and document ownership references. Admin-only.
func (s *Service) Deactivate(ctx context.Context, actor *User, targetID string) error {
	if !s.checker.HasRole(actor, RoleAdmin) {
		return fmt.Errorf("%w: only administrators can deactivate users", ErrForbidden)
	}
	if _, err := s.store.Users().Find(ctx, targetID); err != nil {
		return err
	}
	return s.store.Users().SetActive(ctx, targetID, false)
}

// ListUsers returns all accounts. Admin-only.
func (s *Service) ListUsers(ctx context.Context, actor *User) ([]*User, error) {
	if !s.checker.HasRole(actor, RoleAdmin) {
		return nil, fmt.Errorf("%w: only administrators can list users", ErrForbidden)
	}
	return s.store.Users().List(ctx)
}

// EnsureAdmin creates the named admin account if it does not exist yet.
// Used at startup to bootstrap the first administrator; an existing
// account is left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (*User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, &ValidationError{Field: "username", Reason: "username is required"}
	}
	existing, err := s.store.Users().FindByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, false, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	admin := &User{
		ID:           ids.NewUUID(),
		Username:     username,
		Email:        strings.TrimSpace(strings.ToLower(email)),
		PasswordHash: hash,
		Role:         RoleAdmin,
		IsActive:     true,
	}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

// RequestPasswordReset generates and stores a reset token for the account
// behind the email. The empty token for unknown emails lets the caller
// return the same response either way, preventing account enumeration.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	token, err := GenerateResetToken()
	if err != nil {
		return "", err
	}
	s.resets.Store(token, user.ID, user.Email)
	return token, nil
}

// ConfirmPasswordReset consumes a reset token and updates the password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	data, ok := s.resets.Get(token)
	if !ok {
		return fmt.Errorf("%w: invalid or expired reset token", ErrInvalidInput)
	}
	user, err := s.store.Users().Find(ctx, data.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.resets.Delete(token)
			return fmt.Errorf("%w: invalid reset token", ErrInvalidInput)
		}
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.resets.MarkUsed(token)
	return nil
}

// CanAccessDocument composes override lookups with the pure checker to
// decide read-level access. Admin short-circuits before any lookup.
func (s *Service) CanAccessDocument(ctx context.Context, user *User, documentID string) (bool, error) {
	doc, userOverrides, roleOverrides, short, allowed, err := s.documentContext(ctx, user, documentID)
	if err != nil {
		return false, err
	}
	if short {
		return allowed, nil
	}
	return s.checker.CanAccessDocument(user, doc, userOverrides, roleOverrides), nil
}

// CanModifyDocument is CanAccessDocument's write/delete counterpart.
func (s *Service) CanModifyDocument(ctx context.Context, user *User, documentID string) (bool, error) {
	doc, userOverrides, roleOverrides, short, allowed, err := s.documentContext(ctx, user, documentID)
	if err != nil {
		return false, err
	}
	if short {
		return allowed, nil
	}
	return s.checker.CanModifyDocument(user, doc, userOverrides, roleOverrides), nil
}

// documentContext fetches the document and override rows a decision needs.
// Admin and inactive outcomes short-circuit so no lookups run for them.
func (s *Service) documentContext(ctx context.Context, user *User, documentID string) (doc *Document, userOverrides, roleOverrides []DocumentPermission, short, allowed bool, err error) {
	if user == nil || !user.IsActive {
		return nil, nil, nil, true, false, nil
	}
	doc, err = s.store.Documents().Find(ctx, documentID)
	if err != nil {
		return nil, nil, nil, false, false, err
	}
	if user.Role == RoleAdmin {
		return doc, nil, nil, true, true, nil
	}
	perms := s.store.DocumentPermissions()
	userOverrides, err = perms.ForUser(ctx, doc.ID, user.ID)
	if err != nil {
		return nil, nil, nil, false, false, err
	}
	roleOverrides, err = perms.ForRole(ctx, doc.ID, user.Role)
	if err != nil {
		return nil, nil, nil, false, false, err
	}
	return doc, userOverrides, roleOverrides, false, false, nil
}

// GrantInput describes a new document permission override.
type GrantInput struct {
	DocumentID     string
	UserID         string
	Role           string
	PermissionType string
}

// GrantDocumentPermission creates an override row. Only an admin or the
// document owner may grant. At least one of UserID/Role must be set; rows
// with both are stored as-is and resolve as user-specific at check time.
func (s *Service) GrantDocumentPermission(ctx context.Context, actor *User, in GrantInput) (*DocumentPermission, error) {
	doc, err := s.store.Documents().Find(ctx, in.DocumentID)
	if err != nil {
		return nil, err
	}
	if !s.checker.HasRole(actor, RoleAdmin) && (actor == nil || !actor.IsActive || actor.ID != doc.UploadedBy) {
		return nil, fmt.Errorf("%w: only administrators or the document owner can grant access", ErrForbidden)
	}
	permType, err := ParsePermissionType(in.PermissionType)
	if err != nil {
		return nil, err
	}
	in.UserID = strings.TrimSpace(in.UserID)
	var role Role
	if r := strings.TrimSpace(in.Role); r != "" {
		role, err = ParseRole(r)
		if err != nil {
			return nil, err
		}
	}
	if in.UserID == "" && role == "" {
		return nil, &ValidationError{Field: "grant", Reason: "either user_id or role is required"}
	}
	if in.UserID != "" {
		if _, err := s.store.Users().Find(ctx, in.UserID); err != nil {
			return nil, err
		}
	}
	perm := &DocumentPermission{
		ID:         ids.NewUUID(),
		DocumentID: doc.ID,
		UserID:     in.UserID,
		Role:       role,
		Type:       permType,
	}
	if err := s.store.DocumentPermissions().Grant(ctx, perm); err != nil {
		return nil, err
	}
	return perm, nil
}

// ListDocumentPermissions returns all override rows for a document.
// Admin or owner only.
func (s *Service) ListDocumentPermissions(ctx context.Context, actor *User, documentID string) ([]DocumentPermission, error) {
	doc, err := s.store.Documents().Find(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !s.checker.HasRole(actor, RoleAdmin) && (actor == nil || !actor.IsActive || actor.ID != doc.UploadedBy) {
		return nil, fmt.Errorf("%w: only administrators or the document owner can view access grants", ErrForbidden)
	}
	return s.store.DocumentPermissions().ListForDocument(ctx, doc.ID)
}

// RevokeDocumentPermission removes an override row. Admin or owner only.
func (s *Service) RevokeDocumentPermission(ctx context.Context, actor *User, documentID, permissionID string) error {
	doc, err := s.store.Documents().Find(ctx, documentID)
	if err != nil {
		return err
	}
	if !s.checker.HasRole(actor, RoleAdmin) && (actor == nil || !actor.IsActive || actor.ID != doc.UploadedBy) {
		return fmt.Errorf("%w: only administrators or the document owner can revoke access", ErrForbidden)
	}
	return s.store.DocumentPermissions().Revoke(ctx, doc.ID, permissionID)
}
