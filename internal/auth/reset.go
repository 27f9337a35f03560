package auth

import (
	"context"
	"sync"
	"time"
)

// ResetTokenData is what a stored password-reset token resolves to.
type ResetTokenData struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type resetRecord struct {
	userID    string
	email     string
	expiresAt time.Time
	used      bool
}

// ResetTokenStore keeps password-reset tokens in process memory behind a
// mutex. Reset flows are low-volume and do not need to survive a restart;
// a multi-instance deployment must replace this with shared persisted
// state. The lock is never held across I/O.
type ResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*resetRecord
	ttl    time.Duration
	now    func() time.Time
}

// ResetOption configures ResetTokenStore.
type ResetOption func(*ResetTokenStore)

// WithResetClock overrides the time source (useful for tests).
func WithResetClock(fn func() time.Time) ResetOption {
	return func(s *ResetTokenStore) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewResetTokenStore constructs the store. ttl <= 0 falls back to one hour.
func NewResetTokenStore(ttl time.Duration, opts ...ResetOption) *ResetTokenStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &ResetTokenStore{
		tokens: make(map[string]*resetRecord),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store records a freshly generated token for the user.
func (s *ResetTokenStore) Store(token, userID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = &resetRecord{
		userID:    userID,
		email:     email,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Get returns the token data if the token exists, has not expired and has
// not been used. Expired tokens are removed on the way out.
func (s *ResetTokenStore) Get(token string) (ResetTokenData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[token]
	if !ok {
		return ResetTokenData{}, false
	}
	if s.now().After(rec.expiresAt) {
		delete(s.tokens, token)
		return ResetTokenData{}, false
	}
	if rec.used {
		return ResetTokenData{}, false
	}
	return ResetTokenData{UserID: rec.userID, Email: rec.email, ExpiresAt: rec.expiresAt}, true
}

// MarkUsed consumes a token. A used token resolves to nothing afterwards.
func (s *ResetTokenStore) MarkUsed(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.tokens[token]; ok {
		rec.used = true
	}
}

// Delete removes a token outright.
func (s *ResetTokenStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// CleanupExpired removes every token whose expiry has passed and returns
// how many were removed.
func (s *ResetTokenStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for token, rec := range s.tokens {
		if now.After(rec.expiresAt) {
			delete(s.tokens, token)
			removed++
		}
	}
	return removed
}

// Sweep runs CleanupExpired on the given interval until ctx is cancelled.
func (s *ResetTokenStore) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired()
		}
	}
}
