package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a stored hash.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// ValidatePasswordStrength enforces the account password policy: at least
// eight characters with an upper-case letter, a lower-case letter, a digit
// and a special character.
func ValidatePasswordStrength(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Reason: "password is required"}
	}
	if len(password) < 8 {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters long"}
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return &ValidationError{Field: "password", Reason: "must contain at least one uppercase letter"}
	case !hasLower:
		return &ValidationError{Field: "password", Reason: "must contain at least one lowercase letter"}
	case !hasDigit:
		return &ValidationError{Field: "password", Reason: "must contain at least one number"}
	case !hasSpecial:
		return &ValidationError{Field: "password", Reason: "must contain at least one special character"}
	}
	return nil
}

// GenerateResetToken returns an opaque URL-safe token for the password
// reset flow (32 random bytes, base64url without padding).
func GenerateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
