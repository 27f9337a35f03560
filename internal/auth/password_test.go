package auth

import (
	"errors"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r!good")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Sup3r!good" {
		t.Fatal("password stored in the clear")
	}
	if err := VerifyPassword(hash, "Sup3r!good"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password verified")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := map[string]bool{
		"Sup3r!good":  true,
		"short1!A":    true,
		"Ab1!":        false, // too short
		"alllower1!":  false, // no upper
		"ALLUPPER1!":  false, // no lower
		"NoDigits!!":  false, // no digit
		"NoSpecial11": false, // no special
	}
	for password, ok := range cases {
		err := ValidatePasswordStrength(password)
		if ok && err != nil {
			t.Errorf("%q rejected: %v", password, err)
		}
		if !ok {
			if err == nil {
				t.Errorf("%q accepted", password)
				continue
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("%q: error does not wrap ErrInvalidInput: %v", password, err)
			}
		}
	}
}

func TestGenerateResetTokenUnique(t *testing.T) {
	a, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}
	b, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}
	if a == b {
		t.Fatal("tokens are not unique")
	}
	if len(a) < 40 {
		t.Fatalf("token unexpectedly short: %d chars", len(a))
	}
}
