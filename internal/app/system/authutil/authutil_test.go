package authutil

import (
	"errors"
	"strings"
	"testing"
)

func TestIsPasswordMethod(t *testing.T) {
	tests := map[string]bool{
		"password":   true,
		" Password ": true,
		"google":     false,
		"":           false,
	}
	for in, want := range tests {
		if got := IsPasswordMethod(in); got != want {
			t.Errorf("IsPasswordMethod(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidatePassword_Valid(t *testing.T) {
	validPasswords := []string{
		"secure123",
		"MyP@ssw0rd",
		"abcdef1",
		"סיסמהארוכה",
	}

	for _, pw := range validPasswords {
		if err := ValidatePassword(pw); err != nil {
			t.Errorf("expected %q to be valid, got error: %v", pw, err)
		}
	}
}

func TestValidatePassword_TooShort(t *testing.T) {
	for _, pw := range []string{"", "a", "abcd", "abcde"} {
		if err := ValidatePassword(pw); err != ErrPasswordTooShort {
			t.Errorf("expected ErrPasswordTooShort for %q, got %v", pw, err)
		}
	}
}

func TestValidatePassword_Length(t *testing.T) {
	if err := ValidatePassword(strings.Repeat("a", MaxPasswordLength+1)); err != ErrPasswordTooLong {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
	if err := ValidatePassword(strings.Repeat("a", MaxPasswordLength)); err != nil {
		t.Errorf("expected password at max length to be valid, got %v", err)
	}
}

func TestValidatePassword_Common(t *testing.T) {
	for _, pw := range []string{"123456", "password", "PASSWORD", "Qwerty", "ILoveYou", "letmein"} {
		if err := ValidatePassword(pw); err != ErrPasswordCommon {
			t.Errorf("expected ErrPasswordCommon for %q, got %v", pw, err)
		}
	}
}

func TestPasswordMessage(t *testing.T) {
	for _, err := range []error{ErrPasswordTooShort, ErrPasswordTooLong, ErrPasswordCommon} {
		if PasswordMessage(err) == "" {
			t.Errorf("no message for %v", err)
		}
	}
	if PasswordMessage(errors.New("other")) != "" {
		t.Error("unknown errors should have no message")
	}
	if !strings.Contains(PasswordRules(), "6") {
		t.Error("expected PasswordRules to mention minimum length of 6")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	password := "SecurePassword123"

	hash1, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash1 == password || !strings.HasPrefix(hash1, "$2") {
		t.Errorf("unexpected hash %q", hash1)
	}
	if hash1 == hash2 {
		t.Error("expected different hashes for same password (random salt)")
	}

	if !CheckPassword(password, hash1) {
		t.Error("expected CheckPassword to return true for correct password")
	}
	if CheckPassword("WrongPassword456", hash1) {
		t.Error("expected CheckPassword to return false for wrong password")
	}
	if CheckPassword("", hash1) {
		t.Error("expected CheckPassword to return false for empty password")
	}
	if CheckPassword("password", "not-a-valid-hash") {
		t.Error("expected CheckPassword to return false for invalid hash")
	}
}

func TestTempPassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := TempPassword()
		if err != nil {
			t.Fatalf("TempPassword: %v", err)
		}
		if len(pw) != TempPasswordLength {
			t.Errorf("len(%q) = %d", pw, len(pw))
		}
		if strings.ContainsAny(pw, "0O1lI") {
			t.Errorf("%q contains ambiguous characters", pw)
		}
		if err := ValidatePassword(pw); err != nil {
			t.Errorf("%q fails validation: %v", pw, err)
		}
		seen[pw] = true
	}
	if len(seen) < 20 {
		t.Error("temp passwords repeated")
	}
}
