// Package authutil holds the password rules shared by login, password
// change and quick-create.
package authutil

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
	// BcryptCost matches what user creation has always used.
	BcryptCost = 12
	// TempPasswordLength is the length of generated one-time passwords.
	TempPasswordLength = 10
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrPasswordCommon   = errors.New("password too common")
)

// Auth methods a user can sign in with.
const (
	MethodPassword = "password"
	MethodGoogle   = "google"
)

// IsPasswordMethod reports whether method uses a stored password hash.
func IsPasswordMethod(method string) bool {
	return strings.EqualFold(strings.TrimSpace(method), MethodPassword)
}

var commonPasswords = map[string]struct{}{
	"123456": {}, "1234567": {}, "12345678": {}, "123456789": {}, "1234567890": {},
	"password": {}, "qwerty": {}, "abc123": {}, "111111": {}, "123123": {},
	"iloveyou": {}, "letmein": {}, "football": {}, "welcome": {}, "monkey": {},
	"admin": {}, "000000": {}, "654321": {}, "qwerty123": {}, "password1": {},
}

// ValidatePassword checks length and rejects well-known passwords,
// case-insensitively.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes ValidatePassword for form hints.
func PasswordRules() string {
	return fmt.Sprintf("לפחות %d תווים, ולא סיסמה נפוצה.", MinPasswordLength)
}

// PasswordMessage returns the Hebrew message for a ValidatePassword error.
func PasswordMessage(err error) string {
	switch {
	case errors.Is(err, ErrPasswordTooShort):
		return fmt.Sprintf("הסיסמה חייבת להכיל לפחות %d תווים.", MinPasswordLength)
	case errors.Is(err, ErrPasswordTooLong):
		return fmt.Sprintf("הסיסמה ארוכה מדי (עד %d תווים).", MaxPasswordLength)
	case errors.Is(err, ErrPasswordCommon):
		return "הסיסמה נפוצה מדי. בחרו סיסמה אחרת."
	default:
		return ""
	}
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether pw matches hash. A malformed hash never
// matches.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Unambiguous characters only: no 0/O, 1/l/I.
const tempAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TempPassword returns a random one-time password. It always contains a
// digit so it passes ValidatePassword.
func TempPassword() (string, error) {
	for {
		b := make([]byte, TempPasswordLength)
		max := big.NewInt(int64(len(tempAlphabet)))
		for i := range b {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			b[i] = tempAlphabet[n.Int64()]
		}
		pw := string(b)
		if strings.ContainsAny(pw, "23456789") && ValidatePassword(pw) == nil {
			return pw, nil
		}
	}
}
