package auth

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordMinLen and PasswordMaxLen bound the plaintext length in
	// characters, checked before hashing at registration and password
	// change. Inclusive.
	PasswordMinLen = 8
	PasswordMaxLen = 16
)

// ValidPasswordLength reports whether the plaintext length is within bounds.
// Length is counted in runes, not bytes.
func ValidPasswordLength(pw string) bool {
	n := utf8.RuneCountInString(pw)
	return n >= PasswordMinLen && n <= PasswordMaxLen
}

// HashPassword returns the salted bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches the stored hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
