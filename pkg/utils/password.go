package utils

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt rejects input longer than 72 bytes.
	MaxPasswordBytes = 72
)

// ValidatePasswordStrength enforces the account password policy:
// at least 8 characters including one digit and one character outside [a-zA-Z0-9].
func ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	if len(password) > MaxPasswordBytes {
		return &ValidationError{Field: "password", Message: "Password must be at most 72 bytes"}
	}

	var hasDigit, hasSymbol bool
	for _, r := range password {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if !isASCIIAlnum(r) {
			hasSymbol = true
		}
	}
	if !hasDigit || !hasSymbol {
		return &ValidationError{Field: "password", Message: "Password must contain at least one number and one special character"}
	}
	return nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a bcrypt hash. Empty or malformed hashes never match.
func VerifyPassword(password, hashedPassword string) bool {
	if hashedPassword == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
