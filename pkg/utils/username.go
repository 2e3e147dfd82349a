package utils

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	DefaultUsername   = "user"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)
)

// ValidateUsername validates username format
// Rules: 3-30 characters, letters, numbers, underscores and dots, starting with a letter or number
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLength {
		return &ValidationError{Field: "userName", Message: "Username must be at least 3 characters"}
	}

	if len(username) > MaxUsernameLength {
		return &ValidationError{Field: "userName", Message: "Username must be at most 30 characters"}
	}

	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "userName", Message: "Username can only contain letters, numbers, underscores and dots"}
	}

	if !isASCIIAlnum(rune(username[0])) {
		return &ValidationError{Field: "userName", Message: "Username must start with a letter or number"}
	}

	return nil
}

// NormalizeUsername converts username to lowercase for lookups
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// UsernameBase derives a candidate username for accounts created through external sign-in:
// the email local part, else the full name without spaces, else DefaultUsername.
// The result always passes ValidateUsername and leaves room for a numeric suffix.
func UsernameBase(email, fullName string) string {
	var raw string
	if at := strings.Index(email, "@"); at > 0 {
		raw = email[:at]
	} else {
		raw = strings.Join(strings.Fields(fullName), "")
	}

	var b strings.Builder
	for _, r := range raw {
		if isASCIIAlnum(r) || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	base := strings.TrimLeft(b.String(), "_.")

	if base == "" {
		return DefaultUsername
	}
	if len(base) < MinUsernameLength {
		base += DefaultUsername
	}
	// Keep 6 characters for the suffix appended by WithSuffix.
	if len(base) > MaxUsernameLength-6 {
		base = base[:MaxUsernameLength-6]
	}
	return base
}

// WithSuffix returns base for n == 0 and base followed by n otherwise.
func WithSuffix(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + strconv.Itoa(n)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
