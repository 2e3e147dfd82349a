package utils

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC3339 timestamp and returns
// midnight UTC of that date. An empty string yields nil.
func ParseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(DateLayout, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, &ValidationError{Field: field, Message: "Date must be in YYYY-MM-DD format"}
		}
	}

	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

// FormatDate renders a nullable date as YYYY-MM-DD, or "" when nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
