package models

import (
	"time"
)

const (
	MaxTitleLength    = 255
	MaxCategoryLength = 100
)

// JournalEntry is a private entry owned by exactly one user.
type JournalEntry struct {
	ID         int64     `db:"id"`
	UserID     string    `db:"user_id"`
	Title      string    `db:"title"`
	Category   string    `db:"category"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	IsPinned   bool      `db:"is_pinned"`
	IsFavorite bool      `db:"is_favorite"`
}
