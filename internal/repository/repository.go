// Package repository holds the store access layer for users and journal entries.
package repository

import (
	"context"
	"errors"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
)

// ErrNotFound is returned when no row matches. For entries this covers both a missing id and
// an id owned by someone else.
var ErrNotFound = errors.New("record not found")

// ErrPinLimit is returned when pinning would exceed the owner's pinned entry limit.
var ErrPinLimit = errors.New("pinned entry limit reached")

// ErrDuplicate matches any *DuplicateError via errors.Is.
var ErrDuplicate = errors.New("duplicate record")

// DuplicateError reports a unique index violation. Constraint names the index.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return "duplicate record violates " + e.Constraint
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// DuplicateOn reports whether err is a unique violation of the named index.
func DuplicateOn(err error, constraint string) bool {
	var dup *DuplicateError
	return errors.As(err, &dup) && dup.Constraint == constraint
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByLogin matches identifier against email or username, case-insensitively.
	FindByLogin(ctx context.Context, identifier string) (*models.User, error)
	FindByGoogleSubject(ctx context.Context, subject string) (*models.User, error)
	Add(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// UsernameTaken ignores the account identified by exceptID (may be empty).
	UsernameTaken(ctx context.Context, username, exceptID string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// EntryQuery selects an owner's entries. Nil flags do not filter. Search is a
// case-insensitive substring matched against the title, or title, category and content.
type EntryQuery struct {
	OwnerID   string
	Pinned    *bool
	Favorite  *bool
	Search    string
	TitleOnly bool
}

// EntryRepository scopes every read and write by owner id.
// Query results are ordered pinned first, then newest first.
type EntryRepository interface {
	Find(ctx context.Context, ownerID string, id int64) (*models.JournalEntry, error)
	Add(ctx context.Context, entry *models.JournalEntry) error
	// Update writes title, category, content and updated_at only, then reloads entry.
	Update(ctx context.Context, entry *models.JournalEntry) error
	// ToggleFavorite and TogglePin flip one flag atomically and return the stored row.
	ToggleFavorite(ctx context.Context, ownerID string, id int64) (*models.JournalEntry, error)
	TogglePin(ctx context.Context, ownerID string, id int64, maxPinned int) (*models.JournalEntry, error)
	Remove(ctx context.Context, ownerID string, id int64) error
	Query(ctx context.Context, q EntryQuery) ([]models.JournalEntry, error)
	// TitleTaken ignores the entry identified by exceptID (0 for none).
	TitleTaken(ctx context.Context, ownerID, title string, exceptID int64) (bool, error)
}
