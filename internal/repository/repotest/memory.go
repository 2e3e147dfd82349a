// Package repotest provides in-memory repositories that enforce the same unique
// indexes as the Postgres schema. Intended for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/repository"
)

type UserStore struct {
	mu    sync.Mutex
	users []models.User
}

func NewUserStore() *UserStore {
	return &UserStore{}
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *UserStore) find(match func(u *models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if match(&s.users[i]) {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (s *UserStore) FindByLogin(_ context.Context, identifier string) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		return strings.EqualFold(u.Email, identifier) || strings.EqualFold(u.Username, identifier)
	})
}

func (s *UserStore) FindByGoogleSubject(_ context.Context, subject string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.GoogleSubjectID != nil && *u.GoogleSubjectID == subject })
}

// conflict reports the unique index candidate would violate, ignoring index skip.
func (s *UserStore) conflict(candidate *models.User, skip int) error {
	for i := range s.users {
		if i == skip {
			continue
		}
		u := &s.users[i]
		switch {
		case strings.EqualFold(u.Username, candidate.Username):
			return &repository.DuplicateError{Constraint: database.IndexUsersUsername}
		case strings.EqualFold(u.Email, candidate.Email):
			return &repository.DuplicateError{Constraint: database.IndexUsersEmail}
		case u.GoogleSubjectID != nil && candidate.GoogleSubjectID != nil && *u.GoogleSubjectID == *candidate.GoogleSubjectID:
			return &repository.DuplicateError{Constraint: database.IndexUsersGoogleSubject}
		}
	}
	return nil
}

func (s *UserStore) Add(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conflict(user, -1); err != nil {
		return err
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *UserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID != user.ID {
			continue
		}
		if err := s.conflict(user, i); err != nil {
			return err
		}
		s.users[i] = *user
		return nil
	}
	return repository.ErrNotFound
}

func (s *UserStore) UsernameTaken(_ context.Context, username, exceptID string) (bool, error) {
	_, err := s.find(func(u *models.User) bool { return u.ID != exceptID && strings.EqualFold(u.Username, username) })
	return err == nil, nil
}

func (s *UserStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

type EntryStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []models.JournalEntry
}

func NewEntryStore() *EntryStore {
	return &EntryStore{nextID: 1}
}

// Len returns the number of stored entries across all owners.
func (s *EntryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *EntryStore) index(ownerID string, id int64) int {
	for i := range s.entries {
		if s.entries[i].ID == id && s.entries[i].UserID == ownerID {
			return i
		}
	}
	return -1
}

func (s *EntryStore) titleConflict(ownerID, title string, exceptID int64) bool {
	for i := range s.entries {
		e := &s.entries[i]
		if e.UserID == ownerID && e.Title == title && e.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *EntryStore) Find(_ context.Context, ownerID string, id int64) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(ownerID, id)
	if i == -1 {
		return nil, repository.ErrNotFound
	}
	e := s.entries[i]
	return &e, nil
}

func (s *EntryStore) Add(_ context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titleConflict(entry.UserID, entry.Title, 0) {
		return &repository.DuplicateError{Constraint: database.IndexEntriesUserTitle}
	}
	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *EntryStore) Update(_ context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(entry.UserID, entry.ID)
	if i == -1 {
		return repository.ErrNotFound
	}
	if s.titleConflict(entry.UserID, entry.Title, entry.ID) {
		return &repository.DuplicateError{Constraint: database.IndexEntriesUserTitle}
	}
	stored := &s.entries[i]
	stored.Title = entry.Title
	stored.Category = entry.Category
	stored.Content = entry.Content
	stored.UpdatedAt = entry.UpdatedAt
	*entry = *stored
	return nil
}

func (s *EntryStore) ToggleFavorite(_ context.Context, ownerID string, id int64) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(ownerID, id)
	if i == -1 {
		return nil, repository.ErrNotFound
	}
	s.entries[i].IsFavorite = !s.entries[i].IsFavorite
	e := s.entries[i]
	return &e, nil
}

func (s *EntryStore) TogglePin(_ context.Context, ownerID string, id int64, maxPinned int) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(ownerID, id)
	if i == -1 {
		return nil, repository.ErrNotFound
	}
	if !s.entries[i].IsPinned && maxPinned > 0 && s.countPinned(ownerID) >= maxPinned {
		return nil, repository.ErrPinLimit
	}
	s.entries[i].IsPinned = !s.entries[i].IsPinned
	e := s.entries[i]
	return &e, nil
}

func (s *EntryStore) Remove(_ context.Context, ownerID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(ownerID, id)
	if i == -1 {
		return repository.ErrNotFound
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return nil
}

func (s *EntryStore) Query(_ context.Context, q repository.EntryQuery) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := []models.JournalEntry{}
	for _, e := range s.entries {
		if e.UserID != q.OwnerID {
			continue
		}
		if q.Pinned != nil && e.IsPinned != *q.Pinned {
			continue
		}
		if q.Favorite != nil && e.IsFavorite != *q.Favorite {
			continue
		}
		if search != "" && !matches(e, search, q.TitleOnly) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func matches(e models.JournalEntry, search string, titleOnly bool) bool {
	if strings.Contains(strings.ToLower(e.Title), search) {
		return true
	}
	if titleOnly {
		return false
	}
	return strings.Contains(strings.ToLower(e.Category), search) || strings.Contains(strings.ToLower(e.Content), search)
}

func (s *EntryStore) countPinned(ownerID string) int {
	n := 0
	for _, e := range s.entries {
		if e.UserID == ownerID && e.IsPinned {
			n++
		}
	}
	return n
}

func (s *EntryStore) TitleTaken(_ context.Context, ownerID, title string, exceptID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.titleConflict(ownerID, title, exceptID), nil
}

var (
	_ repository.UserRepository  = (*UserStore)(nil)
	_ repository.EntryRepository = (*EntryStore)(nil)
)
