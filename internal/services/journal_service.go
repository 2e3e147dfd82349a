package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/apperrors"
	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/repository"
	"github.com/rs/zerolog"
)

// List filters accepted by ListEntries. The empty filter means FilterAll.
const (
	FilterAll       = "all"
	FilterPinned    = "pinned"
	FilterFavorites = "favorites"
)

const (
	msgEntryNotFound = "journal entry not found"
	msgTitleTaken    = "an entry with this title already exists"
)

type EntryInput struct {
	Title    string `json:"title" validate:"required,max=255"`
	Category string `json:"category" validate:"required,max=100"`
	Content  string `json:"content" validate:"required"`
}

// JournalService manages entries on behalf of their owner. Every method takes the owner id
// from the authenticated caller; entries of other owners behave as if they did not exist.
type JournalService struct {
	entries   repository.EntryRepository
	maxPinned int
	audit     AuditLog
	log       zerolog.Logger
	now       func() time.Time
}

// NewJournalService returns a service that allows at most maxPinned pinned entries per owner.
// maxPinned <= 0 disables the limit.
func NewJournalService(entries repository.EntryRepository, maxPinned int, audit AuditLog, log zerolog.Logger) *JournalService {
	if audit == nil {
		audit = NopAuditLog{}
	}
	return &JournalService{
		entries:   entries,
		maxPinned: maxPinned,
		audit:     audit,
		log:       log,
		now:       time.Now,
	}
}

func (s *JournalService) ListEntries(ctx context.Context, ownerID, filter string) ([]models.JournalEntry, error) {
	q := repository.EntryQuery{OwnerID: ownerID}
	yes := true

	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", FilterAll:
	case FilterPinned:
		q.Pinned = &yes
	case FilterFavorites:
		q.Favorite = &yes
	default:
		return nil, apperrors.Validation("filter", "filter must be one of all, pinned, favorites")
	}

	entries, err := s.entries.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// SearchEntries matches query case-insensitively against titles, or also categories and
// content when titleOnly is false. A blank query lists everything.
func (s *JournalService) SearchEntries(ctx context.Context, ownerID, query string, titleOnly bool) ([]models.JournalEntry, error) {
	entries, err := s.entries.Query(ctx, repository.EntryQuery{
		OwnerID:   ownerID,
		Search:    strings.TrimSpace(query),
		TitleOnly: titleOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	return entries, nil
}

func (s *JournalService) GetEntry(ctx context.Context, ownerID string, id int64) (*models.JournalEntry, error) {
	entry, err := s.entries.Find(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(msgEntryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return entry, nil
}

func (s *JournalService) CreateEntry(ctx context.Context, ownerID string, in EntryInput) (*models.JournalEntry, error) {
	in, err := normalizeEntry(in)
	if err != nil {
		return nil, err
	}

	if err := s.checkTitle(ctx, ownerID, in.Title, 0); err != nil {
		return nil, err
	}

	now := s.timestamp()
	entry := &models.JournalEntry{
		UserID:    ownerID,
		Title:     in.Title,
		Category:  in.Category,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.entries.Add(ctx, entry); err != nil {
		return nil, entryWriteError(err, "create entry")
	}

	s.log.Debug().Str("user_id", ownerID).Int64("entry_id", entry.ID).Msg("Journal entry created")
	return entry, nil
}

// UpdateEntry overwrites title, category and content and refreshes the update time.
// Renaming onto a title used by another of the owner's entries is a conflict.
func (s *JournalService) UpdateEntry(ctx context.Context, ownerID string, id int64, in EntryInput) (*models.JournalEntry, error) {
	in, err := normalizeEntry(in)
	if err != nil {
		return nil, err
	}

	entry, err := s.GetEntry(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != entry.Title {
		if err := s.checkTitle(ctx, ownerID, in.Title, id); err != nil {
			return nil, err
		}
	}

	entry.Title = in.Title
	entry.Category = in.Category
	entry.Content = in.Content
	entry.UpdatedAt = s.timestamp()

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, entryWriteError(err, "update entry")
	}
	return entry, nil
}

// TogglePin flips the pinned flag. Pinning fails with a validation error once the owner
// already has the maximum number of pinned entries.
func (s *JournalService) TogglePin(ctx context.Context, ownerID string, id int64) (*models.JournalEntry, error) {
	entry, err := s.entries.TogglePin(ctx, ownerID, id, s.maxPinned)
	if errors.Is(err, repository.ErrPinLimit) {
		return nil, apperrors.Validation("isPinned", "you can pin at most "+strconv.Itoa(s.maxPinned)+" entries")
	}
	if err != nil {
		return nil, entryWriteError(err, "toggle pin")
	}
	return entry, nil
}

func (s *JournalService) ToggleFavorite(ctx context.Context, ownerID string, id int64) (*models.JournalEntry, error) {
	entry, err := s.entries.ToggleFavorite(ctx, ownerID, id)
	if err != nil {
		return nil, entryWriteError(err, "toggle favorite")
	}
	return entry, nil
}

func (s *JournalService) DeleteEntry(ctx context.Context, ownerID string, id int64) error {
	err := s.entries.Remove(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(msgEntryNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.audit.Record(ctx, models.AuditEvent{
		UserID: ownerID,
		Action: models.AuditEntryDeleted,
		Detail: map[string]string{"entry_id": strconv.FormatInt(id, 10)},
	})
	return nil
}

// checkTitle gives a friendly conflict up front; the unique index stays authoritative.
func (s *JournalService) checkTitle(ctx context.Context, ownerID, title string, exceptID int64) error {
	taken, err := s.entries.TitleTaken(ctx, ownerID, title, exceptID)
	if err != nil {
		return fmt.Errorf("check title: %w", err)
	}
	if taken {
		return apperrors.Conflict(msgTitleTaken)
	}
	return nil
}

func (s *JournalService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// normalizeEntry trims title and category and validates. Content is stored as sent
// but must not be blank.
func normalizeEntry(in EntryInput) (EntryInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)

	check := in
	check.Content = strings.TrimSpace(in.Content)

	fields := fieldErrors{}
	fields.addStruct(check)
	return in, fields.err()
}

func entryWriteError(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(msgEntryNotFound)
	}
	if repository.DuplicateOn(err, database.IndexEntriesUserTitle) {
		return apperrors.Conflict(msgTitleTaken)
	}
	return fmt.Errorf("%s: %w", op, err)
}
