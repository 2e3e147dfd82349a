package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

const entryColumns = `id, user_id, title, category, content, created_at, updated_at, is_pinned, is_favorite`

var _ EntryRepository = (*PostgresEntryRepository)(nil)

type PostgresEntryRepository struct {
	db *sqlx.DB
}

func NewPostgresEntryRepository(db *sqlx.DB) *PostgresEntryRepository {
	return &PostgresEntryRepository{db: db}
}

func (r *PostgresEntryRepository) Find(ctx context.Context, ownerID string, id int64) (*models.JournalEntry, error) {
	var e models.JournalEntry
	err := r.db.GetContext(ctx, &e,
		`SELECT `+entryColumns+` FROM journal_entries WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// Add inserts the entry and sets its generated id.
func (r *PostgresEntryRepository) Add(ctx context.Context, entry *models.JournalEntry) error {
	err := r.db.QueryRowxContext(ctx, `INSERT INTO journal_entries
		(user_id, title, category, content, created_at, updated_at, is_pinned, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		entry.UserID, entry.Title, entry.Category, entry.Content,
		entry.CreatedAt, entry.UpdatedAt, entry.IsPinned, entry.IsFavorite,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert entry: %w", translate(err))
	}
	return nil
}

// Update writes the editable fields and refreshes entry from the stored row. The pin and
// favorite flags are left as stored.
func (r *PostgresEntryRepository) Update(ctx context.Context, entry *models.JournalEntry) error {
	err := r.db.GetContext(ctx, entry, `UPDATE journal_entries SET
		title = $1, category = $2, content = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
		RETURNING `+entryColumns,
		entry.Title, entry.Category, entry.Content, entry.UpdatedAt, entry.ID, entry.UserID)
	if err != nil {
		return fmt.Errorf("update entry: %w", translate(err))
	}
	return nil
}

func (r *PostgresEntryRepository) ToggleFavorite(ctx context.Context, ownerID string, id int64) (*models.JournalEntry, error) {
	var e models.JournalEntry
	err := r.db.GetContext(ctx, &e, `UPDATE journal_entries SET is_favorite = NOT is_favorite
		WHERE id = $1 AND user_id = $2
		RETURNING `+entryColumns, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("toggle favorite: %w", translate(err))
	}
	return &e, nil
}

// TogglePin flips the pinned flag. Pinning fails with ErrPinLimit when the owner already has
// maxPinned pinned entries; maxPinned <= 0 means no limit. The owner's user row is locked for
// the transaction so concurrent pins cannot both pass the count.
func (r *PostgresEntryRepository) TogglePin(ctx context.Context, ownerID string, id int64, maxPinned int) (*models.JournalEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin toggle pin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, ownerID); err != nil {
		return nil, fmt.Errorf("lock owner: %w", translate(err))
	}

	var e models.JournalEntry
	err = translate(tx.GetContext(ctx, &e, `UPDATE journal_entries SET is_pinned = NOT is_pinned
		WHERE id = $1 AND user_id = $2
		AND (is_pinned OR $3 <= 0
			OR (SELECT COUNT(*) FROM journal_entries WHERE user_id = $2 AND is_pinned) < $3)
		RETURNING `+entryColumns, id, ownerID, maxPinned))
	if errors.Is(err, ErrNotFound) {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM journal_entries WHERE id = $1 AND user_id = $2)`, id, ownerID); err != nil {
			return nil, fmt.Errorf("toggle pin: %w", err)
		}
		if exists {
			return nil, ErrPinLimit
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle pin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit toggle pin: %w", err)
	}
	return &e, nil
}

func (r *PostgresEntryRepository) Remove(ctx context.Context, ownerID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return affectedOrNotFound(res)
}

func (r *PostgresEntryRepository) Query(ctx context.Context, q EntryQuery) ([]models.JournalEntry, error) {
	var sb strings.Builder
	args := []interface{}{q.OwnerID}
	sb.WriteString(`SELECT ` + entryColumns + ` FROM journal_entries WHERE user_id = $1`)

	if q.Pinned != nil {
		args = append(args, *q.Pinned)
		fmt.Fprintf(&sb, ` AND is_pinned = $%d`, len(args))
	}
	if q.Favorite != nil {
		args = append(args, *q.Favorite)
		fmt.Fprintf(&sb, ` AND is_favorite = $%d`, len(args))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		if q.TitleOnly {
			fmt.Fprintf(&sb, ` AND title ILIKE $%d`, n)
		} else {
			fmt.Fprintf(&sb, ` AND (title ILIKE $%d OR category ILIKE $%d OR content ILIKE $%d)`, n, n, n)
		}
	}
	sb.WriteString(` ORDER BY is_pinned DESC, created_at DESC, id DESC`)

	entries := []models.JournalEntry{}
	if err := r.db.SelectContext(ctx, &entries, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	return entries, nil
}

func (r *PostgresEntryRepository) TitleTaken(ctx context.Context, ownerID, title string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken,
		`SELECT EXISTS(SELECT 1 FROM journal_entries WHERE user_id = $1 AND title = $2 AND id <> $3)`,
		ownerID, title, exceptID)
	return taken, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
