package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var entryCols = []string{"id", "user_id", "title", "category", "content", "created_at", "updated_at", "is_pinned", "is_favorite"}

func entryRow(id int64, title string, pinned bool) []driver.Value {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []driver.Value{id, "u1", title, "personal", "<p>hi</p>", ts, ts, pinned, false}
}

func TestEntryFind(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM journal_entries WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(7), "u1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(entryRow(7, "Day One", true)...))

	e, err := repo.Find(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.ID)
	assert.Equal(t, "Day One", e.Title)
	assert.True(t, e.IsPinned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryFindForeignOwnerIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	mock.ExpectQuery("FROM journal_entries").
		WithArgs(int64(7), "u2").
		WillReturnRows(sqlmock.NewRows(entryCols))

	_, err := repo.Find(context.Background(), "u2", 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntryAddReturnsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	now := time.Now().UTC()
	entry := &models.JournalEntry{UserID: "u1", Title: "Day One", Category: "personal", Content: "x", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery("INSERT INTO journal_entries").
		WithArgs("u1", "Day One", "personal", "x", now, now, false, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	require.NoError(t, repo.Add(context.Background(), entry))
	assert.Equal(t, int64(1), entry.ID)
}

func TestEntryAddDuplicateTitle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	mock.ExpectQuery("INSERT INTO journal_entries").
		WillReturnError(&pq.Error{Code: "23505", Constraint: database.IndexEntriesUserTitle})

	err := repo.Add(context.Background(), &models.JournalEntry{UserID: "u1", Title: "Day One"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.True(t, DuplicateOn(err, database.IndexEntriesUserTitle))
}

func TestEntryUpdateLeavesFlagsToStore(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("title = $1, category = $2, content = $3, updated_at = $4")).
		WithArgs("Renamed", "personal", "<p>new</p>", ts, int64(3), "u1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(int64(3), "u1", "Renamed", "personal", "<p>new</p>", ts, ts, true, true))

	entry := &models.JournalEntry{ID: 3, UserID: "u1", Title: "Renamed", Category: "personal", Content: "<p>new</p>", UpdatedAt: ts}
	require.NoError(t, repo.Update(context.Background(), entry))
	assert.True(t, entry.IsPinned)
	assert.True(t, entry.IsFavorite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryUpdateMissingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	mock.ExpectQuery("UPDATE journal_entries SET").WillReturnRows(sqlmock.NewRows(entryCols))

	err := repo.Update(context.Background(), &models.JournalEntry{ID: 3, UserID: "u1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntryToggleFavoriteIsSingleStatement(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	row := entryRow(7, "Day One", false)
	row[8] = true
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE journal_entries SET is_favorite = NOT is_favorite")).
		WithArgs(int64(7), "u1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(row...))
	mock.ExpectQuery("UPDATE journal_entries SET is_favorite").
		WithArgs(int64(8), "u1").
		WillReturnRows(sqlmock.NewRows(entryCols))

	e, err := repo.ToggleFavorite(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.True(t, e.IsFavorite)

	_, err = repo.ToggleFavorite(context.Background(), "u1", 8)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryTogglePinLocksOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT 1 FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SET is_pinned = NOT is_pinned")).
		WithArgs(int64(7), "u1", 5).
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(entryRow(7, "Day One", true)...))
	mock.ExpectCommit()

	e, err := repo.TogglePin(context.Background(), "u1", 7, 5)
	require.NoError(t, err)
	assert.True(t, e.IsPinned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryTogglePinLimitAndMissing(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   error
	}{
		{"cap reached", true, ErrPinLimit},
		{"absent or foreign", false, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewPostgresEntryRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec("FOR UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery("SET is_pinned = NOT is_pinned").WillReturnRows(sqlmock.NewRows(entryCols))
			mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM journal_entries WHERE id = $1 AND user_id = $2)")).
				WithArgs(int64(7), "u1").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			mock.ExpectRollback()

			_, err := repo.TogglePin(context.Background(), "u1", 7, 2)
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEntryRemove(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	mock.ExpectExec("DELETE FROM journal_entries").WithArgs(int64(3), "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM journal_entries").WithArgs(int64(3), "u1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Remove(context.Background(), "u1", 3))
	assert.ErrorIs(t, repo.Remove(context.Background(), "u1", 3), ErrNotFound)
}

func TestEntryQueryFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	fav := true
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND is_favorite = $2 ORDER BY is_pinned DESC, created_at DESC, id DESC")).
		WithArgs("u1", true).
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(entryRow(2, "B", true)...).AddRow(entryRow(1, "A", false)...))

	entries, err := repo.Query(context.Background(), EntryQuery{OwnerID: "u1", Favorite: &fav})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryQueryEmptyIsNonNil(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	mock.ExpectQuery("FROM journal_entries").WillReturnRows(sqlmock.NewRows(entryCols))

	entries, err := repo.Query(context.Background(), EntryQuery{OwnerID: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestEntryQuerySearchEscapesPattern(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND title ILIKE $2 ORDER BY")).
		WithArgs("u1", `%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows(entryCols))
	mock.ExpectQuery(regexp.QuoteMeta("AND (title ILIKE $2 OR category ILIKE $2 OR content ILIKE $2)")).
		WithArgs("u1", "%walk%").
		WillReturnRows(sqlmock.NewRows(entryCols))

	_, err := repo.Query(context.Background(), EntryQuery{OwnerID: "u1", Search: "50%_off", TitleOnly: true})
	require.NoError(t, err)
	_, err = repo.Query(context.Background(), EntryQuery{OwnerID: "u1", Search: " walk "})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryTitleTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM journal_entries")).
		WithArgs("u1", "Day One", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.TitleTaken(context.Background(), "u1", "Day One", 4)
	require.NoError(t, err)
	assert.True(t, taken)
}
