package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "email", "password_hash", "first_name", "last_name", "gender",
	"date_of_birth", "avatar_url", "google_subject_id", "email_confirmed", "is_profile_complete", "created_at", "updated_at"}

func TestUserFindByLogin(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db)

	ts := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($1) LIMIT 1")).
		WithArgs("Alice").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			"0b6f3c9e-8f43-4c2e-9d8b-3f3c6c1f1a10", "alice", "alice@x.com", "$2a$10$hash", "Alice", "", "",
			nil, models.DefaultAvatarURL, nil, false, true, ts, ts))

	u, err := repo.FindByLogin(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.HasPassword())
	assert.Nil(t, u.GoogleSubjectID)
	assert.Nil(t, u.DateOfBirth)
}

func TestUserFindByIDMalformedIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery("FROM users WHERE id").
		WillReturnError(&pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"})

	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserAddDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: database.IndexUsersEmail})

	err := repo.Add(context.Background(), &models.User{ID: "id", Username: "alice", Email: "alice@x.com"})
	assert.True(t, DuplicateOn(err, database.IndexUsersEmail))
	assert.False(t, DuplicateOn(err, database.IndexUsersUsername))
}

func TestUserUpdate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Update(context.Background(), &models.User{ID: "id"}))
	assert.ErrorIs(t, repo.Update(context.Background(), &models.User{ID: "gone"}), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserTakenChecks(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(username) = LOWER($1) AND id::text <> $2")).
		WithArgs("alice", "self").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(email) = LOWER($1)")).
		WithArgs("ALICE@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.UsernameTaken(context.Background(), "alice", "self")
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.EmailTaken(context.Background(), "ALICE@x.com")
	require.NoError(t, err)
	assert.True(t, taken)
}
