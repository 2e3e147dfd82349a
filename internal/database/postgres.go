package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Unique index names. The repository layer maps violations of these to conflicts.
const (
	IndexUsersUsername      = "ux_users_username"
	IndexUsersEmail         = "ux_users_email"
	IndexUsersGoogleSubject = "ux_users_google_subject_id"
	IndexEntriesUserTitle   = "ux_journal_entries_user_title"
)

// ConnectPostgres opens the connection pool, verifies it with a ping and returns it.
func ConnectPostgres(ctx context.Context, postgresURI string, log zerolog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Msg("✅ Connected to PostgreSQL")
	return db, nil
}

// Statements returns the idempotent schema statements in execution order.
func Statements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(30) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255),
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			gender VARCHAR(50) NOT NULL DEFAULT '',
			date_of_birth DATE,
			avatar_url TEXT NOT NULL DEFAULT '/avatar/MindNestLogoLight.png',
			google_subject_id VARCHAR(255),
			email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			is_profile_complete BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexUsersUsername + ` ON users (LOWER(username))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexUsersEmail + ` ON users (LOWER(email))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexUsersGoogleSubject + ` ON users (google_subject_id) WHERE google_subject_id IS NOT NULL`,

		`CREATE TABLE IF NOT EXISTS journal_entries (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			category VARCHAR(100) NOT NULL,
			content TEXT NOT NULL,
			is_pinned BOOLEAN NOT NULL DEFAULT FALSE,
			is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexEntriesUserTitle + ` ON journal_entries (user_id, title)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_user_listing ON journal_entries (user_id, is_pinned DESC, created_at DESC)`,
	}
}

// Migrate creates all necessary tables and indexes if they don't exist
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, query := range Statements() {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}
	return nil
}
