package repository

import (
	"context"
	"fmt"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, gender, date_of_birth,
	avatar_url, google_subject_id, email_confirmed, is_profile_complete, created_at, updated_at`

var _ UserRepository = (*PostgresUserRepository)(nil)

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	var u models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, `LOWER(username) = LOWER($1)`, username)
}

func (r *PostgresUserRepository) FindByLogin(ctx context.Context, identifier string) (*models.User, error) {
	return r.findOne(ctx, `LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($1)`, identifier)
}

func (r *PostgresUserRepository) FindByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	return r.findOne(ctx, `google_subject_id = $1`, subject)
}

func (r *PostgresUserRepository) Add(ctx context.Context, user *models.User) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (
		:id, :username, :email, :password_hash, :first_name, :last_name, :gender, :date_of_birth,
		:avatar_url, :google_subject_id, :email_confirmed, :is_profile_complete, :created_at, :updated_at)`, user)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.db.NamedExecContext(ctx, `UPDATE users SET
		username = :username, email = :email, password_hash = :password_hash,
		first_name = :first_name, last_name = :last_name, gender = :gender, date_of_birth = :date_of_birth,
		avatar_url = :avatar_url, google_subject_id = :google_subject_id,
		email_confirmed = :email_confirmed, is_profile_complete = :is_profile_complete, updated_at = :updated_at
		WHERE id = :id`, user)
	if err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	return affectedOrNotFound(res)
}

func (r *PostgresUserRepository) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) AND id::text <> $2)`, username, exceptID)
	return taken, err
}

func (r *PostgresUserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email)
	return taken, err
}
