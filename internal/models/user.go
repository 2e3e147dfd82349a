package models

import (
	"time"
)

// DefaultAvatarURL is assigned to accounts that have not picked or uploaded an avatar.
const DefaultAvatarURL = "/avatar/MindNestLogoLight.png"

// User is a persisted account. PasswordHash is nil for accounts created through Google sign-in.
type User struct {
	ID                string     `db:"id"`
	Username          string     `db:"username"`
	Email             string     `db:"email"`
	PasswordHash      *string    `db:"password_hash"`
	FirstName         string     `db:"first_name"`
	LastName          string     `db:"last_name"`
	Gender            string     `db:"gender"`
	DateOfBirth       *time.Time `db:"date_of_birth"`
	AvatarURL         string     `db:"avatar_url"`
	GoogleSubjectID   *string    `db:"google_subject_id"`
	EmailConfirmed    bool       `db:"email_confirmed"`
	IsProfileComplete bool       `db:"is_profile_complete"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// HasPassword reports whether the account can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
