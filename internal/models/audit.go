package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditRegister      AuditAction = "register"
	AuditLogin         AuditAction = "login"
	AuditLoginFailed   AuditAction = "login_failed"
	AuditGoogleSignIn  AuditAction = "google_sign_in"
	AuditGoogleLinked  AuditAction = "google_linked"
	AuditProfileUpdate AuditAction = "profile_update"
	AuditEntryDeleted  AuditAction = "entry_deleted"
	AuditLogout        AuditAction = "logout"
)

// AuditEvent is stored in MongoDB, one document per security-relevant action.
type AuditEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`

	UserID    string `bson:"user_id,omitempty"`
	IPAddress string `bson:"ip_address,omitempty"`

	Action AuditAction       `bson:"action"`
	Detail map[string]string `bson:"detail,omitempty"`
}
