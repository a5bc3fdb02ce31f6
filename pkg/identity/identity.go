package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is a local account.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        *string   `db:"email" json:"email,omitempty"`
	Name         *string   `db:"name" json:"name,omitempty"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the user can sign in without an identity.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UserIdentity binds a provider account to a user.
type UserIdentity struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Provider  string    `db:"provider" json:"provider"`
	UID       string    `db:"uid" json:"uid"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IdentityParams identifies a provider account.
type IdentityParams struct {
	Provider string
	UID      string
}

// UserParams are the attributes of a user created from a callback.
// Password is optional.
type UserParams struct {
	Email    string
	Name     string
	Password string
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	User     *User
	Identity *UserIdentity
	// Created is set when a new user was registered.
	Created bool
}
