package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrBoundToDifferentUser is returned when (provider, uid) already belongs to another user.
	ErrBoundToDifferentUser = errors.New("identity: already bound to a different user")

	// ErrInvalidUserIDField is returned when the user's email is missing, malformed or taken.
	ErrInvalidUserIDField = errors.New("identity: invalid user id field")

	// ErrNoPassword is returned when deleting would leave a user with no way to sign in.
	ErrNoPassword = errors.New("identity: user has no password")

	// ErrNotFound is returned when a user or identity does not exist.
	ErrNotFound = errors.New("identity: not found")

	// ErrEmailTaken is returned by repositories when the email is already registered.
	ErrEmailTaken = errors.New("identity: email already taken")
)

// ValidationError describes an invalid user or identity attribute.
type ValidationError struct {
	Field   string
	Message string
	err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("identity: %s %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidUserIDField for email errors.
func (e *ValidationError) Unwrap() error { return e.err }
