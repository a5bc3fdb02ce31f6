package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists users and identities.
//
// Implementations must enforce uniqueness of (provider, uid) and report a
// conflicting bind as ErrBoundToDifferentUser, and report duplicate emails
// as ErrEmailTaken. Lookups return ErrNotFound when nothing matches.
type Repository interface {
	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(Repository) error) error

	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	// LockUser reads the user and holds its row lock until the surrounding
	// transaction ends. Outside WithTx it behaves like GetUser.
	LockUser(ctx context.Context, id uuid.UUID) (*User, error)
	InsertUser(ctx context.Context, u *User) error

	GetIdentity(ctx context.Context, provider, uid string) (*UserIdentity, error)
	ListIdentities(ctx context.Context, userID uuid.UUID) ([]UserIdentity, error)

	// UpsertIdentity inserts the identity or, when the same user already
	// holds (provider, uid), refreshes its updated_at. It returns the stored row.
	UpsertIdentity(ctx context.Context, i *UserIdentity) (*UserIdentity, error)

	DeleteIdentities(ctx context.Context, userID uuid.UUID, provider string) (int64, error)
}
