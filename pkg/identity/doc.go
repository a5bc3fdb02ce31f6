// Package identity binds external (provider, uid) pairs to local user
// accounts.
//
// A Service sits on top of a Repository; [NewPostgres] is the PostgreSQL
// implementation and [Migrations] holds its goose schema. Uniqueness is
// enforced by the database: a (provider, uid) pair belongs to exactly one
// user, and trying to link it to another user fails with
// [ErrBoundToDifferentUser] without touching either user's identities.
//
// Resolve covers the sign-in, sign-up and link branches of an OAuth
// callback:
//
//	res, err := svc.Resolve(ctx, currentUser,
//		identity.IdentityParams{Provider: "github", UID: profile.UID()},
//		identity.UserParams{Email: profile.String("email"), Name: profile.String("name")},
//	)
//
// Removing an identity never leaves a user without a way to sign in: Delete
// fails with [ErrNoPassword] when it would remove the last identity of a
// user who has no password.
package identity
