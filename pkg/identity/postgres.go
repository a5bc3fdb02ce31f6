package identity

import (
	"context"
	"embed"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/oauthlink/pkg/db"
)

// Migrations holds the goose schema for the PostgreSQL repository under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

const (
	constraintProviderUID = "user_identities_provider_uid_key"
	constraintUserEmail   = "users_email_key"
)

const (
	userColumns     = "id, email, name, password_hash, created_at, updated_at"
	identityColumns = "id, provider, uid, user_id, created_at, updated_at"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a Repository backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// NewPostgres creates a repository on pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, q: pool}
}

func (p *Postgres) WithTx(ctx context.Context, fn func(Repository) error) error {
	if p.inTx {
		return fn(p)
	}
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(&Postgres{pool: p.pool, q: tx, inTx: true})
	})
}

func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return p.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (p *Postgres) LockUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return p.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1 FOR UPDATE", id)
}

func (p *Postgres) getUser(ctx context.Context, query string, id uuid.UUID) (*User, error) {
	rows, err := p.q.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[User])
	if db.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return u, err
}

func (p *Postgres) InsertUser(ctx context.Context, u *User) error {
	err := p.q.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapConstraint(err)
}

func (p *Postgres) GetIdentity(ctx context.Context, provider, uid string) (*UserIdentity, error) {
	rows, err := p.q.Query(ctx,
		"SELECT "+identityColumns+" FROM user_identities WHERE provider = $1 AND uid = $2",
		provider, uid,
	)
	if err != nil {
		return nil, err
	}
	i, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[UserIdentity])
	if db.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return i, err
}

func (p *Postgres) ListIdentities(ctx context.Context, userID uuid.UUID) ([]UserIdentity, error) {
	rows, err := p.q.Query(ctx,
		"SELECT "+identityColumns+" FROM user_identities WHERE user_id = $1 ORDER BY created_at, provider",
		userID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[UserIdentity])
}

// UpsertIdentity relies on the (provider, uid, user_id) constraint as the
// conflict arbiter; a row held by another user trips the (provider, uid)
// constraint instead and surfaces as ErrBoundToDifferentUser.
func (p *Postgres) UpsertIdentity(ctx context.Context, i *UserIdentity) (*UserIdentity, error) {
	rows, err := p.q.Query(ctx, `
		INSERT INTO user_identities (id, provider, uid, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT ON CONSTRAINT user_identities_provider_uid_user_id_key
		DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING `+identityColumns,
		i.ID, i.Provider, i.UID, i.UserID, i.CreatedAt,
	)
	if err != nil {
		return nil, mapConstraint(err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[UserIdentity])
	if err != nil {
		return nil, mapConstraint(err)
	}
	return out, nil
}

func (p *Postgres) DeleteIdentities(ctx context.Context, userID uuid.UUID, provider string) (int64, error) {
	tag, err := p.q.Exec(ctx,
		"DELETE FROM user_identities WHERE user_id = $1 AND provider = $2",
		userID, provider,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// mapConstraint translates unique violations to domain errors.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	switch constraint, ok := db.UniqueViolation(err); {
	case ok && constraint == constraintProviderUID:
		return errors.Join(ErrBoundToDifferentUser, err)
	case ok && constraint == constraintUserEmail:
		return errors.Join(ErrEmailTaken, err)
	}
	return err
}
