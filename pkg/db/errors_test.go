package db_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/db"
)

func TestUniqueViolation(t *testing.T) {
	t.Parallel()

	t.Run("wrapped unique violation", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("insert identity: %w", &pgconn.PgError{
			Code:           "23505",
			ConstraintName: "user_identities_provider_uid_key",
		})

		constraint, ok := db.UniqueViolation(err)
		require.True(t, ok)
		assert.Equal(t, "user_identities_provider_uid_key", constraint)
	})

	t.Run("other postgres error", func(t *testing.T) {
		t.Parallel()
		_, ok := db.UniqueViolation(&pgconn.PgError{Code: "23503"})
		assert.False(t, ok)
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		_, ok := db.UniqueViolation(errors.New("boom"))
		assert.False(t, ok)
	})
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, db.IsNotFound(fmt.Errorf("get user: %w", pgx.ErrNoRows)))
	assert.False(t, db.IsNotFound(errors.New("boom")))
}
