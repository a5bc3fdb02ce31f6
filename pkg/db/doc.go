// Package db wraps [github.com/jackc/pgx/v5/pgxpool] with startup retries,
// goose migrations from an embedded filesystem, transactions and
// PostgreSQL error classification.
//
// # Configuration
//
//	DATABASE_URL                - PostgreSQL connection URL (required)
//	DATABASE_MIGRATIONS_TABLE   - goose version table (default: goose_db_version)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - Health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 2s)
//
// # Usage
//
//	var cfg db.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	pool, err := db.Connect(ctx, cfg, logger)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	err = db.Migrate(ctx, pool, identity.Migrations, "migrations", cfg.MigrationsTable, logger)
//
// # Transactions
//
//	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		_, err := tx.Exec(ctx, "DELETE FROM user_identities WHERE user_id = $1", id)
//		return err
//	})
//
// # Errors
//
// Connection and migration failures are joined with a sentinel
// ([ErrFailedToOpenDBConnection], [ErrApplyMigrations], ...). Query errors
// are left as returned by pgx; use [UniqueViolation] and [IsNotFound] to
// classify them.
package db
