package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// Migrate applies every pending migration found in dir of migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, dir, table string, log *slog.Logger) error {
	return withGoose(migrations, table, log, func() error {
		// OpenDBFromPool shares the pool's connections; closing it would close them.
		if err := goose.UpContext(ctx, stdlib.OpenDBFromPool(pool), dir); err != nil {
			return errors.Join(ErrApplyMigrations, err)
		}
		return nil
	})
}

// Rollback reverts the most recently applied migration.
func Rollback(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, dir, table string, log *slog.Logger) error {
	return withGoose(migrations, table, log, func() error {
		if err := goose.DownContext(ctx, stdlib.OpenDBFromPool(pool), dir); err != nil {
			return errors.Join(ErrRollbackMigrations, err)
		}
		return nil
	})
}

// Status logs the state of every migration.
func Status(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, dir, table string, log *slog.Logger) error {
	return withGoose(migrations, table, log, func() error {
		return goose.StatusContext(ctx, stdlib.OpenDBFromPool(pool), dir)
	})
}

func withGoose(migrations fs.FS, table string, log *slog.Logger, fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{log})
	goose.SetTableName(table)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}
	return fn()
}

type gooseLogger struct {
	log *slog.Logger
}

func (g *gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

// Fatalf only logs; goose returns the error to the caller as well.
func (g *gooseLogger) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...))
}
