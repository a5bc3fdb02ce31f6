package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/oauthlink/internal/config"
	"github.com/dmitrymomot/oauthlink/internal/httpapi"
	"github.com/dmitrymomot/oauthlink/pkg/cookie"
	"github.com/dmitrymomot/oauthlink/pkg/db"
	"github.com/dmitrymomot/oauthlink/pkg/health"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/logger"
	"github.com/dmitrymomot/oauthlink/pkg/oauth"
	"github.com/dmitrymomot/oauthlink/pkg/redis"
)

const outboundTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(parent context.Context, cfg config.Config, migrate bool) (err error) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.Log, httpapi.RequestIDExtractor())
	defer logger.Flush(2 * time.Second)

	// Hooks run in reverse order of registration, also when startup fails.
	var hooks []func(context.Context) error
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		for i := len(hooks) - 1; i >= 0; i-- {
			if hookErr := hooks[i](shutdownCtx); hookErr != nil {
				log.Error("shutdown hook failed", slog.String("error", hookErr.Error()))
				err = errors.Join(err, hookErr)
			}
		}
	}()

	pool, err := db.Connect(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	hooks = append(hooks, db.Shutdown(pool))
	checks := health.Checks{"postgres": db.Healthcheck(pool)}

	if migrate {
		if err := db.Migrate(ctx, pool, identity.Migrations, identity.MigrationsDir, cfg.DB.MigrationsTable, log); err != nil {
			return err
		}
	}

	cookies, err := cookie.New(
		cookie.WithSecret(cfg.Auth.CookieSecret),
		cookie.WithDomain(cfg.Auth.CookieDomain),
		cookie.WithSecure(cfg.Auth.CookieSecure),
	)
	if err != nil {
		return err
	}

	var sessions httpapi.SessionStore
	switch cfg.Auth.SessionStore {
	case config.SessionStoreRedis:
		client, err := redis.Open(ctx, cfg.Redis, log)
		if err != nil {
			return err
		}
		hooks = append(hooks, redis.Shutdown(client))
		checks["redis"] = redis.Healthcheck(client)
		if sessions, err = redis.NewSessionStore(client, cookies, cfg.Redis.KeyPrefix, cfg.Auth.SessionTTL); err != nil {
			return err
		}
	default:
		if sessions, err = cookie.NewSessionStore(cookies, cfg.Auth.SessionTTL); err != nil {
			return err
		}
	}

	catalog, err := config.LoadCatalog(cfg.Auth.ProvidersFile)
	if err != nil {
		return err
	}
	if len(catalog) == 0 {
		log.WarnContext(ctx, "no oauth providers configured", slog.String("file", cfg.Auth.ProvidersFile))
	}
	registry := oauth.NewRegistry(
		oauth.WithHTTPClient(&http.Client{Timeout: outboundTimeout}),
		oauth.WithLogger(log),
	)
	if err := catalog.Register(registry); err != nil {
		return err
	}

	server, err := httpapi.NewServer(httpapi.Deps{
		Providers:  registry,
		Configs:    catalog.Configs(cfg.HTTP.BaseURL),
		Identities: identity.NewService(identity.NewPostgres(pool), identity.WithLogger(log)),
		Sessions:   sessions,
		Cookies:    cookies,
		Checks:     checks,
		Logger:     log,
		UserTTL:    cfg.Auth.UserTTL,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "server starting",
			slog.String("address", srv.Addr),
			slog.Any("providers", catalog.Names()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		return err
	}
	log.Info("server stopped")
	return nil
}
