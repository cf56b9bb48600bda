// Package app wires configuration, storage and the HTTP API into a runnable server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Simplici0/edmtrack/internal/api"
	"github.com/Simplici0/edmtrack/internal/auth"
	"github.com/Simplici0/edmtrack/internal/config"
	"github.com/Simplici0/edmtrack/internal/db"
	"github.com/Simplici0/edmtrack/internal/migrations"
	"github.com/Simplici0/edmtrack/internal/seed"
	"github.com/Simplici0/edmtrack/internal/store"
)

const shutdownTimeout = 5 * time.Second

// App is an opened database with the API handler built on top of it.
type App struct {
	DB      *sql.DB
	Store   *store.Store
	Handler http.Handler
}

// Options adjust Open.
type Options struct {
	// Migrate runs pending migrations regardless of the environment.
	Migrate  bool
	BasePath string
}

// Open opens the database, migrates it in development, seeds it and builds the API.
func Open(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is required to sign bearer tokens")
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.IsDev() || opts.Migrate {
		if err := migrations.Up(ctx, database); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	stats, err := seed.Run(database, seed.Config{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}
	if stats.Inserts > 0 {
		log.Printf("seed inserted %d rows", stats.Inserts)
	}

	st := store.New(database)
	handler, err := api.New(api.Config{
		Store:    st,
		Auth:     auth.NewService(st, cfg.SessionSecret, cfg.TokenTTL),
		BasePath: opts.BasePath,
	})
	if err != nil {
		database.Close()
		return nil, err
	}
	return &App{DB: database, Store: st, Handler: handler}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: a.Handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Printf("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
