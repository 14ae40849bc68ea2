// Package repository persists canonical geocoding outcomes so a restart of
// this single replica does not re-geocode every address it has ever seen.
// It is a cache durability layer, not a job store: jobs live and die within
// one request.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Houeta/batch-geocoder/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Interface is the persistence capability handed to the pipeline. A nil
// store disables persistence; the service then runs purely in-memory.
type Interface interface {
	SaveResult(ctx context.Context, key string, result models.GeocodeResult) error
	LoadRecent(ctx context.Context, limit int) (map[string]models.GeocodeResult, error)
}

type Repository struct {
	db  Database
	log *slog.Logger
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// NewDatabase opens a pgx connection pool against the configured PostgreSQL
// instance and verifies it with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
