package storage

import (
	"context"
	"errors"
	"fmt"

	"homescout/config"
	"homescout/models"
)

// ErrDuplicate is returned by Record when the listing's external ID already
// exists. The store performs no upsert; callers are expected to check
// Exists first, so hitting this means a race or a caller bug.
var ErrDuplicate = errors.New("listing already recorded")

// Store is the persistent dedup boundary. Listings are append-only: once
// recorded an external ID is never updated or deleted.
type Store interface {
	Exists(ctx context.Context, externalID string) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Record(ctx context.Context, rec *models.DedupRecord) error

	CreateRun(ctx context.Context, run *models.ScrapeRun) error
	FinishRun(ctx context.Context, run *models.ScrapeRun) error

	Close() error
}

// Open picks the backend from config. SQLite is the default; Postgres is a
// deployment choice for shared installations.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.DBBackend {
	case "sqlite", "":
		return NewSQLiteStore(cfg.DBPath)
	case "postgres":
		return NewPostgresStore(ctx, cfg.PostgresURL)
	default:
		return nil, fmt.Errorf("unknown DB_BACKEND: %s", cfg.DBBackend)
	}
}
