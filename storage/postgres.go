package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"homescout/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		external_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		source_date BIGINT,
		created_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		started_at BIGINT NOT NULL,
		finished_at BIGINT,
		status TEXT NOT NULL,
		listings_found INTEGER DEFAULT 0,
		listings_new INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_listings_name ON listings(name);
	CREATE INDEX IF NOT EXISTS idx_runs_source ON scrape_runs(source, started_at);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) Exists(ctx context.Context, externalID string) (bool, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM listings WHERE external_id = $1`, externalID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *PostgresStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM listings WHERE name = $1`, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *PostgresStore) Record(ctx context.Context, rec *models.DedupRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO listings (external_id, name, url, source_date, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ExternalID, rec.Name, rec.URL, rec.SourceDate, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scrape_runs (id, source, started_at, status)
		 VALUES ($1, $2, $3, $4)`,
		run.ID, run.Source, run.StartedAt.Unix(), run.Status)
	return err
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *models.ScrapeRun) error {
	var finished *int64
	if run.FinishedAt != nil {
		v := run.FinishedAt.Unix()
		finished = &v
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE scrape_runs
		 SET finished_at = $1, status = $2, listings_found = $3, listings_new = $4, errors_count = $5
		 WHERE id = $6`,
		finished, run.Status, run.ListingsFound, run.ListingsNew, run.ErrorsCount, run.ID)
	return err
}
