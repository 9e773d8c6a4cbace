package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"homescout/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		external_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		source_date INTEGER,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		status TEXT NOT NULL,
		listings_found INTEGER DEFAULT 0,
		listings_new INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_listings_name ON listings(name);
	CREATE INDEX IF NOT EXISTS idx_runs_source ON scrape_runs(source, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Exists(ctx context.Context, externalID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM listings WHERE external_id = ?`, externalID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM listings WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) Record(ctx context.Context, rec *models.DedupRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO listings (external_id, name, url, source_date, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ExternalID, rec.Name, rec.URL, rec.SourceDate, rec.CreatedAt)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scrape_runs (id, source, started_at, status)
		 VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, run.StartedAt.Unix(), run.Status)
	return err
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *models.ScrapeRun) error {
	var finished sql.NullInt64
	if run.FinishedAt != nil {
		finished = sql.NullInt64{Int64: run.FinishedAt.Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE scrape_runs
		 SET finished_at = ?, status = ?, listings_found = ?, listings_new = ?, errors_count = ?
		 WHERE id = ?`,
		finished, run.Status, run.ListingsFound, run.ListingsNew, run.ErrorsCount, run.ID)
	return err
}
