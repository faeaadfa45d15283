package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := migrations.Apply(db, cfg.Logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// SaveRun stores a run record, overwriting any previous record with the same id.
func (r *Repository) SaveRun(ctx context.Context, run model.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	query := `
		INSERT INTO runs (id, kind, target_id, target_name, detail, status, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			target_id = excluded.target_id,
			target_name = excluded.target_name,
			detail = excluded.detail,
			status = excluded.status,
			message = excluded.message,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.Kind,
		run.TargetID,
		run.TargetName,
		run.Detail,
		run.Status,
		run.Message,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not save run: %w", err)
	}

	return nil
}

// GetRun retrieves a run record by id.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.RunRecord, error) {
	query := `
		SELECT id, kind, target_id, target_name, detail, status, message, started_at, finished_at
		FROM runs WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get run: %w", err)
	}

	return run, nil
}

// ListRuns returns all run records, most recent first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	query := `
		SELECT id, kind, target_id, target_name, detail, status, message, started_at, finished_at
		FROM runs ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*model.RunRecord, error) {
	var run model.RunRecord
	var startedAt, finishedAt int64

	err := s.Scan(
		&run.ID,
		&run.Kind,
		&run.TargetID,
		&run.TargetName,
		&run.Detail,
		&run.Status,
		&run.Message,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = time.Unix(startedAt, 0).UTC()
	run.FinishedAt = time.Unix(finishedAt, 0).UTC()

	return &run, nil
}
