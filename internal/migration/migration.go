package migration

import (
	"context"
	"fmt"

	"moralsim/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the result store schema on Postgres or SQLite
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type dialect struct {
	json      string
	timestamp string
	boolean   string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return dialect{json: "JSONB", timestamp: "TIMESTAMP WITH TIME ZONE", boolean: "BOOLEAN"}, nil
	case "sqlite", "sqlite3":
		return dialect{json: "TEXT", timestamp: "TIMESTAMP", boolean: "INTEGER"}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Run executes all migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		return errors.Wrap(err, "failed to detect dialect")
	}

	if err := r.createReportsTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create session_reports table")
	}

	if err := r.createChoicesTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create session_choices table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createReportsTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS session_reports (
			session_id VARCHAR(64) PRIMARY KEY,
			total INTEGER NOT NULL,
			answered INTEGER NOT NULL,
			complete %s NOT NULL,
			vector VARCHAR(64) NOT NULL DEFAULT '',
			vector_hash VARCHAR(64) NOT NULL DEFAULT '',
			report %s NOT NULL,
			created_at %s NOT NULL
		)
	`, d.boolean, d.json, d.timestamp))
	return err
}

func (r *MigrationRunner) createChoicesTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS session_choices (
			id VARCHAR(64) PRIMARY KEY,
			session_id VARCHAR(64) NOT NULL REFERENCES session_reports(session_id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			template_id VARCHAR(32) NOT NULL,
			choice CHAR(1) NOT NULL,
			metadata %s,
			created_at %s NOT NULL
		)
	`, d.json, d.timestamp))
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_session_reports_created_at ON session_reports(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_session_reports_vector_hash ON session_reports(vector_hash)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_session_choices_sequence ON session_choices(session_id, sequence)`,
		`CREATE INDEX IF NOT EXISTS idx_session_choices_template ON session_choices(template_id, choice)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
