package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"moralsim/domain/core"
	"moralsim/domain/result"
	"moralsim/internal/migration"
	"moralsim/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to Postgres or SQLite and applies the schema
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	// every connection to an in-memory SQLite database sees a different database
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// reportRepository implements ports.ResultRepository over sqlx
type reportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) ports.ResultRepository {
	return &reportRepository{db: db}
}

// SaveReport upserts the report and replaces its choice rows in one transaction
func (r *reportRepository) SaveReport(ctx context.Context, rep *result.Report) error {
	reportJSON, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`INSERT INTO session_reports (
		session_id, total, answered, complete, vector, vector_hash, report, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (session_id) DO UPDATE SET
		total = excluded.total,
		answered = excluded.answered,
		complete = excluded.complete,
		vector = excluded.vector,
		vector_hash = excluded.vector_hash,
		report = excluded.report,
		created_at = excluded.created_at`)

	_, err = tx.ExecContext(ctx, query,
		string(rep.SessionID), rep.Total, len(rep.History), rep.Complete,
		rep.Vector, string(rep.VectorHash), string(reportJSON), rep.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM session_choices WHERE session_id = ?`), string(rep.SessionID)); err != nil {
		return fmt.Errorf("failed to clear choices: %w", err)
	}

	insert := tx.Rebind(`INSERT INTO session_choices (
		id, session_id, sequence, template_id, choice, metadata, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, rec := range rep.History {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal choice metadata: %w", err)
		}
		_, err = tx.ExecContext(ctx, insert,
			string(rec.ID), string(rep.SessionID), rec.Sequence, string(rec.TemplateID),
			string(rec.Label), string(metadataJSON), rec.CreatedAt.Time(),
		)
		if err != nil {
			return fmt.Errorf("failed to save choice %d: %w", rec.Sequence, err)
		}
	}

	return tx.Commit()
}

// GetReport retrieves a report by session id
func (r *reportRepository) GetReport(ctx context.Context, id core.SessionID) (*result.Report, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, r.db.Rebind(`SELECT report FROM session_reports WHERE session_id = ?`), string(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrReportNotFound, id)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return decode(raw)
}

// ListReports returns the most recent reports first
func (r *reportRepository) ListReports(ctx context.Context, limit int) ([]*result.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows [][]byte
	err := r.db.SelectContext(ctx, &rows,
		r.db.Rebind(`SELECT report FROM session_reports ORDER BY created_at DESC, session_id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]*result.Report, 0, len(rows))
	for _, raw := range rows {
		rep, err := decode(raw)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// TemplateTally is how often option A was chosen for a template across stored sessions
type TemplateTally struct {
	TemplateID string `db:"template_id" json:"template_id"`
	Answers    int    `db:"answers" json:"answers"`
	ChoseA     int    `db:"chose_a" json:"chose_a"`
}

// TemplateTallies aggregates stored choices per template
func TemplateTallies(ctx context.Context, db *sqlx.DB) ([]TemplateTally, error) {
	var out []TemplateTally
	err := db.SelectContext(ctx, &out, `
		SELECT template_id,
			COUNT(*) AS answers,
			SUM(CASE WHEN choice = 'A' THEN 1 ELSE 0 END) AS chose_a
		FROM session_choices
		GROUP BY template_id
		ORDER BY template_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to tally choices: %w", err)
	}
	return out, nil
}

// Close implements ports.ResultRepository
func (r *reportRepository) Close() error {
	return r.db.Close()
}

func decode(raw []byte) (*result.Report, error) {
	var rep result.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &rep, nil
}
