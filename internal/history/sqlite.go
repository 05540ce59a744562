// Package history keeps a log of computed portfolios in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ThejanDulara/MMM-Reach/internal/portfolio"
	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// Run is one recorded portfolio computation.
type Run struct {
	ID          string            `json:"id"`
	Request     portfolio.Request `json:"request"`
	Result      portfolio.Result  `json:"result"`
	TotalBudget float64           `json:"total_budget"`
	TotalReach  float64           `json:"total_reach"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Store records and lists runs.
type Store interface {
	Record(ctx context.Context, req portfolio.Request, res *portfolio.Result) (*Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	request      TEXT NOT NULL,
	result       TEXT NOT NULL,
	total_budget REAL NOT NULL,
	total_reach  REAL NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record stores a successful computation.
func (s *SQLiteStore) Record(ctx context.Context, req portfolio.Request, res *portfolio.Result) (*Run, error) {
	if res == nil {
		return nil, eris.New("sqlite: nil result")
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal request")
	}
	resJSON, err := json.Marshal(res)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, request, result, total_budget, total_reach, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(reqJSON), string(resJSON), res.TotalBudget, res.TotalReach, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{
		ID:          id,
		Request:     req,
		Result:      *res,
		TotalBudget: res.TotalBudget,
		TotalReach:  res.TotalReach,
		CreatedAt:   now,
	}, nil
}

// List returns the most recent runs first. A non-positive limit uses
// constants.DefaultRunsLimit.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = constants.DefaultRunsLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request, result, total_budget, total_reach, created_at FROM runs
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var reqJSON, resJSON string

	err := row.Scan(&r.ID, &reqJSON, &resJSON, &r.TotalBudget, &r.TotalReach, &r.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := json.Unmarshal([]byte(reqJSON), &r.Request); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal request")
	}
	if err := json.Unmarshal([]byte(resJSON), &r.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &r, nil
}
