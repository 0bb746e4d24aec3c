// File: internal/store/store.go

// Package store records finished agent runs in PostgreSQL. The store is
// optional and best-effort: recording failures are logged, never surfaced
// into the run result.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool abstracts pgxpool.Pool so tests can swap in pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RunRecord is one finished run plus its audit trail.
type RunRecord struct {
	ID         string
	Task       string
	Provider   string
	Model      string
	Result     string
	Success    bool
	Error      string
	Steps      []schemas.Step
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunSummary is the read-side row for listing recent runs.
type RunSummary struct {
	ID         string    `json:"id"`
	Task       string    `json:"task"`
	Provider   string    `json:"provider"`
	Success    bool      `json:"success"`
	StepCount  int       `json:"step_count"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store is a PostgreSQL-backed run sink.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New verifies the connection and returns the store.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool, log: logger.Named("store")}, nil
}

// EnsureSchema creates the run tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS agent_runs (
	id          TEXT PRIMARY KEY,
	task        TEXT NOT NULL,
	provider    TEXT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	result      TEXT NOT NULL,
	success     BOOLEAN NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS agent_steps (
	run_id      TEXT NOT NULL REFERENCES agent_runs(id) ON DELETE CASCADE,
	step_number INT NOT NULL,
	seq         INT NOT NULL,
	tool_name   TEXT NOT NULL,
	tool_args   JSONB NOT NULL DEFAULT '{}',
	tool_result TEXT NOT NULL,
	success     BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, seq)
);`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveRun inserts the run row and its steps in one transaction.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after Commit reports ErrTxClosed; that is the normal path.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO agent_runs (id, task, provider, model, result, success, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Task, rec.Provider, rec.Model, rec.Result, rec.Success, rec.Error,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", rec.ID, err)
	}

	for i, step := range rec.Steps {
		args, jerr := json.Marshal(step.ToolArgs)
		if jerr != nil || len(args) == 0 || string(args) == "null" {
			args = []byte("{}")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO agent_steps (run_id, step_number, seq, tool_name, tool_args, tool_result, success)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, step.StepNumber, i, step.ToolName, args, step.ToolResult, step.Success,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step %d of run %s: %w", i, rec.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Run recorded",
		zap.String("run_id", rec.ID), zap.Int("steps", len(rec.Steps)))
	return nil
}

// RecentRuns lists the newest runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.task, r.provider, r.success,
		        (SELECT COUNT(*) FROM agent_steps s WHERE s.run_id = r.id) AS step_count,
		        r.finished_at
		 FROM agent_runs r
		 ORDER BY r.finished_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Task, &r.Provider, &r.Success, &r.StepCount, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run rows: %w", err)
	}
	return out, nil
}
