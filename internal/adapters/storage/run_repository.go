package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// runRepository implements ports.RunRepository using SQLite.
type runRepository struct {
	db *sql.DB
}

// newRunRepository creates a new run repository.
func newRunRepository(db *sql.DB) ports.RunRepository {
	return &runRepository{db: db}
}

const runColumns = `
	id, requested_ms, seconds_value, minutes_value, hours_value,
	outcome, started_at, ended_at
`

// Save persists a run to storage.
func (r *runRepository) Save(ctx context.Context, run *domain.CountdownRun) error {
	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Requested.Milliseconds(),
		run.Snapshot.Value(domain.FieldSeconds),
		run.Snapshot.Value(domain.FieldMinutes),
		run.Snapshot.Value(domain.FieldHours),
		string(run.Outcome),
		run.StartedAt,
		run.EndedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("run %s already exists: %w", run.ID, err)
		}
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// Update modifies an existing run.
func (r *runRepository) Update(ctx context.Context, run *domain.CountdownRun) error {
	query := `
		UPDATE runs
		SET requested_ms = ?, seconds_value = ?, minutes_value = ?, hours_value = ?,
		    outcome = ?, started_at = ?, ended_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		run.Requested.Milliseconds(),
		run.Snapshot.Value(domain.FieldSeconds),
		run.Snapshot.Value(domain.FieldMinutes),
		run.Snapshot.Value(domain.FieldHours),
		string(run.Outcome),
		run.StartedAt,
		run.EndedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, run.ID)
	}

	return nil
}

// FindByID retrieves a run by its unique identifier.
func (r *runRepository) FindByID(ctx context.Context, id string) (*domain.CountdownRun, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run: %w", err)
	}
	return run, nil
}

// FindRecent returns the most recently started runs.
func (r *runRepository) FindRecent(ctx context.Context, limit int) ([]*domain.CountdownRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*domain.CountdownRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.CountdownRun, error) {
	var run domain.CountdownRun
	var requestedMs int64
	var outcome string
	var endedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&requestedMs,
		&run.Snapshot[domain.FieldSeconds],
		&run.Snapshot[domain.FieldMinutes],
		&run.Snapshot[domain.FieldHours],
		&outcome,
		&run.StartedAt,
		&endedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Requested = time.Duration(requestedMs) * time.Millisecond
	run.Outcome = domain.RunOutcome(outcome)
	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	return &run, nil
}
