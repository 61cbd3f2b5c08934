package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// preferenceRepository implements ports.PreferenceRepository using SQLite.
type preferenceRepository struct {
	db *sql.DB
}

// newPreferenceRepository creates a new preference repository.
func newPreferenceRepository(db *sql.DB) ports.PreferenceRepository {
	return &preferenceRepository{db: db}
}

// Get returns the value stored under key.
func (r *preferenceRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key. Unknown keys and malformed values are rejected.
func (r *preferenceRepository) Set(ctx context.Context, key, value string) error {
	if err := domain.ValidatePreference(key, value); err != nil {
		return err
	}

	query := `
		INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}

// List returns every stored preference.
func (r *preferenceRepository) List(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM preferences ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return prefs, nil
}
