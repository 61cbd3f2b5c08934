// Package ports defines the interfaces (driven and driving ports)
// for the countdown application following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"

	"github.com/xvierd/countdown-cli/internal/domain"
)

// PreferenceRepository is a persistent string key/value store.
// This is a driven port (implemented by adapters).
type PreferenceRepository interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// List returns every stored key/value pair.
	List(ctx context.Context) (map[string]string, error)
}

// RunRepository defines the interface for countdown run persistence.
// This is a driven port (implemented by adapters).
type RunRepository interface {
	// Save persists a new run.
	Save(ctx context.Context, run *domain.CountdownRun) error

	// Update modifies an existing run.
	Update(ctx context.Context, run *domain.CountdownRun) error

	// FindByID retrieves a run by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.CountdownRun, error)

	// FindRecent returns the most recently started runs, newest first.
	FindRecent(ctx context.Context, limit int) ([]*domain.CountdownRun, error)
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Preferences provides access to the preference store.
	Preferences() PreferenceRepository

	// Runs provides access to run history.
	Runs() RunRepository

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
