package ports

import (
	"context"
	"time"

	"github.com/xvierd/countdown-cli/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// CountdownProvider exposes the countdown to the MCP server.
// This is a driven port (implemented by services layer).
type CountdownProvider interface {
	// Status returns the current countdown status.
	Status(ctx context.Context) (domain.CountdownStatus, error)

	// Start starts the countdown from the current fields.
	Start(ctx context.Context) (domain.CountdownStatus, error)

	// StartFor fills the fields from d and starts the countdown. A zero d
	// expires at once.
	StartFor(ctx context.Context, d time.Duration) (domain.CountdownStatus, error)

	// Execute applies a command and returns the resulting status.
	Execute(ctx context.Context, cmd TimerCommand) (domain.CountdownStatus, error)

	// ToggleNotifications flips the notification switch. allow answers a
	// permission prompt if one is needed.
	ToggleNotifications(ctx context.Context, allow bool) (domain.CountdownStatus, domain.ToggleOutcome, error)

	// ListRuns returns recent countdown runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*domain.CountdownRun, error)
}
