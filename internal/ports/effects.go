package ports

import (
	"context"

	"github.com/xvierd/countdown-cli/internal/domain"
)

// AlarmPlayer plays the looping expiry alarm.
// This is a driven port (implemented by adapters).
type AlarmPlayer interface {
	// Play starts or resumes the alarm.
	Play() error

	// Pause halts the alarm, keeping its position.
	Pause()

	// Rewind moves the alarm back to its start.
	Rewind()

	// Paused reports whether the alarm is silent.
	Paused() bool
}

// Alert is one desktop notification on screen.
type Alert interface {
	// Close dismisses the alert. Closing twice is a no-op.
	Close() error

	// Done is closed when the alert is dismissed or fails.
	Done() <-chan struct{}
}

// Notifier shows desktop notifications behind a permission decision.
// This is a driven port (implemented by adapters).
type Notifier interface {
	// Permission returns the stored decision.
	Permission(ctx context.Context) (domain.Permission, error)

	// RequestPermission asks for permission. It returns PermissionPrompt
	// when the user has to answer before a decision exists.
	RequestPermission(ctx context.Context) (domain.Permission, error)

	// RecordPermission stores the user's answer to a prompt.
	RecordPermission(ctx context.Context, p domain.Permission) error

	// Show displays an alert.
	Show(title, body string) (Alert, error)
}
