// Package notification provides desktop notification and alarm adapters.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/xvierd/countdown-cli/internal/config"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// Desktop shows expiry alerts through the desktop notification service.
// The permission decision lives in the preference store.
type Desktop struct {
	prefs    ports.PreferenceRepository
	icon     string
	lifetime time.Duration
	notify   func(title, message string, icon any) error
}

var _ ports.Notifier = (*Desktop)(nil)

// DesktopOption configures a Desktop notifier.
type DesktopOption func(*Desktop)

// WithIcon sets the icon path passed to the notification service.
func WithIcon(path string) DesktopOption {
	return func(d *Desktop) { d.icon = path }
}

// WithAlertLifetime closes alerts automatically after d. Zero keeps them
// until Close.
func WithAlertLifetime(d time.Duration) DesktopOption {
	return func(n *Desktop) { n.lifetime = d }
}

// WithNotifyFunc replaces the call that posts the notification.
func WithNotifyFunc(fn func(title, message string, icon any) error) DesktopOption {
	return func(d *Desktop) { d.notify = fn }
}

// ConfigOptions maps the notification settings to Desktop options.
func ConfigOptions(cfg config.NotificationConfig) []DesktopOption {
	opts := []DesktopOption{WithAlertLifetime(time.Duration(cfg.Lifetime))}
	if cfg.Icon != "" {
		opts = append(opts, WithIcon(cfg.Icon))
	}
	return opts
}

// NewDesktop creates a desktop notifier backed by prefs.
func NewDesktop(prefs ports.PreferenceRepository, opts ...DesktopOption) *Desktop {
	d := &Desktop{prefs: prefs, notify: beeep.Notify}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Permission returns the stored decision, PermissionDefault if none.
func (d *Desktop) Permission(ctx context.Context) (domain.Permission, error) {
	v, ok, err := d.prefs.Get(ctx, domain.KeyNotificationPermission)
	if err != nil {
		return domain.PermissionDefault, fmt.Errorf("failed to read permission: %w", err)
	}
	if !ok {
		return domain.PermissionDefault, nil
	}
	return domain.ParsePermission(v), nil
}

// RequestPermission returns a stored decision as is. Without one the
// caller has to ask the user, so PermissionPrompt is returned.
func (d *Desktop) RequestPermission(ctx context.Context) (domain.Permission, error) {
	p, err := d.Permission(ctx)
	if err != nil {
		return p, err
	}
	if p == domain.PermissionDefault {
		return domain.PermissionPrompt, nil
	}
	return p, nil
}

// RecordPermission stores the user's answer. Anything but a grant is
// stored as a denial.
func (d *Desktop) RecordPermission(ctx context.Context, p domain.Permission) error {
	if p != domain.PermissionGranted {
		p = domain.PermissionDenied
	}
	if err := d.prefs.Set(ctx, domain.KeyNotificationPermission, string(p)); err != nil {
		return fmt.Errorf("failed to save permission: %w", err)
	}
	return nil
}

// Show posts a notification and returns a handle to it.
func (d *Desktop) Show(title, body string) (ports.Alert, error) {
	if err := d.notify(title, body, d.icon); err != nil {
		return nil, err
	}
	a := &alert{done: make(chan struct{})}
	if d.lifetime > 0 {
		a.timer = time.AfterFunc(d.lifetime, func() { _ = a.Close() })
	}
	return a, nil
}

// alert tracks one posted notification. The notification service gives no
// handle back, so closing only ends the tracking.
type alert struct {
	once  sync.Once
	done  chan struct{}
	timer *time.Timer
}

func (a *alert) Close() error {
	a.once.Do(func() {
		if a.timer != nil {
			a.timer.Stop()
		}
		close(a.done)
	})
	return nil
}

func (a *alert) Done() <-chan struct{} {
	return a.done
}
