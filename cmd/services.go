package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xvierd/countdown-cli/internal/adapters/notification"
	"github.com/xvierd/countdown-cli/internal/adapters/storage"
	"github.com/xvierd/countdown-cli/internal/config"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
	"github.com/xvierd/countdown-cli/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config     *config.Config
	log        *logrus.Logger
	storage    ports.Storage
	prefs      *services.PreferenceService
	history    *services.HistoryService
	notifier   *notification.Desktop
	alarm      *notification.Alarm
	controller *services.CountdownController
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices() error {
	app.log = newLogger(verbose)

	// Load configuration
	var err error
	app.config, err = config.Load()
	if err != nil {
		app.log.WithError(err).Warn("using default configuration")
		app.config = config.DefaultConfig()
	}

	// Determine database path
	if dbPath == "" {
		dbPath = config.GetDBPath(app.config)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	app.storage, err = storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.log.WithField("db", dbPath).Debug("storage ready")

	app.prefs = services.NewPreferenceService(app.storage.Preferences())
	app.history = services.NewHistoryService(app.storage.Runs())
	app.notifier = notification.NewDesktop(app.storage.Preferences(), notification.ConfigOptions(app.config.Notifications)...)
	app.alarm = notification.NewAlarm(app.config.Sound, app.log)

	app.controller = services.NewCountdownController(services.ControllerDeps{
		Editor:      domain.NewDurationEditor(app.config.Timer.DefaultMinutes),
		Alarm:       app.alarm,
		Notifier:    app.notifier,
		Preferences: app.prefs,
		Runs:        app.storage.Runs(),
		Logger:      app.log,
		AlertTitle:  app.config.Notifications.Title,
		AlertBody:   app.config.Notifications.Body,
	})

	return nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	if app.alarm != nil {
		app.alarm.Pause()
	}
	if app.storage != nil {
		return app.storage.Close()
	}
	return nil
}

// newRunner wraps the shared controller in a Runner for the commands that
// drive it off the TUI, together with the state service on top of it.
func newRunner(opts ...services.RunnerOption) (*services.Runner, *services.StateService) {
	interval := time.Duration(app.config.Timer.TickInterval)
	runner := services.NewRunner(app.controller, interval, app.log, opts...)
	return runner, services.NewStateService(runner, app.history)
}

// restoreHeadless applies the stored effect switches on the runner. A
// permission prompt has nobody to answer it here, so it is withdrawn.
func restoreHeadless(ctx context.Context, c *services.CountdownController) {
	outcome, err := c.RestorePreferences(ctx)
	if err != nil {
		app.log.WithError(err).Warn("restoring preferences")
	}
	if outcome == domain.TogglePending {
		c.CancelPermissionRequest()
	}
}

func newLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// setupSignalHandler returns a context that is cancelled on interrupt
// signals.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
