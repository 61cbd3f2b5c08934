package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// ControllerDeps holds the collaborators of a CountdownController.
type ControllerDeps struct {
	Editor      *domain.DurationEditor
	Alarm       ports.AlarmPlayer
	Notifier    ports.Notifier
	Preferences *PreferenceService
	// Runs is optional; without it runs are not recorded.
	Runs       ports.RunRepository
	Logger     logrus.FieldLogger
	Now        func() time.Time
	AlertTitle string
	AlertBody  string
}

// CountdownController drives the countdown: the Stopped/Running state, the
// tick source, the expiry effects and the effect switches.
//
// It is not safe for concurrent use. The TUI calls it from its Update loop
// and every other caller goes through a Runner.
type CountdownController struct {
	editor   *domain.DurationEditor
	alarm    ports.AlarmPlayer
	notifier ports.Notifier
	prefs    *PreferenceService
	runs     ports.RunRepository
	log      logrus.FieldLogger
	now      func() time.Time
	title    string
	body     string

	state     domain.CountdownState
	tick      domain.TickSource
	lastID    uint64
	remaining int
	total     int
	snapshot  domain.DurationSnapshot
	effects   domain.EffectPreference
	alert     ports.Alert
	pending   bool
	run       *domain.CountdownRun
}

// NewCountdownController creates a stopped controller with first-run effect
// switches. Call RestorePreferences to apply the stored ones.
func NewCountdownController(deps ControllerDeps) *CountdownController {
	c := &CountdownController{
		editor:   deps.Editor,
		alarm:    deps.Alarm,
		notifier: deps.Notifier,
		prefs:    deps.Preferences,
		runs:     deps.Runs,
		log:      deps.Logger,
		now:      deps.Now,
		title:    deps.AlertTitle,
		body:     deps.AlertBody,
		effects:  domain.DefaultEffectPreference(),
	}
	if c.editor == nil {
		c.editor = domain.NewDurationEditor(5)
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.title == "" {
		c.title = "Timer"
	}
	if c.body == "" {
		c.body = "Time's up!"
	}
	return c
}

// Editor returns the duration editor the controller counts down.
func (c *CountdownController) Editor() *domain.DurationEditor {
	return c.editor
}

// State returns the run state.
func (c *CountdownController) State() domain.CountdownState {
	return c.state
}

// TickSource returns the current tick registration.
func (c *CountdownController) TickSource() domain.TickSource {
	return c.tick
}

// Phase returns idle, ticking or expired.
func (c *CountdownController) Phase() domain.Phase {
	return domain.PhaseOf(c.state, c.tick)
}

// ActionLabel returns the primary button label.
func (c *CountdownController) ActionLabel() string {
	if c.state == domain.StateRunning {
		return domain.ActionStop
	}
	return domain.ActionStart
}

// Remaining returns the time left on a running countdown.
func (c *CountdownController) Remaining() time.Duration {
	return time.Duration(c.remaining) * time.Second
}

// Effects returns the current effect switches.
func (c *CountdownController) Effects() domain.EffectPreference {
	return c.effects
}

// PermissionPending reports whether a notification permission request is
// waiting for an answer.
func (c *CountdownController) PermissionPending() bool {
	return c.pending
}

// ActiveAlert returns the tracked alert, or nil.
func (c *CountdownController) ActiveAlert() ports.Alert {
	return c.alert
}

// SoundAppearance returns the sound toggle look.
func (c *CountdownController) SoundAppearance() domain.ToggleAppearance {
	return domain.SoundAppearance(c.effects.SoundEnabled)
}

// NotificationAppearance returns the notification toggle look.
func (c *CountdownController) NotificationAppearance() domain.ToggleAppearance {
	return domain.NotificationAppearance(c.effects.NotificationsEnabled)
}

// Status returns a snapshot of everything a view needs.
func (c *CountdownController) Status() domain.CountdownStatus {
	return domain.CountdownStatus{
		State:                c.state,
		Phase:                c.Phase(),
		Remaining:            c.Remaining(),
		Total:                time.Duration(c.total) * time.Second,
		Fields:               c.editor.Values(),
		Action:               c.ActionLabel(),
		SoundEnabled:         c.effects.SoundEnabled,
		NotificationsEnabled: c.effects.NotificationsEnabled,
		PermissionPending:    c.pending,
	}
}

// Start snapshots the fields and begins counting down. It is a no-op while
// running. A zero total clears the fields and expires immediately without a
// tick source. The returned error only reports infrastructure failures; the
// transition has happened regardless.
func (c *CountdownController) Start(ctx context.Context) (domain.TickSource, error) {
	if c.state == domain.StateRunning {
		return c.tick, nil
	}

	c.snapshot = c.editor.Snapshot()
	c.total = c.editor.TotalSeconds()
	c.remaining = c.total
	c.state = domain.StateRunning

	err := c.recordStart(ctx)

	if c.total <= 0 {
		c.total, c.remaining = 0, 0
		c.editor.Clear()
		c.tick.Active = false
		c.log.Debug("countdown started at zero, expiring immediately")
		return c.tick, errors.Join(err, c.expire(ctx))
	}

	c.lastID++
	c.tick = domain.TickSource{ID: c.lastID, Active: true}
	c.log.WithFields(logrus.Fields{
		"tick":    c.tick.ID,
		"seconds": c.total,
	}).Debug("countdown started")
	return c.tick, err
}

// Tick advances the countdown by one second. Ticks whose id does not match
// the active source are ignored and report false.
func (c *CountdownController) Tick(ctx context.Context, id uint64) (bool, error) {
	if c.state != domain.StateRunning || !c.tick.Active || id != c.tick.ID {
		return false, nil
	}

	c.remaining--
	c.editor.Decrement()
	if c.remaining > 0 {
		return true, nil
	}

	c.remaining = 0
	c.tick.Active = false
	c.log.WithField("tick", id).Debug("countdown expired")
	return true, c.expire(ctx)
}

// Stop releases the tick source and silences the expiry effects. The fields
// are restored to their values at Start only when the countdown was still
// ticking; an expired countdown keeps its empty fields.
func (c *CountdownController) Stop(ctx context.Context) error {
	return c.stop(ctx, domain.OutcomeStopped)
}

func (c *CountdownController) stop(ctx context.Context, outcome domain.RunOutcome) error {
	wasTicking := c.tick.Active
	c.tick.Active = false
	c.stopEffects()

	var err error
	if wasTicking {
		c.editor.Restore(c.snapshot)
		err = c.finishRun(ctx, outcome)
	}
	if c.state == domain.StateRunning {
		c.log.WithField("restored", wasTicking).Debug("countdown stopped")
	}
	c.state = domain.StateStopped
	c.remaining = 0
	c.total = 0
	c.run = nil
	return err
}

// Toggle is the primary button: Start when stopped, Stop when running.
func (c *CountdownController) Toggle(ctx context.Context) error {
	if c.state == domain.StateRunning {
		return c.Stop(ctx)
	}
	_, err := c.Start(ctx)
	return err
}

// Reset stops a running countdown, clears every field and focuses seconds.
func (c *CountdownController) Reset(ctx context.Context) error {
	var err error
	if c.state == domain.StateRunning {
		err = c.stop(ctx, domain.OutcomeReset)
	}
	c.editor.Clear()
	c.editor.Focus(domain.FieldSeconds)
	return err
}

// ToggleSound flips the alarm switch and persists it. While expired the
// alarm starts or stops immediately.
func (c *CountdownController) ToggleSound(ctx context.Context) error {
	c.effects.SoundEnabled = !c.effects.SoundEnabled

	var errs []error
	if c.Phase() == domain.PhaseExpired {
		if c.effects.SoundEnabled {
			errs = append(errs, c.startSound())
		} else {
			c.stopSound()
		}
	}
	if c.prefs != nil {
		errs = append(errs, c.prefs.SetSoundEnabled(ctx, c.effects.SoundEnabled))
	}
	return errors.Join(errs...)
}

// ToggleNotifications flips the notification switch. Disabling always
// applies. Enabling needs permission: a stored grant applies at once, a
// refusal aborts silently, and an undecided permission leaves the toggle
// pending until ResolvePermission. While pending further calls are ignored.
func (c *CountdownController) ToggleNotifications(ctx context.Context) (domain.ToggleOutcome, error) {
	if c.pending {
		return domain.ToggleIgnored, nil
	}
	if c.effects.NotificationsEnabled {
		return domain.ToggleApplied, c.setNotifications(ctx, false)
	}

	perm, err := c.permission(ctx)
	if err != nil {
		return domain.ToggleDenied, err
	}
	switch perm {
	case domain.PermissionGranted:
		return domain.ToggleApplied, c.setNotifications(ctx, true)
	case domain.PermissionPrompt:
		c.pending = true
		return domain.TogglePending, nil
	default:
		c.log.Debug("notification permission denied")
		return domain.ToggleDenied, nil
	}
}

func (c *CountdownController) permission(ctx context.Context) (domain.Permission, error) {
	if c.notifier == nil {
		return domain.PermissionDenied, nil
	}
	perm, err := c.notifier.Permission(ctx)
	if err != nil {
		return domain.PermissionDenied, fmt.Errorf("failed to read notification permission: %w", err)
	}
	if perm == domain.PermissionGranted {
		return perm, nil
	}
	perm, err = c.notifier.RequestPermission(ctx)
	if err != nil {
		return domain.PermissionDenied, fmt.Errorf("failed to request notification permission: %w", err)
	}
	return perm, nil
}

// ResolvePermission completes a pending notification toggle with the
// user's answer, which is recorded for later toggles.
func (c *CountdownController) ResolvePermission(ctx context.Context, perm domain.Permission) (domain.ToggleOutcome, error) {
	if !c.pending {
		return domain.ToggleIgnored, nil
	}
	c.pending = false

	var errs []error
	if c.notifier != nil {
		if err := c.notifier.RecordPermission(ctx, perm); err != nil {
			errs = append(errs, fmt.Errorf("failed to record notification permission: %w", err))
		}
	}
	if perm != domain.PermissionGranted {
		return domain.ToggleDenied, errors.Join(errs...)
	}
	errs = append(errs, c.setNotifications(ctx, true))
	return domain.ToggleApplied, errors.Join(errs...)
}

// CancelPermissionRequest drops a pending toggle without recording an
// answer.
func (c *CountdownController) CancelPermissionRequest() {
	c.pending = false
}

func (c *CountdownController) setNotifications(ctx context.Context, enabled bool) error {
	c.effects.NotificationsEnabled = enabled
	if c.prefs == nil {
		return nil
	}
	return c.prefs.SetNotificationsEnabled(ctx, enabled)
}

// RestorePreferences applies the stored switches by replaying the toggles
// a user would have made from the first-run state.
func (c *CountdownController) RestorePreferences(ctx context.Context) (domain.ToggleOutcome, error) {
	if c.prefs == nil {
		return domain.ToggleApplied, nil
	}
	soundOff, notificationsOn, err := c.prefs.StoredEffects(ctx)
	if err != nil {
		return domain.ToggleApplied, err
	}

	var errs []error
	if soundOff && c.effects.SoundEnabled {
		errs = append(errs, c.ToggleSound(ctx))
	}
	outcome := domain.ToggleApplied
	if notificationsOn && !c.effects.NotificationsEnabled {
		var terr error
		outcome, terr = c.ToggleNotifications(ctx)
		errs = append(errs, terr)
	}
	return outcome, errors.Join(errs...)
}

// DismissAlert closes the tracked alert on behalf of the user.
func (c *CountdownController) DismissAlert() error {
	if c.alert == nil {
		return nil
	}
	alert := c.alert
	c.alert = nil
	if err := alert.Close(); err != nil {
		return fmt.Errorf("failed to close notification: %w", err)
	}
	return nil
}

// AlertClosed forgets alert if it is the tracked one. Adapters call it when
// an alert's Done channel fires.
func (c *CountdownController) AlertClosed(alert ports.Alert) {
	if c.alert != nil && c.alert == alert {
		c.alert = nil
	}
}

// expire fires the expiry effects and closes the current run.
func (c *CountdownController) expire(ctx context.Context) error {
	var errs []error
	errs = append(errs, c.startSound())
	errs = append(errs, c.showNotification())
	errs = append(errs, c.finishRun(ctx, domain.OutcomeExpired))
	return errors.Join(errs...)
}

func (c *CountdownController) startSound() error {
	if c.alarm == nil || !c.effects.SoundEnabled || !c.alarm.Paused() {
		return nil
	}
	if err := c.alarm.Play(); err != nil {
		return fmt.Errorf("failed to play alarm: %w", err)
	}
	return nil
}

func (c *CountdownController) stopSound() {
	if c.alarm == nil {
		return
	}
	if !c.alarm.Paused() {
		c.alarm.Pause()
	}
	c.alarm.Rewind()
}

func (c *CountdownController) showNotification() error {
	if c.notifier == nil || !c.effects.NotificationsEnabled || c.alert != nil {
		return nil
	}
	alert, err := c.notifier.Show(c.title, c.body)
	if err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}
	c.alert = alert
	return nil
}

func (c *CountdownController) stopEffects() {
	c.stopSound()
	if err := c.DismissAlert(); err != nil {
		c.log.WithError(err).Warn("closing notification")
	}
}

func (c *CountdownController) recordStart(ctx context.Context) error {
	c.run = domain.NewCountdownRun(c.snapshot, c.total, c.now())
	if c.runs == nil {
		return nil
	}
	if err := c.runs.Save(ctx, c.run); err != nil {
		c.log.WithError(err).Warn("recording countdown run")
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (c *CountdownController) finishRun(ctx context.Context, outcome domain.RunOutcome) error {
	if c.run == nil || c.run.IsFinished() {
		return nil
	}
	c.run.Finish(outcome, c.now())
	if c.runs == nil {
		return nil
	}
	if err := c.runs.Update(ctx, c.run); err != nil {
		c.log.WithError(err).Warn("updating countdown run")
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}
