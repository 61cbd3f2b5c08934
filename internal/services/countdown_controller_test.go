package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xvierd/countdown-cli/internal/domain"
)

func TestCountdownController_TicksToExpiry(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_ = rig.editor.Set(domain.FieldSeconds, "5")

	src, err := rig.ctrl.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !src.Active {
		t.Fatal("Start() should activate a tick source")
	}
	if rig.ctrl.ActionLabel() != domain.ActionStop {
		t.Errorf("ActionLabel() = %q, want STOP", rig.ctrl.ActionLabel())
	}

	if n := rig.tickAll(t); n != 5 {
		t.Errorf("ticks to expiry = %d, want 5", n)
	}
	if rig.ctrl.Phase() != domain.PhaseExpired {
		t.Errorf("Phase() = %v, want expired", rig.ctrl.Phase())
	}
	if !rig.editor.IsEmpty() {
		t.Errorf("fields after expiry = %v, want all empty", rig.editor.Values())
	}
	if rig.alarm.plays != 1 {
		t.Errorf("alarm plays = %d, want 1", rig.alarm.plays)
	}
	if rig.ctrl.ActionLabel() != domain.ActionStop {
		t.Errorf("ActionLabel() while expired = %q, want STOP", rig.ctrl.ActionLabel())
	}
}

func TestCountdownController_EmptyFieldsUseDefault(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	if _, err := rig.ctrl.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := rig.ctrl.Remaining(); got != 300*time.Second {
		t.Errorf("Remaining() = %v, want 5m", got)
	}

	if _, err := rig.ctrl.Tick(ctx, rig.ctrl.TickSource().ID); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if got := rig.editor.Values(); got != (domain.DurationSnapshot{"59", "4", ""}) {
		t.Errorf("fields after first tick = %v, want [59 4 ]", got)
	}
}

func TestCountdownController_ZeroTotalExpiresImmediately(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_ = rig.editor.Set(domain.FieldSeconds, "00")
	_ = rig.editor.Set(domain.FieldMinutes, "0")

	src, err := rig.ctrl.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if src.Active {
		t.Error("zero total should not activate a tick source")
	}
	if rig.ctrl.Phase() != domain.PhaseExpired {
		t.Errorf("Phase() = %v, want expired", rig.ctrl.Phase())
	}
	if !rig.editor.IsEmpty() {
		t.Errorf("fields = %v, want cleared", rig.editor.Values())
	}
	if rig.alarm.plays != 1 {
		t.Errorf("alarm plays = %d, want 1", rig.alarm.plays)
	}
}

func TestCountdownController_StartWhileRunningIsNoop(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_ = rig.editor.Set(domain.FieldSeconds, "30")

	first, _ := rig.ctrl.Start(ctx)
	second, _ := rig.ctrl.Start(ctx)
	if first != second {
		t.Errorf("second Start() = %+v, want unchanged %+v", second, first)
	}
}

func TestCountdownController_StaleTickIgnored(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_ = rig.editor.Set(domain.FieldSeconds, "30")

	old, _ := rig.ctrl.Start(ctx)
	_ = rig.ctrl.Stop(ctx)
	current, _ := rig.ctrl.Start(ctx)
	if current.ID == old.ID {
		t.Fatal("restart should use a fresh tick id")
	}

	ok, err := rig.ctrl.Tick(ctx, old.ID)
	if err != nil || ok {
		t.Errorf("Tick(stale) = %v %v, want ignored", ok, err)
	}
	if got := rig.editor.Value(domain.FieldSeconds); got != "30" {
		t.Errorf("stale tick changed seconds to %q", got)
	}

	_ = rig.ctrl.Stop(ctx)
	if ok, _ := rig.ctrl.Tick(ctx, current.ID); ok {
		t.Error("tick after Stop() should be ignored")
	}
}

func TestCountdownController_StopWhileTickingRestores(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_ = rig.editor.Set(domain.FieldSeconds, "07")
	_ = rig.editor.Set(domain.FieldHours, "1")
	before := rig.editor.Values()

	src, _ := rig.ctrl.Start(ctx)
	for i := 0; i < 3; i++ {
		_, _ = rig.ctrl.Tick(ctx, src.ID)
	}
	if rig.editor.Values() == before {
		t.Fatal("ticks should have changed the fields")
	}

	if err := rig.ctrl.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := rig.editor.Values(); got != before {
		t.Errorf("fields after Stop() = %v, want %v", got, before)
	}
	if rig.ctrl.State() != domain.StateStopped || rig.ctrl.ActionLabel() != domain.ActionStart {
		t.Errorf("state = %v label %q, want stopped START", rig.ctrl.State(), rig.ctrl.ActionLabel())
	}
}

func TestCountdownController_StopWhileExpired(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	rig.notifier.perm = domain.PermissionGranted
	if _, err := rig.ctrl.ToggleNotifications(ctx); err != nil {
		t.Fatalf("ToggleNotifications() error = %v", err)
	}
	_ = rig.editor.Set(domain.FieldSeconds, "2")

	_, _ = rig.ctrl.Start(ctx)
	rig.tickAll(t)

	if len(rig.notifier.shown) != 1 {
		t.Fatalf("alerts shown = %d, want 1", len(rig.notifier.shown))
	}
	alert := rig.notifier.shown[0]

	if err := rig.ctrl.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !rig.editor.IsEmpty() {
		t.Errorf("fields = %v, want empty after stopping an expired countdown", rig.editor.Values())
	}
	if !rig.alarm.Paused() || rig.alarm.rewinds == 0 {
		t.Errorf("alarm playing=%v rewinds=%d, want paused and rewound", rig.alarm.playing, rig.alarm.rewinds)
	}
	if !alert.closed || rig.ctrl.ActiveAlert() != nil {
		t.Error("Stop() should close and forget the alert")
	}

	// Stopping again is harmless.
	if err := rig.ctrl.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestCountdownController_SoundToggleTwiceRestores(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	before := rig.ctrl.SoundAppearance()
	if err := rig.ctrl.ToggleSound(ctx); err != nil {
		t.Fatalf("ToggleSound() error = %v", err)
	}
	if rig.ctrl.Effects().SoundEnabled {
		t.Error("sound should be disabled after one toggle")
	}
	if got, _ := rig.prefs.Get(ctx, domain.KeySoundEnabled); got != "false" {
		t.Errorf("stored sound = %q, want false", got)
	}

	if err := rig.ctrl.ToggleSound(ctx); err != nil {
		t.Fatalf("ToggleSound() error = %v", err)
	}
	if !rig.ctrl.Effects().SoundEnabled {
		t.Error("sound should be enabled after two toggles")
	}
	if rig.ctrl.SoundAppearance() != before {
		t.Errorf("appearance = %+v, want %+v", rig.ctrl.SoundAppearance(), before)
	}
	if got, _ := rig.prefs.Get(ctx, domain.KeySoundEnabled); got != "true" {
		t.Errorf("stored sound = %q, want true", got)
	}
	if rig.alarm.plays != 0 {
		t.Error("toggling while idle should not play the alarm")
	}
}

func TestCountdownController_SoundToggleWhileExpired(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_ = rig.editor.Set(domain.FieldSeconds, "1")
	_, _ = rig.ctrl.Start(ctx)
	rig.tickAll(t)

	_ = rig.ctrl.ToggleSound(ctx)
	if !rig.alarm.Paused() {
		t.Error("disabling sound while expired should stop the alarm")
	}

	_ = rig.ctrl.ToggleSound(ctx)
	if rig.alarm.Paused() || rig.alarm.plays != 2 {
		t.Errorf("enabling sound while expired should restart the alarm, plays = %d", rig.alarm.plays)
	}
}

func TestCountdownController_SoundDisabledStaysSilent(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_ = rig.ctrl.ToggleSound(ctx)
	_ = rig.editor.Set(domain.FieldSeconds, "1")

	_, _ = rig.ctrl.Start(ctx)
	rig.tickAll(t)
	if rig.alarm.plays != 0 {
		t.Errorf("alarm plays = %d, want 0", rig.alarm.plays)
	}
}

func TestCountdownController_NotificationPermission(t *testing.T) {
	ctx := context.Background()

	t.Run("granted applies at once", func(t *testing.T) {
		rig := newTestRig(t)
		rig.notifier.perm = domain.PermissionGranted

		outcome, err := rig.ctrl.ToggleNotifications(ctx)
		if err != nil || outcome != domain.ToggleApplied {
			t.Fatalf("ToggleNotifications() = %v %v, want applied", outcome, err)
		}
		if rig.ctrl.NotificationAppearance().Title != "Disable notifications" {
			t.Errorf("appearance = %+v", rig.ctrl.NotificationAppearance())
		}
		if got, _ := rig.prefs.Get(ctx, domain.KeyNotificationsEnabled); got != "true" {
			t.Errorf("stored = %q, want true", got)
		}
	})

	t.Run("denied aborts silently", func(t *testing.T) {
		rig := newTestRig(t)
		rig.notifier.perm = domain.PermissionDenied

		outcome, err := rig.ctrl.ToggleNotifications(ctx)
		if err != nil || outcome != domain.ToggleDenied {
			t.Fatalf("ToggleNotifications() = %v %v, want denied", outcome, err)
		}
		if rig.ctrl.Effects().NotificationsEnabled {
			t.Error("notifications should stay disabled")
		}
		if _, ok, _ := rig.prefs.Stored(ctx, domain.KeyNotificationsEnabled); ok {
			t.Error("a denied toggle should not store anything")
		}
		if rig.ctrl.NotificationAppearance().Title != "Enable notifications" {
			t.Errorf("appearance = %+v", rig.ctrl.NotificationAppearance())
		}
	})

	t.Run("prompt is pending until resolved", func(t *testing.T) {
		rig := newTestRig(t)

		outcome, _ := rig.ctrl.ToggleNotifications(ctx)
		if outcome != domain.TogglePending || !rig.ctrl.PermissionPending() {
			t.Fatalf("ToggleNotifications() = %v, want pending", outcome)
		}

		again, _ := rig.ctrl.ToggleNotifications(ctx)
		if again != domain.ToggleIgnored {
			t.Errorf("toggle while pending = %v, want ignored", again)
		}
		if rig.notifier.requests != 1 {
			t.Errorf("permission requests = %d, want 1", rig.notifier.requests)
		}

		// Other input is still serviced.
		if err := rig.ctrl.ToggleSound(ctx); err != nil {
			t.Fatalf("ToggleSound() while pending error = %v", err)
		}

		resolved, err := rig.ctrl.ResolvePermission(ctx, domain.PermissionGranted)
		if err != nil || resolved != domain.ToggleApplied {
			t.Fatalf("ResolvePermission() = %v %v, want applied", resolved, err)
		}
		if !rig.ctrl.Effects().NotificationsEnabled || rig.ctrl.PermissionPending() {
			t.Error("notifications should be enabled and no longer pending")
		}
		if len(rig.notifier.recorded) != 1 || rig.notifier.recorded[0] != domain.PermissionGranted {
			t.Errorf("recorded = %v, want [granted]", rig.notifier.recorded)
		}
	})

	t.Run("prompt answered no", func(t *testing.T) {
		rig := newTestRig(t)
		_, _ = rig.ctrl.ToggleNotifications(ctx)

		resolved, _ := rig.ctrl.ResolvePermission(ctx, domain.PermissionDenied)
		if resolved != domain.ToggleDenied || rig.ctrl.Effects().NotificationsEnabled {
			t.Errorf("ResolvePermission(denied) = %v, enabled %v", resolved, rig.ctrl.Effects().NotificationsEnabled)
		}
	})

	t.Run("cancelled request", func(t *testing.T) {
		rig := newTestRig(t)
		_, _ = rig.ctrl.ToggleNotifications(ctx)
		rig.ctrl.CancelPermissionRequest()

		if rig.ctrl.PermissionPending() {
			t.Error("request should no longer be pending")
		}
		if len(rig.notifier.recorded) != 0 {
			t.Error("cancelling should not record an answer")
		}
	})

	t.Run("disable needs no permission", func(t *testing.T) {
		rig := newTestRig(t)
		rig.notifier.perm = domain.PermissionGranted
		_, _ = rig.ctrl.ToggleNotifications(ctx)
		rig.notifier.perm = domain.PermissionDenied

		outcome, err := rig.ctrl.ToggleNotifications(ctx)
		if err != nil || outcome != domain.ToggleApplied || rig.ctrl.Effects().NotificationsEnabled {
			t.Errorf("disable = %v %v enabled %v", outcome, err, rig.ctrl.Effects().NotificationsEnabled)
		}
	})
}

func TestCountdownController_SingleAlert(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	rig.notifier.perm = domain.PermissionGranted
	_, _ = rig.ctrl.ToggleNotifications(ctx)

	_, _ = rig.ctrl.Start(ctx) // default 5 minutes
	rig.tickAll(t)
	if len(rig.notifier.shown) != 1 {
		t.Fatalf("alerts shown = %d, want 1", len(rig.notifier.shown))
	}

	// The user closes the alert outside the app.
	alert := rig.notifier.shown[0]
	_ = alert.Close()
	rig.ctrl.AlertClosed(alert)
	if rig.ctrl.ActiveAlert() != nil {
		t.Error("AlertClosed() should forget the tracked alert")
	}

	// A stale close of another alert does not clear the tracked one.
	_ = rig.ctrl.Stop(ctx)
	_ = rig.editor.Set(domain.FieldSeconds, "1")
	_, _ = rig.ctrl.Start(ctx)
	rig.tickAll(t)
	rig.ctrl.AlertClosed(alert)
	if rig.ctrl.ActiveAlert() == nil {
		t.Error("closing an old alert should not clear the new one")
	}
}

func TestCountdownController_NotificationFailureClearsAlert(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	rig.notifier.perm = domain.PermissionGranted
	rig.notifier.showErr = errBoom
	_, _ = rig.ctrl.ToggleNotifications(ctx)
	_ = rig.editor.Set(domain.FieldSeconds, "1")

	_, _ = rig.ctrl.Start(ctx)
	_, err := rig.ctrl.Tick(ctx, rig.ctrl.TickSource().ID)
	if !errors.Is(err, errBoom) {
		t.Errorf("Tick() error = %v, want the notification failure", err)
	}
	if rig.ctrl.ActiveAlert() != nil {
		t.Error("a failed alert should not be tracked")
	}
	if rig.ctrl.Phase() != domain.PhaseExpired {
		t.Errorf("Phase() = %v, want expired despite the failure", rig.ctrl.Phase())
	}
}

func TestCountdownController_DismissAlert(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	rig.notifier.perm = domain.PermissionGranted
	_, _ = rig.ctrl.ToggleNotifications(ctx)
	_ = rig.editor.Set(domain.FieldSeconds, "1")
	_, _ = rig.ctrl.Start(ctx)
	rig.tickAll(t)

	if err := rig.ctrl.DismissAlert(); err != nil {
		t.Fatalf("DismissAlert() error = %v", err)
	}
	if !rig.notifier.shown[0].closed || rig.ctrl.ActiveAlert() != nil {
		t.Error("DismissAlert() should close and forget the alert")
	}
	if rig.ctrl.Phase() != domain.PhaseExpired {
		t.Error("dismissing the alert should not stop the countdown")
	}
}

func TestCountdownController_Reset(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_ = rig.editor.Set(domain.FieldMinutes, "2")
	rig.editor.Focus(domain.FieldHours)

	_, _ = rig.ctrl.Start(ctx)
	if err := rig.ctrl.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !rig.editor.IsEmpty() {
		t.Errorf("fields = %v, want empty", rig.editor.Values())
	}
	if rig.editor.Focused() != domain.FieldSeconds || !rig.editor.HasFocus() {
		t.Error("Reset() should focus seconds")
	}
	if rig.ctrl.State() != domain.StateStopped {
		t.Errorf("State() = %v, want stopped", rig.ctrl.State())
	}
	if rig.editor.Placeholder(domain.FieldMinutes) != "05" {
		t.Error("minutes placeholder should return to the default after Reset()")
	}
}

func TestCountdownController_RecordsRuns(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	history := NewHistoryService(rig.store.Runs())

	_ = rig.editor.Set(domain.FieldSeconds, "2")
	_, _ = rig.ctrl.Start(ctx)
	rig.tickAll(t)
	_ = rig.ctrl.Stop(ctx)

	_ = rig.editor.Set(domain.FieldSeconds, "9")
	_, _ = rig.ctrl.Start(ctx)
	_ = rig.ctrl.Stop(ctx)

	_, _ = rig.ctrl.Start(ctx)
	_ = rig.ctrl.Reset(ctx)

	runs, err := history.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}
	want := []domain.RunOutcome{domain.OutcomeReset, domain.OutcomeStopped, domain.OutcomeExpired}
	for i, r := range runs {
		if r.Outcome != want[i] {
			t.Errorf("run %d outcome = %v, want %v", i, r.Outcome, want[i])
		}
	}
	if runs[2].Snapshot != (domain.DurationSnapshot{"2", "", ""}) {
		t.Errorf("expired run snapshot = %v", runs[2].Snapshot)
	}
}

func TestCountdownController_RecordingFailureIsNotFatal(t *testing.T) {
	ctrl := NewCountdownController(ControllerDeps{
		Alarm:  &fakeAlarm{},
		Runs:   failingRuns{},
		Logger: quietLogger(),
	})
	ctx := context.Background()
	_ = ctrl.Editor().Set(domain.FieldSeconds, "1")

	src, err := ctrl.Start(ctx)
	if !errors.Is(err, errBoom) {
		t.Errorf("Start() error = %v, want recording failure", err)
	}
	if !src.Active || ctrl.State() != domain.StateRunning {
		t.Error("countdown should run despite the recording failure")
	}
}

func TestCountdownController_RestorePreferences(t *testing.T) {
	ctx := context.Background()

	t.Run("first run", func(t *testing.T) {
		rig := newTestRig(t)
		if _, err := rig.ctrl.RestorePreferences(ctx); err != nil {
			t.Fatalf("RestorePreferences() error = %v", err)
		}
		if got := rig.ctrl.Effects(); got != domain.DefaultEffectPreference() {
			t.Errorf("Effects() = %+v, want defaults", got)
		}
	})

	t.Run("stored switches", func(t *testing.T) {
		rig := newTestRig(t)
		_ = rig.prefs.Set(ctx, domain.KeySoundEnabled, "false")
		_ = rig.prefs.Set(ctx, domain.KeyNotificationsEnabled, "true")
		rig.notifier.perm = domain.PermissionGranted

		outcome, err := rig.ctrl.RestorePreferences(ctx)
		if err != nil || outcome != domain.ToggleApplied {
			t.Fatalf("RestorePreferences() = %v %v", outcome, err)
		}
		want := domain.EffectPreference{SoundEnabled: false, NotificationsEnabled: true}
		if got := rig.ctrl.Effects(); got != want {
			t.Errorf("Effects() = %+v, want %+v", got, want)
		}
		if rig.ctrl.SoundAppearance().Icon != "🔇" {
			t.Errorf("sound icon = %q", rig.ctrl.SoundAppearance().Icon)
		}
	})

	t.Run("stored notifications without permission", func(t *testing.T) {
		rig := newTestRig(t)
		_ = rig.prefs.Set(ctx, domain.KeyNotificationsEnabled, "true")

		outcome, _ := rig.ctrl.RestorePreferences(ctx)
		if outcome != domain.TogglePending {
			t.Errorf("RestorePreferences() = %v, want pending", outcome)
		}
	})
}
