package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xvierd/countdown-cli/internal/adapters/storage"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

func setupTestStorage(t *testing.T) (ports.Storage, func()) {
	store, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	return store, func() { store.Close() }
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeAlarm struct {
	playing bool
	plays   int
	pauses  int
	rewinds int
	playErr error
}

func (a *fakeAlarm) Play() error {
	if a.playErr != nil {
		return a.playErr
	}
	a.playing = true
	a.plays++
	return nil
}

func (a *fakeAlarm) Pause() {
	a.playing = false
	a.pauses++
}

func (a *fakeAlarm) Rewind() { a.rewinds++ }

func (a *fakeAlarm) Paused() bool { return !a.playing }

type fakeAlert struct {
	closed bool
	done   chan struct{}
}

func newFakeAlert() *fakeAlert {
	return &fakeAlert{done: make(chan struct{})}
}

func (a *fakeAlert) Close() error {
	if !a.closed {
		a.closed = true
		close(a.done)
	}
	return nil
}

func (a *fakeAlert) Done() <-chan struct{} { return a.done }

type fakeNotifier struct {
	perm     domain.Permission
	answer   domain.Permission
	requests int
	recorded []domain.Permission
	shown    []*fakeAlert
	showErr  error
}

func (n *fakeNotifier) Permission(ctx context.Context) (domain.Permission, error) {
	if n.perm == "" {
		return domain.PermissionDefault, nil
	}
	return n.perm, nil
}

func (n *fakeNotifier) RequestPermission(ctx context.Context) (domain.Permission, error) {
	n.requests++
	if n.perm == domain.PermissionGranted || n.perm == domain.PermissionDenied {
		return n.perm, nil
	}
	if n.answer == "" {
		return domain.PermissionPrompt, nil
	}
	return n.answer, nil
}

func (n *fakeNotifier) RecordPermission(ctx context.Context, p domain.Permission) error {
	n.recorded = append(n.recorded, p)
	n.perm = p
	return nil
}

func (n *fakeNotifier) Show(title, body string) (ports.Alert, error) {
	if n.showErr != nil {
		return nil, n.showErr
	}
	a := newFakeAlert()
	n.shown = append(n.shown, a)
	return a, nil
}

var errBoom = errors.New("boom")

// failingRuns rejects every write.
type failingRuns struct{}

func (failingRuns) Save(ctx context.Context, run *domain.CountdownRun) error   { return errBoom }
func (failingRuns) Update(ctx context.Context, run *domain.CountdownRun) error { return errBoom }
func (failingRuns) FindByID(ctx context.Context, id string) (*domain.CountdownRun, error) {
	return nil, domain.ErrRunNotFound
}
func (failingRuns) FindRecent(ctx context.Context, limit int) ([]*domain.CountdownRun, error) {
	return nil, errBoom
}

type testRig struct {
	ctrl     *CountdownController
	editor   *domain.DurationEditor
	alarm    *fakeAlarm
	notifier *fakeNotifier
	store    ports.Storage
	prefs    *PreferenceService
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	store, cleanup := setupTestStorage(t)
	t.Cleanup(cleanup)

	rig := &testRig{
		editor:   domain.NewDurationEditor(5),
		alarm:    &fakeAlarm{},
		notifier: &fakeNotifier{},
		store:    store,
		prefs:    NewPreferenceService(store.Preferences()),
	}
	clock := time.Date(2026, 5, 6, 7, 0, 0, 0, time.UTC)
	rig.ctrl = NewCountdownController(ControllerDeps{
		Editor:      rig.editor,
		Alarm:       rig.alarm,
		Notifier:    rig.notifier,
		Preferences: rig.prefs,
		Runs:        store.Runs(),
		Logger:      quietLogger(),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	return rig
}

// tickAll delivers ticks until the countdown stops ticking and returns how
// many were accepted.
func (r *testRig) tickAll(t *testing.T) int {
	t.Helper()
	ctx := context.Background()
	n := 0
	for r.ctrl.TickSource().Active {
		ok, err := r.ctrl.Tick(ctx, r.ctrl.TickSource().ID)
		if err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
		if !ok {
			t.Fatal("Tick() with the active id was ignored")
		}
		n++
		if n > 400000 {
			t.Fatal("countdown never expired")
		}
	}
	return n
}
