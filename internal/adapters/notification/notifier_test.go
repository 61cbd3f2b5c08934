package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/countdown-cli/internal/adapters/storage"
	"github.com/xvierd/countdown-cli/internal/config"
	"github.com/xvierd/countdown-cli/internal/domain"
)

type postedNote struct {
	title, body string
	icon        any
}

func newTestDesktop(t *testing.T, opts ...DesktopOption) (*Desktop, *[]postedNote) {
	t.Helper()
	store, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var posted []postedNote
	record := WithNotifyFunc(func(title, message string, icon any) error {
		posted = append(posted, postedNote{title, message, icon})
		return nil
	})
	return NewDesktop(store.Preferences(), append([]DesktopOption{record}, opts...)...), &posted
}

func TestDesktop_PermissionFlow(t *testing.T) {
	d, _ := newTestDesktop(t)
	ctx := context.Background()

	p, err := d.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionDefault, p)

	p, err = d.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionPrompt, p, "an undecided permission needs a prompt")

	require.NoError(t, d.RecordPermission(ctx, domain.PermissionGranted))
	p, err = d.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionGranted, p)

	require.NoError(t, d.RecordPermission(ctx, domain.PermissionPrompt))
	p, err = d.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionDenied, p, "a non-grant answer is stored as a denial")
}

func TestDesktop_Show(t *testing.T) {
	d, posted := newTestDesktop(t, WithIcon("/tmp/icon.png"))

	a, err := d.Show("Timer", "Time's up!")
	require.NoError(t, err)
	require.Len(t, *posted, 1)
	assert.Equal(t, postedNote{"Timer", "Time's up!", "/tmp/icon.png"}, (*posted)[0])

	select {
	case <-a.Done():
		t.Fatal("alert should stay open until closed")
	default:
	}

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "closing twice is a no-op")
	select {
	case <-a.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}
}

func TestDesktop_ShowFailure(t *testing.T) {
	store, err := storage.NewMemory()
	require.NoError(t, err)
	defer store.Close()

	boom := errors.New("no notification daemon")
	d := NewDesktop(store.Preferences(), WithNotifyFunc(func(string, string, any) error { return boom }))
	a, err := d.Show("Timer", "Time's up!")
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, a)
}

func TestDesktop_AlertLifetime(t *testing.T) {
	d, _ := newTestDesktop(t, WithAlertLifetime(10*time.Millisecond))

	a, err := d.Show("Timer", "Time's up!")
	require.NoError(t, err)
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("alert did not expire")
	}
}

func TestConfigOptions(t *testing.T) {
	d, posted := newTestDesktop(t, ConfigOptions(config.NotificationConfig{
		Icon:     "/usr/share/icons/timer.png",
		Lifetime: config.Duration(10 * time.Millisecond),
	})...)

	a, err := d.Show("Timer", "Time's up!")
	require.NoError(t, err)
	require.Len(t, *posted, 1)
	assert.Equal(t, "/usr/share/icons/timer.png", (*posted)[0].icon)
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("configured lifetime did not clear the alert")
	}
}

func TestConfigOptions_ZeroLifetimeKeepsAlert(t *testing.T) {
	d, posted := newTestDesktop(t, ConfigOptions(config.NotificationConfig{})...)

	a, err := d.Show("Timer", "Time's up!")
	require.NoError(t, err)
	assert.Equal(t, "", (*posted)[0].icon)
	select {
	case <-a.Done():
		t.Fatal("alert without a lifetime should stay open")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, a.Close())
}

type beepRecorder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (b *beepRecorder) beep(freq float64, ms int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.err
}

func (b *beepRecorder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func testSound() config.SoundConfig {
	return config.SoundConfig{
		Frequency:    880,
		BeepDuration: config.Duration(time.Millisecond),
		Pause:        config.Duration(time.Millisecond),
		Beeps:        3,
	}
}

func TestAlarm_PlayPause(t *testing.T) {
	rec := &beepRecorder{}
	a := NewAlarm(testSound(), nil, WithBeepFunc(rec.beep))

	assert.True(t, a.Paused())
	require.NoError(t, a.Play())
	require.NoError(t, a.Play())
	assert.False(t, a.Paused())

	require.Eventually(t, func() bool { return rec.count() >= 4 }, 2*time.Second, time.Millisecond)

	a.Pause()
	a.Pause()
	assert.True(t, a.Paused())

	a.Rewind()
	assert.Equal(t, 0, a.Position())
}

func TestAlarm_BeepFailureSilences(t *testing.T) {
	rec := &beepRecorder{err: errors.New("no speaker")}
	a := NewAlarm(testSound(), nil, WithBeepFunc(rec.beep))

	require.NoError(t, a.Play())
	require.Eventually(t, a.Paused, 2*time.Second, time.Millisecond)
	assert.Equal(t, 1, rec.count())

	// Pausing after the loop gave up must not panic.
	a.Pause()
}
