package notification

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/sirupsen/logrus"
	"github.com/xvierd/countdown-cli/internal/config"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// Alarm loops a beep pattern until paused. The pattern is cfg.Beeps tones
// separated by cfg.Pause, followed by a longer rest, repeated.
type Alarm struct {
	cfg  config.SoundConfig
	log  logrus.FieldLogger
	beep func(freq float64, ms int) error

	mu      sync.Mutex
	playing bool
	pos     int
	stop    chan struct{}
}

var _ ports.AlarmPlayer = (*Alarm)(nil)

// AlarmOption configures an Alarm.
type AlarmOption func(*Alarm)

// WithBeepFunc replaces the call that sounds one tone.
func WithBeepFunc(fn func(freq float64, ms int) error) AlarmOption {
	return func(a *Alarm) { a.beep = fn }
}

// NewAlarm creates a paused alarm.
func NewAlarm(cfg config.SoundConfig, log logrus.FieldLogger, opts ...AlarmOption) *Alarm {
	if cfg.Beeps < 1 {
		cfg.Beeps = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	a := &Alarm{cfg: cfg, log: log, beep: beeep.Beep}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Play starts the loop from the current position. Playing twice is a no-op.
func (a *Alarm) Play() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.playing {
		return nil
	}
	a.playing = true
	a.stop = make(chan struct{})
	go a.loop(a.stop)
	return nil
}

// Pause stops the loop and keeps the position.
func (a *Alarm) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.playing {
		return
	}
	a.playing = false
	close(a.stop)
}

// Rewind moves back to the first tone of the pattern.
func (a *Alarm) Rewind() {
	a.mu.Lock()
	a.pos = 0
	a.mu.Unlock()
}

// Paused reports whether the alarm is silent.
func (a *Alarm) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.playing
}

// Position returns the index of the next tone in the pattern.
func (a *Alarm) Position() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

func (a *Alarm) loop(stop <-chan struct{}) {
	ms := int(time.Duration(a.cfg.BeepDuration) / time.Millisecond)
	gap := time.Duration(a.cfg.Pause)
	rest := 2 * gap

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := a.beep(a.cfg.Frequency, ms); err != nil {
			a.log.WithError(err).Warn("alarm beep failed, silencing")
			a.mu.Lock()
			if a.playing && a.stop == stop {
				a.playing = false
				close(a.stop)
			}
			a.mu.Unlock()
			return
		}

		a.mu.Lock()
		a.pos++
		wait := gap
		if a.pos >= a.cfg.Beeps {
			a.pos = 0
			wait = rest
		}
		a.mu.Unlock()

		if !sleep(stop, wait) {
			return
		}
	}
}

// sleep waits for d and reports false if stop fired first.
func sleep(stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-stop:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}
