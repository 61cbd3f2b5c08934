package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// ErrRunnerStopped is returned by Do once the runner loop has exited.
var ErrRunnerStopped = errors.New("countdown runner stopped")

// Runner owns a CountdownController on a single goroutine. Callers post
// closures with Do; ticks come from a time.Ticker kept in step with the
// controller's tick source. Every controller call happens on the loop, one
// at a time.
type Runner struct {
	ctrl     *CountdownController
	interval time.Duration
	log      logrus.FieldLogger
	onChange func(domain.CountdownStatus)

	ops  chan func(ctx context.Context)
	done chan struct{}

	// newTicker is swapped in tests.
	newTicker func(d time.Duration) (<-chan time.Time, func())
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOnChange registers fn to be called on the loop goroutine after every
// tick and every posted closure.
func WithOnChange(fn func(domain.CountdownStatus)) RunnerOption {
	return func(r *Runner) { r.onChange = fn }
}

// WithTickerFactory replaces the time.Ticker used for ticks.
func WithTickerFactory(fn func(d time.Duration) (<-chan time.Time, func())) RunnerOption {
	return func(r *Runner) { r.newTicker = fn }
}

// NewRunner creates a runner for ctrl ticking every interval.
func NewRunner(ctrl *CountdownController, interval time.Duration, log logrus.FieldLogger, opts ...RunnerOption) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Runner{
		ctrl:     ctrl,
		interval: interval,
		log:      log,
		ops:      make(chan func(ctx context.Context)),
		done:     make(chan struct{}),
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run serves posted closures and ticks until ctx is cancelled. A running
// countdown is stopped on the way out.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	var (
		tickC    <-chan time.Time
		stopTick func()
		tickID   uint64
		watched  ports.Alert
	)
	alertDone := make(chan ports.Alert)

	syncTicker := func() {
		src := r.ctrl.TickSource()
		if src.Active && (tickC == nil || src.ID != tickID) {
			if stopTick != nil {
				stopTick()
			}
			tickC, stopTick = r.newTicker(r.interval)
			tickID = src.ID
		}
		if !src.Active && stopTick != nil {
			stopTick()
			tickC, stopTick = nil, nil
		}
	}

	watchAlert := func() {
		alert := r.ctrl.ActiveAlert()
		if alert == nil || alert == watched {
			return
		}
		watched = alert
		go func() {
			select {
			case <-alert.Done():
				select {
				case alertDone <- alert:
				case <-ctx.Done():
				}
			case <-ctx.Done():
			}
		}()
	}

	settle := func() {
		syncTicker()
		watchAlert()
		if r.onChange != nil {
			r.onChange(r.ctrl.Status())
		}
	}

	for {
		select {
		case <-ctx.Done():
			if stopTick != nil {
				stopTick()
			}
			if r.ctrl.State() == domain.StateRunning {
				// ctx is already done; the run update gets a fresh one.
				if err := r.ctrl.Stop(context.Background()); err != nil {
					r.log.WithError(err).Warn("stopping countdown on shutdown")
				}
			}
			return ctx.Err()

		case op := <-r.ops:
			op(ctx)
			settle()

		case <-tickC:
			if _, err := r.ctrl.Tick(ctx, tickID); err != nil {
				r.log.WithError(err).Warn("countdown tick")
			}
			settle()

		case alert := <-alertDone:
			r.ctrl.AlertClosed(alert)
			if watched == alert {
				watched = nil
			}
			settle()
		}
	}
}

// Do runs fn on the loop goroutine and waits for it.
func (r *Runner) Do(ctx context.Context, fn func(ctx context.Context, c *CountdownController) error) error {
	errc := make(chan error, 1)
	op := func(loopCtx context.Context) {
		errc <- fn(loopCtx, r.ctrl)
	}

	select {
	case r.ops <- op:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
