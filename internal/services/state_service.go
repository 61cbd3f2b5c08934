package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// StateService implements the CountdownProvider interface on top of a
// Runner.
type StateService struct {
	runner  *Runner
	history *HistoryService
}

var _ ports.CountdownProvider = (*StateService)(nil)

// NewStateService creates a new state service.
func NewStateService(runner *Runner, history *HistoryService) *StateService {
	return &StateService{runner: runner, history: history}
}

// Status implements ports.CountdownProvider.
func (s *StateService) Status(ctx context.Context) (domain.CountdownStatus, error) {
	var st domain.CountdownStatus
	err := s.runner.Do(ctx, func(_ context.Context, c *CountdownController) error {
		st = c.Status()
		return nil
	})
	return st, err
}

// Start implements ports.CountdownProvider.
func (s *StateService) Start(ctx context.Context) (domain.CountdownStatus, error) {
	return s.start(ctx, nil)
}

// StartFor implements ports.CountdownProvider.
func (s *StateService) StartFor(ctx context.Context, d time.Duration) (domain.CountdownStatus, error) {
	return s.start(ctx, func(e *domain.DurationEditor) error {
		if err := e.SetDuration(d); err != nil {
			return fmt.Errorf("invalid duration %s: %w", d, err)
		}
		return nil
	})
}

func (s *StateService) start(ctx context.Context, fill func(*domain.DurationEditor) error) (domain.CountdownStatus, error) {
	var st domain.CountdownStatus
	err := s.runner.Do(ctx, func(ctx context.Context, c *CountdownController) error {
		if c.State() == domain.StateRunning {
			st = c.Status()
			return domain.ErrCountdownRunning
		}
		if fill != nil {
			if err := fill(c.Editor()); err != nil {
				st = c.Status()
				return err
			}
		}
		_, err := c.Start(ctx)
		st = c.Status()
		return err
	})
	return st, err
}

// Execute implements ports.CountdownProvider.
func (s *StateService) Execute(ctx context.Context, cmd ports.TimerCommand) (domain.CountdownStatus, error) {
	if cmd == ports.CmdToggleNotifications {
		st, _, err := s.ToggleNotifications(ctx, false)
		return st, err
	}

	var st domain.CountdownStatus
	err := s.runner.Do(ctx, func(ctx context.Context, c *CountdownController) error {
		var err error
		switch cmd {
		case ports.CmdToggle:
			err = c.Toggle(ctx)
		case ports.CmdStart:
			_, err = c.Start(ctx)
		case ports.CmdStop:
			err = c.Stop(ctx)
		case ports.CmdReset:
			err = c.Reset(ctx)
		case ports.CmdToggleSound:
			err = c.ToggleSound(ctx)
		case ports.CmdDismiss:
			err = c.DismissAlert()
		default:
			err = fmt.Errorf("unsupported command %q", cmd)
		}
		st = c.Status()
		return err
	})
	return st, err
}

// ToggleNotifications flips the notification switch. There is nobody to
// answer a permission prompt here, so allow stands in for the answer; a
// pending request without it is withdrawn.
func (s *StateService) ToggleNotifications(ctx context.Context, allow bool) (domain.CountdownStatus, domain.ToggleOutcome, error) {
	var (
		st      domain.CountdownStatus
		outcome domain.ToggleOutcome
	)
	err := s.runner.Do(ctx, func(ctx context.Context, c *CountdownController) error {
		var err error
		outcome, err = c.ToggleNotifications(ctx)
		if err == nil && outcome == domain.TogglePending {
			if allow {
				outcome, err = c.ResolvePermission(ctx, domain.PermissionGranted)
			} else {
				c.CancelPermissionRequest()
			}
		}
		st = c.Status()
		return err
	})
	return st, outcome, err
}

// ListRuns implements ports.CountdownProvider.
func (s *StateService) ListRuns(ctx context.Context, limit int) ([]*domain.CountdownRun, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(ctx, limit)
}
