package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// Timer implements the ports.Timer interface using Bubbletea.
type Timer struct {
	ctrl     Controller
	opts     []ModelOption
	progOpts []tea.ProgramOption
}

// Ensure Timer implements ports.Timer.
var _ ports.Timer = (*Timer)(nil)

// NewTimer creates a new TUI timer adapter for ctrl.
func NewTimer(ctrl Controller, opts ...ModelOption) *Timer {
	return &Timer{
		ctrl:     ctrl,
		opts:     opts,
		progOpts: []tea.ProgramOption{tea.WithAltScreen()},
	}
}

// WithProgramOptions replaces the bubbletea program options.
func (t *Timer) WithProgramOptions(opts ...tea.ProgramOption) *Timer {
	t.progOpts = opts
	return t
}

// Run starts the timer interface and blocks until the user quits or ctx
// is cancelled. A countdown still running on exit is stopped.
func (t *Timer) Run(ctx context.Context) error {
	m := NewModel(ctx, t.ctrl, t.opts...)
	m.restorePreferences()

	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, t.progOpts...)
	_, err := tea.NewProgram(m, opts...).Run()

	// The program has exited, so nothing else touches the controller.
	if t.ctrl.State() == domain.StateRunning {
		_ = t.ctrl.Stop(context.Background())
	}

	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
