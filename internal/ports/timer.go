package ports

import (
	"context"
)

// TimerCommand represents a user action on the countdown.
type TimerCommand string

const (
	// CmdToggle starts a stopped countdown or stops a running one.
	CmdToggle TimerCommand = "toggle"

	// CmdStart starts the countdown.
	CmdStart TimerCommand = "start"

	// CmdStop stops the countdown.
	CmdStop TimerCommand = "stop"

	// CmdReset stops the countdown and clears every field.
	CmdReset TimerCommand = "reset"

	// CmdToggleSound flips the alarm sound preference.
	CmdToggleSound TimerCommand = "toggle_sound"

	// CmdToggleNotifications flips the notification preference.
	CmdToggleNotifications TimerCommand = "toggle_notifications"

	// CmdDismiss closes the on-screen alert.
	CmdDismiss TimerCommand = "dismiss"

	// CmdQuit exits the application.
	CmdQuit TimerCommand = "quit"
)

// ParseTimerCommand maps a command name to a TimerCommand.
func ParseTimerCommand(s string) (TimerCommand, bool) {
	switch c := TimerCommand(s); c {
	case CmdToggle, CmdStart, CmdStop, CmdReset, CmdToggleSound,
		CmdToggleNotifications, CmdDismiss, CmdQuit:
		return c, true
	default:
		return "", false
	}
}

// Timer is the interactive countdown interface.
// This is a driving port (called by the application layer).
type Timer interface {
	// Run starts the interface and blocks until the user quits.
	Run(ctx context.Context) error
}
