package domain

import "time"

// CountdownState is the run state of the countdown.
type CountdownState int

const (
	StateStopped CountdownState = iota
	StateRunning
)

// String returns a human-readable label.
func (s CountdownState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Action labels of the primary button.
const (
	ActionStart = "START"
	ActionStop  = "STOP"
)

// TickSource identifies one repeating tick registration. A tick carrying an
// ID that does not match the active source is stale and must be ignored.
type TickSource struct {
	ID     uint64
	Active bool
}

// Phase is the user-visible condition of the countdown.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseTicking Phase = "ticking"
	PhaseExpired Phase = "expired"
)

// PhaseOf derives the phase from the run state and the tick source.
// Running without an active tick source means the countdown reached zero
// and the user has not acknowledged it yet.
func PhaseOf(state CountdownState, tick TickSource) Phase {
	if state != StateRunning {
		return PhaseIdle
	}
	if tick.Active {
		return PhaseTicking
	}
	return PhaseExpired
}

// CountdownStatus is a read-only view of the countdown.
type CountdownStatus struct {
	State                CountdownState
	Phase                Phase
	Remaining            time.Duration
	Total                time.Duration
	Fields               DurationSnapshot
	Action               string
	SoundEnabled         bool
	NotificationsEnabled bool
	PermissionPending    bool
}

// Progress returns the elapsed share of the countdown in [0, 1].
func (s CountdownStatus) Progress() float64 {
	if s.Total <= 0 {
		if s.Phase == PhaseExpired {
			return 1
		}
		return 0
	}
	p := 1 - float64(s.Remaining)/float64(s.Total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
