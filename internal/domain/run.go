package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunOutcome records how a countdown run ended.
type RunOutcome string

const (
	OutcomePending RunOutcome = "pending"
	OutcomeExpired RunOutcome = "expired"
	OutcomeStopped RunOutcome = "stopped"
	OutcomeReset   RunOutcome = "reset"
)

// CountdownRun is one started countdown.
type CountdownRun struct {
	ID        string
	Requested time.Duration
	Snapshot  DurationSnapshot
	StartedAt time.Time
	EndedAt   *time.Time
	Outcome   RunOutcome
}

// NewCountdownRun creates a pending run for the given snapshot and total.
func NewCountdownRun(snapshot DurationSnapshot, totalSeconds int, startedAt time.Time) *CountdownRun {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return &CountdownRun{
		ID:        uuid.New().String(),
		Requested: time.Duration(totalSeconds) * time.Second,
		Snapshot:  snapshot,
		StartedAt: startedAt,
		Outcome:   OutcomePending,
	}
}

// Finish marks the run as ended. A finished run keeps its first outcome.
func (r *CountdownRun) Finish(outcome RunOutcome, at time.Time) {
	if r.EndedAt != nil {
		return
	}
	r.EndedAt = &at
	r.Outcome = outcome
}

// IsFinished reports whether the run has an outcome.
func (r *CountdownRun) IsFinished() bool {
	return r.EndedAt != nil
}

// Elapsed returns how long the run lasted, or has lasted so far.
func (r *CountdownRun) Elapsed(now time.Time) time.Duration {
	end := now
	if r.EndedAt != nil {
		end = *r.EndedAt
	}
	if end.Before(r.StartedAt) {
		return 0
	}
	return end.Sub(r.StartedAt)
}

// GetOutcomeLabel returns a human-readable label for the outcome.
func GetOutcomeLabel(o RunOutcome) string {
	switch o {
	case OutcomePending:
		return "Running"
	case OutcomeExpired:
		return "Expired"
	case OutcomeStopped:
		return "Stopped"
	case OutcomeReset:
		return "Reset"
	default:
		return "Unknown"
	}
}
