// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// HistoryService handles run history use cases.
type HistoryService struct {
	runs ports.RunRepository
}

// NewHistoryService creates a new history service.
func NewHistoryService(runs ports.RunRepository) *HistoryService {
	return &HistoryService{runs: runs}
}

// Recent returns up to limit runs, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]*domain.CountdownRun, error) {
	runs, err := s.runs.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.CountdownRun, error) {
	return s.runs.FindByID(ctx, id)
}

// HistorySummary aggregates a list of runs.
type HistorySummary struct {
	Runs      int
	ByOutcome map[domain.RunOutcome]int
	// Counted is the time actually counted down across finished runs.
	Counted time.Duration
}

// Summarize aggregates runs.
func Summarize(runs []*domain.CountdownRun) HistorySummary {
	sum := HistorySummary{ByOutcome: make(map[domain.RunOutcome]int)}
	for _, r := range runs {
		sum.Runs++
		sum.ByOutcome[r.Outcome]++
		if !r.IsFinished() {
			continue
		}
		elapsed := r.Elapsed(*r.EndedAt)
		if elapsed > r.Requested {
			elapsed = r.Requested
		}
		sum.Counted += elapsed
	}
	return sum
}
