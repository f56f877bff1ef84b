package service

import (
	"context"
	"time"

	"safeher/internal/domain"
)

type StatsRepository interface {
	Count(ctx context.Context, filter domain.AlertFilter) (int64, error)
}

type statsService struct {
	repo StatsRepository
	now  func() time.Time
}

func NewStatsService(repo StatsRepository, now func() time.Time) StatsService {
	if now == nil {
		now = time.Now
	}
	return &statsService{repo: repo, now: now}
}

func (s *statsService) GetStats(ctx context.Context) (*domain.AlertStats, error) {
	total, err := s.repo.Count(ctx, domain.AlertFilter{})
	if err != nil {
		return nil, err
	}

	pending := domain.StatusPending
	pendingCount, err := s.repo.Count(ctx, domain.AlertFilter{Status: &pending})
	if err != nil {
		return nil, err
	}

	midnight := startOfDay(s.now())
	today, err := s.repo.Count(ctx, domain.AlertFilter{Since: &midnight})
	if err != nil {
		return nil, err
	}

	return &domain.AlertStats{
		Total:    total,
		Pending:  pendingCount,
		Today:    today,
		Resolved: total - pendingCount,
	}, nil
}

// startOfDay is local midnight in the clock's own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
