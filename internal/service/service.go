package service

import (
	"context"

	"safeher/internal/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go
type AlertRepository interface {
	Insert(ctx context.Context, alert *domain.Alert) error
	FindRecent(ctx context.Context, limit int, userID string) ([]*domain.Alert, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status *domain.Status, notes *string) (*domain.Alert, error)
	Count(ctx context.Context, filter domain.AlertFilter) (int64, error)
}

// Scheduler hands a dispatch task to a background executor. It must not wait
// for delivery.
type Scheduler interface {
	Schedule(ctx context.Context, task domain.DispatchTask) error
}

type AlertService interface {
	Create(ctx context.Context, req domain.CreateAlertRequest) (*domain.Alert, error)
	List(ctx context.Context, req domain.ListAlertsRequest) ([]*domain.Alert, error)
	Get(ctx context.Context, id string) (*domain.Alert, error)
	UpdateStatus(ctx context.Context, id string, req domain.UpdateAlertRequest) (*domain.Alert, error)
}

type StatsService interface {
	GetStats(ctx context.Context) (*domain.AlertStats, error)
}

type Service struct {
	AlertService AlertService
	StatsService StatsService
}

func NewService(alertService AlertService, statsService StatsService) *Service {
	return &Service{
		AlertService: alertService,
		StatsService: statsService,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAlertRequest) (*domain.Alert, error) {
	return s.AlertService.Create(ctx, req)
}

func (s *Service) List(ctx context.Context, req domain.ListAlertsRequest) ([]*domain.Alert, error) {
	return s.AlertService.List(ctx, req)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Alert, error) {
	return s.AlertService.Get(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, req domain.UpdateAlertRequest) (*domain.Alert, error) {
	return s.AlertService.UpdateStatus(ctx, id, req)
}

func (s *Service) GetStats(ctx context.Context) (*domain.AlertStats, error) {
	return s.StatsService.GetStats(ctx)
}
