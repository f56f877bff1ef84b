package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"safeher/internal/domain"
	"safeher/internal/metrics"
	"safeher/pkg/e"

	"github.com/google/uuid"
)

const scheduleTimeout = 2 * time.Second

type alertService struct {
	repo      AlertRepository
	scheduler Scheduler
	logger    *slog.Logger
	strict    bool
	now       func() time.Time
}

type Option func(*alertService)

// WithClock overrides the time source used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *alertService) { s.now = now }
}

// WithStrictTransitions rejects status writes outside the operator lifecycle
// instead of only logging them.
func WithStrictTransitions(strict bool) Option {
	return func(s *alertService) { s.strict = strict }
}

func NewAlertService(repo AlertRepository, scheduler Scheduler, logger *slog.Logger, opts ...Option) AlertService {
	s := &alertService{
		repo:      repo,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *alertService) Create(ctx context.Context, req domain.CreateAlertRequest) (*domain.Alert, error) {
	alert, err := ValidateCreate(req, s.now())
	if err != nil {
		s.logger.Warn("alert rejected", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Insert(ctx, alert); err != nil {
		s.logger.Error("alert insert failed", slog.String("user_id", alert.UserID), slog.Any("error", err))
		if !errors.Is(err, e.ErrPersistence) && !errors.Is(err, e.ErrValidation) {
			err = fmt.Errorf("%w: %w", e.ErrPersistence, err)
		}
		return nil, err
	}

	s.logger.Info("SOS alert received",
		slog.String("id", alert.ID.String()),
		slog.String("user_id", alert.UserID),
		slog.String("location", alert.LocationString()),
		slog.String("source", string(alert.Source)),
		slog.Time("timestamp", alert.Timestamp),
	)
	metrics.AlertCreated(string(alert.Source))

	s.schedule(ctx, alert)

	return alert, nil
}

// schedule never reports back to the caller: the alert is already stored.
func (s *alertService) schedule(ctx context.Context, alert *domain.Alert) {
	if s.scheduler == nil {
		return
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), scheduleTimeout)
	defer cancel()

	if err := s.scheduler.Schedule(sctx, domain.NewDispatchTask(alert)); err != nil {
		reason := "error"
		if errors.Is(err, e.ErrQueueFull) {
			reason = "queue_full"
		}
		metrics.ScheduleFailed(reason)
		s.logger.Error("notification dispatch not scheduled",
			slog.String("alert_id", alert.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	s.logger.Debug("notification dispatch scheduled", slog.String("alert_id", alert.ID.String()))
}

func (s *alertService) List(ctx context.Context, req domain.ListAlertsRequest) ([]*domain.Alert, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	if limit > domain.MaxListLimit {
		limit = domain.MaxListLimit
	}

	alerts, err := s.repo.FindRecent(ctx, limit, strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, err
	}
	if len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

func (s *alertService) Get(ctx context.Context, id string) (*domain.Alert, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, uid)
}

func (s *alertService) UpdateStatus(ctx context.Context, id string, req domain.UpdateAlertRequest) (*domain.Alert, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	status, notes, err := validateUpdate(req)
	if err != nil {
		return nil, err
	}

	if status == nil && notes == nil {
		return s.repo.FindByID(ctx, uid)
	}

	if status != nil {
		current, err := s.repo.FindByID(ctx, uid)
		if err != nil {
			return nil, err
		}
		if !current.Status.CanTransitionTo(*status) {
			if s.strict {
				return nil, fmt.Errorf("%s -> %s: %w", current.Status, *status, e.ErrInvalidTransition)
			}
			s.logger.Warn("status change outside operator lifecycle",
				slog.String("id", uid.String()),
				slog.String("from", string(current.Status)),
				slog.String("to", string(*status)),
			)
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, uid, status, notes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("SOS alert updated", slog.String("id", uid.String()), slog.String("status", string(updated.Status)))
	if status != nil {
		metrics.StatusUpdated(string(*status))
	}
	return updated, nil
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%q: %w", id, e.ErrInvalidIdentifier)
	}
	return uid, nil
}
