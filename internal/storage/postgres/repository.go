package postgres

import (
	"context"

	"safeher/internal/domain"

	"github.com/google/uuid"
)

type AlertRepository interface {
	Insert(ctx context.Context, alert *domain.Alert) error
	FindRecent(ctx context.Context, limit int, userID string) ([]*domain.Alert, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status *domain.Status, notes *string) (*domain.Alert, error)
	Count(ctx context.Context, filter domain.AlertFilter) (int64, error)
}

var _ AlertRepository = (*AlertRepo)(nil)

func (p *Postgres) AlertStore() AlertRepository { return p.Alerts }
