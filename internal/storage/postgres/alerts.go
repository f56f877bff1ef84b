package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"safeher/internal/domain"
	"safeher/pkg/e"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const alertColumns = `id, user_id, lat, lng, source, reported_at, status, notes, created_at, updated_at`

type AlertRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAlertRepo(pool *pgxpool.Pool, logger *slog.Logger) *AlertRepo {
	return &AlertRepo{pool: pool, logger: logger}
}

func (p *AlertRepo) Insert(ctx context.Context, alert *domain.Alert) error {
	const op = "postgres.Alert.Insert"

	if alert == nil {
		return fmt.Errorf("%s: %w", op, e.ErrValidation)
	}

	const query = `
		INSERT INTO alerts (id, user_id, lat, lng, source, reported_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	id := alert.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	status := alert.Status
	if status == "" {
		status = domain.StatusPending
	}

	err := p.pool.QueryRow(ctx, query,
		id,
		alert.UserID,
		alert.Lat,
		alert.Lng,
		string(alert.Source),
		alert.Timestamp,
		string(status),
		alert.Notes,
	).Scan(&alert.CreatedAt, &alert.UpdatedAt)
	if err != nil {
		p.logger.Error("db insert failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}

	alert.ID = id
	alert.Status = status
	return nil
}

func (p *AlertRepo) FindRecent(ctx context.Context, limit int, userID string) ([]*domain.Alert, error) {
	const op = "postgres.Alert.FindRecent"

	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	if limit > domain.MaxListLimit {
		limit = domain.MaxListLimit
	}

	var (
		rows pgx.Rows
		err  error
	)
	if userID == "" {
		rows, err = p.pool.Query(ctx, `
			SELECT `+alertColumns+`
			FROM alerts
			ORDER BY reported_at DESC
			LIMIT $1
		`, limit)
	} else {
		rows, err = p.pool.Query(ctx, `
			SELECT `+alertColumns+`
			FROM alerts
			WHERE user_id = $1
			ORDER BY reported_at DESC
			LIMIT $2
		`, userID, limit)
	}
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	alerts := make([]*domain.Alert, 0, limit)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return alerts, nil
}

func (p *AlertRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	const op = "postgres.Alert.FindByID"

	row := p.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	a, err := scanAlert(row)
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return a, nil
}

// UpdateStatus writes only the supplied fields. Nil keeps the stored value.
func (p *AlertRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status *domain.Status, notes *string) (*domain.Alert, error) {
	const op = "postgres.Alert.UpdateStatus"

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	const query = `
		UPDATE alerts
		SET status     = COALESCE($2, status),
		    notes      = COALESCE($3, notes),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + alertColumns

	a, err := scanAlert(p.pool.QueryRow(ctx, query, id, statusArg, notes))
	if err != nil {
		p.logger.Error("db update failed", slog.String("op", op), slog.String("id", id.String()), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return a, nil
}

func (p *AlertRepo) Count(ctx context.Context, filter domain.AlertFilter) (int64, error) {
	const op = "postgres.Alert.Count"

	var (
		conds []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conds = append(conds, fmt.Sprintf("reported_at >= $%d", len(args)))
	}

	query := `SELECT COUNT(*) FROM alerts`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}

	var cnt int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&cnt); err != nil {
		p.logger.Error("db count failed", slog.String("op", op), slog.Any("error", err))
		return 0, e.WrapError(ctx, op, err)
	}
	return cnt, nil
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var (
		a              domain.Alert
		source, status string
	)
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Lat,
		&a.Lng,
		&source,
		&a.Timestamp,
		&status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Source = domain.Source(source)
	a.Status = domain.Status(status)
	return &a, nil
}
