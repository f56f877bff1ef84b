package e

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func Wrap(message string, err error) error {
	return fmt.Errorf("%s: %w", message, err)
}

var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNotFound          = errors.New("not found")
	ErrPersistence       = errors.New("persistence error")
	ErrNotification      = errors.New("notification error")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDeadline          = errors.New("deadline exceeded")
	ErrCanceled          = errors.New("context canceled")
	ErrQueueFull         = errors.New("dispatch queue is full")
	ErrQueueEmpty        = errors.New("dispatch queue is empty")
	ErrChannelDisabled   = errors.New("notification channel not configured")
)

// Validation causes. Each one is reported together with ErrValidation.
var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidLatitude  = errors.New("invalid latitude, must be a number between -90 and 90")
	ErrInvalidLongitude = errors.New("invalid longitude, must be a number between -180 and 180")
	ErrInvalidSource    = errors.New("invalid source, must be one of manual, voice, auto, panic")
	ErrInvalidStatus    = errors.New("invalid status, must be one of pending, acknowledged, resolved, false_alarm")
	ErrNotesTooLong     = errors.New("notes must be at most 500 characters")
	ErrInvalidText      = errors.New("text fields must not contain NUL characters")
)

// Validation joins a cause with ErrValidation so callers can match either.
func Validation(cause error, detail string) error {
	if detail == "" {
		return errors.Join(ErrValidation, cause)
	}
	return errors.Join(ErrValidation, fmt.Errorf("%w: %s", cause, detail))
}

func WrapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w: %w", op, ErrPersistence, ErrDeadline, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %w: %w", op, ErrPersistence, ErrCanceled, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514", "22P02", "22021":
			return fmt.Errorf("%s: %w", op, ErrValidation)
		default:
			return fmt.Errorf("%s: pg error %s: %w", op, pgErr.Code, ErrPersistence)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, ErrPersistence, err)
}
