package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MaxNotesLength   = 500
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type Alert struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	Lat       float64   `json:"lat" validate:"lat"`
	Lng       float64   `json:"lng" validate:"lng"`
	Source    Source    `json:"source" validate:"required,source"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Status    Status    `json:"status" validate:"required,status"`
	Notes     *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationString formats coordinates the way operators read them in logs.
func (a *Alert) LocationString() string {
	return fmt.Sprintf("%.6f, %.6f", a.Lat, a.Lng)
}

// AlertFilter is the predicate used for aggregate counts. Nil fields match all.
type AlertFilter struct {
	Status *Status
	Since  *time.Time
}
