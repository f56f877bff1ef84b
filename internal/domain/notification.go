package domain

import (
	"time"

	"github.com/google/uuid"
)

// DispatchTask is the snapshot of a persisted alert handed to the notifier.
type DispatchTask struct {
	AlertID   uuid.UUID `json:"alert_id"`
	UserID    string    `json:"user_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Source    Source    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDispatchTask(a *Alert) DispatchTask {
	return DispatchTask{
		AlertID:   a.ID,
		UserID:    a.UserID,
		Lat:       a.Lat,
		Lng:       a.Lng,
		Source:    a.Source,
		Timestamp: a.Timestamp,
	}
}
