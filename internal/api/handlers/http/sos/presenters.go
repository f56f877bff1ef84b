package sos

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"safeher/internal/domain"
	"safeher/pkg/e"
)

type errorResponse struct {
	Error    string         `json:"error"`
	Details  string         `json:"details,omitempty"`
	Received map[string]any `json:"received,omitempty"`
}

type createdResponse struct {
	OK        bool      `json:"ok"`
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type alertView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Location  location  `json:"location"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
}

type listResponse struct {
	OK     bool        `json:"ok"`
	Count  int         `json:"count"`
	Alerts []alertView `json:"alerts"`
}

type alertResponse struct {
	OK    bool      `json:"ok"`
	Alert alertView `json:"alert"`
}

type updatedAlertView struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

type updatedResponse struct {
	OK      bool             `json:"ok"`
	Message string           `json:"message"`
	Alert   updatedAlertView `json:"alert"`
}

type statsResponse struct {
	OK    bool              `json:"ok"`
	Stats domain.AlertStats `json:"stats"`
}

func toAlertView(a *domain.Alert) alertView {
	return alertView{
		ID:        a.ID.String(),
		UserID:    a.UserID,
		Location:  location{Lat: a.Lat, Lng: a.Lng},
		Source:    string(a.Source),
		Timestamp: a.Timestamp,
		Status:    string(a.Status),
		Notes:     a.Notes,
	}
}

// handleCreateError echoes the submitted fields back when some are missing.
func (h *Handler) handleCreateError(w http.ResponseWriter, r *http.Request, req domain.CreateAlertRequest, err error) {
	if errors.Is(err, e.ErrMissingField) {
		h.log(r).Warn("SOS alert rejected", slog.Any("error", err))
		var source any
		if req.Source != nil {
			source = *req.Source
		}
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "Missing required fields: userId, lat, lng, source",
			Received: map[string]any{
				"userId":    req.UserID,
				"lat":       req.Lat,
				"lng":       req.Lng,
				"source":    source,
				"timestamp": req.Timestamp,
			},
		})
		return
	}
	h.handleError(w, r, "Failed to save SOS alert", err)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, action string, err error) {
	l := h.log(r)

	switch {
	case errors.Is(err, e.ErrValidation):
		l.Warn("request rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
	case errors.Is(err, e.ErrInvalidIdentifier):
		l.Warn("invalid id", slog.String("path", r.URL.Path), slog.Any("error", err))
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid SOS ID format"})
	case errors.Is(err, e.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "SOS alert not found"})
	case errors.Is(err, e.ErrInvalidTransition):
		l.Warn("status transition rejected", slog.Any("error", err))
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: "Invalid status transition", Details: err.Error()})
	default:
		l.Error("handler error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: action, Details: err.Error()})
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, e.ErrMissingField):
		return "Missing required fields: userId, lat, lng, source"
	case errors.Is(err, e.ErrInvalidLatitude):
		return "Invalid latitude. Must be a number between -90 and 90"
	case errors.Is(err, e.ErrInvalidLongitude):
		return "Invalid longitude. Must be a number between -180 and 180"
	case errors.Is(err, e.ErrInvalidSource):
		return "Invalid source. Must be one of manual, voice, auto, panic"
	case errors.Is(err, e.ErrInvalidStatus):
		return "Invalid status. Must be one of pending, acknowledged, resolved, false_alarm"
	case errors.Is(err, e.ErrNotesTooLong):
		return "Notes must be at most 500 characters"
	case errors.Is(err, e.ErrInvalidText):
		return "userId and notes must not contain NUL characters"
	}
	return "Invalid request"
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("json encode failed", slog.Any("error", err))
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
