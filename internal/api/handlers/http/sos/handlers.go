package sos

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"safeher/internal/domain"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Alerts interface {
	Create(ctx context.Context, req domain.CreateAlertRequest) (*domain.Alert, error)
	List(ctx context.Context, req domain.ListAlertsRequest) ([]*domain.Alert, error)
	Get(ctx context.Context, id string) (*domain.Alert, error)
	UpdateStatus(ctx context.Context, id string, req domain.UpdateAlertRequest) (*domain.Alert, error)
}

type StatsGetter interface {
	GetStats(ctx context.Context) (*domain.AlertStats, error)
}

type Handler struct {
	logger *slog.Logger
	Alerts Alerts
	Stats  StatsGetter
}

func NewHandler(logger *slog.Logger, alerts Alerts, stats StatsGetter) *Handler {
	return &Handler{
		logger: logger,
		Alerts: alerts,
		Stats:  stats,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) SOSCreate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("SOSCreate", slog.String("remote", r.RemoteAddr))

	var req domain.CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	alert, err := h.Alerts.Create(r.Context(), req)
	if err != nil {
		h.handleCreateError(w, r, req, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, createdResponse{
		OK:        true,
		ID:        alert.ID.String(),
		Message:   "SOS alert saved successfully",
		Timestamp: alert.Timestamp,
	})
}

func (h *Handler) SOSList(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("SOSList", slog.String("query", r.URL.RawQuery), slog.String("remote", r.RemoteAddr))

	req := domain.ListAlertsRequest{
		Limit:  parseInt(r.URL.Query().Get("limit"), domain.DefaultListLimit),
		UserID: r.URL.Query().Get("userId"),
	}

	alerts, err := h.Alerts.List(r.Context(), req)
	if err != nil {
		h.handleError(w, r, "Failed to retrieve SOS alerts", err)
		return
	}

	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, toAlertView(a))
	}

	l.Info("alerts listed", slog.Int("count", len(views)))
	h.writeJSON(w, http.StatusOK, listResponse{OK: true, Count: len(views), Alerts: views})
}

func (h *Handler) SOSGet(w http.ResponseWriter, r *http.Request) {
	h.log(r).Debug("SOSGet", slog.String("remote", r.RemoteAddr))

	alert, err := h.Alerts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Failed to retrieve SOS alert", err)
		return
	}

	h.writeJSON(w, http.StatusOK, alertResponse{OK: true, Alert: toAlertView(alert)})
}

func (h *Handler) SOSUpdate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("SOSUpdate", slog.String("remote", r.RemoteAddr))

	var req domain.UpdateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	alert, err := h.Alerts.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.handleError(w, r, "Failed to update SOS alert", err)
		return
	}

	l.Info("SOS alert updated", slog.String("id", alert.ID.String()), slog.String("status", string(alert.Status)))
	h.writeJSON(w, http.StatusOK, updatedResponse{
		OK:      true,
		Message: "SOS alert updated successfully",
		Alert: updatedAlertView{
			ID:     alert.ID.String(),
			Status: string(alert.Status),
			Notes:  alert.Notes,
		},
	})
}

func (h *Handler) SOSStats(w http.ResponseWriter, r *http.Request) {
	h.log(r).Debug("SOSStats", slog.String("remote", r.RemoteAddr))

	stats, err := h.Stats.GetStats(r.Context())
	if err != nil {
		h.handleError(w, r, "Failed to retrieve statistics", err)
		return
	}

	h.writeJSON(w, http.StatusOK, statsResponse{OK: true, Stats: *stats})
}
