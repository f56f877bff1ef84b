package system

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"safeher/internal/metrics"
)

const (
	serviceName    = "SafeHer Emergency SOS API"
	serviceVersion = "1.0.0"
	pingTimeout    = 2 * time.Second
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	logger  *slog.Logger
	db      Pinger
	started time.Time
}

func NewHandler(logger *slog.Logger, db Pinger) *Handler {
	return &Handler{logger: logger, db: db, started: time.Now()}
}

func (h *Handler) SystemRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message":   serviceName,
		"version":   serviceVersion,
		"status":    "operational",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// SystemHealth always answers 200. The database field reflects a live ping.
func (h *Handler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if h.db == nil {
		database = "disconnected"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("database ping failed", slog.Any("error", err))
			database = "disconnected"
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"database":  database,
		"uptime":    time.Since(h.started).Seconds(),
	})
}

func (h *Handler) SystemMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	metrics.WritePrometheus(w)
}

// SystemNotFound mirrors the JSON error shape of the other endpoints.
func (h *Handler) SystemNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, map[string]string{
		"error":  "Endpoint not found",
		"path":   r.URL.RequestURI(),
		"method": r.Method,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("json encode failed", slog.Any("error", err))
	}
}
