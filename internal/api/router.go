package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"safeher/internal/api/handlers/http/sos"
	"safeher/internal/api/handlers/http/system"
	"safeher/internal/config"
	"safeher/internal/middleware"
	"safeher/internal/service"
)

const maxBodyBytes = 1 << 20

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

func NewServer(cfg *config.Config, logger *slog.Logger, svc *service.Service, db system.Pinger) *Server {
	sosHandler := sos.NewHandler(logger, svc.AlertService, svc.StatsService)
	systemHandler := system.NewHandler(logger, db)

	r := InitRouter(cfg, sosHandler, systemHandler, logger)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func InitRouter(cfg *config.Config, sosHandler *sos.Handler, systemHandler *system.Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.MaxBody(maxBodyBytes))

	// SYSTEM
	r.Get("/", systemHandler.SystemRoot)
	r.Get("/metrics", systemHandler.SystemMetrics)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", systemHandler.SystemHealth)
		api.Get("/stats", sosHandler.SOSStats)
	})

	// SOS
	r.Route("/sos", func(sr chi.Router) {
		sr.With(middleware.Limit(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TTL, logger)).
			Post("/", sosHandler.SOSCreate)
		sr.Get("/", sosHandler.SOSList)

		sr.Route("/{id}", func(ir chi.Router) {
			ir.Get("/", sosHandler.SOSGet)
			ir.Put("/", sosHandler.SOSUpdate)
		})
	})

	r.NotFound(systemHandler.SystemNotFound)
	r.MethodNotAllowed(systemHandler.SystemNotFound)

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
