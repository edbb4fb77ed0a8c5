package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"telegram-ebook-relay/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes /health and /metrics for operators.
type Server struct {
	srv *http.Server
	log *zerolog.Logger
}

func NewServer(cfg *config.AdminConfig, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "AdminServer").Logger()
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(cfg, &l),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: &l,
	}
}

// NewRouter builds the admin routes. /metrics is guarded when a JWT secret is set.
func NewRouter(cfg *config.AdminConfig, logger *zerolog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID, RequestLog(logger), Recover(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(NewTokenGuard(cfg.JWTSecret).Middleware)
		}
		r.Handle("/metrics", promhttp.Handler())
	})

	return r
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("admin server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
