// Package httpapi serves the chat assistant over plain HTTP for the web front end.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_jobmato/internal/engine/chat"
)

// Service is the conversation layer behind the HTTP routes.
type Service interface {
	Handle(ctx context.Context, req chat.Request) chat.ChatMessage
	LoadMore(ctx context.Context, req chat.Request, page int) chat.ChatMessage
	ClearHistory(ctx context.Context, sessionID string) error
}

// Config tunes the HTTP server.
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	RatePerMinute  int // per session; 0 disables limiting
	RateBurst      int
	Metrics        func() string
}

// Server is the HTTP server for the chat API.
type Server struct {
	svc      Service
	cfg      Config
	validate *validator.Validate
	limiter  *limiter
	server   *http.Server
}

func NewServer(svc Service, cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	s := &Server{svc: svc, cfg: cfg, validate: validator.New()}
	if cfg.RatePerMinute > 0 {
		burst := max(cfg.RateBurst, 1)
		s.limiter = newLimiter(rate.Limit(float64(cfg.RatePerMinute)/60), burst)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Post("/api/chat", s.handleChat)
	r.Post("/api/chat/load-more", s.handleLoadMore)
	r.Delete("/api/chat/history/{sessionID}", s.handleClearHistory)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	return r
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("http api listening", slog.String("addr", s.cfg.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}
