package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/anatolykoptev/go_jobmato/internal/engine/chat"
)

const maxBodyBytes = 64 << 10

type chatRequest struct {
	ChatInput           string `json:"chatInput" validate:"required,max=4000"`
	SessionID           string `json:"sessionId" validate:"omitempty,max=128"`
	Token               string `json:"token"`
	BaseURL             string `json:"baseUrl" validate:"omitempty,url"`
	ConversationContext string `json:"conversationContext" validate:"omitempty,max=20000"`
}

type loadMoreRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
	Token     string `json:"token"`
	BaseURL   string `json:"baseUrl" validate:"omitempty,url"`
	Page      int    `json:"page" validate:"gte=0"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ChatInput) == "" {
		s.respondError(w, http.StatusBadRequest, "chatInput is required")
		return
	}
	if !s.allow(w, r, req.SessionID) {
		return
	}
	msg := s.svc.Handle(r.Context(), chat.Request{
		Query:               req.ChatInput,
		Token:               tokenFrom(r, req.Token),
		SessionID:           req.SessionID,
		BaseURL:             req.BaseURL,
		ConversationContext: req.ConversationContext,
	})
	s.respondJSON(w, http.StatusOK, msg)
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	var req loadMoreRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.allow(w, r, req.SessionID) {
		return
	}
	msg := s.svc.LoadMore(r.Context(), chat.Request{
		Token:     tokenFrom(r, req.Token),
		SessionID: req.SessionID,
		BaseURL:   req.BaseURL,
	}, req.Page)
	s.respondJSON(w, http.StatusOK, msg)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.svc.ClearHistory(r.Context(), id); err != nil {
		slog.Error("clear history failed", slog.Any("error", err), slog.String("session", id))
		s.respondError(w, http.StatusInternalServerError, "could not clear history")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"sessionId": id, "status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Metrics == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.cfg.Metrics()))
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func (s *Server) allow(w http.ResponseWriter, r *http.Request, sessionID string) bool {
	if s.limiter == nil {
		return true
	}
	key := sessionID
	if key == "" {
		key = "ip:" + r.RemoteAddr
	}
	if s.limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	s.respondError(w, http.StatusTooManyRequests, "too many requests, please slow down")
	return false
}

// tokenFrom prefers the body token and falls back to a bearer Authorization header.
func tokenFrom(r *http.Request, body string) string {
	if body != "" {
		return body
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", slog.Any("error", err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
