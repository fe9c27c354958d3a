// Package server implements the HTTP server that exposes the navigator
// conversation engine via a JSON REST API.
// The server is started by the `navigator serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nelfund/navigator-go/internal/engine"
	"github.com/nelfund/navigator-go/internal/logging"
)

// historyLimit bounds how many turns GET /api/sessions/{session}/history returns.
const historyLimit = 50

// New constructs a Server from the provided message handler and config.
func New(handler messageHandler, cfg *Config) (*Server, error) {
	if handler == nil {
		return nil, fmt.Errorf("server: message handler must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover a full generation round-trip.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		handler:  handler,
		cfg:      cfg,
		log:      log,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(registry),
		registry: registry,
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		log.Warn("server: NAVIGATOR_API_KEY not set — API authentication is disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat",
		s.instrument("chat", authMiddleware(cfg.APIKey, rl.middleware(http.HandlerFunc(s.handleChat)))))
	mux.Handle("GET /api/sessions/{session}/history",
		s.instrument("history", authMiddleware(cfg.APIKey, rl.middleware(http.HandlerFunc(s.handleHistory)))))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler exposes the root handler for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleChat handles POST /api/chat. It runs one conversation turn and
// returns the answer, citations, and session ID as JSON.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.chatRequestsTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.handler.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.writeChatError(w, r, err)
		s.metrics.chatDurationSeconds.WithLabelValues(outcomeLabel(err)).Observe(time.Since(start).Seconds())
		return
	}

	s.metrics.chatRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.chatDurationSeconds.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    result.Answer,
		Sources:   result.Sources,
		SessionID: result.SessionID,
	})
}

// writeChatError maps engine sentinel errors onto HTTP status codes.
func (s *Server) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		s.metrics.chatRequestsTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrGenerationUnavailable):
		s.metrics.chatRequestsTotal.WithLabelValues("generation_unavailable").Inc()
		log.Error("chat: generation unavailable", slog.String("error", err.Error()))
		w.Header().Set("Retry-After", "10")
		writeError(w, http.StatusBadGateway, "the assistant is temporarily unavailable, please retry")
	case errors.Is(err, engine.ErrMemoryUnavailable):
		s.metrics.chatRequestsTotal.WithLabelValues("memory_unavailable").Inc()
		log.Error("chat: memory unavailable", slog.String("error", err.Error()))
		w.Header().Set("Retry-After", "10")
		writeError(w, http.StatusServiceUnavailable, "conversation history is temporarily unavailable, please retry")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		s.metrics.chatRequestsTotal.WithLabelValues("canceled").Inc()
	default:
		s.metrics.chatRequestsTotal.WithLabelValues("error").Inc()
		log.Error("chat: internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// outcomeLabel maps an error to its metrics outcome label.
func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, engine.ErrGenerationUnavailable):
		return "generation_unavailable"
	case errors.Is(err, engine.ErrMemoryUnavailable):
		return "memory_unavailable"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// handleHistory handles GET /api/sessions/{session}/history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}

	sessionID := r.PathValue("session")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	turns, err := s.cfg.History.Recent(r.Context(), sessionID, historyLimit)
	if err != nil {
		logging.FromContext(r.Context()).Error("history: read failed", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "conversation history is temporarily unavailable")
		return
	}

	resp := historyResponse{SessionID: sessionID, Turns: make([]historyTurn, 0, len(turns))}
	for _, t := range turns {
		resp.Turns = append(resp.Turns, historyTurn{
			Role:      string(t.Role),
			Content:   t.Content,
			Sources:   t.Sources,
			CreatedAt: t.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
