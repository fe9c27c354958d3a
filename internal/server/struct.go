package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nelfund/navigator-go/internal/engine"
	"github.com/nelfund/navigator-go/internal/memory"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [slog.Default] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// History backs the GET /api/sessions/{session}/history endpoint.
	// If nil, the endpoint returns 404.
	History memory.Store
	// Registry receives the server's Prometheus metrics. If nil, a fresh
	// registry is created (also backing GET /metrics).
	Registry *prometheus.Registry
}

// messageHandler is the interface handleChat calls to run a turn.
// *engine.Engine satisfies it; tests inject a fake.
type messageHandler interface {
	HandleMessage(ctx context.Context, sessionID, message string) (*engine.Result, error)
}

// Server is the HTTP server that exposes the conversation engine.
type Server struct {
	// handler runs the turn pipeline for POST /api/chat.
	handler messageHandler
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// registry backs the GET /metrics endpoint.
	registry *prometheus.Registry
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// Message is the student's message.
	Message string `json:"message"`
	// SessionID identifies the conversation. Empty mints a new session.
	SessionID string `json:"session_id,omitempty"`
}

// chatResponse is the JSON response for POST /api/chat.
type chatResponse struct {
	// Answer is the response text.
	Answer string `json:"answer"`
	// Sources lists the cited document titles, first-use order.
	Sources []string `json:"sources,omitempty"`
	// SessionID identifies the conversation for follow-up requests.
	SessionID string `json:"session_id"`
}

// historyTurn is one element of the GET /api/sessions/{session}/history response.
type historyTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// historyResponse is the JSON response for GET /api/sessions/{session}/history.
type historyResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []historyTurn `json:"turns"`
}

// errorResponse is the JSON error body for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}
