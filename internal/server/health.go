package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nelfund/navigator-go/internal/logging"
)

// probeTimeout bounds how long each readiness probe may take.
const probeTimeout = 5 * time.Second

// Pinger is a single readiness probe against an external dependency.
type Pinger interface {
	// Ping returns nil when the dependency is reachable and functional.
	Ping(ctx context.Context) error
	// Name identifies the dependency in the readiness report.
	Name() string
}

// readyCheck is the per-dependency entry in the readiness response.
type readyCheck struct {
	// Name is the dependency name as reported by the Pinger.
	Name string `json:"name"`
	// Status is "ok" or "failed".
	Status string `json:"status"`
	// Error holds the failure message when Status is "failed".
	Error string `json:"error,omitempty"`
}

// readyResponse is the JSON body of GET /api/ready.
type readyResponse struct {
	// Status is "ready" when every probe passed, "not_ready" otherwise.
	Status string `json:"status"`
	// Checks lists the outcome of each configured probe.
	Checks []readyCheck `json:"checks"`
}

// handleReady handles GET /api/ready. Every configured Pinger is probed
// sequentially; the endpoint returns 200 only when all probes pass, 503
// otherwise. A server configured with no pingers is always ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := readyResponse{
		Status: "ready",
		Checks: make([]readyCheck, 0, len(s.pingers)),
	}

	for _, p := range s.pingers {
		check := readyCheck{Name: p.Name(), Status: "ok"}

		probeCtx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Ping(probeCtx)
		cancel()

		if err != nil {
			check.Status = "failed"
			check.Error = err.Error()
			resp.Status = "not_ready"
			log.Warn("readiness probe failed",
				slog.String("check", p.Name()),
				slog.String("error", err.Error()),
			)
		}

		resp.Checks = append(resp.Checks, check)
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
