package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nelfund/navigator-go/internal/engine"
)

// fakeHandler implements messageHandler with canned results.
type fakeHandler struct {
	result *engine.Result
	err    error

	gotSessionID string
	gotMessage   string
}

func (f *fakeHandler) HandleMessage(_ context.Context, sessionID, message string) (*engine.Result, error) {
	f.gotSessionID = sessionID
	f.gotMessage = message
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// newTestServer builds a Server around the fake handler with defaults
// suitable for httptest-driven tests.
func newTestServer(t *testing.T, fh *fakeHandler, mutate func(*Config)) *Server {
	t.Helper()

	cfg := &Config{}
	if mutate != nil {
		mutate(cfg)
	}

	s, err := New(fh, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChatSuccess(t *testing.T) {
	t.Parallel()

	fh := &fakeHandler{result: &engine.Result{
		Answer:    "Applications close on 30 September.",
		Sources:   []string{"NELFUND Application Guidelines"},
		SessionID: "sess-1",
	}}
	s := newTestServer(t, fh, nil)

	rec := postChat(t, s, `{"message":"when is the deadline?","session_id":"sess-1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "Applications close on 30 September." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "NELFUND Application Guidelines" {
		t.Errorf("sources = %v", resp.Sources)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("session_id = %q, want sess-1", resp.SessionID)
	}

	if fh.gotSessionID != "sess-1" {
		t.Errorf("handler saw session %q", fh.gotSessionID)
	}
	if fh.gotMessage != "when is the deadline?" {
		t.Errorf("handler saw message %q", fh.gotMessage)
	}
}

func TestChatMalformedBody(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeHandler{result: &engine.Result{}}, nil)

	rec := postChat(t, s, `{"message": not-json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error == "" {
		t.Error("error body should carry a message")
	}
}

func TestChatErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantRetry  string
	}{
		{
			name:       "invalid input",
			err:        fmt.Errorf("engine: %w", engine.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "generation unavailable",
			err:        fmt.Errorf("engine: %w", engine.ErrGenerationUnavailable),
			wantStatus: http.StatusBadGateway,
			wantRetry:  "10",
		},
		{
			name:       "memory unavailable",
			err:        fmt.Errorf("engine: %w", engine.ErrMemoryUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantRetry:  "10",
		},
		{
			name:       "unexpected error",
			err:        fmt.Errorf("engine: something broke"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, &fakeHandler{err: tt.err}, nil)

			rec := postChat(t, s, `{"message":"hello"}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetry)
			}

			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Error == "" {
				t.Error("error body should carry a message")
			}
		})
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeHandler{result: &engine.Result{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	fh := &fakeHandler{result: &engine.Result{Answer: "hi", SessionID: "s"}}
	s := newTestServer(t, fh, nil)

	// One successful chat so the counters have something to report.
	if rec := postChat(t, s, `{"message":"hello"}`); rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "navigator_chat_requests_total") {
		t.Error("metrics output missing navigator_chat_requests_total")
	}
	if !strings.Contains(body, "navigator_http_requests_total") {
		t.Error("metrics output missing navigator_http_requests_total")
	}
}
