package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func clearEmbedEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_API_KEY",
		"EMBEDDING_ENDPOINT", "EMBEDDING_DIMENSIONS",
		"MODEL_PROVIDER", "OLLAMA_HOST",
		"OPENAI_API_KEY", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT",
	} {
		t.Setenv(k, "")
	}
}

func TestNewFromEnv_DefaultsToOllama(t *testing.T) {
	clearEmbedEnv(t)

	e, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv failed: %v", err)
	}
	if _, ok := e.(*OllamaEmbedder); !ok {
		t.Errorf("expected *OllamaEmbedder, got %T", e)
	}
}

func TestNewFromEnv_OpenAIRequiresKey(t *testing.T) {
	clearEmbedEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "openai")

	_, err := NewFromEnv()
	if err == nil {
		t.Fatal("expected error when no OpenAI API key is set")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error should name the missing key, got: %v", err)
	}
}

func TestNewFromEnv_UnknownBackend(t *testing.T) {
	clearEmbedEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "bogus")

	_, err := NewFromEnv()
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("expected unknown backend error, got: %v", err)
	}
}

func TestDefaultDimensions(t *testing.T) {
	clearEmbedEnv(t)
	if got := DefaultDimensions("ollama"); got != 768 {
		t.Errorf("ollama dims: got %d, want 768", got)
	}
	if got := DefaultDimensions("openai"); got != 1536 {
		t.Errorf("openai dims: got %d, want 1536", got)
	}

	t.Setenv("EMBEDDING_DIMENSIONS", "1024")
	if got := DefaultDimensions("ollama"); got != 1024 {
		t.Errorf("override dims: got %d, want 1024", got)
	}
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range req.Input {
			resp.Embeddings[i] = []float32{0.1, 0.2, 0.3}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text"})
	got, err := e.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 embeddings, got %d", len(got))
	}
	if len(got[0]) != 3 {
		t.Errorf("want 3-dim vectors, got %d", len(got[0]))
	}
}

func TestOpenAIEmbedder_Embed_OutOfOrderIndexes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization header: got %q", got)
		}
		// Return data deliberately out of order.
		w.Write([]byte(`{"data":[
			{"embedding":[0.2],"index":1},
			{"embedding":[0.1],"index":0}
		]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "text-embedding-3-small"})
	got, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if got[0][0] != 0.1 || got[1][0] != 0.2 {
		t.Errorf("embeddings not reordered by index: %v", got)
	}
}

func TestOpenAIEmbedder_Embed_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "bad", Model: "text-embedding-3-small"})
	_, err := e.Embed(context.Background(), []string{"a"})
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("expected API error surfaced, got: %v", err)
	}
}

func TestLooksLikeChatModel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4o", true},
		{"llama3", true},
		{"nomic-embed-text", false},
		{"text-embedding-3-small", false},
	}
	for _, tc := range tests {
		if got := looksLikeChatModel(tc.model); got != tc.want {
			t.Errorf("looksLikeChatModel(%q) = %v, want %v", tc.model, got, tc.want)
		}
	}
}
