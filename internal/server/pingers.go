package server

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/qdrant/go-client/qdrant"

	"github.com/nelfund/navigator-go/internal/memory"
)

// LLMPinger probes the configured chat model by issuing a minimal generation
// request. It verifies credentials, connectivity, and model availability in
// one round-trip.
type LLMPinger struct {
	// model is the chat model to probe.
	model model.ToolCallingChatModel
	// backend names the provider backend for readiness reporting.
	backend string
}

// NewLLMPinger constructs an LLMPinger for the given model. backend is a
// human-readable backend name ("ollama", "openai", ...) included in the
// readiness report.
func NewLLMPinger(m model.ToolCallingChatModel, backend string) *LLMPinger {
	return &LLMPinger{model: m, backend: backend}
}

// Name identifies this probe in the readiness report.
func (p *LLMPinger) Name() string {
	return fmt.Sprintf("llm (%s)", p.backend)
}

// Ping sends a one-token generation request to the model.
func (p *LLMPinger) Ping(ctx context.Context) error {
	resp, err := p.model.Generate(ctx, []*schema.Message{schema.UserMessage("ping")})
	if err != nil {
		return fmt.Errorf("llm ping: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("llm ping: empty response")
	}
	return nil
}

// QdrantPinger probes the Qdrant vector database via its health check RPC.
type QdrantPinger struct {
	// client is the Qdrant gRPC client.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger around an existing client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name identifies this probe in the readiness report.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant health check endpoint.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant ping: %w", err)
	}
	return nil
}

// MemoryPinger probes the conversation memory store by reading a probe
// session. The session never exists; the read exercises connectivity only.
type MemoryPinger struct {
	// store is the memory backend to probe.
	store memory.Store
	// backend names the store backend ("sqlite" or "redis").
	backend string
}

// NewMemoryPinger constructs a MemoryPinger for the given store.
func NewMemoryPinger(store memory.Store, backend string) *MemoryPinger {
	return &MemoryPinger{store: store, backend: backend}
}

// Name identifies this probe in the readiness report.
func (p *MemoryPinger) Name() string {
	return fmt.Sprintf("memory (%s)", p.backend)
}

// Ping reads the recent turns of a reserved probe session.
func (p *MemoryPinger) Ping(ctx context.Context) error {
	if _, err := p.store.Recent(ctx, "navigator-readiness-probe", 1); err != nil {
		return fmt.Errorf("memory ping: %w", err)
	}
	return nil
}
