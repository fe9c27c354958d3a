// Package memory persists conversation history for the navigator engine.
// Each session has its own thread of turns keyed by session ID. Turns survive
// server restarts (SQLite backend) or live in a shared cache with TTL-based
// expiry (Redis backend) and are injected into the LLM context window on
// subsequent queries.
package memory

import (
	"context"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser is a message sent by the student.
	RoleUser Role = "user"
	// RoleAssistant is an answer produced by the engine.
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	// Role is the author of the turn.
	Role Role `json:"role"`
	// Content is the text of the turn.
	Content string `json:"content"`
	// Sources lists the document titles cited by an assistant turn.
	// Empty for user turns and uncited answers.
	Sources []string `json:"sources,omitempty"`
	// CreatedAt is when the turn was persisted.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves conversation history keyed by session ID.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append persists turns for the given session, in order.
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	// Recent returns the most recent n turns for the session, ordered
	// oldest-first so they can be prepended to the LLM message slice
	// directly. If fewer than n turns exist, all are returned. An unknown
	// session yields an empty history, not an error.
	Recent(ctx context.Context, sessionID string, n int) ([]Turn, error)
	// Close releases any resources held by the store.
	Close() error
}
