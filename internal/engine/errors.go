package engine

import "errors"

// Sentinel errors for the failure classes callers distinguish. The HTTP
// layer maps these onto status codes; the CLI prints them directly.
var (
	// ErrInvalidInput marks a message that was rejected before any work:
	// empty after trimming, or longer than the configured maximum.
	ErrInvalidInput = errors.New("engine: invalid input")

	// ErrGenerationUnavailable marks a turn where the chat model could not
	// produce an answer. No turn is recorded.
	ErrGenerationUnavailable = errors.New("engine: generation unavailable")

	// ErrMemoryUnavailable marks a turn where conversation history could
	// not be read. The engine refuses to answer without context rather
	// than silently forgetting the conversation.
	ErrMemoryUnavailable = errors.New("engine: memory unavailable")

	// ErrRetrievalUnavailable marks a retrieval infrastructure failure.
	// It is not returned from HandleMessage — the engine degrades to a
	// canned answer instead — but is logged and wrapped for observability.
	ErrRetrievalUnavailable = errors.New("engine: retrieval unavailable")
)
