// Package engine orchestrates a conversation turn: validate, classify,
// optionally resolve and retrieve, generate, record. It is the only package
// that sees the whole pipeline; each stage lives behind a narrow interface
// so failures can be injected in tests.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/nelfund/navigator-go/internal/generator"
	"github.com/nelfund/navigator-go/internal/intent"
	"github.com/nelfund/navigator-go/internal/logging"
	"github.com/nelfund/navigator-go/internal/memory"
	"github.com/nelfund/navigator-go/internal/rag"
)

// Generator is the answer-producing stage. *generator.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, req *generator.Request) (*generator.Answer, error)
}

// Resolver rewrites a follow-up message into a standalone retrieval query
// using the conversation history. Implementations must return the original
// message unchanged when no rewrite is needed.
type Resolver interface {
	Resolve(ctx context.Context, message string, history []memory.Turn) (string, error)
}

// Result is the outcome of a successfully handled turn.
type Result struct {
	// Answer is the response text shown to the student.
	Answer string
	// Sources lists the cited document titles, first-use order. Nil when
	// nothing was cited.
	Sources []string
	// SessionID identifies the conversation, minted if the caller sent none.
	SessionID string
}

// Config holds the engine's tuning knobs.
type Config struct {
	// WindowTurns is the number of recent turns injected as context
	// (default: 6, i.e. three exchanges).
	WindowTurns int

	// MaxMessageLen rejects messages longer than this many bytes
	// (default: 4000).
	MaxMessageLen int

	// RetrievalTimeout bounds the resolve+retrieve stage (default: 10s).
	RetrievalTimeout time.Duration

	// GenerationTimeout bounds the model call (default: 60s).
	GenerationTimeout time.Duration
}

// Engine runs the turn pipeline. Safe for concurrent use; turns within one
// session are serialised via per-session locks.
type Engine struct {
	classifier intent.Classifier
	retriever  rag.Retriever
	generator  Generator
	store      memory.Store
	resolver   Resolver // optional; nil disables query rewriting
	locks      *memory.Locks
	cfg        Config
}

// New constructs an Engine. classifier, retriever, gen, and store are
// required; resolver may be nil.
func New(classifier intent.Classifier, retriever rag.Retriever, gen Generator, store memory.Store, resolver Resolver, cfg Config) (*Engine, error) {
	if classifier == nil {
		return nil, fmt.Errorf("engine: classifier must not be nil")
	}
	if retriever == nil {
		return nil, fmt.Errorf("engine: retriever must not be nil")
	}
	if gen == nil {
		return nil, fmt.Errorf("engine: generator must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("engine: store must not be nil")
	}
	if cfg.WindowTurns <= 0 {
		cfg.WindowTurns = 6
	}
	if cfg.MaxMessageLen <= 0 {
		cfg.MaxMessageLen = 4000
	}
	if cfg.RetrievalTimeout <= 0 {
		cfg.RetrievalTimeout = 10 * time.Second
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}
	return &Engine{
		classifier: classifier,
		retriever:  retriever,
		generator:  gen,
		store:      store,
		resolver:   resolver,
		locks:      memory.NewLocks(),
		cfg:        cfg,
	}, nil
}

// HandleMessage runs one full turn for the session. An empty sessionID mints
// a fresh one, returned in the Result. On success the user message and the
// answer are recorded as a pair; on generation failure nothing is recorded.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, message string) (*Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	if len(message) > e.cfg.MaxMessageLen {
		return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrInvalidInput, e.cfg.MaxMessageLen)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	log := logging.FromContext(ctx).With(slog.String("session_id", sessionID))
	state := StateReceived

	release := e.locks.Acquire(sessionID)
	defer release()

	history, err := e.store.Recent(ctx, sessionID, e.cfg.WindowTurns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMemoryUnavailable, err)
	}

	decision := e.classify(ctx, log, message, history)
	state = StateClassified
	log.Debug("engine: classified",
		slog.String("state", state.String()),
		slog.Bool("needs_retrieval", decision.NeedsRetrieval),
		slog.String("reason", decision.Reason),
	)

	var passages []rag.Passage
	retrievalFailed := false
	query := message
	if decision.NeedsRetrieval {
		query = e.resolveQuery(ctx, log, message, history)
		passages, retrievalFailed, err = e.retrieve(ctx, log, query)
		if err != nil {
			// Only caller cancellation escapes the degraded path.
			return nil, err
		}
		state = StateRetrieved
	} else {
		state = StateSkipped
	}
	log.Debug("engine: retrieval stage done",
		slog.String("state", state.String()),
		slog.Int("passages", len(passages)),
		slog.Bool("degraded", retrievalFailed),
	)

	answer, err := e.generate(ctx, &generator.Request{
		Message:         message,
		Query:           query,
		Passages:        passages,
		History:         toSchemaMessages(history),
		NeedsRetrieval:  decision.NeedsRetrieval,
		RetrievalFailed: retrievalFailed,
	})
	if err != nil {
		return nil, err
	}
	state = StateGenerated

	// Hard post-condition: cited sources must be a subset of what was
	// supplied, regardless of what the model emitted.
	sources := generator.FilterCited(answer.Sources, passages)

	now := time.Now()
	err = e.store.Append(ctx, sessionID,
		memory.Turn{Role: memory.RoleUser, Content: message, CreatedAt: now},
		memory.Turn{Role: memory.RoleAssistant, Content: answer.Text, Sources: sources, CreatedAt: now},
	)
	if err != nil {
		// The student already has the answer; losing one history pair is
		// preferable to failing the whole turn.
		log.Warn("engine: failed to record turn", slog.String("error", err.Error()))
	} else {
		state = StateRecorded
	}
	log.Info("engine: turn complete",
		slog.String("state", state.String()),
		slog.Int("sources", len(sources)),
	)

	return &Result{
		Answer:    answer.Text,
		Sources:   sources,
		SessionID: sessionID,
	}, nil
}

// classify wraps the classifier with fail-open semantics: any error defaults
// to retrieval, never to an unguarded conversational answer.
func (e *Engine) classify(ctx context.Context, log *slog.Logger, message string, history []memory.Turn) intent.Decision {
	decision, err := e.classifier.Classify(ctx, message, history)
	if err != nil {
		log.Warn("engine: classification degraded, defaulting to retrieval",
			slog.String("error", err.Error()),
		)
		return intent.Decision{NeedsRetrieval: true, Reason: "classifier_error"}
	}
	return decision
}

// resolveQuery rewrites the message into a standalone query when a resolver
// is configured and there is history to resolve against. Any failure falls
// back to the raw message.
func (e *Engine) resolveQuery(ctx context.Context, log *slog.Logger, message string, history []memory.Turn) string {
	if e.resolver == nil || len(history) == 0 {
		return message
	}
	resolved, err := e.resolver.Resolve(ctx, message, history)
	if err != nil {
		log.Warn("engine: query resolution failed, using raw message",
			slog.String("error", err.Error()),
		)
		return message
	}
	if strings.TrimSpace(resolved) == "" {
		return message
	}
	return resolved
}

// retrieve runs the retriever under its timeout. Infrastructure failures are
// absorbed into the degraded flag; only caller cancellation is returned as
// an error.
func (e *Engine) retrieve(ctx context.Context, log *slog.Logger, query string) ([]rag.Passage, bool, error) {
	rctx, cancel := context.WithTimeout(ctx, e.cfg.RetrievalTimeout)
	defer cancel()

	passages, err := e.retriever.Retrieve(rctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		log.Warn("engine: retrieval degraded",
			slog.String("error", fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err).Error()),
		)
		return nil, true, nil
	}
	return passages, false, nil
}

// generate runs the generator under its timeout, mapping failures to
// ErrGenerationUnavailable unless the caller cancelled.
func (e *Engine) generate(ctx context.Context, req *generator.Request) (*generator.Answer, error) {
	gctx, cancel := context.WithTimeout(ctx, e.cfg.GenerationTimeout)
	defer cancel()

	answer, err := e.generator.Generate(gctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	return answer, nil
}

// toSchemaMessages converts stored turns into eino messages, oldest-first.
func toSchemaMessages(turns []memory.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case memory.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(t.Content))
		}
	}
	return msgs
}
