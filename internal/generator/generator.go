// Package generator produces grounded answers from retrieved passages and
// conversation history. It owns the prompt construction, the canned fallback
// answers, and the citation discipline: an answer may only cite sources that
// were actually supplied as passages.
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/nelfund/navigator-go/internal/budget"
	"github.com/nelfund/navigator-go/internal/logging"
	"github.com/nelfund/navigator-go/internal/rag"
)

// ChatModel is the narrow slice of the eino model surface the generator
// needs. model.ToolCallingChatModel satisfies it.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Request carries everything the generator needs for one answer.
type Request struct {
	// Message is the student's verbatim message.
	Message string

	// Query is the retrieval query the passages were fetched with. It may
	// differ from Message when the engine rewrote a follow-up.
	Query string

	// Passages are the retrieved passages, ordered by descending score.
	// Empty when retrieval was skipped or found nothing.
	Passages []rag.Passage

	// History is the recent conversation window, oldest-first.
	History []*schema.Message

	// NeedsRetrieval is false for conversational messages — the generator
	// answers without document grounding and cites nothing.
	NeedsRetrieval bool

	// RetrievalFailed is true when retrieval was attempted but unavailable.
	// The generator returns the degraded canned answer instead of guessing.
	RetrievalFailed bool
}

// Answer is a generated response with its citations.
type Answer struct {
	// Text is the answer body, with any trailing source line stripped.
	Text string

	// Sources lists the cited document titles in first-use order, deduped.
	// Nil when nothing was cited.
	Sources []string
}

// Canned answers for the two paths where the model must not guess.
const (
	// insufficientAnswer is returned when retrieval ran but nothing relevant
	// was found — the corpus simply does not cover the question.
	insufficientAnswer = "I don't have that specific information in the NELFUND documents I have access to. " +
		"I recommend visiting the official NELFUND website at nelfund.gov.ng for the most current information."

	// degradedAnswer is returned when retrieval infrastructure was down.
	degradedAnswer = "I'm temporarily unable to search the NELFUND documents. " +
		"Please try again in a moment, or visit nelfund.gov.ng for official information."
)

// Generator turns requests into answers via a ChatModel.
type Generator struct {
	// model is the underlying chat model.
	model ChatModel

	// maxContextTokens bounds the estimated prompt size; history is trimmed
	// oldest-first to fit.
	maxContextTokens int
}

// Config holds the generator's tuning knobs.
type Config struct {
	// MaxContextTokens bounds the estimated prompt size
	// (default: budget.DefaultMaxContextTokens).
	MaxContextTokens int
}

// New constructs a Generator. A nil cfg applies all defaults.
func New(chatModel ChatModel, cfg *Config) (*Generator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("generator: chat model must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	maxTokens := cfg.MaxContextTokens
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxContextTokens
	}
	return &Generator{model: chatModel, maxContextTokens: maxTokens}, nil
}

// Generate produces an answer for the request. The three degraded paths
// (retrieval down, nothing found, smalltalk) never touch the corpus-grounded
// prompt, so the model can never fabricate citations on them.
func (g *Generator) Generate(ctx context.Context, req *Request) (*Answer, error) {
	log := logging.FromContext(ctx)

	if req.NeedsRetrieval && req.RetrievalFailed {
		return &Answer{Text: degradedAnswer}, nil
	}
	if req.NeedsRetrieval && len(req.Passages) == 0 {
		return &Answer{Text: insufficientAnswer}, nil
	}

	var fixed []*schema.Message
	if req.NeedsRetrieval {
		fixed = []*schema.Message{
			schema.SystemMessage(groundedSystemPrompt(req.Passages)),
			schema.UserMessage(req.Message),
		}
	} else {
		fixed = []*schema.Message{
			schema.SystemMessage(smalltalkSystemPrompt),
			schema.UserMessage(req.Message),
		}
	}

	history := budget.TrimHistory(fixed, req.History, g.maxContextTokens)
	if len(history) < len(req.History) {
		log.Debug("generator: trimmed history to fit context budget",
			slog.Int("dropped", len(req.History)-len(history)),
			slog.Int("kept", len(history)),
		)
	}

	// System prompt, then history, then the current message.
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, fixed[0])
	messages = append(messages, history...)
	messages = append(messages, fixed[1])

	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generator: model call failed: %w", err)
	}

	if !req.NeedsRetrieval {
		// Conversational answers never carry citations.
		text, _ := splitSourceLine(resp.Content)
		return &Answer{Text: text}, nil
	}

	text, cited := splitSourceLine(resp.Content)
	if len(cited) == 0 {
		// The model skipped the source line; fall back to the passages it
		// was shown, in first-use order.
		cited = passageTitles(req.Passages)
	}

	return &Answer{Text: text, Sources: cited}, nil
}
