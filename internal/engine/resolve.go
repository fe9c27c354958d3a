package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/nelfund/navigator-go/internal/generator"
	"github.com/nelfund/navigator-go/internal/memory"
)

// resolvePrompt instructs the model to rewrite a follow-up into a standalone
// query. The model sees only the recent history and the new message; it must
// output the rewritten query and nothing else.
const resolvePrompt = `You rewrite a student's follow-up message into a standalone search query ` +
	`about the NELFUND student loan programme.

Given the conversation and the new message, output ONLY the rewritten query — no preamble, ` +
	`no quotes, no explanation. If the message is already self-contained, output it unchanged.`

// ModelResolver rewrites follow-up messages into standalone retrieval
// queries using a chat model. It keeps the rewrite cheap: history is
// flattened into a single context block rather than replayed as turns.
type ModelResolver struct {
	model generator.ChatModel
}

// NewModelResolver constructs a ModelResolver.
func NewModelResolver(chatModel generator.ChatModel) (*ModelResolver, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("engine: resolver model must not be nil")
	}
	return &ModelResolver{model: chatModel}, nil
}

// Resolve asks the model for a standalone rewrite of message. On any model
// failure the error is returned; the engine falls back to the raw message.
func (r *ModelResolver) Resolve(ctx context.Context, message string, history []memory.Turn) (string, error) {
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, t := range history {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	fmt.Fprintf(&b, "\nNew message: %s", message)

	resp, err := r.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(resolvePrompt),
		schema.UserMessage(b.String()),
	})
	if err != nil {
		return "", fmt.Errorf("engine: resolve query: %w", err)
	}

	resolved := strings.TrimSpace(strings.Trim(strings.TrimSpace(resp.Content), `"`))
	if resolved == "" {
		return "", fmt.Errorf("engine: resolver returned empty query")
	}
	return resolved, nil
}
