package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/nelfund/navigator-go/internal/memory"
)

// fakeChatModel returns a fixed reply and records the last input.
type fakeChatModel struct {
	reply string
	err   error
	got   []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func TestResolve_RewritesFollowUp(t *testing.T) {
	t.Parallel()
	fm := &fakeChatModel{reply: "NELFUND loan eligibility for masters degree students"}
	r, err := NewModelResolver(fm)
	if err != nil {
		t.Fatal(err)
	}

	history := []memory.Turn{
		{Role: memory.RoleUser, Content: "am I eligible?"},
		{Role: memory.RoleAssistant, Content: "Undergraduates at public institutions are eligible."},
	}
	got, err := r.Resolve(context.Background(), "and for masters?", history)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "NELFUND loan eligibility for masters degree students" {
		t.Errorf("resolved query: got %q", got)
	}

	// The prompt must carry the history and the new message.
	if len(fm.got) != 2 {
		t.Fatalf("want 2 prompt messages, got %d", len(fm.got))
	}
	if !strings.Contains(fm.got[1].Content, "am I eligible?") {
		t.Error("prompt missing history")
	}
	if !strings.Contains(fm.got[1].Content, "and for masters?") {
		t.Error("prompt missing new message")
	}
}

func TestResolve_StripsQuotes(t *testing.T) {
	t.Parallel()
	fm := &fakeChatModel{reply: `"loan repayment deadline"`}
	r, err := NewModelResolver(fm)
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.Resolve(context.Background(), "when?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "loan repayment deadline" {
		t.Errorf("got %q", got)
	}
}

func TestResolve_ModelErrorPropagates(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("model down")
	r, err := NewModelResolver(&fakeChatModel{err: wantErr})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Resolve(context.Background(), "and for masters?", nil); !errors.Is(err, wantErr) {
		t.Errorf("want wrapped model error, got %v", err)
	}
}

func TestResolve_EmptyRewriteIsError(t *testing.T) {
	t.Parallel()
	r, err := NewModelResolver(&fakeChatModel{reply: "   "})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Resolve(context.Background(), "and for masters?", nil); err == nil {
		t.Error("want error for empty rewrite")
	}
}

func TestEngine_ResolverFallbackToRawMessage(t *testing.T) {
	t.Parallel()

	ret := &fakeRetriever{passages: nil}
	gen := &fakeGenerator{}
	store := testStore(t)

	// Seed history so the resolver is actually consulted.
	if err := store.Append(context.Background(), "sess-1",
		memory.Turn{Role: memory.RoleUser, Content: "am I eligible?"},
		memory.Turn{Role: memory.RoleAssistant, Content: "Yes, if enrolled.", Sources: []string{"NELFUND FAQ"}},
	); err != nil {
		t.Fatal(err)
	}

	resolver, err := NewModelResolver(&fakeChatModel{err: errors.New("model down")})
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(questionClassifier(), ret, gen, store, resolver, Config{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.HandleMessage(context.Background(), "sess-1", "and for masters?"); err != nil {
		t.Fatalf("resolver failure must not fail the turn: %v", err)
	}
	if ret.gotQuery != "and for masters?" {
		t.Errorf("retriever should get the raw message on resolver failure, got %q", ret.gotQuery)
	}
}

func TestEngine_ResolvedQueryReachesRetriever(t *testing.T) {
	t.Parallel()

	ret := &fakeRetriever{passages: nil}
	gen := &fakeGenerator{}
	store := testStore(t)

	if err := store.Append(context.Background(), "sess-1",
		memory.Turn{Role: memory.RoleUser, Content: "am I eligible?"},
		memory.Turn{Role: memory.RoleAssistant, Content: "Yes, if enrolled.", Sources: []string{"NELFUND FAQ"}},
	); err != nil {
		t.Fatal(err)
	}

	resolver, err := NewModelResolver(&fakeChatModel{reply: "masters degree eligibility"})
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(questionClassifier(), ret, gen, store, resolver, Config{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.HandleMessage(context.Background(), "sess-1", "and for masters?"); err != nil {
		t.Fatal(err)
	}
	if ret.gotQuery != "masters degree eligibility" {
		t.Errorf("retriever query: got %q, want resolved query", ret.gotQuery)
	}
	// The generator must still see the verbatim message, not the rewrite.
	if gen.got.Message != "and for masters?" {
		t.Errorf("generator message: got %q", gen.got.Message)
	}
	if gen.got.Query != "masters degree eligibility" {
		t.Errorf("generator query: got %q", gen.got.Query)
	}
}
