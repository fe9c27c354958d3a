package intent

import (
	"context"
	"testing"

	"github.com/nelfund/navigator-go/internal/memory"
)

func TestClassify_Smalltalk(t *testing.T) {
	t.Parallel()
	c := NewRuleClassifier()

	smalltalk := []string{
		"hello",
		"Hi!",
		"hey",
		"Good morning",
		"thanks",
		"thank you",
		"bye",
		"goodbye",
		"how are you?",
		"what's up",
		"what can you do",
		"ok thanks",
	}
	for _, msg := range smalltalk {
		d, err := c.Classify(context.Background(), msg, nil)
		if err != nil {
			t.Fatalf("Classify(%q) failed: %v", msg, err)
		}
		if d.NeedsRetrieval {
			t.Errorf("Classify(%q): want smalltalk, got retrieval (%s)", msg, d.Reason)
		}
	}
}

func TestClassify_Questions(t *testing.T) {
	t.Parallel()
	c := NewRuleClassifier()

	questions := []string{
		"Am I eligible for the student loan?",
		"how do I apply",
		"What documents do I need?",
		"when is the repayment deadline",
		"hi, what is the loan deadline?", // greeting + domain keyword
		"Tell me about NELFUND",
		"does the loan cover school fees for private universities",
	}
	for _, msg := range questions {
		d, err := c.Classify(context.Background(), msg, nil)
		if err != nil {
			t.Fatalf("Classify(%q) failed: %v", msg, err)
		}
		if !d.NeedsRetrieval {
			t.Errorf("Classify(%q): want retrieval, got smalltalk (%s)", msg, d.Reason)
		}
	}
}

func TestClassify_NoSubstringFalsePositives(t *testing.T) {
	t.Parallel()
	c := NewRuleClassifier()

	// "hi" appears inside these but must not match as a phrase. These are
	// longer than the smalltalk word cap anyway, but check the short ones.
	msgs := []string{
		"which university?",
		"this one",
	}
	for _, msg := range msgs {
		d, err := c.Classify(context.Background(), msg, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !d.NeedsRetrieval {
			t.Errorf("Classify(%q): want retrieval, got smalltalk", msg)
		}
	}
}

func TestClassify_FollowUpAfterCitedAnswer(t *testing.T) {
	t.Parallel()
	c := NewRuleClassifier()

	history := []memory.Turn{
		{Role: memory.RoleUser, Content: "am I eligible?"},
		{Role: memory.RoleAssistant, Content: "Eligibility requires...", Sources: []string{"NELFUND FAQ"}},
	}

	d, err := c.Classify(context.Background(), "and for masters?", history)
	if err != nil {
		t.Fatal(err)
	}
	if !d.NeedsRetrieval {
		t.Error("short follow-up after cited answer should need retrieval")
	}
	if d.Reason != "follow_up" {
		t.Errorf("reason: got %q, want %q", d.Reason, "follow_up")
	}
}

func TestClassify_SmalltalkWinsOverFollowUp(t *testing.T) {
	t.Parallel()
	c := NewRuleClassifier()

	history := []memory.Turn{
		{Role: memory.RoleUser, Content: "am I eligible?"},
		{Role: memory.RoleAssistant, Content: "Eligibility requires...", Sources: []string{"NELFUND FAQ"}},
	}

	// A bare acknowledgement stays conversational even mid-topic.
	d, err := c.Classify(context.Background(), "thanks!", history)
	if err != nil {
		t.Fatal(err)
	}
	if d.NeedsRetrieval {
		t.Errorf("bare thanks should stay smalltalk, got retrieval (%s)", d.Reason)
	}
}

func TestClassify_UncitedHistoryNotFollowUp(t *testing.T) {
	t.Parallel()
	c := NewRuleClassifier()

	history := []memory.Turn{
		{Role: memory.RoleUser, Content: "hello"},
		{Role: memory.RoleAssistant, Content: "Hi! How can I help?"},
	}

	d, err := c.Classify(context.Background(), "and you?", history)
	if err != nil {
		t.Fatal(err)
	}
	// No cited assistant turn, not a known phrase — default is retrieval
	// (fail open), just not via the follow-up rule.
	if d.Reason == "follow_up" {
		t.Error("uncited history must not trigger the follow-up rule")
	}
}

func TestContainsWholePhrase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		s, phrase string
		want      bool
	}{
		{"hi there", "hi", true},
		{"higher", "hi", false},
		{"say hi", "hi", true},
		{"oh hi oh", "hi", true},
		{"hihi", "hi", false},
	}
	for _, tc := range tests {
		if got := containsWholePhrase(tc.s, tc.phrase); got != tc.want {
			t.Errorf("containsWholePhrase(%q, %q) = %v, want %v", tc.s, tc.phrase, got, tc.want)
		}
	}
}
