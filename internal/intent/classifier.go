// Package intent decides whether an incoming message needs document retrieval
// or can be answered conversationally. The default classifier is rule-based —
// deterministic, fast, and free — with an optional LLM-backed classifier for
// deployments that want higher recall on unusual phrasings.
package intent

import (
	"context"
	"strings"

	"github.com/nelfund/navigator-go/internal/memory"
)

// Decision is the classifier's verdict for a message.
type Decision struct {
	// NeedsRetrieval is true when the message should be answered from the
	// document corpus rather than conversationally.
	NeedsRetrieval bool

	// Reason is a short machine-readable label for logging ("smalltalk",
	// "follow_up", "question", ...).
	Reason string
}

// Classifier decides whether a message needs retrieval, given the recent
// conversation. Implementations must fail open: when in doubt, retrieve.
type Classifier interface {
	Classify(ctx context.Context, message string, history []memory.Turn) (Decision, error)
}

// smalltalkPhrases are messages answerable without the document corpus.
// Matching is whole-message or whole-word, never substring, so "hi" does not
// swallow "higher institution".
var smalltalkPhrases = []string{
	"hello",
	"hi",
	"hey",
	"good morning",
	"good afternoon",
	"good evening",
	"thanks",
	"thank you",
	"bye",
	"goodbye",
	"how are you",
	"what's up",
	"what can you do",
}

// domainKeywords force retrieval even inside short greetings-adjacent
// messages ("hi, loan deadline?").
var domainKeywords = []string{
	"loan",
	"nelfund",
	"apply",
	"application",
	"eligib",
	"repay",
	"deadline",
	"document",
	"interest",
	"disburse",
	"fund",
	"school",
	"fee",
}

// maxSmalltalkWords bounds how long a message can be and still count as
// smalltalk. Longer messages always go to retrieval.
const maxSmalltalkWords = 5

// RuleClassifier is the default deterministic classifier.
type RuleClassifier struct{}

// NewRuleClassifier constructs a RuleClassifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify applies the smalltalk phrase rules, then the follow-up rule.
// Everything that is not confidently smalltalk needs retrieval.
func (c *RuleClassifier) Classify(_ context.Context, message string, history []memory.Turn) (Decision, error) {
	normalized := normalize(message)

	if isSmalltalk(normalized) {
		// A short message right after a cited answer is usually a follow-up
		// ("thanks, and the deadline?" style probes are caught by keywords;
		// bare acknowledgements stay smalltalk).
		return Decision{NeedsRetrieval: false, Reason: "smalltalk"}, nil
	}

	if isShortFollowUp(normalized, history) {
		return Decision{NeedsRetrieval: true, Reason: "follow_up"}, nil
	}

	return Decision{NeedsRetrieval: true, Reason: "question"}, nil
}

// normalize lowercases and strips surrounding whitespace and trailing
// punctuation so "Hello!!" matches "hello".
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, "!?.,")
}

// isSmalltalk reports whether the normalized message is confidently
// conversational: short, matching a known phrase, and free of domain terms.
func isSmalltalk(normalized string) bool {
	if normalized == "" {
		return false
	}
	if len(strings.Fields(normalized)) > maxSmalltalkWords {
		return false
	}
	for _, kw := range domainKeywords {
		if strings.Contains(normalized, kw) {
			return false
		}
	}
	for _, phrase := range smalltalkPhrases {
		if normalized == phrase {
			return true
		}
		if containsWholePhrase(normalized, phrase) {
			return true
		}
	}
	return false
}

// containsWholePhrase reports whether phrase occurs in s bounded by word
// breaks on both sides.
func containsWholePhrase(s, phrase string) bool {
	idx := strings.Index(s, phrase)
	for idx >= 0 {
		before := idx == 0 || !isWordChar(s[idx-1])
		afterIdx := idx + len(phrase)
		after := afterIdx == len(s) || !isWordChar(s[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(s[idx+1:], phrase)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '\''
}

// isShortFollowUp reports whether a short ambiguous message follows an
// assistant turn that cited sources — the student is probably drilling into
// the previous answer, so retrieval context is needed.
func isShortFollowUp(normalized string, history []memory.Turn) bool {
	if len(strings.Fields(normalized)) > maxSmalltalkWords {
		return false
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == memory.RoleAssistant {
			return len(history[i].Sources) > 0
		}
	}
	return false
}
