package generator

import (
	"fmt"
	"strings"

	"github.com/nelfund/navigator-go/internal/rag"
)

// smalltalkSystemPrompt handles greetings and meta questions without the
// document corpus.
const smalltalkSystemPrompt = `You are the NELFUND student loan assistant. You help Nigerian students ` +
	`understand the NELFUND student loan programme: eligibility, applications, disbursement, and repayment.

The student's message is conversational, not a loan question. Respond warmly and briefly, ` +
	`and invite them to ask about the loan programme. Do not invent programme details. ` +
	`Do not include a Sources line.`

// groundedPromptHeader opens the corpus-grounded system prompt. The passage
// blocks and citation instructions are appended per request.
const groundedPromptHeader = `You are the NELFUND student loan assistant. You help Nigerian students ` +
	`understand the NELFUND student loan programme.

Answer the student's question using ONLY the reference passages below. ` +
	`If the passages do not contain the answer, say you don't have that information ` +
	`and point the student to nelfund.gov.ng — never guess or use outside knowledge.

Reference passages:
`

// groundedPromptFooter instructs the citation line format parsed by
// splitSourceLine.
const groundedPromptFooter = `
Rules:
- Be concise and direct; students are often on mobile data.
- Quote amounts, dates, and document names exactly as they appear in the passages.
- End your answer with a final line of the form "Sources: <title>; <title>" ` +
	`listing only the passage titles you actually used. Use each title at most once.`

// groundedSystemPrompt assembles the system prompt for a corpus-grounded
// answer, numbering each passage with its title and locator.
func groundedSystemPrompt(passages []rag.Passage) string {
	var b strings.Builder
	b.WriteString(groundedPromptHeader)
	for i, p := range passages {
		fmt.Fprintf(&b, "\n[%d] %s (%s)\n%s\n", i+1, p.SourceTitle, p.SourceLocator, p.Text)
	}
	b.WriteString(groundedPromptFooter)
	return b.String()
}
