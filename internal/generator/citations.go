package generator

import (
	"strings"

	"github.com/nelfund/navigator-go/internal/rag"
)

// sourceLinePrefix is the marker the model is instructed to emit on its
// final line.
const sourceLinePrefix = "sources:"

// splitSourceLine separates the answer body from a trailing "Sources: a; b"
// line. It returns the body with surrounding whitespace trimmed and the
// parsed titles in order, deduped case-sensitively. When no source line is
// present the original text and a nil slice are returned.
func splitSourceLine(text string) (string, []string) {
	trimmed := strings.TrimRight(text, " \t\n")
	idx := strings.LastIndex(trimmed, "\n")

	line := trimmed
	body := ""
	if idx >= 0 {
		line = trimmed[idx+1:]
		body = trimmed[:idx]
	}

	stripped := strings.TrimSpace(line)
	if !strings.HasPrefix(strings.ToLower(stripped), sourceLinePrefix) {
		return strings.TrimSpace(text), nil
	}

	raw := stripped[len(sourceLinePrefix):]
	titles := parseTitles(raw)
	if len(titles) == 0 {
		return strings.TrimSpace(text), nil
	}
	return strings.TrimSpace(body), titles
}

// parseTitles splits a source list on semicolons (falling back to commas),
// trimming whitespace and deduping while preserving first-use order.
func parseTitles(raw string) []string {
	sep := ";"
	if !strings.Contains(raw, ";") {
		sep = ","
	}

	var titles []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, sep) {
		title := strings.TrimSpace(part)
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles
}

// passageTitles returns the distinct source titles of the passages in
// first-use order.
func passageTitles(passages []rag.Passage) []string {
	var titles []string
	seen := make(map[string]bool)
	for _, p := range passages {
		if p.SourceTitle == "" || seen[p.SourceTitle] {
			continue
		}
		seen[p.SourceTitle] = true
		titles = append(titles, p.SourceTitle)
	}
	return titles
}

// FilterCited returns the subset of cited titles that appear among the
// supplied passages, preserving citation order and deduping. Titles the
// model invented are dropped. A nil result means nothing legitimate was
// cited.
func FilterCited(cited []string, passages []rag.Passage) []string {
	allowed := make(map[string]bool, len(passages))
	for _, p := range passages {
		allowed[p.SourceTitle] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, title := range cited {
		if !allowed[title] || seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, title)
	}
	return out
}
