package rag

import (
	"context"
	"fmt"
)

// DefaultRetriever implements the Retriever interface by combining an Embedder
// and a VectorStore. It embeds the query at retrieval time, delegates
// similarity search to the store, hydrates the hits, then applies the score
// threshold and per-source cap.
type DefaultRetriever struct {
	// embedder converts query text to a dense vector.
	embedder Embedder

	// store performs the vector similarity search and chunk hydration.
	store VectorStore

	// topK is the number of candidates fetched per query.
	topK int

	// minScore drops candidates scoring below this similarity threshold.
	minScore float32

	// maxPerSource caps how many passages a single source may contribute.
	maxPerSource int
}

// defaultMaxPerSource keeps one document from flooding the prompt when its
// chunks dominate the top candidates.
const defaultMaxPerSource = 2

// RetrieverConfig holds the tuning knobs for a DefaultRetriever.
type RetrieverConfig struct {
	// TopK is the number of candidates fetched per query (default: 4).
	TopK int

	// MinScore drops candidates below this similarity threshold (default: 0).
	MinScore float32

	// MaxPerSource caps passages per source title (default: 2; negative
	// disables the cap).
	MaxPerSource int
}

// NewRetriever constructs a DefaultRetriever from the given Embedder and
// VectorStore. A nil cfg applies all defaults.
func NewRetriever(embedder Embedder, store VectorStore, cfg *RetrieverConfig) (*DefaultRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if cfg == nil {
		cfg = &RetrieverConfig{}
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 4
	}
	maxPerSource := cfg.MaxPerSource
	if maxPerSource == 0 {
		maxPerSource = defaultMaxPerSource
	}
	return &DefaultRetriever{
		embedder:     embedder,
		store:        store,
		topK:         topK,
		minScore:     cfg.MinScore,
		maxPerSource: maxPerSource,
	}, nil
}

// Retrieve embeds the query and returns the passages most relevant to it,
// ordered by descending score. Candidates below the score threshold are
// dropped; when every candidate falls below it, an empty slice is returned —
// finding nothing is not an error.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string) ([]Passage, error) {
	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("rag: embedder returned empty result for query")
	}

	hits, err := r.store.Search(ctx, embeddings[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("rag: vector search failed: %w", err)
	}

	// Filter by threshold before hydrating so we never fetch chunks we
	// would immediately discard.
	ids := make([]string, 0, len(hits))
	scores := make(map[string]float32, len(hits))
	for _, h := range hits {
		if h.Score < r.minScore {
			continue
		}
		ids = append(ids, h.ID)
		scores[h.ID] = h.Score
	}

	passages := make([]Passage, 0, len(ids))
	if len(ids) == 0 {
		return passages, nil
	}

	chunks, err := r.store.Fetch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("rag: chunk fetch failed: %w", err)
	}

	perSource := make(map[string]int, len(chunks))
	for _, c := range chunks {
		if r.maxPerSource > 0 && perSource[c.SourceTitle] >= r.maxPerSource {
			continue
		}
		perSource[c.SourceTitle]++
		passages = append(passages, Passage{
			ChunkID:       c.ID,
			Text:          c.Text,
			SourceTitle:   c.SourceTitle,
			SourceLocator: c.SourceLocator,
			Score:         scores[c.ID],
		})
	}

	return passages, nil
}
