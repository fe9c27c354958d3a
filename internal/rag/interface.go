// Package rag provides retrieval-augmented generation primitives: embedding,
// vector search, and passage retrieval over the NELFUND document corpus.
// The package defines narrow interfaces so backends (Qdrant, in-memory) and
// embedders (Ollama, OpenAI, Azure) can be swapped without touching callers.
package rag

import "context"

// DocumentChunk is a unit of ingested text with its provenance metadata.
type DocumentChunk struct {
	// ID is a deterministic UUID derived from the source and chunk index,
	// so re-ingesting the same document overwrites rather than duplicates.
	ID string

	// Text is the chunk content.
	Text string

	// SourceTitle is the human-readable document title (e.g. "NELFUND FAQ").
	SourceTitle string

	// SourceLocator pinpoints the chunk within its source (e.g. "page 3").
	SourceLocator string
}

// Passage is a retrieved chunk with its similarity score, ready for prompting.
type Passage struct {
	// ChunkID is the originating chunk's ID, kept for provenance.
	ChunkID string

	// Text is the passage content.
	Text string

	// SourceTitle is the document title the passage came from.
	SourceTitle string

	// SourceLocator pinpoints the passage within its source.
	SourceLocator string

	// Score is the cosine similarity of the passage to the query (0.0–1.0).
	Score float32
}

// ScoredPoint is a vector search hit: a point ID and its similarity score.
type ScoredPoint struct {
	// ID is the point's UUID in the vector store.
	ID string

	// Score is the cosine similarity to the query vector.
	Score float32
}

// Embedder converts text into dense vector embeddings.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is the storage backend for document chunk vectors.
type VectorStore interface {
	// Upsert writes chunks and their embeddings. vectors is parallel to chunks.
	Upsert(ctx context.Context, chunks []DocumentChunk, vectors [][]float32) error

	// Search returns the limit nearest points to the query vector,
	// ordered by descending similarity.
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)

	// Fetch hydrates full chunks for the given point IDs. Missing IDs are
	// silently skipped; the result order follows the input order.
	Fetch(ctx context.Context, ids []string) ([]DocumentChunk, error)

	// Close releases the underlying connection.
	Close() error
}

// Retriever turns a natural-language query into a ranked set of passages.
type Retriever interface {
	// Retrieve embeds the query, searches the vector store, and returns
	// passages ordered by descending score. An empty (non-nil) slice means
	// nothing relevant was found — that is not an error.
	Retrieve(ctx context.Context, query string) ([]Passage, error)
}
