package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory VectorStore using brute-force cosine similarity.
// It exists for tests and for running the one-shot CLI against a small corpus
// without a Qdrant instance. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	chunks  map[string]DocumentChunk
	vectors map[string][]float32
	// seq records each ID's insertion position so equal-score search hits
	// come back in insertion order. Overwrites keep the original position.
	seq     map[string]uint64
	nextSeq uint64
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks:  make(map[string]DocumentChunk),
		vectors: make(map[string][]float32),
		seq:     make(map[string]uint64),
	}
}

// Upsert stores chunks and their embeddings, overwriting existing IDs.
func (s *MemoryStore) Upsert(_ context.Context, chunks []DocumentChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("memory store: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		if _, exists := s.chunks[c.ID]; !exists {
			s.seq[c.ID] = s.nextSeq
			s.nextSeq++
		}
		s.chunks[c.ID] = c
		s.vectors[c.ID] = vectors[i]
	}
	return nil
}

// Search scans every stored vector and returns the limit most similar points.
// Ties are broken by insertion order.
func (s *MemoryStore) Search(_ context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]ScoredPoint, 0, len(s.vectors))
	for id, v := range s.vectors {
		score, err := cosineSimilarity(vector, v)
		if err != nil {
			return nil, fmt.Errorf("memory store: point %s: %w", id, err)
		}
		hits = append(hits, ScoredPoint{ID: id, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return s.seq[hits[i].ID] < s.seq[hits[j].ID]
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Fetch returns the chunks for the given IDs, preserving input order.
func (s *MemoryStore) Fetch(_ context.Context, ids []string) ([]DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]DocumentChunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// cosineSimilarity computes the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}
