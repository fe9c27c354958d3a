package rag

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryStore_UpsertAndSearch(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()

	chunks := []DocumentChunk{
		{ID: "x", Text: "first"},
		{ID: "y", Text: "second"},
	}
	vectors := [][]float32{
		{1, 0},
		{0, 1},
	}
	if err := store.Upsert(context.Background(), chunks, vectors); err != nil {
		t.Fatal(err)
	}

	hits, err := store.Search(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("want 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "x" {
		t.Errorf("top hit: got %q, want %q", hits[0].ID, "x")
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("hits not ordered: %v vs %v", hits[0].Score, hits[1].Score)
	}
}

func TestMemoryStore_TieBreakByInsertionOrder(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()

	var chunks []DocumentChunk
	var vectors [][]float32
	for i := range 8 {
		chunks = append(chunks, DocumentChunk{ID: fmt.Sprintf("id-%d", i)})
		vectors = append(vectors, []float32{1, 0})
	}
	if err := store.Upsert(context.Background(), chunks, vectors); err != nil {
		t.Fatal(err)
	}

	// All points score identically; every search must return them in the
	// order they were inserted.
	for range 20 {
		hits, err := store.Search(context.Background(), []float32{1, 0}, 8)
		if err != nil {
			t.Fatal(err)
		}
		for i, h := range hits {
			if want := fmt.Sprintf("id-%d", i); h.ID != want {
				t.Fatalf("hit %d: got %q, want %q (full order %v)", i, h.ID, want, hits)
			}
		}
	}
}

func TestMemoryStore_OverwriteKeepsInsertionPosition(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()

	chunks := []DocumentChunk{{ID: "first"}, {ID: "second"}}
	vectors := [][]float32{{1, 0}, {1, 0}}
	if err := store.Upsert(context.Background(), chunks, vectors); err != nil {
		t.Fatal(err)
	}

	// Re-upserting "first" must not demote it behind "second".
	if err := store.Upsert(context.Background(),
		[]DocumentChunk{{ID: "first", Text: "updated"}},
		[][]float32{{1, 0}},
	); err != nil {
		t.Fatal(err)
	}

	hits, err := store.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].ID != "first" || hits[1].ID != "second" {
		t.Errorf("order after overwrite: %v", hits)
	}
}

func TestMemoryStore_UpsertLengthMismatch(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	err := store.Upsert(context.Background(), []DocumentChunk{{ID: "x"}}, nil)
	if err == nil {
		t.Fatal("want error for chunk/vector length mismatch")
	}
}

func TestMemoryStore_FetchPreservesOrder(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	chunks := []DocumentChunk{
		{ID: "a", Text: "alpha"},
		{ID: "b", Text: "beta"},
		{ID: "c", Text: "gamma"},
	}
	vectors := [][]float32{{1}, {1}, {1}}
	if err := store.Upsert(context.Background(), chunks, vectors); err != nil {
		t.Fatal(err)
	}

	got, err := store.Fetch(context.Background(), []string{"c", "missing", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 chunks, got %d", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "a" {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := cosineSimilarity(tc.a, tc.b)
			if err != nil {
				t.Fatal(err)
			}
			if diff := got - tc.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}

	if _, err := cosineSimilarity([]float32{1}, []float32{1, 2}); err == nil {
		t.Error("want error for length mismatch")
	}
}
