package memory

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_AppendAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	turns := []Turn{
		{Role: RoleUser, Content: "am I eligible for the loan?"},
		{Role: RoleAssistant, Content: "Eligibility requires...", Sources: []string{"NELFUND FAQ"}},
	}
	if err := s.Append(ctx, "sess-1", turns...); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := s.Recent(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 turns, got %d", len(got))
	}
	if got[0].Role != RoleUser || got[0].Content != "am I eligible for the loan?" {
		t.Errorf("first turn mismatch: %+v", got[0])
	}
	if got[1].Role != RoleAssistant {
		t.Errorf("second turn role: got %q", got[1].Role)
	}
	if len(got[1].Sources) != 1 || got[1].Sources[0] != "NELFUND FAQ" {
		t.Errorf("sources not round-tripped: %v", got[1].Sources)
	}
	if got[0].Sources != nil {
		t.Errorf("user turn should have nil sources, got %v", got[0].Sources)
	}
}

func TestSQLite_RecentLimitsToTail(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := range 10 {
		turn := Turn{
			Role:      RoleUser,
			Content:   string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.Append(ctx, "sess-1", turn); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(ctx, "sess-1", 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 turns, got %d", len(got))
	}
	// Oldest-first within the tail.
	if got[0].Content != "h" || got[2].Content != "j" {
		t.Errorf("wrong tail window: %q..%q", got[0].Content, got[2].Content)
	}
}

func TestSQLite_UnknownSessionIsEmpty(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	got, err := s.Recent(context.Background(), "never-seen", 6)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("want empty history, got %d turns", len(got))
	}
}

func TestSQLite_SessionsAreIsolated(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, "sess-a", Turn{Role: RoleUser, Content: "from a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, "sess-b", Turn{Role: RoleUser, Content: "from b"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(ctx, "sess-a", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Content != "from a" {
		t.Errorf("session isolation broken: %+v", got)
	}
}
