package generator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/nelfund/navigator-go/internal/rag"
)

func TestSplitSourceLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		in          string
		wantBody    string
		wantSources []string
	}{
		{
			name:        "semicolon separated",
			in:          "The deadline is June 30.\nSources: NELFUND FAQ; Student Guide",
			wantBody:    "The deadline is June 30.",
			wantSources: []string{"NELFUND FAQ", "Student Guide"},
		},
		{
			name:        "comma separated",
			in:          "The deadline is June 30.\nSources: NELFUND FAQ, Student Guide",
			wantBody:    "The deadline is June 30.",
			wantSources: []string{"NELFUND FAQ", "Student Guide"},
		},
		{
			name:        "case insensitive prefix",
			in:          "Answer.\nsources: NELFUND FAQ",
			wantBody:    "Answer.",
			wantSources: []string{"NELFUND FAQ"},
		},
		{
			name:        "duplicates collapsed",
			in:          "Answer.\nSources: NELFUND FAQ; NELFUND FAQ; Student Guide",
			wantBody:    "Answer.",
			wantSources: []string{"NELFUND FAQ", "Student Guide"},
		},
		{
			name:        "no source line",
			in:          "Just an answer with no citations.",
			wantBody:    "Just an answer with no citations.",
			wantSources: nil,
		},
		{
			name:        "sources mid-text not parsed",
			in:          "Sources: are listed on the website.\nVisit the portal.",
			wantBody:    "Sources: are listed on the website.\nVisit the portal.",
			wantSources: nil,
		},
		{
			name:        "empty source line ignored",
			in:          "Answer.\nSources:",
			wantBody:    "Answer.\nSources:",
			wantSources: nil,
		},
		{
			name:        "trailing whitespace tolerated",
			in:          "Answer.\nSources: NELFUND FAQ  \n\n",
			wantBody:    "Answer.",
			wantSources: []string{"NELFUND FAQ"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			body, sources := splitSourceLine(tc.in)
			if body != tc.wantBody {
				t.Errorf("body: got %q, want %q", body, tc.wantBody)
			}
			if len(sources) != len(tc.wantSources) {
				t.Fatalf("sources: got %v, want %v", sources, tc.wantSources)
			}
			for i := range sources {
				if sources[i] != tc.wantSources[i] {
					t.Errorf("sources[%d]: got %q, want %q", i, sources[i], tc.wantSources[i])
				}
			}
		})
	}
}

func TestFilterCited(t *testing.T) {
	t.Parallel()
	passages := []rag.Passage{
		{SourceTitle: "NELFUND FAQ"},
		{SourceTitle: "Student Guide"},
	}

	tests := []struct {
		name  string
		cited []string
		want  []string
	}{
		{
			name:  "all legitimate",
			cited: []string{"Student Guide", "NELFUND FAQ"},
			want:  []string{"Student Guide", "NELFUND FAQ"},
		},
		{
			name:  "invented source dropped",
			cited: []string{"NELFUND FAQ", "Wikipedia"},
			want:  []string{"NELFUND FAQ"},
		},
		{
			name:  "all invented",
			cited: []string{"Wikipedia", "Some Blog"},
			want:  nil,
		},
		{
			name:  "duplicates collapsed",
			cited: []string{"NELFUND FAQ", "NELFUND FAQ"},
			want:  []string{"NELFUND FAQ"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := FilterCited(tc.cited, passages)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestPassageTitles(t *testing.T) {
	t.Parallel()
	passages := []rag.Passage{
		{SourceTitle: "NELFUND FAQ"},
		{SourceTitle: "Student Guide"},
		{SourceTitle: "NELFUND FAQ"},
		{SourceTitle: ""},
	}
	got := passageTitles(passages)
	want := []string{"NELFUND FAQ", "Student Guide"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFilterCitedAlwaysSubset(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	titles := []string{
		"NELFUND Act 2023", "Eligibility Guidelines", "Application Guidelines",
		"Repayment FAQ", "Disbursement Schedule", "Wikipedia", "Random Blog",
	}

	for range 200 {
		supplied := make([]rag.Passage, rng.Intn(5))
		allowed := make(map[string]bool)
		for i := range supplied {
			title := titles[rng.Intn(len(titles))]
			supplied[i] = rag.Passage{SourceTitle: title, Text: fmt.Sprintf("passage %d", i)}
			allowed[title] = true
		}

		cited := make([]string, rng.Intn(6))
		for i := range cited {
			cited[i] = titles[rng.Intn(len(titles))]
		}

		got := FilterCited(cited, supplied)

		seen := make(map[string]bool)
		for _, title := range got {
			if !allowed[title] {
				t.Fatalf("cited %q not among supplied passages %v", title, supplied)
			}
			if seen[title] {
				t.Fatalf("duplicate citation %q in %v", title, got)
			}
			seen[title] = true
		}
	}
}
