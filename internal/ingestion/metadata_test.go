package ingestion

import "testing"

func TestTitleFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "hyphenated pdf",
			path: "/data/nelfund-application-guidelines.pdf",
			want: "NELFUND Application Guidelines",
		},
		{
			name: "underscored markdown",
			path: "repayment_faq.md",
			want: "Repayment FAQ",
		},
		{
			name: "plain text file",
			path: "docs/eligibility criteria.txt",
			want: "Eligibility Criteria",
		},
		{
			name: "mixed separators",
			path: "student_loan-act.2024.pdf",
			want: "Student Loan Act 2024",
		},
		{
			name: "acronym in middle",
			path: "jamb-registration-requirements.pdf",
			want: "JAMB Registration Requirements",
		},
		{
			name: "already capitalised",
			path: "NELFUND-Disbursement-Schedule.pdf",
			want: "NELFUND Disbursement Schedule",
		},
		{
			name: "single word",
			path: "faqs.md",
			want: "FAQs",
		},
		{
			name: "no extension",
			path: "readme",
			want: "Readme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TitleFromPath(tt.path); got != tt.want {
				t.Errorf("TitleFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
