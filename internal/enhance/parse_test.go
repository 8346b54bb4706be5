package enhance

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare array",
			in:   `[{"index":0}]`,
			want: `[{"index":0}]`,
		},
		{
			name: "code fences",
			in:   "```json\n[{\"index\":0}]\n```",
			want: `[{"index":0}]`,
		},
		{
			name: "surrounding prose",
			in:   `Sure! Here are the rankings: [{"index":0}] Hope this helps.`,
			want: `[{"index":0}]`,
		},
		{
			name: "bare object",
			in:   `{"index":1,"relevance":0.5}`,
			want: `{"index":1,"relevance":0.5}`,
		},
		{
			name: "brackets inside strings",
			in:   `[{"index":0,"key_benefit":"covers [advanced] topics"}]`,
			want: `[{"index":0,"key_benefit":"covers [advanced] topics"}]`,
		},
		{
			name: "escaped quotes inside strings",
			in:   `[{"index":0,"key_benefit":"the \"best\" guide"}]`,
			want: `[{"index":0,"key_benefit":"the \"best\" guide"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("extractJSON = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSON_Malformed(t *testing.T) {
	for _, in := range []string{
		"no json here at all",
		`[{"index":0}`,
		"",
	} {
		_, err := extractJSON(in)
		if !errors.Is(err, domain.ErrMalformedResponse) {
			t.Errorf("extractJSON(%q) error = %v, want ErrMalformedResponse", in, err)
		}
	}
}

func TestParseInsights(t *testing.T) {
	text := `[
		{"index":0,"relevance":0.8,"key_benefit":"direct match"},
		{"index":1,"relevance":1.7},
		{"index":5,"relevance":0.5},
		{"index":-1,"relevance":0.5}
	]`

	got, err := parseInsights(text, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Out-of-range indexes 5 and -1 are dropped.
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Index != 0 || *got[0].Relevance != 0.8 {
		t.Errorf("first = %+v, want index 0 relevance 0.8", got[0])
	}
	if *got[0].KeyBenefit != "direct match" {
		t.Errorf("key benefit = %q, want direct match", *got[0].KeyBenefit)
	}
	// Relevance above 1 clamps.
	if *got[1].Relevance != 1.0 {
		t.Errorf("clamped relevance = %v, want 1.0", *got[1].Relevance)
	}
}

func TestParseInsights_SingleObject(t *testing.T) {
	got, err := parseInsights(`{"index":0,"relevance":0.4}`, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Index != 0 {
		t.Errorf("got %+v, want one insight at index 0", got)
	}
}

func TestParseInsights_Garbage(t *testing.T) {
	_, err := parseInsights(`["just","strings"]`, 2)
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}
