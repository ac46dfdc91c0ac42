package evidence

import (
	"context"
	"errors"
	"testing"

	"github.com/skinbuddy/concierge/internal/catalog"
)

type fakeFinder struct {
	chunks map[string][]catalog.EvidenceChunk
}

func (f *fakeFinder) FindEvidence(ingredient string) []catalog.EvidenceChunk {
	return f.chunks[ingredient]
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func niacinamideFinder() *fakeFinder {
	return &fakeFinder{chunks: map[string][]catalog.EvidenceChunk{
		"niacinamide": {
			{Title: "Niacinamide RCT", URL: "https://example.org/n1", Snippet: "4% niacinamide reduced lesions.", Tags: []string{"acne"}},
			{Title: "Barrier study", URL: "https://example.org/n2", Snippet: "Improved barrier function.", Tags: []string{"barrier", "acne"}},
		},
	}}
}

func TestExtractIngredient(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"is there evidence for niacinamide?", "niacinamide"},
		{"does AZELAIC ACID help with rosacea", "azelaic acid"},
		{"what moisturizer should I buy", ""},
	}
	for _, tc := range cases {
		if got := ExtractIngredient(tc.text); got != tc.want {
			t.Fatalf("ExtractIngredient(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestRunNoIngredient(t *testing.T) {
	agent := NewAgent(niacinamideFinder(), nil)
	res := agent.Run(context.Background(), "what does the research say about moisturizer")
	if res.Err != ErrNoIngredient {
		t.Fatalf("expected %q, got %q", ErrNoIngredient, res.Err)
	}
	if res.Strength != "none" {
		t.Fatalf("expected strength none, got %q", res.Strength)
	}
}

func TestRunNoEvidence(t *testing.T) {
	agent := NewAgent(&fakeFinder{chunks: map[string][]catalog.EvidenceChunk{}}, nil)
	res := agent.Run(context.Background(), "evidence for retinol?")
	if res.Ingredient != "retinol" {
		t.Fatalf("expected ingredient retinol, got %q", res.Ingredient)
	}
	if res.Summary != "No evidence found." || res.Strength != "weak" {
		t.Fatalf("unexpected empty-evidence result: %+v", res)
	}
}

func TestRunSummarizesWithModel(t *testing.T) {
	llm := &fakeCompleter{reply: `Here you go: {"summary":"Good evidence for acne.","strength":"strong","sources":[{"title":"Niacinamide RCT","url":"https://example.org/n1","snippet":"4% niacinamide reduced lesions."}],"tags":["acne"]}`}
	agent := NewAgent(niacinamideFinder(), llm)

	res := agent.Run(context.Background(), "is niacinamide backed by studies?")
	if res.Summary != "Good evidence for acne." {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
	if res.Strength != "strong" {
		t.Fatalf("expected strength strong, got %q", res.Strength)
	}
	if len(res.Sources) != 1 || res.Sources[0].Title != "Niacinamide RCT" {
		t.Fatalf("unexpected sources: %+v", res.Sources)
	}
}

func TestRunFallsBackOnModelError(t *testing.T) {
	agent := NewAgent(niacinamideFinder(), &fakeCompleter{err: errors.New("boom")})

	res := agent.Run(context.Background(), "niacinamide evidence")
	if res.Summary != "4% niacinamide reduced lesions. Improved barrier function." {
		t.Fatalf("unexpected fallback summary: %q", res.Summary)
	}
	if res.Strength != "moderate" {
		t.Fatalf("expected fallback strength moderate, got %q", res.Strength)
	}
	if len(res.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(res.Sources))
	}
	if len(res.Tags) != 2 {
		t.Fatalf("expected deduped tags [acne barrier], got %v", res.Tags)
	}
}

func TestRunNormalizesBadStrength(t *testing.T) {
	llm := &fakeCompleter{reply: `{"summary":"ok","strength":"overwhelming","sources":[],"tags":[]}`}
	agent := NewAgent(niacinamideFinder(), llm)

	res := agent.Run(context.Background(), "niacinamide evidence")
	if res.Strength != "moderate" {
		t.Fatalf("expected normalized strength moderate, got %q", res.Strength)
	}
}
