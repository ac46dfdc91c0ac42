package product

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/skinbuddy/concierge/internal/catalog"
	"github.com/skinbuddy/concierge/internal/model/profile"
)

type fakeSearcher struct {
	gotColumns  []string
	gotPatterns map[string][]string
	results     []catalog.Product
}

func (f *fakeSearcher) Search(columnsToSearch []string, patterns map[string][]string) []catalog.Product {
	f.gotColumns = columnsToSearch
	f.gotPatterns = patterns
	return f.results
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func TestRunUsesModelPlan(t *testing.T) {
	searcher := &fakeSearcher{results: []catalog.Product{
		{ProductName: "Gentle Exfoliant Gel", ProductURL: "https://shop.example/gel"},
	}}
	llm := &fakeCompleter{reply: `{"columns_to_search":["product_type","ingredients"],"patterns":{"product_type":["exfoliant"],"ingredients":["bha","salicylic"]},"reason":"Exfoliant request with acne actives."}`}
	agent := NewAgent(searcher, llm)

	res := agent.Run(context.Background(), "recommend an exfoliant for acne", profile.Profile{"Skin type (e.g., oily, dry, combination)": "oily"})

	if !reflect.DeepEqual(searcher.gotColumns, []string{"product_type", "ingredients"}) {
		t.Fatalf("unexpected columns: %v", searcher.gotColumns)
	}
	if !reflect.DeepEqual(searcher.gotPatterns["product_type"], []string{"exfoliant"}) {
		t.Fatalf("unexpected product_type patterns: %v", searcher.gotPatterns)
	}
	if len(res.Products) != 1 || res.Products[0].ProductName != "Gentle Exfoliant Gel" {
		t.Fatalf("unexpected products: %+v", res.Products)
	}
	if res.Products[0].Reason != "Exfoliant request with acne actives." {
		t.Fatalf("expected plan reason on each product, got %q", res.Products[0].Reason)
	}
}

func TestRunDropsUnknownColumns(t *testing.T) {
	searcher := &fakeSearcher{}
	llm := &fakeCompleter{reply: `{"columns_to_search":["brand","product_type"],"patterns":{"brand":["cerave"],"product_type":["serum"]},"reason":"r"}`}
	agent := NewAgent(searcher, llm)

	agent.Run(context.Background(), "serum for dark spots", nil)

	if !reflect.DeepEqual(searcher.gotColumns, []string{"product_type"}) {
		t.Fatalf("expected unknown column dropped, got %v", searcher.gotColumns)
	}
	if _, ok := searcher.gotPatterns["brand"]; ok {
		t.Fatalf("brand patterns should have been dropped: %v", searcher.gotPatterns)
	}
}

func TestRunFallsBackOnModelError(t *testing.T) {
	searcher := &fakeSearcher{}
	agent := NewAgent(searcher, &fakeCompleter{err: errors.New("boom")})

	res := agent.Run(context.Background(), "need a gentle cleanser", nil)

	if !reflect.DeepEqual(searcher.gotColumns, []string{"product_type", "ingredients"}) {
		t.Fatalf("expected default columns, got %v", searcher.gotColumns)
	}
	// words longer than two characters, in question order
	want := []string{"need", "gentle", "cleanser"}
	if !reflect.DeepEqual(searcher.gotPatterns["product_type"], want) {
		t.Fatalf("unexpected fallback patterns: %v", searcher.gotPatterns)
	}
	if res.Reason != fallbackReason {
		t.Fatalf("expected fallback reason, got %q", res.Reason)
	}
}

func TestRunWithoutModel(t *testing.T) {
	searcher := &fakeSearcher{}
	agent := NewAgent(searcher, nil)

	res := agent.Run(context.Background(), "sunscreen under $20", nil)

	if len(searcher.gotColumns) == 0 {
		t.Fatal("expected a search to run without a model")
	}
	if res.Products == nil {
		t.Fatal("products must be non-nil even when empty")
	}
}
