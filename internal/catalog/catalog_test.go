package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func seedCatalog() *Catalog {
	return New([]Product{
		{ProductName: "Foam Cleanse", ProductType: "cleanser", Ingredients: "salicylic acid, glycerin", Price: "low"},
		{ProductName: "Gentle Exfoliant Gel", ProductType: "gentle exfoliant gel", Ingredients: "aloe", Price: "mid-range"},
		{ProductName: "BHA Peel", ProductType: "exfoliant", Ingredients: "bha, salicylic", Price: "premium"},
		{ProductName: "BHA Peel", ProductType: "exfoliant", Ingredients: "bha, salicylic", Price: "premium"},
	}, map[string][]EvidenceChunk{
		"niacinamide": {
			{Title: "Niacinamide and barrier function", URL: "https://example.org/n1", Snippet: "Improved barrier repair", Tags: []string{"barrier", "acne"}},
		},
	})
}

func TestSearchHardProductTypeFilter(t *testing.T) {
	c := seedCatalog()

	results := c.Search(
		[]string{"product_type", "ingredients"},
		map[string][]string{"product_type": {"exfoliant"}},
	)

	for _, p := range results {
		if p.ProductType == "cleanser" {
			t.Fatalf("cleanser leaked past product_type filter: %+v", p)
		}
	}

	var foundGel bool
	for _, p := range results {
		if p.ProductName == "Gentle Exfoliant Gel" {
			foundGel = true
		}
	}
	if !foundGel {
		t.Fatal("substring product_type match should include the gel even without ingredient patterns")
	}
}

func TestSearchDeduplicatesByName(t *testing.T) {
	c := seedCatalog()

	results := c.Search(
		[]string{"product_type"},
		map[string][]string{"product_type": {"exfoliant"}},
	)

	count := 0
	for _, p := range results {
		if p.ProductName == "BHA Peel" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected one BHA Peel after de-dup, got %d", count)
	}
}

func TestSearchORMatchOnOtherColumns(t *testing.T) {
	c := seedCatalog()

	results := c.Search(
		[]string{"ingredients", "price"},
		map[string][]string{"ingredients": {"salicylic"}},
	)

	if len(results) != 2 {
		t.Fatalf("expected 2 salicylic products, got %d", len(results))
	}
}

func TestSearchIgnoresUnknownColumns(t *testing.T) {
	c := seedCatalog()

	results := c.Search(
		[]string{"secret_column"},
		map[string][]string{"secret_column": {"anything"}},
	)
	if len(results) != 0 {
		t.Fatalf("unknown column should match nothing, got %d results", len(results))
	}
}

func TestFindEvidence(t *testing.T) {
	c := seedCatalog()

	chunks := c.FindEvidence("Niacinamide")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 evidence chunk, got %d", len(chunks))
	}
	if chunks[0].Snippet != "Improved barrier repair" {
		t.Fatalf("unexpected snippet: %q", chunks[0].Snippet)
	}

	if got := c.FindEvidence("retinol"); got != nil {
		t.Fatalf("expected no evidence for retinol, got %d chunks", len(got))
	}
}

func TestLoadFromCSV(t *testing.T) {
	dir := t.TempDir()

	productsPath := filepath.Join(dir, "products.csv")
	productsCSV := "product_name,product_url,product_type,ingredients,price\n" +
		"Foam Cleanse,https://example.org/p1,cleanser,\"salicylic acid, glycerin\",low\n"
	if err := os.WriteFile(productsPath, []byte(productsCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	evidencePath := filepath.Join(dir, "evidence.csv")
	evidenceCSV := "ingredient,study_title,source_url,key_findings_snippet,tags\n" +
		"niacinamide,Barrier study,https://example.org/n1,Improved barrier,barrier;acne\n"
	if err := os.WriteFile(evidencePath, []byte(evidenceCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(productsPath, evidencePath)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if len(c.Products()) != 1 {
		t.Fatalf("expected 1 product, got %d", len(c.Products()))
	}
	chunks := c.FindEvidence("niacinamide")
	if len(chunks) != 1 || len(chunks[0].Tags) != 2 {
		t.Fatalf("unexpected evidence rows: %+v", chunks)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("does-not-exist.csv", "also-missing.csv"); err == nil {
		t.Fatal("expected error for missing catalog files")
	}
}
