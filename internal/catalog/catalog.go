// Package catalog loads the read-only product catalog and evidence library
// shipped as CSV files, and answers the constrained searches the lookup
// agents issue against them.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Product is one catalog row. All fields are kept as strings: the catalog is
// curated by hand and price/ingredients are free text.
type Product struct {
	ProductName string `json:"product_name"`
	ProductURL  string `json:"product_url"`
	ProductType string `json:"product_type"`
	Ingredients string `json:"ingredients"`
	Price       string `json:"price"`
}

// AllowedColumns lists the only searchable catalog columns. Search plans
// referencing anything else are silently narrowed to this set.
var AllowedColumns = []string{
	"product_name", "product_url", "product_type", "ingredients", "price",
}

func (p Product) field(column string) string {
	switch column {
	case "product_name":
		return p.ProductName
	case "product_url":
		return p.ProductURL
	case "product_type":
		return p.ProductType
	case "ingredients":
		return p.Ingredients
	case "price":
		return p.Price
	default:
		return ""
	}
}

// EvidenceChunk is one retrieved study row for an ingredient.
type EvidenceChunk struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Snippet string   `json:"snippet"`
	Tags    []string `json:"tags"`
}

type evidenceRow struct {
	ingredient string
	chunk      EvidenceChunk
}

// Catalog holds both datasets in memory; they are small and never mutated
// after load, so concurrent reads need no locking.
type Catalog struct {
	products []Product
	evidence []evidenceRow
}

// Load reads both CSV files. Missing or malformed files are startup
// failures, not per-request ones.
func Load(productsPath, evidencePath string) (*Catalog, error) {
	products, err := loadProducts(productsPath)
	if err != nil {
		return nil, fmt.Errorf("load product catalog: %w", err)
	}

	evidence, err := loadEvidence(evidencePath)
	if err != nil {
		return nil, fmt.Errorf("load evidence library: %w", err)
	}

	return &Catalog{products: products, evidence: evidence}, nil
}

// New builds a catalog from in-memory rows. Used by tests and seeds.
func New(products []Product, evidence map[string][]EvidenceChunk) *Catalog {
	c := &Catalog{products: append([]Product(nil), products...)}
	for ingredient, chunks := range evidence {
		for _, chunk := range chunks {
			c.evidence = append(c.evidence, evidenceRow{
				ingredient: strings.ToLower(ingredient),
				chunk:      chunk,
			})
		}
	}
	return c
}

// Products returns the full catalog. Callers must not mutate the slice.
func (c *Catalog) Products() []Product {
	return c.products
}

// Search filters the catalog with the agreed semantics:
//   - if product_type is among the searched columns with non-empty patterns,
//     a product must match one of those patterns to be eligible at all;
//   - products passing that hard filter are kept even when no other column
//     pattern matches;
//   - all other columns are OR-matched by case-insensitive substring;
//   - results are de-duplicated by product_name.
func (c *Catalog) Search(columnsToSearch []string, patterns map[string][]string) []Product {
	allowed := make(map[string]bool, len(AllowedColumns))
	for _, col := range AllowedColumns {
		allowed[col] = true
	}

	var columns []string
	for _, col := range columnsToSearch {
		if allowed[col] {
			columns = append(columns, col)
		}
	}
	if patterns == nil {
		patterns = map[string][]string{}
	}

	requireProductType := false
	for _, col := range columns {
		if col == "product_type" && len(patterns["product_type"]) > 0 {
			requireProductType = true
		}
	}

	var results []Product
	for _, product := range c.products {
		if requireProductType {
			ptValue := strings.ToLower(product.ProductType)
			matched := false
			for _, pattern := range patterns["product_type"] {
				if p := strings.ToLower(pattern); p != "" && strings.Contains(ptValue, p) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}

		matchedAny := false
		for _, col := range columns {
			value := strings.ToLower(product.field(col))
			for _, pattern := range patterns[col] {
				if p := strings.ToLower(pattern); p != "" && strings.Contains(value, p) {
					matchedAny = true
					break
				}
			}
			if matchedAny {
				break
			}
		}

		// Category already vouches for the product when the hard filter is on.
		if requireProductType && !matchedAny {
			matchedAny = true
		}

		if matchedAny {
			results = append(results, product)
		}
	}

	seen := make(map[string]bool, len(results))
	unique := results[:0]
	for _, product := range results {
		if product.ProductName == "" || seen[product.ProductName] {
			continue
		}
		seen[product.ProductName] = true
		unique = append(unique, product)
	}
	return unique
}

// FindEvidence returns study chunks whose ingredient equals the query,
// case-insensitively. No rows is a normal outcome.
func (c *Catalog) FindEvidence(ingredient string) []EvidenceChunk {
	needle := strings.ToLower(strings.TrimSpace(ingredient))
	if needle == "" {
		return nil
	}

	var chunks []EvidenceChunk
	for _, row := range c.evidence {
		if row.ingredient == needle {
			chunks = append(chunks, row.chunk)
		}
	}
	return chunks
}

func loadProducts(path string) ([]Product, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	var products []Product
	for _, row := range rows {
		products = append(products, Product{
			ProductName: row[header["product_name"]],
			ProductURL:  row[header["product_url"]],
			ProductType: row[header["product_type"]],
			Ingredients: row[header["ingredients"]],
			Price:       row[header["price"]],
		})
	}
	return products, nil
}

func loadEvidence(path string) ([]evidenceRow, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	var evidence []evidenceRow
	for _, row := range rows {
		var tags []string
		for _, tag := range strings.Split(row[header["tags"]], ";") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
		evidence = append(evidence, evidenceRow{
			ingredient: strings.ToLower(strings.TrimSpace(row[header["ingredient"]])),
			chunk: EvidenceChunk{
				Title:   row[header["study_title"]],
				URL:     row[header["source_url"]],
				Snippet: row[header["key_findings_snippet"]],
				Tags:    tags,
			},
		})
	}
	return evidence, nil
}

// readCSV returns data rows plus a column-name index. Rows shorter than the
// header are padded so lookups never panic.
func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	headerRow, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	header := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		header[strings.TrimSpace(name)] = i
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		for len(row) < len(headerRow) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}
