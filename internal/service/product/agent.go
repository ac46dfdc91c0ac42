// Package product plans catalog searches from free-text questions and
// returns matching products with a short rationale.
package product

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/skinbuddy/concierge/internal/catalog"
	"github.com/skinbuddy/concierge/internal/model/profile"
	"github.com/skinbuddy/concierge/internal/service/ai"
	"github.com/skinbuddy/concierge/pkg/jsonx"
)

// Searcher executes a column/pattern search against the product catalog.
type Searcher interface {
	Search(columnsToSearch []string, patterns map[string][]string) []catalog.Product
}

// Match is one recommended product.
type Match struct {
	ProductName string `json:"product_name"`
	ProductURL  string `json:"product_url"`
	Reason      string `json:"reason"`
}

// Result is the structured product search answer.
type Result struct {
	Question string  `json:"question"`
	Products []Match `json:"products"`
	Reason   string  `json:"reason"`
}

// searchPlan is what the model is asked to produce: which columns to
// constrain and the patterns for each.
type searchPlan struct {
	ColumnsToSearch []string            `json:"columns_to_search"`
	Patterns        map[string][]string `json:"patterns"`
	Reason          string              `json:"reason"`
}

const fallbackReason = "Heuristic column selection fallback."

// Agent is the product lookup handler. llm may be nil; the search plan is
// then derived from the question words.
type Agent struct {
	searcher Searcher
	llm      ai.Completer
}

// NewAgent wires the product agent.
func NewAgent(searcher Searcher, llm ai.Completer) *Agent {
	return &Agent{searcher: searcher, llm: llm}
}

const planPrompt = `You are a product-catalog search planner for a skincare recommendation system.

The ONLY available product catalog columns are:

- "product_name"   (string: the human-readable name of the product)
- "product_url"    (string: link to the product page)
- "product_type"   (string: high-level category, e.g. "cleanser", "exfoliant", "serum", "moisturizer", "sunscreen")
- "ingredients"    (string: ingredients list or key actives)
- "price"          (string: price or price range)

User question:
%s

User profile (JSON):
%s

Your task:
1. Decide which columns are most relevant to search, using ONLY the 5 allowed columns.
2. Decide what text patterns to look for within each of those columns.
3. THINK carefully about product_type semantics: if the user asks explicitly for "exfoliants", your patterns for "product_type" should include "exfoliant" and should NOT match unrelated types like "cleanser" or "moisturizer".

You MUST respond with STRICT JSON ONLY in this exact schema:

{
  "columns_to_search": ["product_type", "ingredients"],
  "patterns": {
    "product_type": ["exfoliant"],
    "ingredients": ["bha", "aha", "salicylic", "glycolic"]
  },
  "reason": "Short 1-2 sentence explanation of why these columns and patterns were chosen."
}

Rules:
- columns_to_search MUST be a subset of: ["product_name", "product_url", "product_type", "ingredients", "price"]
- Do NOT invent or mention any other column names.
- Use lowercase patterns where possible.
- Do NOT include any text before or after the JSON.`

// Run answers a product question. An empty product list is a normal
// result, never an error.
func (a *Agent) Run(ctx context.Context, question string, prof profile.Profile) Result {
	plan := a.planSearch(ctx, question, prof)

	matching := a.searcher.Search(plan.ColumnsToSearch, plan.Patterns)

	products := make([]Match, 0, len(matching))
	for _, p := range matching {
		products = append(products, Match{
			ProductName: p.ProductName,
			ProductURL:  p.ProductURL,
			Reason:      plan.Reason,
		})
	}

	return Result{Question: question, Products: products, Reason: plan.Reason}
}

// planSearch asks the model which columns and patterns to use, then
// sanitizes the answer: unknown columns are dropped, and missing pieces
// are filled from the question itself.
func (a *Agent) planSearch(ctx context.Context, question string, prof profile.Profile) searchPlan {
	var plan searchPlan

	if a.llm != nil {
		profileJSON, _ := json.Marshal(prof)
		raw, err := a.llm.Complete(ctx, fmt.Sprintf(planPrompt, question, string(profileJSON)))
		if err != nil {
			log.Printf("[product] search planning failed, using question-word fallback: %v", err)
		} else if err := jsonx.Decode(raw, &plan); err != nil {
			log.Printf("[product] search plan returned no JSON, using question-word fallback: %v", err)
		}
	}

	plan.ColumnsToSearch = keepAllowed(plan.ColumnsToSearch)
	if len(plan.ColumnsToSearch) == 0 {
		plan.ColumnsToSearch = []string{"product_type", "ingredients"}
	}

	cleaned := map[string][]string{}
	for col, pats := range plan.Patterns {
		if !isAllowed(col) {
			continue
		}
		var kept []string
		for _, p := range pats {
			if strings.TrimSpace(p) != "" {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			cleaned[col] = kept
		}
	}
	if len(cleaned) == 0 {
		words := questionWords(question)
		for _, col := range plan.ColumnsToSearch {
			cleaned[col] = words
		}
	}
	plan.Patterns = cleaned

	if plan.Reason == "" {
		plan.Reason = fallbackReason
	}
	return plan
}

func isAllowed(column string) bool {
	for _, allowed := range catalog.AllowedColumns {
		if column == allowed {
			return true
		}
	}
	return false
}

func keepAllowed(columns []string) []string {
	var kept []string
	for _, col := range columns {
		if isAllowed(col) {
			kept = append(kept, col)
		}
	}
	return kept
}

// questionWords derives crude search patterns from the question: every
// distinct word longer than two characters, lowercased.
func questionWords(question string) []string {
	seen := map[string]bool{}
	var words []string
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) <= 2 || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}
