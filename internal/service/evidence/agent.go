// Package evidence answers "what does the research say about <ingredient>"
// questions: retrieve study chunks for the ingredient, then summarize them
// into a strict, strength-graded structure.
package evidence

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/skinbuddy/concierge/internal/catalog"
	"github.com/skinbuddy/concierge/internal/service/ai"
	"github.com/skinbuddy/concierge/pkg/jsonx"
)

// ErrNoIngredient marks the structured "nothing to look up" outcome. It is
// a result field, not a Go error: the turn still succeeds.
const ErrNoIngredient = "NO_INGREDIENT_FOUND"

// Finder retrieves evidence chunks for an ingredient.
type Finder interface {
	FindEvidence(ingredient string) []catalog.EvidenceChunk
}

// Source is one study reference in a summary.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Result is the structured evidence answer.
type Result struct {
	Ingredient string   `json:"ingredient,omitempty"`
	Question   string   `json:"question"`
	Summary    string   `json:"summary,omitempty"`
	Strength   string   `json:"strength"`
	Sources    []Source `json:"sources"`
	Tags       []string `json:"tags"`
	Err        string   `json:"error,omitempty"`
}

// ingredients the extractor recognizes, checked in order.
var ingredients = []string{
	"niacinamide", "azelaic acid", "salicylic acid", "tretinoin",
	"retinol", "vitamin c", "ascorbic acid", "glycolic acid",
	"lactic acid", "ceramides", "panthenol", "hyaluronic acid",
	"arbutin", "kojic acid", "tranexamic acid",
}

// Agent is the evidence lookup handler. llm may be nil; summaries then fall
// back to stitched snippets.
type Agent struct {
	finder Finder
	llm    ai.Completer
}

// NewAgent wires the evidence agent.
func NewAgent(finder Finder, llm ai.Completer) *Agent {
	return &Agent{finder: finder, llm: llm}
}

// ExtractIngredient returns the first known ingredient mentioned in text,
// or "" when none is present.
func ExtractIngredient(text string) string {
	lowered := strings.ToLower(text)
	for _, ingredient := range ingredients {
		if strings.Contains(lowered, ingredient) {
			return ingredient
		}
	}
	return ""
}

// Run resolves an evidence question. Missing ingredient and missing
// evidence are normal results, never errors.
func (a *Agent) Run(ctx context.Context, question string) Result {
	question = strings.TrimSpace(strings.ToLower(question))
	ingredient := ExtractIngredient(question)

	if ingredient == "" {
		return Result{
			Question: question,
			Strength: "none",
			Sources:  []Source{},
			Tags:     []string{},
			Err:      ErrNoIngredient,
		}
	}

	chunks := a.finder.FindEvidence(ingredient)
	if len(chunks) == 0 {
		return Result{
			Ingredient: ingredient,
			Question:   question,
			Summary:    "No evidence found.",
			Strength:   "weak",
			Sources:    []Source{},
			Tags:       []string{},
		}
	}

	summary := a.summarize(ctx, chunks)
	summary.Ingredient = ingredient
	summary.Question = question
	return summary
}

type summaryPayload struct {
	Summary  string   `json:"summary"`
	Strength string   `json:"strength"`
	Sources  []Source `json:"sources"`
	Tags     []string `json:"tags"`
}

const summarizePrompt = `You are an evidence summarization engine. You MUST respond with STRICT JSON ONLY. NO text before or after the JSON. NO commentary.

JSON Schema:
{
  "summary": "<string>",
  "strength": "<strong|moderate|weak>",
  "sources": [ {"title": "", "url": "", "snippet": ""} ],
  "tags": [""]
}

Use ONLY the following evidence:
%s`

func (a *Agent) summarize(ctx context.Context, chunks []catalog.EvidenceChunk) Result {
	if a.llm == nil {
		return fallbackSummary(chunks)
	}

	var evidenceText strings.Builder
	for _, chunk := range chunks {
		evidenceText.WriteString(chunk.Snippet)
		evidenceText.WriteString("\n")
	}

	raw, err := a.llm.Complete(ctx, fmt.Sprintf(summarizePrompt, evidenceText.String()))
	if err != nil {
		log.Printf("[evidence] summarization failed, using snippet fallback: %v", err)
		return fallbackSummary(chunks)
	}

	var payload summaryPayload
	if err := jsonx.Decode(raw, &payload); err != nil {
		log.Printf("[evidence] summarization returned no JSON, using snippet fallback: %v", err)
		return fallbackSummary(chunks)
	}

	switch payload.Strength {
	case "strong", "moderate", "weak":
	default:
		payload.Strength = "moderate"
	}
	if payload.Sources == nil {
		payload.Sources = []Source{}
	}
	if payload.Tags == nil {
		payload.Tags = []string{}
	}

	return Result{
		Summary:  payload.Summary,
		Strength: payload.Strength,
		Sources:  payload.Sources,
		Tags:     payload.Tags,
	}
}

// fallbackSummary stitches the retrieved snippets into a conservative
// answer when the model is unavailable or unparsable.
func fallbackSummary(chunks []catalog.EvidenceChunk) Result {
	var (
		snippets []string
		sources  []Source
		tagSet   = map[string]bool{}
		tags     []string
	)
	for _, chunk := range chunks {
		if chunk.Snippet != "" {
			snippets = append(snippets, chunk.Snippet)
		}
		sources = append(sources, Source{Title: chunk.Title, URL: chunk.URL, Snippet: chunk.Snippet})
		for _, tag := range chunk.Tags {
			if !tagSet[tag] {
				tagSet[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	if tags == nil {
		tags = []string{}
	}

	return Result{
		Summary:  strings.Join(snippets, " "),
		Strength: "moderate",
		Sources:  sources,
		Tags:     tags,
	}
}
