// Package routine builds AM/PM/spot skincare routines: classify the
// requested routine type, lay out step skeletons from the profile, then
// deterministically score the catalog to pick one product per step.
package routine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skinbuddy/concierge/internal/catalog"
	"github.com/skinbuddy/concierge/internal/model/profile"
)

// Routine types.
const (
	TypeAM   = "AM"
	TypePM   = "PM"
	TypeSpot = "SPOT"
	TypeBoth = "BOTH"
)

// Cataloger exposes the full product list for scoring.
type Cataloger interface {
	Products() []catalog.Product
}

// Profile is the normalized view of the intake answers.
type Profile struct {
	Name             string   `json:"name"`
	Age              string   `json:"age"`
	SkinType         string   `json:"skin_type"`
	Concerns         []string `json:"concerns"`
	CurrentRoutine   string   `json:"current_routine"`
	BudgetPreference string   `json:"budget_preference"`
}

// Step is one filled routine step.
type Step struct {
	Time        string `json:"time"`
	Step        string `json:"step"`
	ProductName string `json:"product_name"`
	ProductURL  string `json:"product_url"`
	Reason      string `json:"reason"`
}

// Result is the structured routine answer.
type Result struct {
	Question     string  `json:"question"`
	UserProfile  Profile `json:"user_profile"`
	RoutineBrief string  `json:"routine_brief"`
	Steps        []Step  `json:"steps"`
}

// logicalStep is a skeleton entry before a product is chosen.
type logicalStep struct {
	time     string
	step     string
	category string
}

// Agent is the routine builder. It needs no model; product choice is a
// deterministic score over the catalog.
type Agent struct {
	catalog Cataloger
}

// NewAgent wires the routine agent.
func NewAgent(cat Cataloger) *Agent {
	return &Agent{catalog: cat}
}

// Run builds a routine for the question and profile. Steps with no
// matching catalog product are omitted.
func (a *Agent) Run(question string, raw profile.Profile) Result {
	prof := normalizeProfile(raw)
	routineType := ClassifyType(question)

	var steps []Step
	for _, logical := range stepsForType(routineType, prof) {
		product, ok := a.chooseBestProduct(logical.category, prof)
		if !ok {
			continue
		}
		steps = append(steps, Step{
			Time:        logical.time,
			Step:        logical.step,
			ProductName: product.ProductName,
			ProductURL:  product.ProductURL,
			Reason:      stepReason(logical.step, logical.category, product, prof),
		})
	}
	if steps == nil {
		steps = []Step{}
	}

	return Result{
		Question:     question,
		UserProfile:  prof,
		RoutineBrief: routineBrief(prof, steps, routineType),
		Steps:        steps,
	}
}

// ClassifyType maps a question to AM, PM, SPOT or BOTH.
func ClassifyType(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "spot"):
		return TypeSpot
	case strings.Contains(q, "am routine"), strings.Contains(q, "morning"), strings.Contains(q, "daytime"):
		return TypeAM
	case strings.Contains(q, "pm routine"), strings.Contains(q, "night"), strings.Contains(q, "evening"), strings.Contains(q, "bedtime"):
		return TypePM
	default:
		return TypeBoth
	}
}

var concernSplitter = regexp.MustCompile(`[,&]| and `)

func normalizeProfile(raw profile.Profile) Profile {
	concernsRaw := strings.ToLower(raw["Skin concerns (e.g., acne, sensitivity)"])
	var concerns []string
	for _, part := range concernSplitter.Split(concernsRaw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			concerns = append(concerns, part)
		}
	}

	return Profile{
		Name:             strings.TrimSpace(raw["Name?"]),
		Age:              strings.TrimSpace(raw["Age?"]),
		SkinType:         strings.ToLower(strings.TrimSpace(raw["Skin type (e.g., oily, dry, combination)"])),
		Concerns:         concerns,
		CurrentRoutine:   strings.TrimSpace(raw["Current Skincare routine"]),
		BudgetPreference: strings.ToLower(strings.TrimSpace(raw["Budget preference"])),
	}
}

var pigmentConcerns = []string{"acne", "hyperpigmentation", "dark spots", "melasma"}

func hasPigmentConcern(prof Profile) bool {
	for _, c := range prof.Concerns {
		for _, p := range pigmentConcerns {
			if c == p {
				return true
			}
		}
	}
	return false
}

func amSteps(prof Profile) []logicalStep {
	steps := []logicalStep{{"AM", "Cleanser", "cleanser"}}
	if prof.SkinType == "dry" || prof.SkinType == "normal" || containsConcern(prof, "aging") {
		steps = append(steps,
			logicalStep{"AM", "Toner", "toner"},
			logicalStep{"AM", "Essence", "essence"})
	}
	steps = append(steps,
		logicalStep{"AM", "Serum", "serum"},
		logicalStep{"AM", "Moisturizer", "moisturizer"},
		logicalStep{"AM", "Sunscreen", "sunscreen"})
	if hasPigmentConcern(prof) {
		steps = append(steps, logicalStep{"AM", "Spot treatment", "spot treatment"})
	}
	return steps
}

func pmSteps(prof Profile) []logicalStep {
	steps := []logicalStep{
		{"PM", "Cleanser", "cleanser"},
		{"PM", "Toner", "toner"},
		{"PM", "Essence", "essence"},
		{"PM", "Serum", "serum"},
		{"PM", "Moisturizer", "moisturizer"},
		{"PM", "Exfoliant (2-3x/week)", "exfoliant"},
	}
	if hasPigmentConcern(prof) {
		steps = append(steps, logicalStep{"PM", "Spot treatment", "spot treatment"})
	}
	return steps
}

func stepsForType(routineType string, prof Profile) []logicalStep {
	switch routineType {
	case TypeAM:
		return amSteps(prof)
	case TypePM:
		return pmSteps(prof)
	case TypeSpot:
		return []logicalStep{{"SPOT", "Spot treatment", "spot treatment"}}
	default:
		return append(amSteps(prof), pmSteps(prof)...)
	}
}

func containsConcern(prof Profile, concern string) bool {
	for _, c := range prof.Concerns {
		if c == concern {
			return true
		}
	}
	return false
}

var concernKeywords = map[string][]string{
	"acne":              {"acne", "salicylic", "bha", "benzoyl"},
	"aging":             {"retinol", "retinoid", "peptide", "niacinamide", "vitamin c", "collagen"},
	"hyperpigmentation": {"arbutin", "kojic", "tranexamic", "licorice", "vitamin c"},
	"sensitivity":       {"ceramide", "centella", "cica", "panthenol", "madecassoside", "fragrance free"},
	"dryness":           {"hyaluronic", "glycerin", "squalane", "ceramide"},
}

var skinTypeKeywords = map[string][]string{
	"dry":         {"cream", "balm", "ceramide", "hyaluronic", "shea", "squalane", "glycerin"},
	"oily":        {"gel", "oil-free", "salicylic", "niacinamide", "non-comedogenic"},
	"combination": {"lightweight", "balancing", "non-comedogenic"},
}

var budgetKeywords = map[string][]string{
	"low":    {"low", "budget", "affordable"},
	"medium": {"mid", "medium", "mid-range", "mid range", "moderate"},
	"high":   {"high", "premium", "expensive", "luxury"},
}

// chooseBestProduct picks the one highest-scoring product whose
// product_type contains the category. Deterministic: first candidate wins
// ties, so catalog order is stable.
func (a *Agent) chooseBestProduct(category string, prof Profile) (catalog.Product, bool) {
	var (
		best      catalog.Product
		bestScore = -1 << 30
		found     bool
	)
	for _, p := range a.catalog.Products() {
		if !strings.Contains(strings.ToLower(p.ProductType), category) {
			continue
		}
		if s := scoreProduct(p, prof); s > bestScore {
			bestScore = s
			best = p
			found = true
		}
	}
	return best, found
}

func scoreProduct(p catalog.Product, prof Profile) int {
	score := 2 // category matched by the caller's filter

	name := strings.ToLower(p.ProductName)
	ingredients := strings.ToLower(p.Ingredients)
	price := strings.ToLower(p.Price)

	matchesAny := func(haystackA, haystackB string, keywords []string) bool {
		for _, kw := range keywords {
			if strings.Contains(haystackA, kw) || strings.Contains(haystackB, kw) {
				return true
			}
		}
		return false
	}

	for _, concern := range prof.Concerns {
		for key, kws := range concernKeywords {
			if strings.Contains(concern, key) && matchesAny(ingredients, name, kws) {
				score += 2
			}
		}
	}

	for skinType, kws := range skinTypeKeywords {
		if strings.Contains(prof.SkinType, skinType) && matchesAny(ingredients, name, kws) {
			score++
		}
	}

	for budget, kws := range budgetKeywords {
		if strings.Contains(prof.BudgetPreference, budget) && matchesAny(price, price, kws) {
			score++
		}
	}

	for _, concern := range prof.Concerns {
		if strings.Contains(concern, "sensitivity") && strings.Contains(ingredients, "fragrance") {
			score -= 2
			break
		}
	}

	return score
}

func stepReason(stepName, category string, product catalog.Product, prof Profile) string {
	concerns := strings.Join(prof.Concerns, ", ")
	if concerns == "" {
		concerns = "general skin health"
	}
	return fmt.Sprintf(
		"%s was chosen as your %s because it fits the '%s' category and suits %s skin with concerns like %s.",
		product.ProductName, strings.ToLower(stepName), category, prof.SkinType, concerns,
	)
}

func routineBrief(prof Profile, steps []Step, routineType string) string {
	name := prof.Name
	if name == "" {
		name = "you"
	}
	skinType := prof.SkinType
	if skinType == "" {
		skinType = "your"
	}
	concerns := strings.Join(prof.Concerns, ", ")
	if concerns == "" {
		concerns = "overall skin health"
	}

	var am, pm, spot []string
	hasExfoliant := false
	for _, s := range steps {
		switch s.Time {
		case "AM":
			am = append(am, s.Step)
		case "PM":
			pm = append(pm, s.Step)
			if strings.Contains(s.Step, "Exfoliant") {
				hasExfoliant = true
			}
		case "SPOT":
			spot = append(spot, s.Step)
		}
	}

	parts := []string{fmt.Sprintf(
		"This routine is tailored for %s with %s skin and concerns around %s.",
		name, skinType, concerns,
	)}
	if len(am) > 0 {
		parts = append(parts, fmt.Sprintf("For the morning (AM), follow: %s.", strings.Join(am, " then ")))
	}
	if len(pm) > 0 {
		parts = append(parts, fmt.Sprintf("For the evening (PM), follow: %s.", strings.Join(pm, " then ")))
	}
	if len(spot) > 0 && routineType == TypeSpot {
		parts = append(parts, fmt.Sprintf("For spot reduction only, use: %s.", strings.Join(spot, " then ")))
	}
	if hasExfoliant {
		parts = append(parts, "Use the exfoliant only 2-3 times per week at night, not every day.")
	}

	return strings.Join(parts, " ")
}
