package routine

import (
	"strings"
	"testing"

	"github.com/skinbuddy/concierge/internal/catalog"
	"github.com/skinbuddy/concierge/internal/model/profile"
)

type fakeCatalog struct {
	products []catalog.Product
}

func (f *fakeCatalog) Products() []catalog.Product { return f.products }

func testCatalog() *fakeCatalog {
	return &fakeCatalog{products: []catalog.Product{
		{ProductName: "Foam Cleanser", ProductType: "cleanser", Ingredients: "glycerin", Price: "low"},
		{ProductName: "Scented Foaming Cleanser", ProductType: "cleanser", Ingredients: "fragrance", Price: "premium"},
		{ProductName: "Zinc Serum", ProductType: "serum", Ingredients: "zinc pca", Price: "mid-range"},
		{ProductName: "Retinol Serum", ProductType: "serum", Ingredients: "retinol, squalane", Price: "mid-range"},
		{ProductName: "Rich Moisturizer", ProductType: "moisturizer", Ingredients: "ceramide, shea", Price: "mid-range"},
		{ProductName: "Daily Sunscreen", ProductType: "sunscreen", Ingredients: "zinc oxide", Price: "low"},
		{ProductName: "Hydrating Toner", ProductType: "toner", Ingredients: "hyaluronic acid", Price: "low"},
		{ProductName: "Repair Essence", ProductType: "essence", Ingredients: "snail mucin", Price: "mid-range"},
		{ProductName: "BHA Exfoliant", ProductType: "exfoliant", Ingredients: "salicylic acid", Price: "mid-range"},
		{ProductName: "Dark Spot Corrector", ProductType: "spot treatment", Ingredients: "tranexamic acid", Price: "premium"},
	}}
}

func dryAgingProfile() profile.Profile {
	return profile.Profile{
		"Name?": "jahnavi",
		"Age?":  "32",
		"Skin type (e.g., oily, dry, combination)": "dry",
		"Skin concerns (e.g., acne, sensitivity)":  "aging",
		"Current Skincare routine":                 "no skincare",
		"Budget preference":                        "medium range",
	}
}

func TestClassifyType(t *testing.T) {
	cases := []struct {
		question string
		want     string
	}{
		{"build me a morning routine", TypeAM},
		{"what should my pm routine look like", TypePM},
		{"something for my dark spots", TypeSpot},
		{"based on my profile create a routine", TypeBoth},
		{"I need a skincare routine", TypeBoth},
	}
	for _, tc := range cases {
		if got := ClassifyType(tc.question); got != tc.want {
			t.Fatalf("ClassifyType(%q) = %q, want %q", tc.question, got, tc.want)
		}
	}
}

func TestRunAMRoutineForDryAgingSkin(t *testing.T) {
	agent := NewAgent(testCatalog())

	res := agent.Run("build me a morning routine", dryAgingProfile())

	if res.UserProfile.SkinType != "dry" {
		t.Fatalf("unexpected normalized skin type: %q", res.UserProfile.SkinType)
	}
	// dry + aging adds toner and essence ahead of serum
	wantOrder := []string{"Cleanser", "Toner", "Essence", "Serum", "Moisturizer", "Sunscreen"}
	if len(res.Steps) != len(wantOrder) {
		t.Fatalf("expected %d steps, got %d: %+v", len(wantOrder), len(res.Steps), res.Steps)
	}
	for i, want := range wantOrder {
		if res.Steps[i].Step != want {
			t.Fatalf("step %d = %q, want %q", i, res.Steps[i].Step, want)
		}
		if res.Steps[i].Time != "AM" {
			t.Fatalf("step %d has time %q, want AM", i, res.Steps[i].Time)
		}
	}
	// aging concern should favor the retinol serum
	if res.Steps[3].ProductName != "Retinol Serum" {
		t.Fatalf("expected Retinol Serum for aging concern, got %q", res.Steps[3].ProductName)
	}
	if !strings.Contains(res.RoutineBrief, "jahnavi") || !strings.Contains(res.RoutineBrief, "morning (AM)") {
		t.Fatalf("unexpected brief: %q", res.RoutineBrief)
	}
}

func TestRunSpotRoutine(t *testing.T) {
	agent := NewAgent(testCatalog())

	res := agent.Run("help with spot reduction", dryAgingProfile())

	if len(res.Steps) != 1 || res.Steps[0].Time != "SPOT" {
		t.Fatalf("expected single SPOT step, got %+v", res.Steps)
	}
	if res.Steps[0].ProductName != "Dark Spot Corrector" {
		t.Fatalf("unexpected spot product: %q", res.Steps[0].ProductName)
	}
}

func TestFragrancePenaltyForSensitivity(t *testing.T) {
	agent := NewAgent(testCatalog())

	prof := dryAgingProfile()
	prof["Skin concerns (e.g., acne, sensitivity)"] = "sensitivity"

	res := agent.Run("night routine please", prof)

	for _, step := range res.Steps {
		if step.Step == "Cleanser" && step.ProductName == "Scented Foaming Cleanser" {
			t.Fatalf("fragranced cleanser chosen despite sensitivity concern")
		}
	}
}

func TestPMRoutineIncludesExfoliantNote(t *testing.T) {
	agent := NewAgent(testCatalog())

	res := agent.Run("evening routine", dryAgingProfile())

	hasExfoliant := false
	for _, step := range res.Steps {
		if strings.Contains(step.Step, "Exfoliant") {
			hasExfoliant = true
		}
	}
	if !hasExfoliant {
		t.Fatalf("expected an exfoliant step in PM routine: %+v", res.Steps)
	}
	if !strings.Contains(res.RoutineBrief, "2-3 times per week") {
		t.Fatalf("expected exfoliant caution in brief: %q", res.RoutineBrief)
	}
}

func TestRunSkipsStepsWithoutProducts(t *testing.T) {
	agent := NewAgent(&fakeCatalog{products: []catalog.Product{
		{ProductName: "Foam Cleanser", ProductType: "cleanser"},
	}})

	res := agent.Run("morning routine", profile.Profile{})

	if len(res.Steps) != 1 || res.Steps[0].Step != "Cleanser" {
		t.Fatalf("expected only the cleanser step, got %+v", res.Steps)
	}
}

func TestConcernSplitting(t *testing.T) {
	prof := normalizeProfile(profile.Profile{
		"Skin concerns (e.g., acne, sensitivity)": "Acne, hyperpigmentation and dryness",
	})
	want := []string{"acne", "hyperpigmentation", "dryness"}
	if len(prof.Concerns) != len(want) {
		t.Fatalf("unexpected concerns: %v", prof.Concerns)
	}
	for i, c := range want {
		if prof.Concerns[i] != c {
			t.Fatalf("concern %d = %q, want %q", i, prof.Concerns[i], c)
		}
	}
}
