package orchestrator

import (
	"regexp"
	"strings"
)

// Intent is the routing tag the classifier assigns to a turn.
type Intent string

// Intent tags, one handler each.
const (
	IntentConfirmation     Intent = "confirmation"
	IntentCalendar         Intent = "calendar"
	IntentProfile          Intent = "profile"
	IntentFollowupProducts Intent = "followup_products"
	IntentFollowupRoutine  Intent = "followup_routine"
	IntentFollowupEvidence Intent = "followup_evidence"
	IntentEvidence         Intent = "evidence"
	IntentProduct          Intent = "product"
	IntentRoutine          Intent = "routine"
	IntentMixed            Intent = "mixed_condition"
	IntentNone             Intent = "none"
)

// Keyword tables are config data. Changing them changes routing for
// ambiguous inputs, so the evaluation order in Classify is a contract.
var (
	calendarKeywords = []string{"remind", "schedule", "alarm"}

	// "at 9", "at 21:30" and similar time phrasings.
	atTimePattern = regexp.MustCompile(`\bat\s+\d`)

	classifierIngredients = []string{
		"niacinamide", "retinol", "tretinoin", "vitamin c", "salicylic",
		"bha", "aha", "glycolic", "lactic", "arbutin", "kojic",
		"tranexamic", "ceramide",
	}

	productKeywords = []string{"suggest", "recommend"}
)

// Classify maps raw text to an intent tag. The cascade is evaluated in a
// fixed priority order and the first matching rule wins: confirmation
// tokens, calendar phrasing, profile, follow-up references, ingredient
// plus product/routine wording (mixed), ingredient alone (evidence),
// product wording, routine wording, none. Pure function: same text, same
// tag, no side effects.
func Classify(text string) Intent {
	t := strings.ToLower(strings.TrimSpace(text))

	switch t {
	case "yes", "y", "no", "n":
		return IntentConfirmation
	}

	if containsAny(t, calendarKeywords) || atTimePattern.MatchString(t) {
		return IntentCalendar
	}

	if strings.Contains(t, "profile") {
		return IntentProfile
	}

	if strings.Contains(t, "those products") || strings.Contains(t, "them") {
		return IntentFollowupProducts
	}
	if strings.Contains(t, "that routine") {
		return IntentFollowupRoutine
	}
	if strings.Contains(t, "that evidence") {
		return IntentFollowupEvidence
	}

	hasIngredient := containsAny(t, classifierIngredients)
	wantsProductOrRoutine := containsAny(t, productKeywords) || strings.Contains(t, "routine")

	if hasIngredient && wantsProductOrRoutine {
		return IntentMixed
	}
	if hasIngredient {
		return IntentEvidence
	}
	if containsAny(t, productKeywords) {
		return IntentProduct
	}
	if strings.Contains(t, "routine") {
		return IntentRoutine
	}

	return IntentNone
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
