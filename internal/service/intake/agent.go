// Package intake manages user profiles: create, fetch and update, with
// answers extracted from free text.
package intake

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/skinbuddy/concierge/internal/model/profile"
	"github.com/skinbuddy/concierge/internal/service/ai"
	"github.com/skinbuddy/concierge/pkg/jsonx"
)

// Profile intents.
const (
	IntentCreate  = "create"
	IntentFetch   = "fetch"
	IntentUpdate  = "update"
	IntentUnknown = "unknown"
)

// ProfileStore persists intake answers keyed by user.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (profile.Profile, error)
	SaveProfile(ctx context.Context, userID string, p profile.Profile) error
	UpdateProfile(ctx context.Context, userID string, fields profile.Profile) error
}

// Result is the structured profile answer.
type Result struct {
	Intent  string          `json:"intent"`
	Message string          `json:"message"`
	Profile profile.Profile `json:"profile,omitempty"`
}

// Agent handles profile turns. llm may be nil; answer extraction then
// falls back to keyword scanning.
type Agent struct {
	store ProfileStore
	llm   ai.Completer
}

// NewAgent wires the intake agent.
func NewAgent(store ProfileStore, llm ai.Completer) *Agent {
	return &Agent{store: store, llm: llm}
}

// ClassifyIntent maps a profile query to create, fetch, update or unknown.
// Bare "profile" mentions default to fetch.
func ClassifyIntent(query string) string {
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "create", "new profile", "sign up"):
		return IntentCreate
	case containsAny(q, "fetch", "show", "view", "display"):
		return IntentFetch
	case containsAny(q, "update", "edit", "change"):
		return IntentUpdate
	case strings.Contains(q, "profile"):
		return IntentFetch
	default:
		return IntentUnknown
	}
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// Run resolves one profile turn. Store failures are the only returned
// errors; missing profiles are normal results.
func (a *Agent) Run(ctx context.Context, userID, query string) (Result, error) {
	intent := ClassifyIntent(query)

	current, err := a.store.GetProfile(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load profile: %w", err)
	}

	switch intent {
	case IntentCreate:
		return a.create(ctx, userID, query, current)
	case IntentFetch:
		return fetch(userID, current), nil
	case IntentUpdate:
		return a.update(ctx, userID, query, current)
	default:
		return Result{
			Intent:  IntentUnknown,
			Message: "Sorry, I couldn't understand your request. Please specify if you want to create, fetch, or update your profile.",
		}, nil
	}
}

func (a *Agent) create(ctx context.Context, userID, query string, current profile.Profile) (Result, error) {
	if current != nil {
		return Result{
			Intent:  IntentCreate,
			Message: fmt.Sprintf("Profile already exists for user %s.", userID),
			Profile: current,
		}, nil
	}

	fresh := profile.Profile{}
	for _, q := range profile.Questions() {
		fresh[q] = ""
	}
	for q, answer := range a.extractAnswers(ctx, query) {
		fresh[q] = answer
	}

	if err := a.store.SaveProfile(ctx, userID, fresh); err != nil {
		return Result{}, fmt.Errorf("save profile: %w", err)
	}

	unanswered := missingQuestions(fresh)
	msg := fmt.Sprintf("Profile created for user %s.", userID)
	if len(unanswered) > 0 {
		msg += " Tell me the rest whenever you like: " + strings.Join(unanswered, " | ")
	}
	return Result{Intent: IntentCreate, Message: msg, Profile: fresh}, nil
}

func fetch(userID string, current profile.Profile) Result {
	if current == nil {
		return Result{
			Intent:  IntentFetch,
			Message: fmt.Sprintf("No profile found for user %s.", userID),
		}
	}

	keys := make([]string, 0, len(current))
	for k := range current {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Profile for %s:", userID)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", k, current[k])
	}
	return Result{Intent: IntentFetch, Message: b.String(), Profile: current}
}

func (a *Agent) update(ctx context.Context, userID, query string, current profile.Profile) (Result, error) {
	if current == nil {
		return Result{
			Intent:  IntentUpdate,
			Message: fmt.Sprintf("No profile found for user %s.", userID),
		}, nil
	}

	updates := a.extractAnswers(ctx, query)
	if len(updates) == 0 {
		return Result{
			Intent:  IntentUpdate,
			Message: "Tell me what to change, e.g. \"update my skin type to oily\".",
			Profile: current,
		}, nil
	}

	if err := a.store.UpdateProfile(ctx, userID, updates); err != nil {
		return Result{}, fmt.Errorf("update profile: %w", err)
	}

	merged := current.Clone()
	for k, v := range updates {
		merged[k] = v
	}
	return Result{
		Intent:  IntentUpdate,
		Message: fmt.Sprintf("Profile updated for user %s.", userID),
		Profile: merged,
	}, nil
}

func missingQuestions(p profile.Profile) []string {
	var missing []string
	for _, q := range profile.Questions() {
		if p[q] == "" {
			missing = append(missing, q)
		}
	}
	return missing
}

const extractPrompt = `You are a profile-intake extraction engine. You MUST respond with STRICT JSON ONLY. NO text before or after the JSON.

The profile fields are exactly these keys:
%s

User message:
%s

Return the answers the message provides, keyed by the EXACT field strings above. Omit fields the message does not answer.

JSON Schema:
{
  "answers": { "<field>": "<value>" }
}`

// extractAnswers pulls profile answers out of free text, keyed by the
// canonical intake questions. Unknown keys from the model are dropped.
func (a *Agent) extractAnswers(ctx context.Context, query string) profile.Profile {
	if a.llm != nil {
		raw, err := a.llm.Complete(ctx, fmt.Sprintf(extractPrompt, strings.Join(profile.Questions(), "\n"), query))
		if err != nil {
			log.Printf("[intake] answer extraction failed, using keyword fallback: %v", err)
		} else {
			var payload struct {
				Answers map[string]string `json:"answers"`
			}
			if err := jsonx.Decode(raw, &payload); err != nil {
				log.Printf("[intake] answer extraction returned no JSON, using keyword fallback: %v", err)
			} else if cleaned := keepKnownQuestions(payload.Answers); len(cleaned) > 0 {
				return cleaned
			}
		}
	}
	return heuristicAnswers(query)
}

func keepKnownQuestions(answers map[string]string) profile.Profile {
	known := map[string]bool{}
	for _, q := range profile.Questions() {
		known[q] = true
	}
	cleaned := profile.Profile{}
	for k, v := range answers {
		if known[k] && strings.TrimSpace(v) != "" {
			cleaned[k] = strings.TrimSpace(v)
		}
	}
	return cleaned
}

// fieldPatterns maps a spoken keyword to the canonical question it
// answers. Ordered so "skin type" wins over "skin concerns" phrasing.
var fieldPatterns = []struct {
	keyword  string
	question string
}{
	{"skin type", "Skin type (e.g., oily, dry, combination)"},
	{"concern", "Skin concerns (e.g., acne, sensitivity)"},
	{"routine", "Current Skincare routine"},
	{"budget", "Budget preference"},
	{"name", "Name?"},
	{"age", "Age?"},
}

var valuePattern = regexp.MustCompile(`(?:\bis\b|\bto\b|:)\s*([^,.;]+)`)

// heuristicAnswers scans for "<keyword> is/to/: <value>" phrases.
func heuristicAnswers(query string) profile.Profile {
	lowered := strings.ToLower(query)
	answers := profile.Profile{}
	for _, fp := range fieldPatterns {
		idx := strings.Index(lowered, fp.keyword)
		if idx < 0 {
			continue
		}
		rest := query[idx+len(fp.keyword):]
		m := valuePattern.FindStringSubmatch(strings.ToLower(rest))
		if m == nil {
			continue
		}
		if value := strings.TrimSpace(m[1]); value != "" {
			answers[fp.question] = value
		}
	}
	return answers
}
