package safety

import (
	"strings"
	"sync"
)

// Verdict is the outcome of screening one inbound message.
type Verdict struct {
	Blocked bool
	Message string
}

// DeflectionMessage is the fixed reply for blocked input. The gate never
// explains which trigger fired.
const DeflectionMessage = "Please contact a medical professional. I can't answer this."

var defaultTriggers = []string{
	"bleeding", "severe", "emergency", "rash", "anaphylaxis", "hospital",
	"unconscious", "chest pain", "difficulty breathing", "suicidal",
	"self-harm", "overdose", "seizure", "allergic reaction", "infection",
	"open wound", "burn", "swelling", "vision loss", "loss of consciousness",
}

// Gate screens every inbound message for high-risk content before any other
// component sees it. Matching is case-insensitive substring containment and
// short-circuits on the first hit.
type Gate struct {
	triggers []string

	mu           sync.Mutex
	lastSafeText string
}

// NewGate builds a gate from the built-in trigger list plus any extras.
func NewGate(extraTriggers ...string) *Gate {
	triggers := make([]string, 0, len(defaultTriggers)+len(extraTriggers))
	triggers = append(triggers, defaultTriggers...)
	for _, t := range extraTriggers {
		if trimmed := strings.ToLower(strings.TrimSpace(t)); trimmed != "" {
			triggers = append(triggers, trimmed)
		}
	}
	return &Gate{triggers: triggers}
}

// Triggers returns a copy of the configured trigger phrases.
func (g *Gate) Triggers() []string {
	return append([]string(nil), g.triggers...)
}

// Check screens text. It is total over any string, including "": empty input
// is safe. Safe text is recorded as the last known safe input.
func (g *Gate) Check(text string) Verdict {
	lowered := strings.ToLower(text)
	for _, trigger := range g.triggers {
		if strings.Contains(lowered, trigger) {
			return Verdict{Blocked: true, Message: DeflectionMessage}
		}
	}

	g.mu.Lock()
	g.lastSafeText = text
	g.mu.Unlock()

	return Verdict{}
}

// LastSafeText returns the most recent input that passed the gate.
func (g *Gate) LastSafeText() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSafeText
}
