package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/skinbuddy/concierge/internal/model/profile"
	"github.com/skinbuddy/concierge/internal/model/reminder"
	"github.com/skinbuddy/concierge/internal/service/ai"
	"github.com/skinbuddy/concierge/pkg/jsonx"
)

// ReminderStore is the persistence capability the agent mutates during the
// execute phase.
type ReminderStore interface {
	ListReminders(ctx context.Context) ([]reminder.Reminder, error)
	AddReminder(ctx context.Context, r reminder.Reminder) (reminder.Reminder, error)
	FindByTitles(ctx context.Context, titles []string) ([]reminder.Reminder, error)
	DeleteByTitles(ctx context.Context, titles []string) ([]reminder.Reminder, error)
}

// Agent turns free-text reminder requests into plans and executes confirmed
// plans against the store and the external calendar. The plan phase never
// mutates anything.
type Agent struct {
	store  ReminderStore
	remote Client
	llm    ai.Completer
	loc    *time.Location
	now    func() time.Time
}

// NewAgent wires the scheduling agent. remote and llm may be nil: without a
// remote client events are tracked locally only, and without a model the
// agent falls back to keyword heuristics.
func NewAgent(store ReminderStore, remote Client, llm ai.Completer, loc *time.Location) *Agent {
	if loc == nil {
		loc = time.Local
	}
	return &Agent{
		store:  store,
		remote: remote,
		llm:    llm,
		loc:    loc,
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

// ---------- plan phase ----------

// Plan analyzes the request and returns a plan without mutating calendar or
// reminder state.
func (a *Agent) Plan(ctx context.Context, question string, userProfile profile.Profile) (Plan, error) {
	info := a.classifyRequest(ctx, question)

	switch info.Intent {
	case IntentList:
		// Listing is read-only, no confirmation needed.
		return Plan{Question: question, Intent: IntentList}, nil

	case IntentDelete, IntentUpdate:
		existing, err := a.store.ListReminders(ctx)
		if err != nil {
			return Plan{}, fmt.Errorf("list reminders for matching: %w", err)
		}

		var titles []string
		for _, r := range existing {
			if r.Title != "" {
				titles = append(titles, r.Title)
			}
		}

		if len(titles) == 0 {
			return Plan{
				Question: question,
				Intent:   info.Intent,
				Payload:  Payload{Explanation: "No reminders stored."},
			}, nil
		}

		match := a.matchTitles(ctx, question, titles, info.AllReminders)
		return Plan{
			Question:          question,
			Intent:            info.Intent,
			NeedsConfirmation: len(match.Matches) > 0,
			Payload: Payload{
				Matches:     match.Matches,
				Confidence:  match.Confidence,
				Explanation: match.Explanation,
			},
		}, nil
	}

	// Default: create.
	title := info.TitleHint
	if title == "" {
		title = "Skincare Reminder"
	}

	profileJSON, _ := json.Marshal(userProfile)
	return Plan{
		Question:          question,
		Intent:            IntentCreate,
		NeedsConfirmation: true,
		Payload: Payload{
			Title:       title,
			Description: fmt.Sprintf("%s | Profile: %s", question, profileJSON),
			ScheduledAt: a.resolveDateTime(info.DatetimeText),
			Recurrence:  reminder.ParseRecurrence(info.Recurrence),
		},
	}, nil
}

// ---------- execute phase ----------

// Execute consumes a plan. confirm=false cancels side-effecting intents
// without mutation. selectedTitles optionally narrows a delete to a subset
// of the proposed matches; titles outside the proposal are discarded.
func (a *Agent) Execute(ctx context.Context, plan Plan, confirm bool, selectedTitles []string) ExecuteResult {
	if !confirm && plan.Intent != IntentList {
		return ExecuteResult{
			Question: plan.Question,
			Intent:   plan.Intent,
			Status:   StatusCancelled,
			Details:  "User did not confirm.",
		}
	}

	switch plan.Intent {
	case IntentList:
		reminders, err := a.store.ListReminders(ctx)
		if err != nil {
			log.Printf("[calendar] list reminders failed: %v", err)
			return ExecuteResult{Question: plan.Question, Intent: IntentList, Status: StatusOK, Details: "could not load reminders"}
		}
		return ExecuteResult{Question: plan.Question, Intent: IntentList, Status: StatusOK, Reminders: reminders}

	case IntentCreate:
		return a.executeCreate(ctx, plan)

	case IntentDelete:
		return a.executeDelete(ctx, plan, selectedTitles)
	}

	// Reminder updates are a known gap; the caller gets an explicit status
	// instead of a silent create.
	return ExecuteResult{Question: plan.Question, Intent: plan.Intent, Status: StatusNotImplemented}
}

func (a *Agent) executeCreate(ctx context.Context, plan Plan) ExecuteResult {
	payload := plan.Payload

	scheduledAt := payload.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = a.now().Add(10 * time.Minute)
	}

	eventID := ""
	sync := SyncSkipped
	if a.remote != nil {
		id, err := a.remote.CreateEvent(ctx, payload.Title, payload.Description, scheduledAt, payload.Recurrence)
		if err != nil {
			log.Printf("[calendar] remote event creation failed: %v", err)
			sync = SyncFailed
		} else {
			eventID = id
			sync = SyncOK
		}
	}

	stored, err := a.store.AddReminder(ctx, reminder.Reminder{
		Title:       payload.Title,
		Description: payload.Description,
		ScheduledAt: scheduledAt,
		Recurrence:  payload.Recurrence,
		EventID:     eventID,
	})
	if err != nil {
		log.Printf("[calendar] persist reminder failed: %v", err)
		return ExecuteResult{
			Question:     plan.Question,
			Intent:       IntentCreate,
			Status:       StatusCancelled,
			Details:      "could not persist the reminder",
			ExternalSync: sync,
		}
	}

	return ExecuteResult{
		Question:     plan.Question,
		Intent:       IntentCreate,
		Status:       StatusCreated,
		Reminder:     &stored,
		ExternalSync: sync,
	}
}

func (a *Agent) executeDelete(ctx context.Context, plan Plan, selectedTitles []string) ExecuteResult {
	targets := plan.Payload.Matches
	if len(selectedTitles) > 0 {
		proposed := make(map[string]bool, len(plan.Payload.Matches))
		for _, title := range plan.Payload.Matches {
			proposed[title] = true
		}
		targets = nil
		for _, title := range selectedTitles {
			if proposed[title] {
				targets = append(targets, title)
			}
		}
	}

	if len(targets) == 0 {
		return ExecuteResult{Question: plan.Question, Intent: IntentDelete, Status: StatusNoMatches}
	}

	toDelete, err := a.store.FindByTitles(ctx, targets)
	if err != nil {
		log.Printf("[calendar] find reminders failed: %v", err)
		return ExecuteResult{Question: plan.Question, Intent: IntentDelete, Status: StatusNoMatches, Details: "could not load reminders"}
	}

	// Remote deletion is best effort: a calendar outage must not strand
	// local reminders. The outcome is still reported via ExternalSync.
	sync := SyncSkipped
	var deletedTitles []string
	for _, r := range toDelete {
		if r.EventID != "" && a.remote != nil {
			if err := a.remote.DeleteEvent(ctx, r.EventID); err != nil {
				log.Printf("[calendar] remote delete failed for %s: %v", r.EventID, err)
				sync = SyncFailed
			} else if sync != SyncFailed {
				sync = SyncOK
			}
		}
		deletedTitles = append(deletedTitles, r.Title)
	}

	if _, err := a.store.DeleteByTitles(ctx, deletedTitles); err != nil {
		log.Printf("[calendar] delete reminders failed: %v", err)
		return ExecuteResult{Question: plan.Question, Intent: IntentDelete, Status: StatusNoMatches, Details: "could not delete reminders"}
	}

	return ExecuteResult{
		Question:      plan.Question,
		Intent:        IntentDelete,
		Status:        StatusDeleted,
		DeletedTitles: deletedTitles,
		ExternalSync:  sync,
	}
}

// ---------- request classification ----------

type requestInfo struct {
	Intent       string `json:"intent"`
	TitleHint    string `json:"title_hint"`
	DatetimeText string `json:"datetime_text"`
	Recurrence   string `json:"recurrence"`
	AllReminders bool   `json:"all_reminders"`
}

const classifyPrompt = `You are a reminder intent classifier for a skincare and wellness assistant.

User question:
"""%s"""

Decide the intent and extract basic fields.

Respond with STRICT JSON ONLY in this format:
{
  "intent": "create" | "delete" | "list" | "update",
  "title_hint": "<short title for the reminder if applicable, e.g. 'AM Skincare Routine'>",
  "datetime_text": "<time phrase from the question or empty string>",
  "recurrence": "NONE" | "DAILY" | "WEEKLY" | "MONTHLY",
  "all_reminders": true | false
}`

func (a *Agent) classifyRequest(ctx context.Context, question string) requestInfo {
	fallback := heuristicClassify(question)
	if a.llm == nil {
		return fallback
	}

	raw, err := a.llm.Complete(ctx, fmt.Sprintf(classifyPrompt, question))
	if err != nil {
		log.Printf("[calendar] intent extraction failed, using heuristics: %v", err)
		return fallback
	}

	var info requestInfo
	if err := jsonx.Decode(raw, &info); err != nil {
		log.Printf("[calendar] intent extraction returned no JSON, using heuristics: %v", err)
		return fallback
	}

	switch info.Intent {
	case IntentCreate, IntentDelete, IntentList, IntentUpdate:
	default:
		info.Intent = IntentCreate
	}
	if info.Recurrence == "" {
		info.Recurrence = string(reminder.Daily)
	}
	return info
}

func heuristicClassify(question string) requestInfo {
	q := strings.ToLower(question)

	info := requestInfo{Intent: IntentCreate, Recurrence: string(reminder.Daily)}

	switch {
	case strings.Contains(q, "delete") || strings.Contains(q, "remove") || strings.Contains(q, "cancel"):
		info.Intent = IntentDelete
	case strings.Contains(q, "list") || strings.Contains(q, "show") || strings.Contains(q, "what reminders"):
		info.Intent = IntentList
	case strings.Contains(q, "update") || strings.Contains(q, "change") || strings.Contains(q, "edit"):
		info.Intent = IntentUpdate
	}

	if strings.Contains(q, "all reminder") || strings.Contains(q, "all my reminder") || strings.Contains(q, "everything") {
		info.AllReminders = true
	}

	switch {
	case strings.Contains(q, "week"):
		info.Recurrence = string(reminder.Weekly)
	case strings.Contains(q, "month"):
		info.Recurrence = string(reminder.Monthly)
	case strings.Contains(q, "once") || strings.Contains(q, "one time"):
		info.Recurrence = string(reminder.None)
	}

	switch {
	case strings.Contains(q, "pm routine") || strings.Contains(q, "night") || strings.Contains(q, "evening"):
		info.TitleHint = "PM Skincare Routine"
	case strings.Contains(q, "am routine") || strings.Contains(q, "morning"):
		info.TitleHint = "AM Skincare Routine"
	}

	info.DatetimeText = question
	return info
}

// ---------- title matching ----------

type matchResult struct {
	Matches     []string `json:"matches"`
	Confidence  string   `json:"confidence"`
	Explanation string   `json:"explanation"`
}

const matchPrompt = `You are a reminder-matching engine.

Your task is to decide which existing reminders match the user's deletion or update request.

IMPORTANT RULES:
- Match reminders ONLY based on the similarity of the reminder TITLE.
- Ignore date, time, recurrence, and description.
- Use semantic reasoning (e.g., "AM routine" matches "Morning Skincare Routine").
- If the user says "all reminders", then match ALL.
- Return STRICT JSON ONLY, no extra text.

USER REQUEST:
"%s"

EXISTING REMINDERS (titles only):
%s

Respond EXACTLY in this JSON format:
{
  "matches": ["title1", "title2"],
  "confidence": "high" | "medium" | "low",
  "explanation": "<short explanation of why these titles match>"
}`

// matchTitles resolves the deletion target from title text only. The result
// set is always a subset of the stored titles, whatever the model says.
func (a *Agent) matchTitles(ctx context.Context, question string, titles []string, allReminders bool) matchResult {
	if allReminders || mentionsAllReminders(question) {
		return matchResult{
			Matches:     append([]string(nil), titles...),
			Confidence:  "high",
			Explanation: "Request targets all reminders.",
		}
	}

	if a.llm == nil {
		return heuristicMatch(question, titles)
	}

	titlesJSON, _ := json.MarshalIndent(titles, "", "  ")
	raw, err := a.llm.Complete(ctx, fmt.Sprintf(matchPrompt, question, titlesJSON))
	if err != nil {
		log.Printf("[calendar] title matching failed, using heuristics: %v", err)
		return heuristicMatch(question, titles)
	}

	var result matchResult
	if err := jsonx.Decode(raw, &result); err != nil {
		log.Printf("[calendar] title matching returned no JSON, using heuristics: %v", err)
		return heuristicMatch(question, titles)
	}

	// Admit only titles that actually exist.
	known := make(map[string]bool, len(titles))
	for _, t := range titles {
		known[t] = true
	}
	var filtered []string
	for _, m := range result.Matches {
		if known[m] {
			filtered = append(filtered, m)
		}
	}
	result.Matches = filtered

	if result.Confidence == "" {
		result.Confidence = "low"
	}
	return result
}

func mentionsAllReminders(question string) bool {
	q := strings.ToLower(question)
	return strings.Contains(q, "all reminder") || strings.Contains(q, "all my reminder") || strings.Contains(q, "all of my reminder")
}

var matchStopwords = map[string]bool{
	"the": true, "my": true, "me": true, "to": true, "for": true,
	"and": true, "delete": true, "remove": true, "cancel": true,
	"reminder": true, "reminders": true, "please": true, "that": true,
}

// heuristicMatch falls back to token overlap between the request and each
// stored title when no model is available.
func heuristicMatch(question string, titles []string) matchResult {
	requestTokens := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(question)) {
		tok = strings.Trim(tok, ".,!?\"'")
		if len(tok) >= 2 && !matchStopwords[tok] {
			requestTokens[tok] = true
		}
	}

	var matches []string
	for _, title := range titles {
		for _, tok := range strings.Fields(strings.ToLower(title)) {
			tok = strings.Trim(tok, ".,!?\"'")
			if len(tok) >= 2 && !matchStopwords[tok] && requestTokens[tok] {
				matches = append(matches, title)
				break
			}
		}
	}

	confidence := "low"
	if len(matches) == 1 {
		confidence = "medium"
	}
	return matchResult{
		Matches:     matches,
		Confidence:  confidence,
		Explanation: "Keyword overlap between the request and stored titles.",
	}
}

// ---------- datetime resolution ----------

var clockPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// resolveDateTime parses a time phrase. A bare clock time resolves to its
// next occurrence today or tomorrow; anything unparsable defaults to ten
// minutes from now.
func (a *Agent) resolveDateTime(text string) time.Time {
	now := a.now()
	fallback := now.Add(10 * time.Minute)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fallback
	}

	for _, layout := range absoluteLayouts {
		if dt, err := time.ParseInLocation(layout, trimmed, a.loc); err == nil {
			return dt
		}
	}

	m := clockPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return fallback
	}

	hour := atoiSafe(m[1])
	minute := 0
	if m[2] != "" {
		minute = atoiSafe(m[2])
	}
	meridiem := strings.ToLower(m[3])

	// A bare small number with no am/pm or minutes is more likely a
	// quantity ("in 2 days") than a clock time.
	if meridiem == "" && m[2] == "" {
		return fallback
	}

	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return fallback
	}

	dt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, a.loc)
	if !dt.After(now) {
		dt = dt.Add(24 * time.Hour)
	}
	return dt
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
