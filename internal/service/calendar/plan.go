package calendar

import (
	"time"

	"github.com/skinbuddy/concierge/internal/model/reminder"
)

// Reminder intents a plan can carry.
const (
	IntentCreate = "create"
	IntentDelete = "delete"
	IntentList   = "list"
	IntentUpdate = "update"
)

// Execution statuses surfaced to the orchestrator.
const (
	StatusOK             = "ok"
	StatusCreated        = "created"
	StatusDeleted        = "deleted"
	StatusCancelled      = "cancelled"
	StatusNoMatches      = "no_matches"
	StatusNotImplemented = "not_implemented"
)

// External sync outcomes. Remote calendar failures are best-effort by
// policy, but the outcome is always reported so it stays observable.
const (
	SyncOK      = "ok"
	SyncFailed  = "failed"
	SyncSkipped = "skipped"
)

// Plan is a proposed, not-yet-executed reminder action. It carries enough
// payload for Execute to run without consulting the classifier again, and is
// immutable once built.
type Plan struct {
	Question          string  `json:"question"`
	Intent            string  `json:"intent"`
	NeedsConfirmation bool    `json:"needs_confirmation"`
	Payload           Payload `json:"payload"`
}

// Payload holds the intent-specific data of a plan. Create plans fill the
// scheduling fields; delete plans fill the match fields.
type Payload struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	ScheduledAt time.Time           `json:"scheduledAt,omitempty"`
	Recurrence  reminder.Recurrence `json:"recurrence,omitempty"`

	Matches     []string `json:"matches,omitempty"`
	Confidence  string   `json:"confidence,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// ExecuteResult reports the outcome of running a plan.
type ExecuteResult struct {
	Question      string              `json:"question"`
	Intent        string              `json:"intent"`
	Status        string              `json:"status"`
	Details       string              `json:"details,omitempty"`
	Reminder      *reminder.Reminder  `json:"reminder,omitempty"`
	Reminders     []reminder.Reminder `json:"reminders,omitempty"`
	DeletedTitles []string            `json:"deletedTitles,omitempty"`
	ExternalSync  string              `json:"externalSyncStatus,omitempty"`
}
