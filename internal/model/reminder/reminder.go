package reminder

import "time"

// Recurrence mirrors the RRULE frequencies the calendar integration accepts.
type Recurrence string

const (
	None    Recurrence = "NONE"
	Daily   Recurrence = "DAILY"
	Weekly  Recurrence = "WEEKLY"
	Monthly Recurrence = "MONTHLY"
)

// ParseRecurrence normalizes free-form recurrence text, defaulting to None.
func ParseRecurrence(raw string) Recurrence {
	switch Recurrence(raw) {
	case Daily, Weekly, Monthly, None:
		return Recurrence(raw)
	default:
		return None
	}
}

// Reminder is the durable entity behind scheduled skincare nudges. It
// outlives the in-memory session that created it.
type Reminder struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Recurrence  Recurrence `json:"recurrence"`
	EventID     string     `json:"eventId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
