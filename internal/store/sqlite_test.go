package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/skinbuddy/concierge/internal/model/profile"
	"github.com/skinbuddy/concierge/internal/model/reminder"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "concierge.db"))
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndListReminders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	added, err := s.AddReminder(ctx, reminder.Reminder{
		Title:       "PM Skincare Routine",
		Description: "evening routine",
		ScheduledAt: time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC),
		Recurrence:  reminder.Daily,
		EventID:     "evt-1",
	})
	if err != nil {
		t.Fatalf("AddReminder err: %v", err)
	}
	if added.ID == "" || added.CreatedAt.IsZero() {
		t.Fatalf("id/createdAt not assigned: %+v", added)
	}

	all, err := s.ListReminders(ctx)
	if err != nil {
		t.Fatalf("ListReminders err: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(all))
	}
	got := all[0]
	if got.Title != "PM Skincare Routine" || got.Recurrence != reminder.Daily || got.EventID != "evt-1" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if !got.ScheduledAt.Equal(time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)) {
		t.Fatalf("scheduled time mismatch: %v", got.ScheduledAt)
	}
}

func TestFindAndDeleteByTitlesExactMatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"AM Skincare Routine", "PM Skincare Routine"} {
		if _, err := s.AddReminder(ctx, reminder.Reminder{Title: title, ScheduledAt: time.Now()}); err != nil {
			t.Fatalf("AddReminder err: %v", err)
		}
	}

	// Exact equality: case differences do not match.
	found, err := s.FindByTitles(ctx, []string{"pm skincare routine"})
	if err != nil {
		t.Fatalf("FindByTitles err: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("title matching must be case-sensitive, got %d rows", len(found))
	}

	removed, err := s.DeleteByTitles(ctx, []string{"PM Skincare Routine"})
	if err != nil {
		t.Fatalf("DeleteByTitles err: %v", err)
	}
	if len(removed) != 1 || removed[0].Title != "PM Skincare Routine" {
		t.Fatalf("unexpected removed set: %+v", removed)
	}

	rest, err := s.ListReminders(ctx)
	if err != nil {
		t.Fatalf("ListReminders err: %v", err)
	}
	if len(rest) != 1 || rest[0].Title != "AM Skincare Routine" {
		t.Fatalf("unexpected remaining reminders: %+v", rest)
	}
}

func TestDeleteByTitlesNoMatches(t *testing.T) {
	s := openTestStore(t)

	removed, err := s.DeleteByTitles(context.Background(), []string{"nothing here"})
	if err != nil {
		t.Fatalf("DeleteByTitles err: %v", err)
	}
	if len(removed) != 0 {
		t.Fatalf("expected no removals, got %d", len(removed))
	}
}

func TestProfileRoundTripAndMerge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	missing, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile err: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing profile, got %+v", missing)
	}

	if err := s.SaveProfile(ctx, "u1", profile.Profile{"Name?": "sam", "Age?": "30"}); err != nil {
		t.Fatalf("SaveProfile err: %v", err)
	}
	if err := s.UpdateProfile(ctx, "u1", profile.Profile{"Age?": "31", "Budget preference": "low"}); err != nil {
		t.Fatalf("UpdateProfile err: %v", err)
	}

	got, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile err: %v", err)
	}
	if got["Name?"] != "sam" || got["Age?"] != "31" || got["Budget preference"] != "low" {
		t.Fatalf("merge mismatch: %+v", got)
	}
}
