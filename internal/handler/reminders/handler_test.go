package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skinbuddy/concierge/internal/model/reminder"
)

type fakeLister struct {
	reminders []reminder.Reminder
	err       error
}

func (f *fakeLister) ListReminders(ctx context.Context) ([]reminder.Reminder, error) {
	return f.reminders, f.err
}

func serve(store Lister) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	New(store).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reminders", nil))
	return rec
}

func TestHandleList(t *testing.T) {
	rec := serve(&fakeLister{reminders: []reminder.Reminder{
		{ID: "rem_1", Title: "PM Skincare Routine", ScheduledAt: time.Now(), Recurrence: reminder.Daily},
	}})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Reminders []reminder.Reminder `json:"reminders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Reminders) != 1 || body.Reminders[0].Title != "PM Skincare Routine" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHandleListEmpty(t *testing.T) {
	rec := serve(&fakeLister{})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(body["reminders"]) != "[]" {
		t.Fatalf("expected empty array, got %s", body["reminders"])
	}
}

func TestHandleListStoreError(t *testing.T) {
	rec := serve(&fakeLister{err: errors.New("disk gone")})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
