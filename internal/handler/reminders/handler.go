// Package reminders exposes the stored reminders read endpoint.
package reminders

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skinbuddy/concierge/internal/model/reminder"
	"github.com/skinbuddy/concierge/pkg/utils"
)

// Lister reads the durable reminder set.
type Lister interface {
	ListReminders(ctx context.Context) ([]reminder.Reminder, error)
}

// Handler serves the reminder listing.
type Handler struct {
	store Lister
}

// New creates the reminders handler.
func New(store Lister) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the reminder endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/reminders", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.store.ListReminders(r.Context())
	if err != nil {
		log.Printf("[reminders] list failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "could not load reminders")
		return
	}
	if reminders == nil {
		reminders = []reminder.Reminder{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"reminders": reminders})
}
