// Package chat exposes the conversational turn endpoint.
package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skinbuddy/concierge/internal/service/orchestrator"
	"github.com/skinbuddy/concierge/pkg/utils"
)

// Runner processes one conversational turn.
type Runner interface {
	Run(ctx context.Context, userID, text string) orchestrator.Response
}

// Handler is the HTTP adapter over the orchestrator.
type Handler struct {
	orch Runner
}

// New creates the chat handler.
func New(orch Runner) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID  string `json:"userId"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp := h.orch.Run(r.Context(), payload.UserID, payload.Message)
	utils.RespondJSON(w, http.StatusOK, resp)
}
