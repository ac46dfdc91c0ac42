// Package ws serves the live chat websocket. Each connection is one user;
// every text frame is a conversational turn and the reply is the
// orchestrator response as JSON.
package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/skinbuddy/concierge/internal/service/orchestrator"
)

// Runner processes one conversational turn.
type Runner interface {
	Run(ctx context.Context, userID, text string) orchestrator.Response
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades chat connections.
type Handler struct {
	orch Runner
}

// New creates the websocket handler.
func New(orch Runner) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{userID}", h.handleWS)
}

func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "userID is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user=%s: %v", userID, err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] user %s connected", userID)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error for user=%s: %v", userID, err)
			} else {
				log.Printf("[ws] user %s disconnected", userID)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp := h.orch.Run(r.Context(), userID, string(msg))

		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("[ws] write failed for user=%s: %v", userID, err)
			return
		}
	}
}
