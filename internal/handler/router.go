package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skinbuddy/concierge/internal/handler/chat"
	"github.com/skinbuddy/concierge/internal/handler/reminders"
	"github.com/skinbuddy/concierge/internal/handler/ws"
	middlewarePkg "github.com/skinbuddy/concierge/internal/middleware"
	"github.com/skinbuddy/concierge/internal/service/orchestrator"
	"github.com/skinbuddy/concierge/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(orch *orchestrator.Orchestrator, reminderStore reminders.Lister) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(orch)
	remindersHandler := reminders.New(reminderStore)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		remindersHandler.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	// Live chat runs at the root, one connection per user.
	ws.New(orch).RegisterRoutes(r)

	return r
}
