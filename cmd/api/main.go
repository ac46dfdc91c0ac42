package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/skinbuddy/concierge/internal/catalog"
	"github.com/skinbuddy/concierge/internal/config"
	"github.com/skinbuddy/concierge/internal/handler"
	"github.com/skinbuddy/concierge/internal/service/ai"
	"github.com/skinbuddy/concierge/internal/service/calendar"
	"github.com/skinbuddy/concierge/internal/service/evidence"
	"github.com/skinbuddy/concierge/internal/service/intake"
	"github.com/skinbuddy/concierge/internal/service/orchestrator"
	"github.com/skinbuddy/concierge/internal/service/product"
	"github.com/skinbuddy/concierge/internal/service/routine"
	"github.com/skinbuddy/concierge/internal/service/safety"
	"github.com/skinbuddy/concierge/internal/service/session"
	"github.com/skinbuddy/concierge/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := store.Open(cfg.Store.DBPath)
	if err != nil {
		log.Fatalf("failed to open reminder store: %v", err)
	}
	defer db.Close()

	cat, err := catalog.Load(cfg.Store.CatalogPath, cfg.Store.EvidencePath)
	if err != nil {
		log.Fatalf("failed to load product catalog: %v", err)
	}

	// Initialize AI service
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing with keyword heuristics only")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, falling back to keyword heuristics")
	}
	var completer ai.Completer
	if aiService != nil {
		completer = aiService
	}

	// Remote calendar sync is optional; reminders stay local without it.
	var remote calendar.Client
	if cfg.Calendar.Enabled() {
		remote = calendar.NewHTTPClient(cfg.Calendar.BaseURL, cfg.Calendar.Token, cfg.Calendar.Timezone)
		log.Println("External calendar sync enabled")
	} else {
		log.Println("CALENDAR_API_URL not set, reminders will be tracked locally only")
	}

	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		log.Printf("warning: invalid timezone %q, using local time: %v", cfg.Calendar.Timezone, err)
		loc = time.Local
	}

	orch := orchestrator.New(
		session.NewStore(),
		safety.NewGate(cfg.Safety.ExtraTriggers...),
		intake.NewAgent(db, completer),
		evidence.NewAgent(cat, completer),
		product.NewAgent(cat, completer),
		routine.NewAgent(cat),
		calendar.NewAgent(db, remote, completer, loc),
	)

	router := handler.NewRouter(orch, db)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("SkinBuddy concierge listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
