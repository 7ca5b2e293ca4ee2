package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/verdant/verdant/editor-go/internal/asset"
	"github.com/verdant/verdant/editor-go/internal/config"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/engine"
	mw "github.com/verdant/verdant/editor-go/internal/middleware"
	"github.com/verdant/verdant/editor-go/internal/plan"
	"github.com/verdant/verdant/editor-go/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	logger := slog.Default()

	engineOpts := cfg.EngineOptions(logger)

	// Rooms start from the sample garden or an empty canvas carrying the
	// room's plan id. Clients replace it with plan.load.
	seed := func(planID string, e *engine.Engine) error {
		if planID == session.SamplePlanID {
			return e.LoadSamplePlan()
		}
		p := document.NewPlan(document.NewScene("Untitled", cfg.CanvasWidth, cfg.CanvasHeight), engineOpts.Units)
		p.ID = planID
		return e.LoadPlan(p)
	}

	hub := session.NewHub(session.Options{Engine: engineOpts, Seed: seed, Logger: logger})
	go hub.Run()

	planHandler := plan.NewHandler(plan.NewService(engineOpts), logger)
	assetHandler := asset.NewHandler(cfg.AssetDir, logger)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","rooms":%d}`, hub.RoomCount())
	}).Methods("GET")

	// Backdrop images
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/plans/validate", planHandler.Validate).Methods("POST", "OPTIONS")
	api.HandleFunc("/plans/autofix", planHandler.AutoFix).Methods("POST", "OPTIONS")
	api.HandleFunc("/plans/sample", planHandler.Sample).Methods("GET")
	api.HandleFunc("/constraints/limits", planHandler.Limits).Methods("GET")
	api.HandleFunc("/constraints/clamp", planHandler.Clamp).Methods("POST", "OPTIONS")

	// WebSocket endpoint
	r.HandleFunc("/ws/plan/{planId}", hub.Handler(cfg.OriginPatterns()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so websocket clients are released
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "units", cfg.Units, "accessibility", cfg.Accessibility)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
