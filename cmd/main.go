// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmcruz/eventhub/internal/config"
	"github.com/dmcruz/eventhub/internal/database"
	"github.com/dmcruz/eventhub/internal/handler"
	"github.com/dmcruz/eventhub/internal/promotion"
	"github.com/dmcruz/eventhub/internal/repository"
	"github.com/dmcruz/eventhub/internal/service"
)

func main() {
	ctx := context.Background()
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	log.Info().Msg("connected to PostgreSQL")

	// ── 2. Wire up layers ────────────────────────────────────────────────
	engine := promotion.NewEngine(log)
	eventRepo := repository.NewEventRepository(pool, engine, log)
	participationRepo := repository.NewParticipationRepository(pool, engine, log)
	notificationRepo := repository.NewNotificationRepository(pool)

	eventSvc := service.NewEventService(eventRepo)
	participationSvc := service.NewParticipationService(eventRepo, participationRepo)
	notificationSvc := service.NewNotificationService(notificationRepo)

	router := handler.NewRouter(
		handler.NewEventHandler(eventSvc),
		handler.NewParticipationHandler(participationSvc),
		handler.NewNotificationHandler(notificationSvc),
		cfg.JWTSecret,
		log,
	)

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
