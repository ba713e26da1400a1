package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/codeshot-be/internal/api"
	"github.com/isdelr/codeshot-be/internal/auth"
	"github.com/isdelr/codeshot-be/internal/config"
	"github.com/isdelr/codeshot-be/internal/database"
	"github.com/isdelr/codeshot-be/internal/logger"
	"github.com/isdelr/codeshot-be/internal/monitoring"
	"github.com/isdelr/codeshot-be/internal/renderer"
	"github.com/isdelr/codeshot-be/internal/repository"
	"github.com/isdelr/codeshot-be/internal/services"
	"github.com/isdelr/codeshot-be/internal/storage"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "pretty")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// Set up database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up image output target
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.ImageStore).Msg("Failed to initialize image store")
	}

	tokens, err := auth.NewTokenService(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token service")
	}

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(repository.NewUserRepository(db), eventService)
	imageService := services.NewImageService(renderer.NewClient(cfg, store), cfg.RendererURL, eventService)

	// Set up and run the background retention janitor
	janitor, err := monitoring.NewJanitor(cfg, store, eventService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize janitor")
	}
	go janitor.Run()

	// Set up router
	router := api.NewRouter(cfg, api.Dependencies{
		DB:     db,
		Tokens: tokens,
		Users:  userService,
		Events: eventService,
		Images: imageService,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("database", db.Dialect).Str("store", cfg.ImageStore).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	janitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
