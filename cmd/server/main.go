package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/blog-backend/internal/api"
	"github.com/dom/blog-backend/internal/config"
	"github.com/dom/blog-backend/internal/repository/postgres"
	"github.com/dom/blog-backend/internal/service"
	"github.com/dom/blog-backend/internal/websocket"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	configureLogger(log, cfg)

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewConnection(ctx, cfg, log)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	log.Info("database connected")

	if err := postgres.Migrate(ctx, db, log.WithField("component", "migrate")); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Initialize post feed hub
	hub := websocket.NewHub(log)
	go hub.Run()

	// Initialize services
	services := service.NewServices(repos, cfg, hub, log)

	// Initialize router
	router := api.NewRouter(services, hub, cfg, log)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "environment": cfg.Environment}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	hub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("server stopped")
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.IsDevelopment() {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}
