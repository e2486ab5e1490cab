package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "rental-backend/internal/api/http"
	"rental-backend/internal/clock"
	"rental-backend/internal/config"
	"rental-backend/internal/logger"
	"rental-backend/internal/repository/postgres"
	"rental-backend/internal/security"
	"rental-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "lock_timeout", cfg.LockTimeout())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxConns)
	}

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.Migrate {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	// Initialize Repositories
	store := postgres.NewStore(db, cfg.LockTimeout())

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenExpiry())

	// Initialize Services
	rentalSvc := service.NewRentalService(store, clock.System{})

	// Set up HTTP server
	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(rentalSvc, tokenManager, db),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal or a server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
