package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classbook/internal/booking"
	"classbook/internal/config"
	"classbook/internal/db"
	"classbook/internal/gym"
	"classbook/internal/logger"
	"classbook/internal/server"

	"github.com/redis/go-redis/v9"
)

// @title Classbook API
// @version 1.0
// @description Gym class booking with per-class capacity control.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting classbook")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	checks := map[string]func(ctx context.Context) error{}

	var (
		classes gym.Repository
		ledger  booking.Ledger
	)

	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		logger.Info("Connecting to database...")
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		logger.Info("Database connected")

		if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations completed")

		classes = gym.NewRepository(database)
		ledger = booking.NewPostgresLedger(database)
		checks["database"] = database.PingContext
	default:
		logger.Warn("Using in-memory ledger, bookings are lost on restart")
		memory := gym.NewMemoryRepository()
		classes = memory
		ledger = booking.NewMemoryLedger(memory)
	}

	opts := []booking.Option{booking.WithLockTimeout(cfg.BookingLockTimeout)}

	var locker booking.Locker
	switch cfg.LockBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		logger.Info("Redis connected", "addr", cfg.RedisAddr)

		locker = booking.NewRedisLocker(client, cfg.RedisLockTTL)
		opts = append(opts, booking.WithHoldTimeout(cfg.LockHoldTimeout()))
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	default:
		locker = booking.NewLockRegistry()
	}

	bookings := booking.NewService(ledger, locker, opts...)
	gyms := gym.NewService(classes, ledger)

	srv := server.New(cfg, server.Deps{
		Gyms:     gyms,
		Bookings: bookings,
		Checks:   checks,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			"port", cfg.Port,
			"ledger", cfg.LedgerBackend,
			"lock", cfg.LockBackend,
		)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
