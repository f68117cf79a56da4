// Package main is the entry point for the bingo platform server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bingo-platform/internal/config"
	"bingo-platform/internal/handler"
	"bingo-platform/internal/pkg/db"
	"bingo-platform/internal/pkg/lock"
	"bingo-platform/internal/repository"
	"bingo-platform/internal/service"
	"bingo-platform/internal/ws"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	walletRepo := repository.NewWalletRepository(dbPool.Pool)
	gameRepo := repository.NewGameRepository(dbPool.Pool)
	ticketRepo := repository.NewTicketRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)

	// Initialize the event hub and the shared lock table
	hub := ws.NewHub()
	locks := lock.New()

	// Initialize services
	authService := service.NewAuthService(userRepo, walletRepo, cfg.Auth.Secret, cfg.Auth.TokenTTL)
	walletService := service.NewWalletService(walletRepo, txRepo, locks)
	gameService := service.NewGameService(
		gameRepo, ticketRepo, walletRepo, userRepo, txRepo,
		hub, locks, service.PolicyFromConfig(&cfg.Game),
	)

	// Start the housekeeping sweep
	housekeeper := service.NewHousekeeper(
		gameService,
		cfg.Housekeeping.Interval,
		cfg.Housekeeping.OpenTTL,
		cfg.Housekeeping.StartGrace,
	)
	go housekeeper.Run(ctx)

	// Wire the HTTP surface
	router := handler.NewRouter(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewGameHandler(gameService),
		handler.NewWalletHandler(walletService),
		handler.NewWSHandler(hub, gameService),
	)

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server is starting...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown: stop the sweep, then drain connections.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			hashed_password VARCHAR(255) NOT NULL,
			alias VARCHAR(255) NOT NULL DEFAULT '',
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create wallets table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wallets (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			balance NUMERIC(20, 4) NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: wallets table created")

	// Migration 3: Create games table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id UUID PRIMARY KEY,
			creator_id UUID NOT NULL REFERENCES users(id),
			price NUMERIC(20, 4) NOT NULL,
			min_tickets INT NOT NULL,
			status VARCHAR(20) NOT NULL,
			sold_tickets INT NOT NULL DEFAULT 0,
			commission_percent NUMERIC(5, 2) NOT NULL,
			autostart_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			autostart_threshold INT NOT NULL DEFAULT 0,
			autostart_delay_minutes INT NOT NULL DEFAULT 0,
			drawn_numbers JSONB NOT NULL DEFAULT '[]'::jsonb,
			paid_diagonal BOOLEAN NOT NULL DEFAULT FALSE,
			paid_line BOOLEAN NOT NULL DEFAULT FALSE,
			paid_bingo BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			reached_min_at TIMESTAMPTZ,
			reached_threshold_at TIMESTAMPTZ,
			last_drawn_at TIMESTAMPTZ,
			finished_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_games_status ON games(status, created_at);
		CREATE INDEX IF NOT EXISTS idx_games_creator ON games(creator_id, status);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: games table created")

	// Migration 4: Create tickets table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tickets (
			id UUID PRIMARY KEY,
			game_id UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id),
			numbers JSONB NOT NULL,
			payout NUMERIC(20, 4) NOT NULL DEFAULT 0,
			wins JSONB NOT NULL DEFAULT '[]'::jsonb,
			refunded BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE INDEX IF NOT EXISTS idx_tickets_game ON tickets(game_id);
		CREATE INDEX IF NOT EXISTS idx_tickets_user ON tickets(user_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: tickets table created")

	// Migration 5: Create transactions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type VARCHAR(50) NOT NULL,
			amount NUMERIC(20, 4) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			reference_id VARCHAR(64) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(user_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: transactions table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}