package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pairchat/auth"
	"pairchat/domain/chat"
	"pairchat/infrastructure/http/server"
	"pairchat/internal"
	"pairchat/observability"
	"pairchat/repositories"
	"pairchat/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups (sequences, database) run before main calls os.Exit.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	gin.SetMode(config.GinMode)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	store, err := repositories.NewStore(db)
	if err != nil {
		return exitRuntime, fmt.Errorf("store initialization failed: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Releasing id sequences failed", "err", err)
		}
	}()

	// 3. Repositories, identity provider & services
	clock := chat.SystemClock{}
	userRepository := repositories.NewUserRepository(store, log)
	conversationRepository := repositories.NewConversationRepository(store, log)
	messageRepository := repositories.NewMessageRepository(store, log)
	tokens := auth.NewTokenIssuer(config.JWTSecret, config.AccessTokenDuration, config.RefreshTokenDuration, clock)

	handler := server.NewHandler(log,
		services.NewAuthService(log, userRepository, tokens, clock),
		services.NewUserService(userRepository),
		services.NewChatService(log, userRepository, conversationRepository, messageRepository, clock),
	)

	health, err := observability.NewHealthReporter(db)
	if err != nil {
		return exitRuntime, err
	}

	// 4. HTTP server
	httpServer := &http.Server{
		Addr: config.Address(),
		Handler: server.NewRouter(log, handler, tokens, health, server.RouterConfig{
			AllowedOrigins: config.AllowedOrigins(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		_ = observability.NewMonitor(log, health, config.HealthLogInterval).Run(ctx)
	}()

	// Use an error channel to capture ListenAndServe issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 5. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return exitRuntime, err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown failed: %w", err)
	}
	log.Info("Program stopped cleanly")

	return exitOK, nil
}
