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

	"chat-hub/account"
	"chat-hub/auth"
	"chat-hub/hub"
	"chat-hub/infrastructure/ws"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/runtime/workers"
	"chat-hub/upload"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Returning instead of exiting keeps the
// defers (database close) running and the wiring testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & collaborators
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)

	tokens := auth.NewTokenManager(config.JWTSecret, config.TokenDuration)
	accounts := account.NewService(userRepository, tokens, log)

	uploads, err := upload.NewService(config.UploadDir, config.MaxUploadSize, log)
	if err != nil {
		return err
	}

	moderator, err := buildModerator(config, log)
	if err != nil {
		return err
	}

	// 4. The routing core
	registry := hub.NewRegistry()
	h := hub.New(log, registry, messageRepository, userRepository, accounts, moderator, hub.Options{
		PageSize:       config.HistoryPageSize,
		DirectoryLimit: config.DirectoryLimit,
		RateLimit:      config.RateLimitMax,
		RateWindow:     config.RateLimitWindow,
	})

	// 5. Context, signals & maintenance workers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewBadgerGCWorker(log, db, config.BadgerGCInterval),
		workers.NewRateLimitJanitor(log, h.Limiter(), config.RatePurgeInterval),
	)
	go sup.Run(ctx)

	// 6. HTTP surface: websocket endpoint, issuance API, uploads
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(h, log, config.ConnectionBufferSize))
	account.NewHandler(accounts, log).Mount(mux)
	mux.HandleFunc("POST /api/upload", uploads.Handler(accounts))
	mux.Handle("GET "+upload.URLPrefix, http.StripPrefix(upload.URLPrefix,
		http.FileServer(http.Dir(uploads.Dir()))))

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.HTTPShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	log.Info("Program stopped cleanly")

	return nil
}

// buildModerator loads the censored word list when one is configured.
func buildModerator(config Config, log *slog.Logger) (hub.Moderator, error) {
	if config.CensoredWordsPath == "" {
		return nil, nil
	}
	replacement, err := characterRune(config.CensoredChar)
	if err != nil {
		return nil, err
	}
	words, err := moderation.LoadWords(config.CensoredWordsPath)
	if err != nil {
		return nil, fmt.Errorf("censored words: %w", err)
	}
	m, err := moderation.NewModerator(words, replacement, log)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func characterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSORED_CHARACTER must be a single character, got %q", str)
	}
	return r[0], nil
}
