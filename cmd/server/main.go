package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Tyrowin/chatrelay/internal/chat"
	"github.com/Tyrowin/chatrelay/internal/moderation"
	"github.com/Tyrowin/chatrelay/internal/server"
)

// Exit codes to provide meaningful status to the operating system or a
// service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatrelay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components and manages the server lifecycle. Keeping
// the logic out of main ensures deferred cleanup executes before the process
// exits and keeps the wiring testable.
func run() (int, error) {
	// A missing .env file is fine; the environment may be set elsewhere.
	_ = godotenv.Load()

	cfg, err := server.NewConfigFromEnv()
	if err != nil {
		return exitConfig, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	mod, err := moderation.New(cfg.Words(), '*')
	if err != nil {
		return exitConfig, fmt.Errorf("build moderator: %w", err)
	}

	registry := chat.NewRegistry()
	history := chat.NewHistory()

	hub := server.NewHub(logger)
	router := chat.NewRouter(registry, history, hub, mod, logger)
	controller := chat.NewController(registry, router, hub, logger)
	hub.SetCore(controller)

	go hub.Run()

	handler := server.NewHandler(hub, cfg, logger)
	httpServer := server.CreateServer(cfg.Port, server.Routes(handler))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.StartServer(httpServer)
	}()

	logger.Info("chat relay listening", "port", cfg.Port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitRuntime, err
		}
	case sig := <-stop:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	if err := server.ShutdownServer(httpServer, 10*time.Second, logger); err != nil {
		return exitRuntime, err
	}
	if err := hub.Shutdown(5 * time.Second); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
