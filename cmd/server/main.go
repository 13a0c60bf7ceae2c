package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/billing"
	"github.com/tallyhq/tally/internal/clock"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/notify"
	"github.com/tallyhq/tally/internal/server"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage/sqlite"
	"github.com/tallyhq/tally/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	clk := clock.System{}
	engine := billing.NewEngine(clk)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration, clk)
	authenticator := auth.NewPasswordAuthenticator(store)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken)
		if err != nil {
			slog.Error("Failed to initialize telegram notifier", "error", err)
			os.Exit(1)
		}
		notifier = tg
		slog.Info("Telegram notifier enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := notify.NewReminderWorker(store, engine, notifier)
	if err := worker.Start(ctx); err != nil {
		slog.Error("Failed to start reminder worker", "error", err)
		os.Exit(1)
	}
	defer worker.Stop()

	srv := server.New(
		service.NewAuthService(authenticator, jwtManager, store),
		service.NewSubscriptionService(store, engine, notifier),
		service.NewTransactionService(store),
		service.NewBalanceService(store, engine, cfg.BaseCurrency),
		jwtManager,
	)

	// h2c allows HTTP/2 without TLS for clients behind a terminating proxy.
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h2c.NewHandler(srv.Handler(), &http2.Server{}),
	}

	go func() {
		slog.Info("Server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
