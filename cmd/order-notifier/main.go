package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	ordernotifier "github.com/magabrotheeeer/stream-checkout/internal/app/order-notifier"
	"github.com/magabrotheeeer/stream-checkout/internal/config"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
)

const envLocal = "local"

func main() {
	cfg := config.MustLoadNotifier()
	level := slog.LevelInfo
	if cfg.Env == envLocal {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	logger.Info("starting order-notifier", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := ordernotifier.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize order-notifier", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("order-notifier stopped with error", sl.Err(err))
		os.Exit(1)
	}
}
