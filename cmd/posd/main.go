package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/funhour/posd/internal/alert"
	"github.com/funhour/posd/internal/backend"
	"github.com/funhour/posd/internal/config"
	"github.com/funhour/posd/internal/logging"
	"github.com/funhour/posd/internal/rental"
	"github.com/funhour/posd/internal/sale"
	"github.com/funhour/posd/internal/store"
	"github.com/funhour/posd/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	rentalStore, err := store.NewFileRentalStore(cfg.StateFile)
	if err != nil {
		logger.Error("failed to initialize rental store", "error", err)
		return
	}

	var player alert.Player = alert.NewExecPlayer(cfg.AlertCommand, cfg.AlertSound, logger)
	if cfg.AlertCommand == "" {
		logger.Info("no alert command configured, alerts are visual-only")
		player = alert.NopPlayer{}
	}

	presenter := alert.NewPresenter(player, logger)
	tracker := rental.NewTracker(rentalStore, presenter, logger)
	tracker.Initialize()

	client := backend.NewClient(cfg.BackendURL)
	composer := sale.NewComposer(client, tracker, cfg.Locale, logger)
	server := web.NewServer(composer, tracker, presenter, client, cfg.CashierEmail, cfg.CashierName, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := tracker.Run(ctx, cfg.TickInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("rental tracker stopped unexpectedly", "error", err)
		}
	}()

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
	}
}
