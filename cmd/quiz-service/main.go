package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quiz-launcher/internal/app"
	"quiz-launcher/internal/config"
	"quiz-launcher/internal/httpapi"
	"quiz-launcher/internal/logger"
	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	addr := flag.String("addr", cfg.Server.Addr, "HTTP listen address")
	flag.Parse()

	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := app.NewManager(cfg, store, quiz.DefaultConfig(), log, func(s session.Snapshot) {
		log.Debug("session changed", zap.String("state", string(s.State)), zap.Bool("in_flight", s.InFlight))
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	// The rating is requested once at startup; POST /session/rating retries.
	// POST /session/reset prepares the next quiz with the same rating.
	go func() {
		if err := manager.ResolveRating(ctx); err != nil {
			log.Warn("initial rating unavailable", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewRouter(manager, store, log.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("quiz-service listening", zap.String("addr", *addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
