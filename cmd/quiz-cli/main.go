package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"quiz-launcher/internal/app"
	"quiz-launcher/internal/cli"
	"quiz-launcher/internal/config"
	"quiz-launcher/internal/logger"
	"quiz-launcher/internal/quiz"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := quiz.DefaultConfig()
	category := flag.String("category", defaults.Category, "trivia category id (empty to choose interactively)")
	count := flag.Int("count", defaults.QuestionCount, "number of questions (0 to choose interactively)")
	questionType := flag.String("type", defaults.QuestionType, "question type id (empty to choose interactively)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

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

	initial := quiz.Config{
		Category:      *category,
		QuestionCount: *count,
		QuestionType:  *questionType,
	}
	controller, err := app.NewController(cfg, store, initial, log, nil)
	if err != nil {
		return err
	}
	defer controller.Close()

	log.Debug("starting quiz-cli", zap.Any("config", initial))
	return cli.Run(ctx, os.Stdin, os.Stdout, controller, cli.Config{Sessions: store})
}
