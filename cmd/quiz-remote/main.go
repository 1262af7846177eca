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

	"quiz-launcher/internal/cli"
	"quiz-launcher/internal/session"
	"quiz-launcher/internal/userclient"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "quiz service base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP timeout")
	ratingTimeout := flag.Duration("rating-timeout", 90*time.Second, "how long to wait for the scoring service")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The client timeout only bounds the slow rating call; every other request
	// carries the shorter per-request deadline.
	client := userclient.NewHTTPClient(*server, &http.Client{Timeout: *ratingTimeout})
	remote := userclient.NewRemote(client, userclient.RemoteConfig{
		RequestTimeout: *timeout,
		Logger:         zap.NewNop(),
	})

	// A service that already handed off its quiz is asked for a fresh one.
	if remote.Snapshot().State == session.StateHandedOff {
		if err := remote.Reset(session.ConfigUpdate{}); err != nil && !errors.Is(err, session.ErrQuizNotStarted) {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}

	err := cli.Run(ctx, os.Stdin, os.Stdout, remote, cli.Config{Sessions: client})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
