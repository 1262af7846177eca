package userclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-launcher/internal/session"
)

const (
	defaultRequestTimeout = 5 * time.Second
	defaultPollInterval   = 250 * time.Millisecond
)

// Remote drives the session of a running quiz-service. It satisfies the
// controller interface of the terminal client.
type Remote struct {
	client         *HTTPClient
	requestTimeout time.Duration
	pollInterval   time.Duration
	logger         *zap.Logger

	mu   sync.Mutex
	last session.Snapshot
}

type RemoteConfig struct {
	RequestTimeout time.Duration
	PollInterval   time.Duration
	Logger         *zap.Logger
}

func NewRemote(client *HTTPClient, cfg RemoteConfig) *Remote {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Remote{
		client:         client,
		requestTimeout: cfg.RequestTimeout,
		pollInterval:   cfg.PollInterval,
		logger:         cfg.Logger,
		last:           session.Snapshot{State: session.StateIdle},
	}
}

func (r *Remote) UpdateConfig(update session.ConfigUpdate) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.requestTimeout)
	defer cancel()
	return r.remember(r.client.UpdateConfig(ctx, update))
}

func (r *Remote) Reset(update session.ConfigUpdate) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.requestTimeout)
	defer cancel()
	return r.remember(r.client.Reset(ctx, update))
}

func (r *Remote) ResolveRating(ctx context.Context) error {
	// The rating call waits on the scoring service, so it only gets the
	// caller's context.
	return r.remember(r.client.PostAction(ctx, "rating"))
}

func (r *Remote) Retry() error {
	return r.action("retry")
}

func (r *Remote) Reconnect() {
	if err := r.action("reconnect"); err != nil {
		r.logger.Warn("reconnect failed", zap.Error(err))
	}
}

func (r *Remote) DismissError() {
	if err := r.action("dismiss"); err != nil {
		r.logger.Warn("dismiss failed", zap.Error(err))
	}
}

// Snapshot returns the service's current snapshot. When the service cannot be
// reached it returns the last known one with an error banner.
func (r *Remote) Snapshot() session.Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), r.requestTimeout)
	defer cancel()

	snapshot, err := r.client.GetSnapshot(ctx)
	if err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		stale := r.last
		stale.Error = &session.Error{Kind: session.ErrorKindFetch, Message: describeClientError(err, r.client.BaseURL()).Error()}
		return stale
	}

	r.mu.Lock()
	r.last = snapshot
	r.mu.Unlock()
	return snapshot
}

// Wait polls the service until no fetch is in flight.
func (r *Remote) Wait(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		if !r.Snapshot().InFlight {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Remote) action(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.requestTimeout)
	defer cancel()
	return r.remember(r.client.PostAction(ctx, name))
}

func (r *Remote) remember(snapshot session.Snapshot, err error) error {
	if err != nil {
		return describeClientError(err, r.client.BaseURL())
	}
	r.mu.Lock()
	r.last = snapshot
	r.mu.Unlock()
	return nil
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("%w at %s", ErrServiceUnavailable, serverURL)
	}
	return err
}
