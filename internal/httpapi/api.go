package httpapi

import (
	"context"

	"go.uber.org/zap"

	"quiz-launcher/internal/session"
)

// Controller is the part of session.Manager exposed over HTTP.
type Controller interface {
	UpdateConfig(update session.ConfigUpdate) error
	Reset(update session.ConfigUpdate) error
	ResolveRating(ctx context.Context) error
	Retry() error
	Reconnect()
	DismissError()
	Snapshot() session.Snapshot
}

type API struct {
	controller Controller
	sessions   session.Repository
	logger     *zap.Logger
}

func NewAPI(controller Controller, sessions session.Repository, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		controller: controller,
		sessions:   sessions,
		logger:     logger,
	}
}
