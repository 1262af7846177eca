package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/rating"
)

// Factory builds the controller for one quiz, starting from initial.
type Factory func(initial quiz.Config) (*Controller, error)

// Manager serves one controller at a time and replaces it with a fresh one
// once its quiz has been handed off. The resolved rating is carried over.
type Manager struct {
	factory Factory
	initial quiz.Config
	logger  *zap.Logger

	mu      sync.Mutex
	current *Controller
	closed  bool
}

func NewManager(factory Factory, initial quiz.Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	controller, err := factory(initial)
	if err != nil {
		return nil, err
	}
	return &Manager{
		factory: factory,
		initial: initial,
		logger:  logger,
		current: controller,
	}, nil
}

// Current returns the controller of the quiz being prepared.
func (m *Manager) Current() *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Reset starts preparing the next quiz. It is only allowed after the current
// quiz was handed off; update is applied on top of the initial selection.
func (m *Manager) Reset(update ConfigUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	previous := m.current.Snapshot()
	if previous.State != StateHandedOff {
		return ErrQuizNotStarted
	}

	next := update.apply(m.initial)
	if err := next.Validate(); err != nil {
		return err
	}

	controller, err := m.factory(next)
	if err != nil {
		return err
	}
	if previous.Rating != nil {
		if err := controller.SetRating(rating.Rating(*previous.Rating)); err != nil {
			controller.Close()
			return err
		}
	}

	m.current.Close()
	m.current = controller
	m.logger.Info("session reset", zap.String("previous_session_id", previous.Session.SessionID))
	return nil
}

func (m *Manager) UpdateConfig(update ConfigUpdate) error {
	return m.Current().UpdateConfig(update)
}

func (m *Manager) ResolveRating(ctx context.Context) error {
	return m.Current().ResolveRating(ctx)
}

func (m *Manager) Retry() error {
	return m.Current().Retry()
}

func (m *Manager) Reconnect() {
	m.Current().Reconnect()
}

func (m *Manager) DismissError() {
	m.Current().DismissError()
}

func (m *Manager) Snapshot() Snapshot {
	return m.Current().Snapshot()
}

func (m *Manager) Wait(ctx context.Context) error {
	return m.Current().Wait(ctx)
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.current.Close()
}
