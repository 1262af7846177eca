package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-launcher/internal/opentdb"
	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/rating"
)

type Options struct {
	// Config is the initial selection; it may be partially empty.
	Config  quiz.Config
	Profile rating.StudentProfile
	// MinLoadingTime delays fetch outcomes so a loading indicator does not flicker.
	MinLoadingTime time.Duration
	Connectivity   Connectivity
	Logger         *zap.Logger
	// OnChange is called after every state change, outside the controller lock.
	OnChange func(Snapshot)
}

// Controller prepares a quiz: it waits for a rating and a complete
// configuration, fetches questions once per change, and hands them off.
type Controller struct {
	fetcher      Fetcher
	resolver     RatingResolver
	starter      Starter
	connectivity Connectivity
	profile      rating.StudentProfile
	minLoading   time.Duration
	logger       *zap.Logger
	onChange     func(Snapshot)

	mu         sync.Mutex
	state      State
	cfg        quiz.Config
	rating     *rating.Rating
	difficulty quiz.Difficulty
	timeLimit  quiz.TimeLimit
	lastErr    *Error
	started    *Started
	resolving  bool
	closed     bool
	// dirty is set when a watched field changed since the last fetch began.
	dirty      bool
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewController(fetcher Fetcher, resolver RatingResolver, starter Starter, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	connectivity := opts.Connectivity
	if connectivity == nil {
		connectivity = AlwaysOnline
	}
	profile := opts.Profile
	if len(profile.Attributes) == 0 {
		profile = rating.DefaultProfile()
	}

	return &Controller{
		fetcher:      fetcher,
		resolver:     resolver,
		starter:      starter,
		connectivity: connectivity,
		profile:      profile,
		minLoading:   opts.MinLoadingTime,
		logger:       logger,
		onChange:     opts.OnChange,
		state:        StateIdle,
		cfg:          opts.Config,
		dirty:        true,
	}
}

// UpdateConfig applies a partial configuration change and starts a fetch when
// the session becomes ready. Changes are refused while a fetch is in flight.
func (c *Controller) UpdateConfig(update ConfigUpdate) error {
	c.mu.Lock()
	if err := c.checkMutableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	next := update.apply(c.cfg)
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}

	if next != c.cfg {
		c.cfg = next
		c.dirty = true
	}
	c.maybeStartLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
	return nil
}

// ResolveRating asks the scoring service for the rating. A failed call leaves
// the rating unset and may be retried by calling ResolveRating again.
func (c *Controller) ResolveRating(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.rating != nil:
		c.mu.Unlock()
		return ErrRatingAlreadySet
	case c.resolving:
		c.mu.Unlock()
		return ErrRatingInProgress
	}
	c.resolving = true
	profile := c.profile
	c.mu.Unlock()

	value, err := c.resolver.Resolve(ctx, profile)

	c.mu.Lock()
	c.resolving = false
	if err != nil {
		c.logger.Error("error fetching rating", zap.Error(err))
		c.lastErr = &Error{Kind: ErrorKindRating, Message: ratingErrorMessage}
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot)
		return fmt.Errorf("%w: %w", ErrRatingUnavailable, err)
	}

	err = c.applyRatingLocked(value)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
	return err
}

// SetRating records an externally obtained rating.
func (c *Controller) SetRating(value rating.Rating) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err := c.applyRatingLocked(value); err != nil {
		c.mu.Unlock()
		return err
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
	return nil
}

// Retry refetches with the current configuration after a failed fetch.
func (c *Controller) Retry() error {
	c.mu.Lock()
	if err := c.checkMutableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state == StateOffline || !c.readyLocked() {
		c.mu.Unlock()
		return ErrNotReady
	}
	c.dirty = true
	c.maybeStartLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
	return nil
}

// Reconnect leaves the offline view and fetches again if the session is ready.
func (c *Controller) Reconnect() {
	c.mu.Lock()
	if c.closed || c.state != StateOffline {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.dirty = true
	c.maybeStartLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

// DismissError clears the error banner.
func (c *Controller) DismissError() {
	c.mu.Lock()
	if c.lastErr == nil {
		c.mu.Unlock()
		return
	}
	c.lastErr = nil
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until the fetch in flight, if any, has finished.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	fetching := c.state == StateFetching
	c.mu.Unlock()

	if !fetching || done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the fetch in flight; its outcome is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) checkMutableLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.state == StateFetching:
		return ErrFetchInProgress
	case c.state == StateHandedOff:
		return ErrHandedOff
	}
	return nil
}

func (c *Controller) applyRatingLocked(value rating.Rating) error {
	if c.rating != nil {
		return ErrRatingAlreadySet
	}
	c.rating = &value
	c.difficulty, c.timeLimit = quiz.MapRatingToDifficulty(int(value))
	c.dirty = true
	c.logger.Info("quiz parameters derived",
		zap.Int("rating", int(value)),
		zap.String("difficulty", string(c.difficulty)),
		zap.Int("time_limit_seconds", c.timeLimit.TotalSeconds()),
	)
	c.maybeStartLocked()
	return nil
}

func (c *Controller) readyLocked() bool {
	return c.cfg.Complete() && c.rating != nil && !c.timeLimit.IsZero()
}

func (c *Controller) maybeStartLocked() {
	if c.closed || c.state != StateIdle || !c.dirty || !c.readyLocked() {
		return
	}

	c.dirty = false
	c.state = StateFetching
	c.lastErr = nil
	c.generation++

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	query := opentdb.Query{
		Amount:     c.cfg.QuestionCount,
		Category:   c.cfg.Category,
		Difficulty: string(c.difficulty),
		Type:       c.cfg.QuestionType,
	}
	go c.fetch(ctx, c.generation, query, c.timeLimit.TotalSeconds(), c.done)
}

type outcome struct {
	started Started
	offline bool
	err     error
}

func (c *Controller) fetch(ctx context.Context, generation uint64, query opentdb.Query, totalSeconds int, done chan struct{}) {
	defer close(done)

	began := time.Now()
	c.logger.Info("fetching questions",
		zap.Int("amount", query.Amount),
		zap.String("category", query.Category),
		zap.String("difficulty", query.Difficulty),
		zap.String("type", query.Type),
	)

	var result outcome
	raw, err := c.fetcher.FetchQuestions(ctx, query)
	switch {
	case err == nil:
	case errors.Is(err, opentdb.ErrUnreachable) && !c.connectivity.Online(ctx):
		result.offline = true
	default:
		result.err = err
	}

	if wait := c.minLoading - time.Since(began); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	if ctx.Err() != nil {
		c.logger.Debug("fetch canceled", zap.Uint64("generation", generation))
		return
	}

	if err == nil {
		questions := quiz.BuildQuestions(raw)
		for i := range questions {
			if questions[i].Difficulty == "" {
				questions[i].Difficulty = quiz.Difficulty(query.Difficulty)
			}
		}
		started, startErr := c.starter.StartQuiz(ctx, questions, totalSeconds)
		if startErr != nil {
			result.err = fmt.Errorf("start quiz: %w", startErr)
		} else {
			result.started = started
		}
	}

	c.finish(generation, result)
}

func (c *Controller) finish(generation uint64, result outcome) {
	c.mu.Lock()
	if generation != c.generation || c.closed {
		c.mu.Unlock()
		return
	}
	c.cancel = nil

	switch {
	case result.offline:
		c.logger.Warn("device is offline")
		c.state = StateOffline
	case errors.Is(result.err, opentdb.ErrInsufficientQuestions):
		c.logger.Info("not enough questions for query", zap.Any("config", c.cfg))
		c.state = StateIdle
		c.lastErr = &Error{Kind: ErrorKindInsufficient, Message: insufficientErrorMessage}
	case result.err != nil:
		c.logger.Error("fetch failed", zap.Error(result.err))
		c.state = StateIdle
		c.lastErr = &Error{Kind: ErrorKindFetch, Message: result.err.Error()}
	default:
		started := result.started
		c.started = &started
		c.state = StateHandedOff
		c.logger.Info("quiz handed off",
			zap.String("session_id", started.SessionID),
			zap.Int("questions", started.QuestionCount),
			zap.Int("total_seconds", started.TotalSeconds),
		)
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

func (c *Controller) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		State:      c.state,
		Config:     c.cfg,
		Difficulty: c.difficulty,
		TimeLimit:  c.timeLimit,
		InFlight:   c.state == StateFetching,
		Offline:    c.state == StateOffline,
	}
	if c.rating != nil {
		value := int(*c.rating)
		snapshot.Rating = &value
	}
	if c.lastErr != nil {
		errCopy := *c.lastErr
		snapshot.Error = &errCopy
	}
	if c.started != nil {
		started := *c.started
		snapshot.Session = &started
	}
	return snapshot
}

func (c *Controller) notify(snapshot Snapshot) {
	if c.onChange != nil {
		c.onChange(snapshot)
	}
}
