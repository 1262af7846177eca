package session

import (
	"context"
	"errors"
	"time"

	"quiz-launcher/internal/opentdb"
	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/rating"
)

type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateOffline   State = "offline"
	StateHandedOff State = "handed_off"
)

var (
	ErrFetchInProgress   = errors.New("questions are being fetched")
	ErrRatingAlreadySet  = errors.New("rating is already set for this session")
	ErrRatingInProgress  = errors.New("rating is being resolved")
	ErrRatingUnavailable = errors.New("rating unavailable")
	ErrHandedOff         = errors.New("quiz already started")
	ErrNotReady          = errors.New("quiz is not ready to start")
	ErrQuizNotStarted    = errors.New("no quiz has been started yet")
	ErrClosed            = errors.New("session closed")
	ErrSessionNotFound   = errors.New("session not found")
)

const (
	ratingErrorMessage       = "Error fetching rating."
	insufficientErrorMessage = "The API doesn't have enough questions for your query. " +
		"(For example, asking for 50 questions in a category that only has 20.) " +
		"Please change the No. of Questions, Difficulty Level, or Type of Questions."
)

type ErrorKind string

const (
	ErrorKindRating       ErrorKind = "rating"
	ErrorKindInsufficient ErrorKind = "insufficient_questions"
	ErrorKindFetch        ErrorKind = "fetch"
)

// Error is the dismissible message shown to the user.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Fetcher is the question bank transport.
type Fetcher interface {
	FetchQuestions(ctx context.Context, q opentdb.Query) ([]opentdb.RawQuestion, error)
}

type RatingResolver interface {
	Resolve(ctx context.Context, profile rating.StudentProfile) (rating.Rating, error)
}

// Starter is the downstream quiz runner. It is the only way questions leave
// this package.
type Starter interface {
	StartQuiz(ctx context.Context, questions []quiz.Question, totalSeconds int) (Started, error)
}

// Started describes a quiz that was handed off.
type Started struct {
	SessionID     string    `json:"session_id"`
	QuestionCount int       `json:"question_count"`
	TotalSeconds  int       `json:"total_seconds"`
	StartedAt     time.Time `json:"started_at"`
	Deadline      time.Time `json:"deadline"`
}

// Record is a stored handoff with its prepared questions.
type Record struct {
	Started
	Difficulty quiz.Difficulty `json:"difficulty"`
	Questions  []quiz.Question `json:"questions"`
}

type Repository interface {
	GetSession(ctx context.Context, sessionID string) (Record, error)
	ListSessions(ctx context.Context, limit int) ([]Started, error)
}

// ConfigUpdate is a partial quiz configuration change; nil fields are kept.
type ConfigUpdate struct {
	Category      *string `json:"category,omitempty"`
	QuestionCount *int    `json:"question_count,omitempty"`
	QuestionType  *string `json:"question_type,omitempty"`
}

func (u ConfigUpdate) apply(cfg quiz.Config) quiz.Config {
	if u.Category != nil {
		cfg.Category = *u.Category
	}
	if u.QuestionCount != nil {
		cfg.QuestionCount = *u.QuestionCount
	}
	if u.QuestionType != nil {
		cfg.QuestionType = *u.QuestionType
	}
	return cfg
}

// Snapshot is a copy of the controller state for presentation layers.
type Snapshot struct {
	State      State           `json:"state"`
	Config     quiz.Config     `json:"config"`
	Rating     *int            `json:"rating,omitempty"`
	Difficulty quiz.Difficulty `json:"difficulty,omitempty"`
	TimeLimit  quiz.TimeLimit  `json:"time_limit"`
	InFlight   bool            `json:"in_flight"`
	Offline    bool            `json:"offline"`
	Error      *Error          `json:"error,omitempty"`
	Session    *Started        `json:"session,omitempty"`
}
