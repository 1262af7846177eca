package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

const defaultListLimit = 10

// Store keeps handed-off quiz sessions in PostgreSQL. It implements both
// session.Starter and session.Repository.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Migrate creates the session tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quiz_sessions (
			session_id UUID PRIMARY KEY,
			difficulty TEXT NOT NULL,
			question_count INTEGER NOT NULL,
			total_seconds INTEGER NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			deadline TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quiz_session_questions (
			session_id UUID NOT NULL REFERENCES quiz_sessions(session_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			question_id TEXT NOT NULL,
			question JSONB NOT NULL,
			PRIMARY KEY (session_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_sessions_started_at ON quiz_sessions(started_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) withinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// StartQuiz records the prepared questions under a new session id.
func (s *Store) StartQuiz(ctx context.Context, questions []quiz.Question, totalSeconds int) (session.Started, error) {
	if len(questions) == 0 {
		return session.Started{}, errors.New("no questions to start")
	}
	if totalSeconds <= 0 {
		return session.Started{}, errors.New("time limit must be positive")
	}

	startedAt := s.now().UTC()
	started := session.Started{
		SessionID:     uuid.NewString(),
		QuestionCount: len(questions),
		TotalSeconds:  totalSeconds,
		StartedAt:     startedAt,
		Deadline:      startedAt.Add(time.Duration(totalSeconds) * time.Second),
	}

	err := s.withinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO quiz_sessions (session_id, difficulty, question_count, total_seconds, started_at, deadline)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			started.SessionID,
			string(questions[0].Difficulty),
			started.QuestionCount,
			started.TotalSeconds,
			started.StartedAt,
			started.Deadline,
		)
		if err != nil {
			return fmt.Errorf("create quiz session: %w", err)
		}

		batch := &pgx.Batch{}
		for idx, question := range questions {
			if question.QuestionID == "" {
				question.QuestionID = quiz.MakeQuestionID(question)
			}
			questionJSON, err := json.Marshal(question)
			if err != nil {
				return fmt.Errorf("encode question: %w", err)
			}
			batch.Queue(
				`INSERT INTO quiz_session_questions (session_id, position, question_id, question)
				 VALUES ($1, $2, $3, $4)`,
				started.SessionID,
				idx,
				question.QuestionID,
				questionJSON,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("create quiz questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return session.Started{}, err
	}

	return started, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (session.Record, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return session.Record{}, session.ErrSessionNotFound
	}

	var (
		record     session.Record
		difficulty string
	)
	err := s.pool.QueryRow(
		ctx,
		`SELECT session_id::text, difficulty, question_count, total_seconds, started_at, deadline
		 FROM quiz_sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&record.SessionID, &difficulty, &record.QuestionCount, &record.TotalSeconds, &record.StartedAt, &record.Deadline)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Record{}, session.ErrSessionNotFound
		}
		return session.Record{}, fmt.Errorf("get quiz session: %w", err)
	}
	record.Difficulty = quiz.Difficulty(difficulty)
	record.StartedAt = record.StartedAt.UTC()
	record.Deadline = record.Deadline.UTC()

	rows, err := s.pool.Query(
		ctx,
		`SELECT question FROM quiz_session_questions WHERE session_id = $1 ORDER BY position ASC`,
		sessionID,
	)
	if err != nil {
		return session.Record{}, fmt.Errorf("get quiz questions: %w", err)
	}
	defer rows.Close()

	record.Questions = make([]quiz.Question, 0, record.QuestionCount)
	for rows.Next() {
		var questionJSON []byte
		if err := rows.Scan(&questionJSON); err != nil {
			return session.Record{}, fmt.Errorf("scan quiz question: %w", err)
		}

		var question quiz.Question
		if err := json.Unmarshal(questionJSON, &question); err != nil {
			return session.Record{}, fmt.Errorf("decode quiz question: %w", err)
		}
		record.Questions = append(record.Questions, question)
	}

	return record, rows.Err()
}

// ListSessions returns the most recent sessions first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]session.Started, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.pool.Query(
		ctx,
		`SELECT session_id::text, question_count, total_seconds, started_at, deadline
		 FROM quiz_sessions
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list quiz sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]session.Started, 0)
	for rows.Next() {
		var item session.Started
		if err := rows.Scan(&item.SessionID, &item.QuestionCount, &item.TotalSeconds, &item.StartedAt, &item.Deadline); err != nil {
			return nil, fmt.Errorf("scan quiz session: %w", err)
		}
		item.StartedAt = item.StartedAt.UTC()
		item.Deadline = item.Deadline.UTC()
		sessions = append(sessions, item)
	}

	return sessions, rows.Err()
}
