package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

const defaultListLimit = 10

// StartQuiz records the prepared questions under a new session id. The
// deadline is fixed at start time; the questions keep their shuffled order.
func (s *SQLiteStore) StartQuiz(ctx context.Context, questions []quiz.Question, totalSeconds int) (session.Started, error) {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return session.Started{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO sessions (session_id, difficulty, question_count, total_seconds, started_at_unix, deadline_unix)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		started.SessionID,
		string(questions[0].Difficulty),
		started.QuestionCount,
		started.TotalSeconds,
		started.StartedAt.UnixNano(),
		started.Deadline.UnixNano(),
	)
	if err != nil {
		return session.Started{}, err
	}

	for idx, question := range questions {
		if question.QuestionID == "" {
			question.QuestionID = quiz.MakeQuestionID(question)
		}

		questionJSON, err := json.Marshal(question)
		if err != nil {
			return session.Started{}, err
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO session_questions (session_id, position, question_id, question_json) VALUES (?, ?, ?, ?)`,
			started.SessionID,
			idx,
			question.QuestionID,
			string(questionJSON),
		); err != nil {
			return session.Started{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return session.Started{}, err
	}
	return started, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (session.Record, error) {
	var (
		record       session.Record
		difficulty   string
		startedAtNs  int64
		deadlineAtNs int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT session_id, difficulty, question_count, total_seconds, started_at_unix, deadline_unix
		 FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&record.SessionID, &difficulty, &record.QuestionCount, &record.TotalSeconds, &startedAtNs, &deadlineAtNs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Record{}, session.ErrSessionNotFound
		}
		return session.Record{}, err
	}
	record.Difficulty = quiz.Difficulty(difficulty)
	record.StartedAt = time.Unix(0, startedAtNs).UTC()
	record.Deadline = time.Unix(0, deadlineAtNs).UTC()

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT question_json FROM session_questions WHERE session_id = ? ORDER BY position ASC`,
		sessionID,
	)
	if err != nil {
		return session.Record{}, err
	}
	defer rows.Close()

	record.Questions = make([]quiz.Question, 0, record.QuestionCount)
	for rows.Next() {
		var questionJSON string
		if err := rows.Scan(&questionJSON); err != nil {
			return session.Record{}, err
		}

		var question quiz.Question
		if err := json.Unmarshal([]byte(questionJSON), &question); err != nil {
			return session.Record{}, err
		}
		record.Questions = append(record.Questions, question)
	}

	return record, rows.Err()
}

// ListSessions returns the most recent sessions first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]session.Started, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT session_id, question_count, total_seconds, started_at_unix, deadline_unix
		 FROM sessions
		 ORDER BY started_at_unix DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]session.Started, 0)
	for rows.Next() {
		var (
			item         session.Started
			startedAtNs  int64
			deadlineAtNs int64
		)
		if err := rows.Scan(&item.SessionID, &item.QuestionCount, &item.TotalSeconds, &startedAtNs, &deadlineAtNs); err != nil {
			return nil, err
		}
		item.StartedAt = time.Unix(0, startedAtNs).UTC()
		item.Deadline = time.Unix(0, deadlineAtNs).UTC()
		sessions = append(sessions, item)
	}

	return sessions, rows.Err()
}
