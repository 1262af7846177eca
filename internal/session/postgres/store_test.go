package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

// Set QUIZ_TEST_DATABASE_URL to a disposable database to run these tests.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("QUIZ_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("QUIZ_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, PoolConfig{MaxConns: 2})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	t.Cleanup(pool.Close)

	store := NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE quiz_sessions CASCADE`); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
	return store
}

func sampleQuestions() []quiz.Question {
	return []quiz.Question{
		{
			QuestionID:       "q1",
			Difficulty:       quiz.DifficultyMedium,
			Text:             "2+2?",
			CorrectAnswer:    "4",
			IncorrectAnswers: []string{"3"},
			Options:          []quiz.Option{{Letter: "A", Text: "3"}, {Letter: "B", Text: "4"}},
			CorrectIndex:     1,
		},
		{
			QuestionID:       "q2",
			Difficulty:       quiz.DifficultyMedium,
			Text:             "Capital of France?",
			CorrectAnswer:    "Paris",
			IncorrectAnswers: []string{"Rome"},
			Options:          []quiz.Option{{Letter: "A", Text: "Paris"}, {Letter: "B", Text: "Rome"}},
			CorrectIndex:     0,
		},
	}
}

func TestStoreStartAndReadSession(t *testing.T) {
	store := newTestStore(t)
	startedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return startedAt }
	ctx := context.Background()

	started, err := store.StartQuiz(ctx, sampleQuestions(), 600)
	if err != nil {
		t.Fatalf("StartQuiz failed: %v", err)
	}

	record, err := store.GetSession(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if record.SessionID != started.SessionID || record.Difficulty != quiz.DifficultyMedium {
		t.Fatalf("unexpected record: %+v", record)
	}
	if !record.Deadline.Equal(startedAt.Add(10 * time.Minute)) {
		t.Fatalf("deadline = %s", record.Deadline)
	}
	if len(record.Questions) != 2 || record.Questions[1].QuestionID != "q2" {
		t.Fatalf("unexpected questions: %+v", record.Questions)
	}

	sessions, err := store.ListSessions(ctx, 5)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != started.SessionID {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestStoreGetSessionNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"not-a-uuid", "6f1c1f9e-8d2a-4d6b-9a59-3f3b2f0c1a11"} {
		if _, err := store.GetSession(ctx, id); !errors.Is(err, session.ErrSessionNotFound) {
			t.Fatalf("GetSession(%q): expected ErrSessionNotFound, got %v", id, err)
		}
	}
}
