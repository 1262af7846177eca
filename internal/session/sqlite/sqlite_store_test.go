package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		_ = os.Remove(path + "-journal")
	})
	return store
}

func sampleQuestions() []quiz.Question {
	return []quiz.Question{
		{
			QuestionID:       "q1",
			Category:         "Science & Nature",
			Type:             "multiple",
			Difficulty:       quiz.DifficultyHard,
			Text:             "2+2?",
			CorrectAnswer:    "4",
			IncorrectAnswers: []string{"3"},
			Options: []quiz.Option{
				{Letter: "A", Text: "3"},
				{Letter: "B", Text: "4"},
			},
			CorrectIndex: 1,
		},
		{
			QuestionID:       "q2",
			Type:             "boolean",
			Difficulty:       quiz.DifficultyHard,
			Text:             "The sky is green.",
			CorrectAnswer:    "False",
			IncorrectAnswers: []string{"True"},
			Options: []quiz.Option{
				{Letter: "A", Text: "False"},
				{Letter: "B", Text: "True"},
			},
			CorrectIndex: 0,
		},
	}
}

func TestSQLiteStoreStartAndReadSession(t *testing.T) {
	store := newTestSQLiteStore(t)
	startedAt := time.Unix(1700000000, 123).UTC()
	store.now = func() time.Time { return startedAt }
	ctx := context.Background()

	started, err := store.StartQuiz(ctx, sampleQuestions(), 300)
	if err != nil {
		t.Fatalf("StartQuiz failed: %v", err)
	}
	if started.SessionID == "" {
		t.Fatalf("expected session id")
	}
	if started.QuestionCount != 2 || started.TotalSeconds != 300 {
		t.Fatalf("unexpected started session: %+v", started)
	}
	if !started.Deadline.Equal(startedAt.Add(5 * time.Minute)) {
		t.Fatalf("deadline = %s, want %s", started.Deadline, startedAt.Add(5*time.Minute))
	}

	record, err := store.GetSession(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if record.Difficulty != quiz.DifficultyHard {
		t.Fatalf("difficulty = %q, want hard", record.Difficulty)
	}
	if !record.StartedAt.Equal(startedAt) || !record.Deadline.Equal(started.Deadline) {
		t.Fatalf("unexpected timestamps: %+v", record.Started)
	}
	if len(record.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(record.Questions))
	}
	if record.Questions[0].QuestionID != "q1" || record.Questions[1].QuestionID != "q2" {
		t.Fatalf("question order not preserved: %+v", record.Questions)
	}
	first := record.Questions[0]
	if first.CorrectIndex != 1 || first.Options[1].Text != "4" || first.Category != "Science & Nature" {
		t.Fatalf("question not round-tripped: %+v", first)
	}
}

func TestSQLiteStoreGetSessionNotFound(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.GetSession(context.Background(), "missing")
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSQLiteStoreStartQuizRejectsEmptyInput(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.StartQuiz(ctx, nil, 300); err == nil {
		t.Fatalf("expected error for empty question list")
	}
	if _, err := store.StartQuiz(ctx, sampleQuestions(), 0); err == nil {
		t.Fatalf("expected error for zero time limit")
	}

	sessions, err := store.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("rejected starts must not be stored, got %d sessions", len(sessions))
	}
}

func TestSQLiteStoreListSessionsNewestFirst(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0).UTC()
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }

		started, err := store.StartQuiz(ctx, sampleQuestions(), 600)
		if err != nil {
			t.Fatalf("StartQuiz %d failed: %v", i, err)
		}
		ids = append(ids, started.SessionID)
	}

	sessions, err := store.ListSessions(ctx, 2)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].SessionID != ids[2] || sessions[1].SessionID != ids[1] {
		t.Fatalf("unexpected order: %+v", sessions)
	}

	all, err := store.ListSessions(ctx, 0)
	if err != nil {
		t.Fatalf("ListSessions with default limit failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions with default limit, got %d", len(all))
	}
}
