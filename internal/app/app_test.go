package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"quiz-launcher/internal/config"
	"quiz-launcher/internal/httpapi"
	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

func TestOpenStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := OpenStore(context.Background(), config.Storage{Driver: config.DriverSQLite, SQLitePath: path}, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.Storage{Driver: "mongo"}, zap.NewNop())
	if !errors.Is(err, config.ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestNewControllerRejectsInvalidInitialConfig(t *testing.T) {
	cfg := &config.Config{}
	_, err := NewController(cfg, nil, quiz.Config{Category: "404"}, zap.NewNop(), nil)
	if !errors.Is(err, quiz.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

// Runs the whole launch against fake scoring and trivia servers and a real
// SQLite store.
func TestNewControllerHandsOffToStore(t *testing.T) {
	var triviaQuery atomic.Value
	trivia := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		triviaQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response_code":0,"results":[
			{"type":"multiple","difficulty":"medium","category":"History","question":"Q1","correct_answer":"a","incorrect_answers":["b","c","d"]},
			{"type":"multiple","difficulty":"medium","category":"History","question":"Q2","correct_answer":"a","incorrect_answers":["b","c","d"]},
			{"type":"multiple","difficulty":"medium","category":"History","question":"Q3","correct_answer":"a","incorrect_answers":["b","c","d"]},
			{"type":"multiple","difficulty":"medium","category":"History","question":"Q4","correct_answer":"a","incorrect_answers":["b","c","d"]},
			{"type":"multiple","difficulty":"medium","category":"History","question":"Q5","correct_answer":"a","incorrect_answers":["b","c","d"]}
		]}`))
	}))
	defer trivia.Close()

	scoring := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Solid student.\nRating: 6"}}]}`))
	}))
	defer scoring.Close()

	cfg := &config.Config{
		OpenTDB: config.OpenTDB{BaseURL: trivia.URL, Timeout: 5 * time.Second},
		Rating:  config.Rating{URL: scoring.URL, Model: "test", Timeout: 5 * time.Second},
	}
	store, err := OpenStore(context.Background(), config.Storage{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "sessions.db"),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	controller, err := NewController(cfg, store, quiz.Config{Category: "23", QuestionCount: 5, QuestionType: quiz.TypeMultiple}, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer controller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := controller.ResolveRating(ctx); err != nil {
		t.Fatalf("ResolveRating failed: %v", err)
	}
	if err := controller.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if got, _ := triviaQuery.Load().(string); got != "amount=5&category=23&difficulty=medium&type=multiple" {
		t.Fatalf("unexpected trivia query %q", got)
	}

	snapshot := controller.Snapshot()
	if snapshot.State != session.StateHandedOff || snapshot.Session == nil {
		t.Fatalf("expected handoff, got %+v", snapshot)
	}

	record, err := store.GetSession(ctx, snapshot.Session.SessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if record.TotalSeconds != 600 || len(record.Questions) != 5 || record.Difficulty != quiz.DifficultyMedium {
		t.Fatalf("unexpected stored session: %+v", record.Started)
	}
}

func serveJSON(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, bytes.NewBufferString(body)))
	return rec
}

// The service keeps preparing quizzes: after a handoff, POST /session/reset
// starts the next one with the same rating.
func TestNewManagerServesSeveralQuizzes(t *testing.T) {
	var triviaQueries []string
	var queriesMu sync.Mutex
	trivia := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queriesMu.Lock()
		triviaQueries = append(triviaQueries, r.URL.RawQuery)
		queriesMu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response_code":0,"results":[
			{"question":"Q1","correct_answer":"a","incorrect_answers":["b","c","d"]},
			{"question":"Q2","correct_answer":"a","incorrect_answers":["b","c","d"]},
			{"question":"Q3","correct_answer":"a","incorrect_answers":["b","c","d"]},
			{"question":"Q4","correct_answer":"a","incorrect_answers":["b","c","d"]},
			{"question":"Q5","correct_answer":"a","incorrect_answers":["b","c","d"]}
		]}`))
	}))
	defer trivia.Close()

	var scoringCalls atomic.Int32
	scoring := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		scoringCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Rating: 6"}}]}`))
	}))
	defer scoring.Close()

	cfg := &config.Config{
		OpenTDB: config.OpenTDB{BaseURL: trivia.URL, Timeout: 5 * time.Second},
		Rating:  config.Rating{URL: scoring.URL, Model: "test", Timeout: 5 * time.Second},
	}
	store, err := OpenStore(context.Background(), config.Storage{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "sessions.db"),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	manager, err := NewManager(cfg, store, quiz.Config{Category: "23", QuestionCount: 5, QuestionType: quiz.TypeMultiple}, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer manager.Close()
	router := httpapi.NewRouter(manager, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if rec := serveJSON(t, router, http.MethodPost, "/session/rating", ""); rec.Code != http.StatusOK {
		t.Fatalf("rating status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := manager.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if manager.Snapshot().State != session.StateHandedOff {
		t.Fatalf("expected first handoff, got %+v", manager.Snapshot())
	}
	if rec := serveJSON(t, router, http.MethodPatch, "/session/config", `{"category":"9"}`); rec.Code != http.StatusConflict {
		t.Fatalf("config after handoff status = %d, want %d", rec.Code, http.StatusConflict)
	}

	if rec := serveJSON(t, router, http.MethodPost, "/session/reset", `{"question_count":10}`); rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := manager.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if manager.Snapshot().State != session.StateHandedOff {
		t.Fatalf("expected second handoff, got %+v", manager.Snapshot())
	}
	if got := scoringCalls.Load(); got != 1 {
		t.Fatalf("scoring service called %d times, want 1", got)
	}

	queriesMu.Lock()
	queries := append([]string(nil), triviaQueries...)
	queriesMu.Unlock()
	if len(queries) != 2 || queries[1] != "amount=10&category=23&difficulty=medium&type=multiple" {
		t.Fatalf("unexpected trivia queries %q", queries)
	}

	rec := serveJSON(t, router, http.MethodGet, "/sessions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sessions status = %d", rec.Code)
	}
	var listed struct {
		Sessions []session.Started `json:"sessions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(listed.Sessions) != 2 {
		t.Fatalf("expected two stored sessions, got %d", len(listed.Sessions))
	}
	for _, started := range listed.Sessions {
		record, err := store.GetSession(ctx, started.SessionID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if record.Difficulty != quiz.DifficultyMedium {
			t.Fatalf("stored difficulty = %q, want medium", record.Difficulty)
		}
	}
}
