package session

import (
	"context"
	"errors"
	"testing"

	"quiz-launcher/internal/quiz"
)

func newTestManager(t *testing.T, fetcher *fakeFetcher, resolver *fakeResolver, starter *fakeStarter) (*Manager, *[]quiz.Config) {
	t.Helper()
	var built []quiz.Config
	manager, err := NewManager(func(initial quiz.Config) (*Controller, error) {
		built = append(built, initial)
		return NewController(fetcher, resolver, starter, Options{Config: initial}), nil
	}, readyConfig(), nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(manager.Close)
	return manager, &built
}

func TestManagerResetStartsNextQuizWithCarriedRating(t *testing.T) {
	fetcher := &fakeFetcher{results: sampleRaw(5)}
	resolver := &fakeResolver{value: 6}
	starter := &fakeStarter{}
	manager, built := newTestManager(t, fetcher, resolver, starter)

	if err := manager.ResolveRating(context.Background()); err != nil {
		t.Fatalf("ResolveRating failed: %v", err)
	}
	waitFetch(t, manager.Current())
	first := manager.Current()
	if manager.Snapshot().State != StateHandedOff {
		t.Fatalf("expected first quiz handed off, got %q", manager.Snapshot().State)
	}
	if err := manager.UpdateConfig(ConfigUpdate{Category: strPtr("10")}); !errors.Is(err, ErrHandedOff) {
		t.Fatalf("expected ErrHandedOff before reset, got %v", err)
	}

	if err := manager.Reset(ConfigUpdate{Category: strPtr("23"), QuestionCount: intPtr(10)}); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if manager.Current() == first {
		t.Fatalf("expected a fresh controller after reset")
	}
	if err := first.UpdateConfig(ConfigUpdate{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected the previous controller to be closed, got %v", err)
	}
	if got := (*built)[1]; got != (quiz.Config{Category: "23", QuestionCount: 10, QuestionType: "0"}) {
		t.Fatalf("next quiz built with %+v", got)
	}

	waitFetch(t, manager.Current())
	if resolver.calls != 1 {
		t.Fatalf("expected the rating to be carried over, resolver called %d times", resolver.calls)
	}
	snapshot := manager.Snapshot()
	if snapshot.Rating == nil || *snapshot.Rating != 6 {
		t.Fatalf("expected carried rating 6, got %+v", snapshot.Rating)
	}
	if snapshot.State != StateHandedOff || starter.callCount() != 2 {
		t.Fatalf("expected second handoff, state=%q handoffs=%d", snapshot.State, starter.callCount())
	}
	calls := fetcher.calls()
	if last := calls[len(calls)-1]; last.Category != "23" || last.Amount != 10 {
		t.Fatalf("second fetch used %+v", last)
	}
}

func TestManagerResetRequiresHandoff(t *testing.T) {
	manager, built := newTestManager(t, &fakeFetcher{}, &fakeResolver{}, &fakeStarter{})

	if err := manager.Reset(ConfigUpdate{}); !errors.Is(err, ErrQuizNotStarted) {
		t.Fatalf("expected ErrQuizNotStarted, got %v", err)
	}
	if len(*built) != 1 {
		t.Fatalf("expected no new controller, built %d", len(*built))
	}
}

func TestManagerResetRejectsInvalidConfig(t *testing.T) {
	manager, _ := newTestManager(t, &fakeFetcher{results: sampleRaw(5)}, &fakeResolver{}, &fakeStarter{})
	if err := manager.Current().SetRating(3); err != nil {
		t.Fatalf("SetRating failed: %v", err)
	}
	waitFetch(t, manager.Current())

	err := manager.Reset(ConfigUpdate{QuestionCount: intPtr(7)})
	if !errors.Is(err, quiz.ErrInvalidQuestionCount) {
		t.Fatalf("expected ErrInvalidQuestionCount, got %v", err)
	}
	if manager.Snapshot().State != StateHandedOff {
		t.Fatalf("expected the handed-off controller to stay current")
	}
}

func TestManagerCloseRejectsReset(t *testing.T) {
	manager, _ := newTestManager(t, &fakeFetcher{}, &fakeResolver{}, &fakeStarter{})
	manager.Close()

	if err := manager.Reset(ConfigUpdate{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
