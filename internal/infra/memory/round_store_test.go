package memory

import (
	"context"
	"testing"

	"quiz-buzzer-service/internal/domain"
)

func TestRoundStoreSessionStats(t *testing.T) {
	ctx := context.Background()
	store := NewRoundStore()

	rounds := []domain.Round{
		{ID: "r1", SessionID: "s1", TeamID: "red", Correct: true, Points: 2},
		{ID: "r2", SessionID: "s1", TeamID: "red", Correct: false, Points: 1},
		{ID: "r3", SessionID: "s1", TeamID: "blue", Correct: true, Points: 1},
		{ID: "r4", SessionID: "s2", TeamID: "red", Correct: true, Points: 1},
	}
	for _, round := range rounds {
		if err := store.Append(ctx, round); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	stats, err := store.SessionStats(ctx, "s1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got := stats["red"]; got.Answered != 2 || got.Correct != 1 {
		t.Fatalf("unexpected red stats: %+v", got)
	}
	if got := stats["blue"]; got.Answered != 1 || got.Correct != 1 {
		t.Fatalf("unexpected blue stats: %+v", got)
	}

	if err := store.PurgeSession(ctx, "s1"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	stats, _ = store.SessionStats(ctx, "s1")
	if len(stats) != 0 {
		t.Fatalf("expected empty stats after purge, got %+v", stats)
	}
	// Other sessions are untouched.
	stats, _ = store.SessionStats(ctx, "s2")
	if got := stats["red"]; got.Answered != 1 {
		t.Fatalf("expected s2 intact, got %+v", got)
	}
}
