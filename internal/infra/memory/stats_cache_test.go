package memory

import (
	"context"
	"testing"
	"time"

	"quiz-buzzer-service/internal/app"
	"quiz-buzzer-service/internal/domain"
)

func TestStatsCacheCaches(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{RoundStore: NewRoundStore()}
	cache := NewStatsCache(store, time.Minute)

	if err := cache.Append(ctx, domain.Round{ID: "r1", SessionID: "s1", TeamID: "red", Correct: true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := cache.SessionStats(ctx, "s1"); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if store.reads != 1 {
		t.Fatalf("expected one backing read, got %d", store.reads)
	}
	if _, err := cache.SessionStats(ctx, "s1"); err != nil {
		t.Fatalf("stats 2: %v", err)
	}
	if store.reads != 1 {
		t.Fatalf("expected cache hit, reads=%d", store.reads)
	}
}

func TestStatsCacheInvalidatesOnAppend(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{RoundStore: NewRoundStore()}
	cache := NewStatsCache(store, time.Minute)

	cache.SessionStats(ctx, "s1")
	if err := cache.Append(ctx, domain.Round{ID: "r1", SessionID: "s1", TeamID: "red", Correct: true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	stats, err := cache.SessionStats(ctx, "s1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got := stats["red"]; got.Answered != 1 {
		t.Fatalf("expected fresh stats after append, got %+v", got)
	}
	if store.reads != 2 {
		t.Fatalf("expected re-read after invalidation, reads=%d", store.reads)
	}
}

type countingStore struct {
	app.RoundStore
	reads int
}

func (s *countingStore) SessionStats(ctx context.Context, sessionID string) (map[string]domain.RoundStats, error) {
	s.reads++
	return s.RoundStore.SessionStats(ctx, sessionID)
}
