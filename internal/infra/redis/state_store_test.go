package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"quiz-buzzer-service/internal/domain"
)

func TestStateStoreSaveAndLoad(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	store := NewStateStore(newClient(mr), time.Minute)
	ctx := context.Background()

	state := domain.GameState{
		SessionID:     "s1",
		QuestionText:  "Capital of France?",
		QuestionIndex: 3,
		Locked:        true,
		FirstBuzzerID: "red",
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected state present")
	}
	if loaded != state {
		t.Fatalf("round trip mismatch: %+v vs %+v", loaded, state)
	}
}

func TestStateStoreLoadMissing(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	store := NewStateStore(newClient(mr), time.Minute)

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("expected no state")
	}
}
