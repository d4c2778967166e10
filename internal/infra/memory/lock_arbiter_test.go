package memory

import (
	"context"
	"sync"
	"testing"
)

func TestLockArbiterSingleWinner(t *testing.T) {
	arbiter := NewLockArbiter()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			won, _, err := arbiter.TryAcquire(ctx, string('a'+id))
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if won {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(byte(i))
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	if arbiter.Holder() == "" {
		t.Fatal("expected a holder after the race")
	}
}

func TestLockArbiterReleaseReopens(t *testing.T) {
	arbiter := NewLockArbiter()
	ctx := context.Background()

	won, holder, _ := arbiter.TryAcquire(ctx, "red")
	if !won || holder != "red" {
		t.Fatalf("expected red to win, got won=%v holder=%s", won, holder)
	}
	won, holder, _ = arbiter.TryAcquire(ctx, "blue")
	if won || holder != "red" {
		t.Fatalf("expected blue rejected with red as holder, got won=%v holder=%s", won, holder)
	}

	if err := arbiter.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	won, holder, _ = arbiter.TryAcquire(ctx, "blue")
	if !won || holder != "blue" {
		t.Fatalf("expected blue to win after release, got won=%v holder=%s", won, holder)
	}
}
