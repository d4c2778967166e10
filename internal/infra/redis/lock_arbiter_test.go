package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLockArbiterSetNXSemantics(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	arbiter := NewLockArbiter(newClient(mr))
	ctx := context.Background()

	won, holder, err := arbiter.TryAcquire(ctx, "red")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !won || holder != "red" {
		t.Fatalf("expected red to win, got won=%v holder=%s", won, holder)
	}

	won, holder, err = arbiter.TryAcquire(ctx, "blue")
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if won || holder != "red" {
		t.Fatalf("expected blue rejected with red as holder, got won=%v holder=%s", won, holder)
	}

	if err := arbiter.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	won, holder, err = arbiter.TryAcquire(ctx, "blue")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if !won || holder != "blue" {
		t.Fatalf("expected blue to win after release, got won=%v holder=%s", won, holder)
	}
}

func TestLockArbiterReleaseIdempotent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	arbiter := NewLockArbiter(newClient(mr))
	ctx := context.Background()

	if err := arbiter.Release(ctx); err != nil {
		t.Fatalf("release without lock: %v", err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
