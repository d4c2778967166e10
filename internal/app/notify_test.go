package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-buzzer-service/internal/app"
	"quiz-buzzer-service/internal/domain"
	"quiz-buzzer-service/internal/infra/memory"
)

func awaitUpdate(t *testing.T, updates <-chan domain.Update, typ string, wait time.Duration) domain.Update {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case update := <-updates:
			if update.Type == typ {
				return update
			}
		case <-deadline:
			t.Fatalf("no %s update within %s", typ, wait)
		}
	}
}

func denyUpdate(t *testing.T, updates <-chan domain.Update, typ string, wait time.Duration) {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Type == typ {
				t.Fatalf("unexpected %s update", typ)
			}
		case <-deadline:
			return
		}
	}
}

func TestWinnerDisplayExpires(t *testing.T) {
	ctx := context.Background()
	rules := app.DefaultRules()
	rules.WinnerWindow = 10 * time.Millisecond
	service := app.NewGameService(memory.NewLockArbiter(), memory.NewRoundStore(), rules, nil)

	red, _ := service.RegisterTeam(ctx, 1, "Red")
	service.AdjustScore(ctx, red.ID, 5)

	updates, cancel := service.Subscribe()
	defer cancel()

	if _, err := service.EndQuiz(ctx); err != nil {
		t.Fatalf("end quiz: %v", err)
	}
	update := awaitUpdate(t, updates, domain.UpdateWinnerExpired, time.Second)
	if update.State.WinnerID != red.ID {
		t.Fatalf("expected winner still recorded on expiry, got %+v", update.State)
	}
}

func TestResetCancelsWinnerExpiry(t *testing.T) {
	ctx := context.Background()
	rules := app.DefaultRules()
	rules.WinnerWindow = 20 * time.Millisecond
	service := app.NewGameService(memory.NewLockArbiter(), memory.NewRoundStore(), rules, nil)

	red, _ := service.RegisterTeam(ctx, 1, "Red")
	service.AdjustScore(ctx, red.ID, 5)

	if _, err := service.EndQuiz(ctx); err != nil {
		t.Fatalf("end quiz: %v", err)
	}
	if err := service.ResetGame(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	updates, cancel := service.Subscribe()
	defer cancel()
	denyUpdate(t, updates, domain.UpdateWinnerExpired, 80*time.Millisecond)
}

func TestDeletingWinnerCancelsExpiry(t *testing.T) {
	ctx := context.Background()
	rules := app.DefaultRules()
	rules.WinnerWindow = 20 * time.Millisecond
	service := app.NewGameService(memory.NewLockArbiter(), memory.NewRoundStore(), rules, nil)

	red, _ := service.RegisterTeam(ctx, 1, "Red")
	service.AdjustScore(ctx, red.ID, 5)

	if _, err := service.EndQuiz(ctx); err != nil {
		t.Fatalf("end quiz: %v", err)
	}
	if err := service.DeleteTeam(ctx, red.ID); err != nil {
		t.Fatalf("delete winner: %v", err)
	}

	updates, cancel := service.Subscribe()
	defer cancel()
	denyUpdate(t, updates, domain.UpdateWinnerExpired, 80*time.Millisecond)
}

func TestWatchCompletionAnnouncesOnce(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	session, _ := service.CreateSession(ctx, "Round One")
	service.AddQuestion(ctx, session.ID, "Q1", "")
	service.StartQuiz(ctx, session.ID)
	// Advancing past the last question completes the displayed session.
	if err := service.NextQuestion(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}

	updates, cancel := service.Subscribe()
	defer cancel()

	watchCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		service.WatchCompletion(watchCtx, 5*time.Millisecond)
	}()

	awaitUpdate(t, updates, domain.UpdateSessionCompleted, time.Second)
	// Further ticks must not re-announce the same session.
	denyUpdate(t, updates, domain.UpdateSessionCompleted, 60*time.Millisecond)

	stop()
	<-done
}

func TestSubscribeSnapshotNeverRegresses(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	red, _ := service.RegisterTeam(ctx, 1, "Red")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			service.AdjustScore(ctx, red.ID, 1)
		}
	}()

	updates, cancel := service.Subscribe()
	defer cancel()

	last := -1
	for {
		select {
		case update := <-updates:
			if len(update.Teams) != 1 {
				t.Fatalf("expected one team in snapshot, got %d", len(update.Teams))
			}
			score := update.Teams[0].Score
			if score < last {
				t.Fatalf("score regressed from %d to %d", last, score)
			}
			last = score
			if score == 100 {
				<-done
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("final score never observed, last=%d", last)
		}
	}
}
