package app_test

import (
	"context"
	"sync"
	"testing"

	"quiz-buzzer-service/internal/domain"
)

// All concurrent buzz attempts against an unlocked state: exactly one wins,
// everyone else observes a rejection.
func TestConcurrentBuzzMutualExclusion(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	teams := make([]domain.Team, 0, 4)
	for slot := 1; slot <= 4; slot++ {
		team, err := service.RegisterTeam(ctx, slot, "Team")
		if err != nil {
			t.Fatalf("register slot %d: %v", slot, err)
		}
		teams = append(teams, team)
	}

	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		var mu sync.Mutex
		accepted := 0

		for _, team := range teams {
			wg.Add(1)
			go func(teamID string) {
				defer wg.Done()
				if err := service.Buzz(ctx, teamID); err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}(team.ID)
		}
		wg.Wait()

		if accepted != 1 {
			t.Fatalf("round %d: expected exactly one accepted buzz, got %d", round, accepted)
		}
		state := service.State()
		if !state.Locked || state.FirstBuzzerID == "" {
			t.Fatalf("round %d: expected locked state with a first buzzer, got %+v", round, state)
		}
		if err := service.Unlock(ctx); err != nil {
			t.Fatalf("round %d: unlock: %v", round, err)
		}
	}
}

func TestBuzzUnknownTeam(t *testing.T) {
	service := newTestService()
	if err := service.Buzz(context.Background(), "ghost"); err != domain.ErrTeamNotFound {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}
