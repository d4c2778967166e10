package app

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-buzzer-service/internal/domain"
)

// Buzz races a team against the lock. Exactly one concurrent attempt against
// an unlocked state wins; all others get ErrAlreadyLocked. A team repeating
// its own buzz in the same window gets ErrAlreadyBuzzed. Every attempt is
// appended to the buzz log either way.
func (s *GameService) Buzz(ctx context.Context, teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[teamID]
	if !ok {
		return domain.ErrTeamNotFound
	}

	if _, dup := s.buzzed[teamID]; dup {
		s.appendBuzzLocked(ctx, team, false)
		return domain.ErrAlreadyBuzzed
	}
	if s.state.Locked {
		s.buzzed[teamID] = struct{}{}
		s.appendBuzzLocked(ctx, team, false)
		return domain.ErrAlreadyLocked
	}

	won, holder, err := s.arbiter.TryAcquire(ctx, teamID)
	if err != nil {
		s.log.Error("lock arbiter failed", zap.String("team", teamID), zap.Error(err))
		return err
	}

	s.buzzed[teamID] = struct{}{}
	if holder != "" {
		// Lock fields move as a unit: holder is the first buzzer, whether it
		// is this team or one racing on a sibling instance.
		s.state.Locked = true
		s.state.FirstBuzzerID = holder
	}
	s.appendBuzzLocked(ctx, team, won)
	if !won {
		return domain.ErrAlreadyLocked
	}
	return nil
}

// Unlock releases the buzz lock by host action.
func (s *GameService) Unlock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.releaseLockLocked(ctx); err != nil {
		return err
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

func (s *GameService) appendBuzzLocked(ctx context.Context, team *domain.Team, accepted bool) {
	s.buzzes = append(s.buzzes, domain.BuzzEvent{
		ID:       uuid.NewString(),
		TeamID:   team.ID,
		TeamName: team.Name,
		Slot:     team.Slot,
		Accepted: accepted,
		At:       s.now(),
	})
	s.broadcastLocked(ctx, domain.UpdateState)
}

// releaseLockLocked clears the lock pair as a unit. It is the only path,
// besides the conditional transition in Buzz, that touches Locked and
// FirstBuzzerID.
func (s *GameService) releaseLockLocked(ctx context.Context) error {
	if err := s.arbiter.Release(ctx); err != nil {
		return err
	}
	s.state.Locked = false
	s.state.FirstBuzzerID = ""
	s.buzzed = make(map[string]struct{})
	return nil
}

// purgeBuzzesLocked drops the per-question buzz history. Called on every
// question change.
func (s *GameService) purgeBuzzesLocked() {
	s.buzzes = nil
}
