package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-buzzer-service/internal/domain"
)

// RegisterTeam claims a slot for a new team. The slot must be free; nothing
// is created on failure.
func (s *GameService) RegisterTeam(ctx context.Context, slot int, name string) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot < 1 || slot > s.rules.TeamSlots {
		return domain.Team{}, fmt.Errorf("slot %d out of range 1..%d", slot, s.rules.TeamSlots)
	}
	for _, team := range s.teams {
		if team.Slot == slot {
			return domain.Team{}, domain.ErrSlotTaken
		}
	}

	s.regCounter++
	team := &domain.Team{
		ID:           uuid.NewString(),
		Slot:         slot,
		Name:         name,
		RegOrder:     s.regCounter,
		RegisteredAt: s.now(),
	}
	s.teams[team.ID] = team
	s.log.Info("team registered", zap.String("team", team.ID), zap.Int("slot", slot), zap.String("name", name))
	s.broadcastLocked(ctx, domain.UpdateState)
	return *team, nil
}

// DeleteTeam removes a team and, in the same critical section, every
// outstanding reference to it: its buzz events, the first-buzzer lock, and
// the winner flag. Nothing may keep pointing at a deleted team.
func (s *GameService) DeleteTeam(ctx context.Context, teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[teamID]; !ok {
		return domain.ErrTeamNotFound
	}

	// Release first: if the arbiter fails the delete aborts with nothing
	// mutated yet.
	if s.state.FirstBuzzerID == teamID {
		if err := s.releaseLockLocked(ctx); err != nil {
			return err
		}
	}

	kept := s.buzzes[:0]
	for _, ev := range s.buzzes {
		if ev.TeamID != teamID {
			kept = append(kept, ev)
		}
	}
	s.buzzes = kept
	delete(s.buzzed, teamID)
	if s.state.WinnerID == teamID {
		s.state.WinnerID = ""
		s.state.QuizEnded = false
		s.stopWinnerTimerLocked()
	}

	delete(s.teams, teamID)
	s.log.Info("team deleted", zap.String("team", teamID))
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

// AdjustScore applies a delta to a team's score, flooring at zero.
func (s *GameService) AdjustScore(ctx context.Context, teamID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[teamID]
	if !ok {
		return 0, domain.ErrTeamNotFound
	}
	team.Score += delta
	if team.Score < 0 {
		team.Score = 0
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return team.Score, nil
}

// MarkAnswer records a scored answer attempt for the session on display and
// adjusts the team's score when correct. The recorded rounds feed the
// per-session leaderboard aggregates.
func (s *GameService) MarkAnswer(ctx context.Context, teamID string, correct bool, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[teamID]
	if !ok {
		return domain.ErrTeamNotFound
	}
	if s.state.SessionID == "" {
		return domain.ErrNoActiveSession
	}
	if points <= 0 {
		points = 1
	}

	round := domain.Round{
		ID:        uuid.NewString(),
		SessionID: s.state.SessionID,
		TeamID:    teamID,
		Correct:   correct,
		Points:    points,
		At:        s.now(),
	}
	if err := s.rounds.Append(ctx, round); err != nil {
		return fmt.Errorf("record round: %w", err)
	}

	if correct {
		team.Score += points
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

// Scoreboard returns the teams ordered by score descending, ties broken by
// earliest registration. This is the any-time view, distinct from the
// per-session leaderboard.
func (s *GameService) Scoreboard() []domain.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.teamsLocked()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].RegOrder < out[j].RegOrder
	})
	return out
}
