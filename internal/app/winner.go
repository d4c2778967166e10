package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"quiz-buzzer-service/internal/domain"
)

const quizEndedText = "Quiz Ended - Check Results!"

// EndQuiz resolves the winner and broadcasts it. The winner is the team with
// the strictly highest score; ties go to the team registered earliest. The
// winner announcement expires after the configured display window.
func (s *GameService) EndQuiz(ctx context.Context) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.teams) == 0 {
		return domain.Team{}, domain.ErrNoTeams
	}

	var winner *domain.Team
	for _, team := range s.teams {
		switch {
		case winner == nil:
			winner = team
		case team.Score > winner.Score:
			winner = team
		case team.Score == winner.Score && team.RegOrder < winner.RegOrder:
			winner = team
		}
	}

	s.state.WinnerID = winner.ID
	s.state.QuizEnded = true
	s.state.QuestionText = quizEndedText
	if session := s.findSessionLocked(s.state.SessionID); session != nil && !session.Completed {
		session.Completed = true
		session.Active = false
	}

	s.log.Info("quiz ended", zap.String("winner", winner.ID), zap.Int("score", winner.Score))
	s.broadcastLocked(ctx, domain.UpdateWinner)
	s.scheduleWinnerExpiryLocked()
	return *winner, nil
}

// Leaderboard returns the final standings for a session: score descending,
// ties by earliest registration, with answered/correct/accuracy aggregated
// from the session's recorded rounds.
func (s *GameService) Leaderboard(ctx context.Context, sessionID string) (domain.Leaderboard, error) {
	s.mu.Lock()
	session := s.findSessionLocked(sessionID)
	if session == nil {
		s.mu.Unlock()
		return domain.Leaderboard{}, domain.ErrSessionNotFound
	}
	name := session.Name
	teams := s.teamsLocked()
	s.mu.Unlock()

	stats, err := s.rounds.SessionStats(ctx, sessionID)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("session stats: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(teams))
	for _, team := range teams {
		st := stats[team.ID]
		entry := domain.LeaderboardEntry{
			TeamID:   team.ID,
			TeamName: team.Name,
			Slot:     team.Slot,
			Score:    team.Score,
			Answered: st.Answered,
			Correct:  st.Correct,
		}
		if st.Answered > 0 {
			entry.Accuracy = float64(st.Correct) / float64(st.Answered)
		}
		entries = append(entries, entry)
	}

	order := make(map[string]int, len(teams))
	for _, team := range teams {
		order[team.ID] = team.RegOrder
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return order[entries[i].TeamID] < order[entries[j].TeamID]
	})

	return domain.Leaderboard{
		SessionID:   sessionID,
		SessionName: name,
		Entries:     entries,
		UpdatedAt:   s.now(),
	}, nil
}

// ResetGame wipes teams, buzz history, and the display back to deployment
// defaults. Sessions and their catalogs survive a reset.
func (s *GameService) ResetGame(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teams = make(map[string]*domain.Team)
	s.purgeBuzzesLocked()
	if err := s.releaseLockLocked(ctx); err != nil {
		return err
	}
	s.stopWinnerTimerLocked()
	s.state = domain.GameState{QuestionText: welcomeText}

	s.log.Info("game reset")
	s.broadcastLocked(ctx, domain.UpdateReset)
	return nil
}

// scheduleWinnerExpiryLocked arms the announcement auto-dismiss timer,
// replacing any pending one.
func (s *GameService) scheduleWinnerExpiryLocked() {
	s.stopWinnerTimerLocked()
	s.winnerTimer = time.AfterFunc(s.rules.WinnerWindow, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.winnerTimer = nil
		if s.state.WinnerID == "" {
			return
		}
		s.broadcastLocked(context.Background(), domain.UpdateWinnerExpired)
	})
}

func (s *GameService) stopWinnerTimerLocked() {
	if s.winnerTimer != nil {
		s.winnerTimer.Stop()
		s.winnerTimer = nil
	}
}
