package memory

import (
	"context"
	"sync"

	"quiz-buzzer-service/internal/domain"
)

// RoundStore keeps recorded rounds in memory, grouped by session.
type RoundStore struct {
	mu     sync.RWMutex
	rounds map[string][]domain.Round
}

func NewRoundStore() *RoundStore {
	return &RoundStore{rounds: make(map[string][]domain.Round)}
}

func (s *RoundStore) Append(_ context.Context, round domain.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[round.SessionID] = append(s.rounds[round.SessionID], round)
	return nil
}

func (s *RoundStore) SessionStats(_ context.Context, sessionID string) (map[string]domain.RoundStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]domain.RoundStats)
	for _, round := range s.rounds[sessionID] {
		st := stats[round.TeamID]
		st.Answered++
		if round.Correct {
			st.Correct++
		}
		stats[round.TeamID] = st
	}
	return stats, nil
}

func (s *RoundStore) PurgeSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rounds, sessionID)
	return nil
}
