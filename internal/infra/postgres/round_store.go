package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-buzzer-service/internal/domain"
)

// RoundStore persists rounds in Postgres and aggregates leaderboard stats
// with a single grouped query.
type RoundStore struct {
	pool *pgxpool.Pool
}

func NewRoundStore(pool *pgxpool.Pool) *RoundStore {
	return &RoundStore{pool: pool}
}

func (s *RoundStore) Append(ctx context.Context, round domain.Round) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rounds (id, session_id, team_id, correct, points, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		round.ID, round.SessionID, round.TeamID, round.Correct, round.Points, round.At)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (s *RoundStore) SessionStats(ctx context.Context, sessionID string) (map[string]domain.RoundStats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT team_id, COUNT(*), COUNT(*) FILTER (WHERE correct) FROM rounds WHERE session_id=$1 GROUP BY team_id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]domain.RoundStats)
	for rows.Next() {
		var teamID string
		var answered, correct int
		if err := rows.Scan(&teamID, &answered, &correct); err != nil {
			return nil, fmt.Errorf("scan session stats: %w", err)
		}
		stats[teamID] = domain.RoundStats{Answered: answered, Correct: correct}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read session stats: %w", err)
	}
	return stats, nil
}

func (s *RoundStore) PurgeSession(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM rounds WHERE session_id=$1`, sessionID); err != nil {
		return fmt.Errorf("purge session rounds: %w", err)
	}
	return nil
}
