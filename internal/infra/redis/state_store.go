package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-buzzer-service/internal/domain"
)

const stateKey = "buzzer:state"

// StateStore mirrors the authoritative game state into Redis as a JSON blob
// with a liveness TTL. Sibling read-only instances and ops tooling load it;
// the engine treats saves as best-effort.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) Save(ctx context.Context, state domain.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save game state: %w", err)
	}
	return nil
}

// Load returns the last mirrored state. A missing key yields the zero state
// and ok=false.
func (s *StateStore) Load(ctx context.Context) (domain.GameState, bool, error) {
	data, err := s.client.Get(ctx, stateKey).Bytes()
	if err == redis.Nil {
		return domain.GameState{}, false, nil
	}
	if err != nil {
		return domain.GameState{}, false, fmt.Errorf("load game state: %w", err)
	}
	var state domain.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.GameState{}, false, fmt.Errorf("unmarshal game state: %w", err)
	}
	return state, true, nil
}
