package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-buzzer-service/internal/app"
	"quiz-buzzer-service/internal/domain"
)

// StatsCache fronts a RoundStore with a TTL cache on the aggregate reads.
// Leaderboard lookups hammer the same session key when a quiz ends, so
// lookups are deduplicated with singleflight and expirations are jittered.
type StatsCache struct {
	store app.RoundStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedStats
}

type cachedStats struct {
	stats     map[string]domain.RoundStats
	expiresAt time.Time
}

func NewStatsCache(store app.RoundStore, ttl time.Duration) *StatsCache {
	return &StatsCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedStats),
	}
}

// Append writes through and invalidates the session's cached aggregate.
func (c *StatsCache) Append(ctx context.Context, round domain.Round) error {
	if err := c.store.Append(ctx, round); err != nil {
		return err
	}
	c.invalidate(round.SessionID)
	return nil
}

func (c *StatsCache) SessionStats(ctx context.Context, sessionID string) (map[string]domain.RoundStats, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[sessionID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.stats, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(sessionID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[sessionID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.stats, nil
		}
		c.mu.RUnlock()

		stats, err := c.store.SessionStats(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[sessionID] = cachedStats{stats: stats, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]domain.RoundStats), nil
}

func (c *StatsCache) PurgeSession(ctx context.Context, sessionID string) error {
	if err := c.store.PurgeSession(ctx, sessionID); err != nil {
		return err
	}
	c.invalidate(sessionID)
	return nil
}

func (c *StatsCache) invalidate(sessionID string) {
	c.mu.Lock()
	delete(c.cache, sessionID)
	c.mu.Unlock()
}

func (c *StatsCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
