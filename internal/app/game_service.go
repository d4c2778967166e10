package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-buzzer-service/internal/domain"
)

// LockArbiter is the single atomic conditional-write primitive behind the
// buzz race. Exactly one concurrent TryAcquire against a released lock may
// return won=true; everyone else observes won=false plus the holder's team ID
// until Release.
type LockArbiter interface {
	TryAcquire(ctx context.Context, teamID string) (won bool, holder string, err error)
	Release(ctx context.Context) error
}

// RoundStore persists scored answer attempts and serves per-session
// aggregates for the final leaderboard.
type RoundStore interface {
	Append(ctx context.Context, round domain.Round) error
	SessionStats(ctx context.Context, sessionID string) (map[string]domain.RoundStats, error)
	PurgeSession(ctx context.Context, sessionID string) error
}

// SnapshotStore mirrors the authoritative game state into shared storage so
// sibling instances and ops tooling can observe it. Saves are best-effort.
type SnapshotStore interface {
	Save(ctx context.Context, state domain.GameState) error
}

// Rules are the tunable game constants.
type Rules struct {
	TeamSlots    int
	MaxQuestions int
	WinnerWindow time.Duration
}

// DefaultRules matches the product defaults: 4 slots, 20 questions per
// session, 10 second winner announcement window.
func DefaultRules() Rules {
	return Rules{TeamSlots: 4, MaxQuestions: 20, WinnerWindow: 10 * time.Second}
}

const welcomeText = "Welcome to the Quiz!"

// GameService is the authoritative buzzer session engine: team registry,
// question catalog, session lifecycle, buzz arbitration, and scoring all go
// through it, and every mutation is fanned out to subscribers.
type GameService struct {
	arbiter LockArbiter
	rounds  RoundStore
	snaps   SnapshotStore
	rules   Rules
	log     *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	teams       map[string]*domain.Team
	regCounter  int
	sessions    []*domain.Session
	sessionSeq  int
	questions   map[string][]*domain.Question
	state       domain.GameState
	buzzes      []domain.BuzzEvent
	buzzed      map[string]struct{}
	subscribers map[chan domain.Update]struct{}
	winnerTimer *time.Timer
}

// Option configures a GameService.
type Option func(*GameService)

// WithSnapshotStore enables best-effort state mirroring.
func WithSnapshotStore(snaps SnapshotStore) Option {
	return func(s *GameService) { s.snaps = snaps }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

func NewGameService(arbiter LockArbiter, rounds RoundStore, rules Rules, log *zap.Logger, opts ...Option) *GameService {
	if rules.TeamSlots <= 0 {
		rules.TeamSlots = DefaultRules().TeamSlots
	}
	if rules.MaxQuestions <= 0 {
		rules.MaxQuestions = DefaultRules().MaxQuestions
	}
	if rules.WinnerWindow <= 0 {
		rules.WinnerWindow = DefaultRules().WinnerWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &GameService{
		arbiter:     arbiter,
		rounds:      rounds,
		rules:       rules,
		log:         log,
		now:         time.Now,
		teams:       make(map[string]*domain.Team),
		questions:   make(map[string][]*domain.Question),
		state:       domain.GameState{QuestionText: welcomeText},
		buzzed:      make(map[string]struct{}),
		subscribers: make(map[chan domain.Update]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe returns a channel that receives an update on every state change,
// starting with the current snapshot. The caller must invoke cancel to avoid
// leaks.
func (s *GameService) Subscribe() (<-chan domain.Update, func()) {
	ch := make(chan domain.Update, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// Sent under the lock so no broadcast can slip in ahead of it; the
	// channel is fresh, the buffered send cannot block.
	ch <- s.snapshotLocked(domain.UpdateState)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// State returns the current game state snapshot.
func (s *GameService) State() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Teams returns all registered teams ordered by slot.
func (s *GameService) Teams() []domain.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teamsLocked()
}

// Team looks up a single team by ID.
func (s *GameService) Team(teamID string) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return domain.Team{}, domain.ErrTeamNotFound
	}
	return *team, nil
}

// BuzzOrder returns the buzz attempts for the current question, newest last.
func (s *GameService) BuzzOrder() []domain.BuzzEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BuzzEvent, len(s.buzzes))
	copy(out, s.buzzes)
	return out
}

func (s *GameService) teamsLocked() []domain.Team {
	out := make([]domain.Team, 0, len(s.teams))
	for _, team := range s.teams {
		out = append(out, *team)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

func (s *GameService) snapshotLocked(updateType string) domain.Update {
	update := domain.Update{
		Type:  updateType,
		State: s.state,
		Teams: s.teamsLocked(),
	}
	if len(s.buzzes) > 0 {
		update.Buzzes = make([]domain.BuzzEvent, len(s.buzzes))
		copy(update.Buzzes, s.buzzes)
	}
	if s.state.WinnerID != "" {
		if winner, ok := s.teams[s.state.WinnerID]; ok {
			w := *winner
			update.Winner = &w
		}
	}
	return update
}

func (s *GameService) broadcastLocked(ctx context.Context, updateType string) domain.Update {
	if s.snaps != nil {
		if err := s.snaps.Save(ctx, s.state); err != nil {
			s.log.Warn("snapshot save failed", zap.Error(err))
		}
	}
	update := s.snapshotLocked(updateType)
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			// Slow subscriber: drop its stalest update so the latest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
	return update
}
