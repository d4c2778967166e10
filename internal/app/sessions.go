package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-buzzer-service/internal/domain"
)

// CreateSession registers a new session with the next ordinal number.
func (s *GameService) CreateSession(ctx context.Context, name string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionSeq++
	session := &domain.Session{
		ID:        uuid.NewString(),
		Name:      name,
		Number:    s.sessionSeq,
		CreatedAt: s.now(),
	}
	s.sessions = append(s.sessions, session)
	s.log.Info("session created", zap.String("session", session.ID), zap.String("name", name))
	s.broadcastLocked(ctx, domain.UpdateState)
	return *session, nil
}

// ActivateSession makes one session active and every other inactive as a
// single step. The display is cleared so the previous session's question is
// never shown under the new session's identity.
func (s *GameService) ActivateSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activateLocked(ctx, sessionID); err != nil {
		return err
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

func (s *GameService) activateLocked(ctx context.Context, sessionID string) error {
	target := s.findSessionLocked(sessionID)
	if target == nil {
		return domain.ErrSessionNotFound
	}
	if target.Completed {
		return domain.ErrSessionCompleted
	}

	for _, session := range s.sessions {
		session.Active = session.ID == sessionID
	}
	s.state.SessionID = sessionID
	s.clearDisplayLocked()
	return s.releaseLockLocked(ctx)
}

// DeactivateSession clears the active flag. If the display currently shows
// this session it is reset, so stale content is never shown without an
// active session.
func (s *GameService) DeactivateSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.findSessionLocked(sessionID)
	if session == nil {
		return domain.ErrSessionNotFound
	}
	session.Active = false

	if s.state.SessionID == sessionID {
		s.state.SessionID = ""
		s.clearDisplayLocked()
		if err := s.releaseLockLocked(ctx); err != nil {
			return err
		}
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

// CompleteSession marks a session completed. Completion is terminal; a
// completed session can only be deleted or left archived.
func (s *GameService) CompleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.findSessionLocked(sessionID)
	if session == nil {
		return domain.ErrSessionNotFound
	}
	if session.Completed {
		return nil
	}
	s.completeLocked(ctx, session)
	return nil
}

func (s *GameService) completeLocked(ctx context.Context, session *domain.Session) {
	session.Completed = true
	session.Active = false
	s.log.Info("session completed", zap.String("session", session.ID))
	s.broadcastLocked(ctx, domain.UpdateSessionCompleted)
}

// DeleteSession removes a session together with its questions and, in the
// same critical section, clears any display reference to it.
func (s *GameService) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, session := range s.sessions {
		if session.ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrSessionNotFound
	}

	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	delete(s.questions, sessionID)

	if s.state.SessionID == sessionID {
		s.state.SessionID = ""
		s.clearDisplayLocked()
		if err := s.releaseLockLocked(ctx); err != nil {
			return err
		}
	}
	if err := s.rounds.PurgeSession(ctx, sessionID); err != nil {
		s.log.Warn("purge session rounds failed", zap.String("session", sessionID), zap.Error(err))
	}
	s.log.Info("session deleted", zap.String("session", sessionID))
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

// Sessions returns all sessions ordered by number.
func (s *GameService) Sessions() []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, *session)
	}
	return out
}

// StartQuiz activates a session and puts its first question on display in
// one operation.
func (s *GameService) StartQuiz(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := s.questions[sessionID]
	if len(questions) == 0 {
		return domain.ErrQuestionNotFound
	}
	if err := s.activateLocked(ctx, sessionID); err != nil {
		return err
	}
	if err := s.displayLocked(ctx, 0); err != nil {
		return err
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

// EndSessionQuiz takes the current session off display without declaring a
// winner. The session itself stays as it is.
func (s *GameService) EndSessionQuiz(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.SessionID = ""
	s.clearDisplayLocked()
	if err := s.releaseLockLocked(ctx); err != nil {
		return err
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

// WatchCompletion polls the session registry at the given interval and
// re-announces completion of the session on display. Polling here is a
// deliberate low-frequency exception to push-based propagation, for
// observers that attach after the completion event fired.
func (s *GameService) WatchCompletion(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var announced string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if current := s.findSessionLocked(s.state.SessionID); current != nil && current.Completed && announced != current.ID {
			announced = current.ID
			s.broadcastLocked(ctx, domain.UpdateSessionCompleted)
		}
		s.mu.Unlock()
	}
}

func (s *GameService) findSessionLocked(sessionID string) *domain.Session {
	for _, session := range s.sessions {
		if session.ID == sessionID {
			return session
		}
	}
	return nil
}

// clearDisplayLocked blanks the question fields and the buzz history. The
// session reference is left to the caller.
func (s *GameService) clearDisplayLocked() {
	s.state.QuestionID = ""
	s.state.QuestionText = ""
	s.state.ImageURL = ""
	s.state.QuestionIndex = 0
	s.purgeBuzzesLocked()
}
