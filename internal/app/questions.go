package app

import (
	"context"

	"github.com/google/uuid"

	"quiz-buzzer-service/internal/domain"
)

// AddQuestion appends a question to a session's catalog. The session caps
// out at MaxQuestions.
func (s *GameService) AddQuestion(ctx context.Context, sessionID, text, imageURL string) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findSessionLocked(sessionID) == nil {
		return domain.Question{}, domain.ErrSessionNotFound
	}
	existing := s.questions[sessionID]
	if len(existing) >= s.rules.MaxQuestions {
		return domain.Question{}, domain.ErrSessionFull
	}

	question := &domain.Question{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Position:  len(existing) + 1,
		Text:      text,
		ImageURL:  imageURL,
	}
	s.questions[sessionID] = append(existing, question)
	s.broadcastLocked(ctx, domain.UpdateState)
	return *question, nil
}

// UpdateQuestion edits a question's text and image. If the question is on
// display, the denormalized display fields follow.
func (s *GameService) UpdateQuestion(ctx context.Context, questionID, text, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	question := s.findQuestionLocked(questionID)
	if question == nil {
		return domain.ErrQuestionNotFound
	}
	question.Text = text
	question.ImageURL = imageURL

	if s.state.QuestionID == questionID {
		s.state.QuestionText = text
		s.state.ImageURL = imageURL
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

// DeleteQuestion removes a question and renumbers the remaining positions to
// stay dense. If the deleted question is on display, the display moves to
// the next question, else the previous one, else it is cleared. It never
// points at a deleted question.
func (s *GameService) DeleteQuestion(ctx context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	question := s.findQuestionLocked(questionID)
	if question == nil {
		return domain.ErrQuestionNotFound
	}
	sessionID := question.SessionID
	list := s.questions[sessionID]
	idx := question.Position - 1

	list = append(list[:idx], list[idx+1:]...)
	for i, q := range list {
		q.Position = i + 1
	}
	s.questions[sessionID] = list

	if s.state.QuestionID == questionID {
		switch {
		case idx < len(list):
			// The question now occupying the old index takes over the display.
			if err := s.displayLocked(ctx, idx); err != nil {
				return err
			}
		case idx-1 >= 0:
			if err := s.displayLocked(ctx, idx-1); err != nil {
				return err
			}
		default:
			s.clearDisplayLocked()
			if err := s.releaseLockLocked(ctx); err != nil {
				return err
			}
		}
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

// Questions returns the catalog for a session in display order.
func (s *GameService) Questions(sessionID string) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findSessionLocked(sessionID) == nil {
		return nil, domain.ErrSessionNotFound
	}
	list := s.questions[sessionID]
	out := make([]domain.Question, 0, len(list))
	for _, q := range list {
		out = append(out, *q)
	}
	return out, nil
}

// DisplayQuestion puts the question at the given zero-based index of the
// session on display, which always unlocks the buzzers and purges the buzz
// history.
func (s *GameService) DisplayQuestion(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.displayLocked(ctx, index); err != nil {
		return err
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

// NextQuestion advances the display. Advancing past the last question marks
// the session completed instead.
func (s *GameService) NextQuestion(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.findSessionLocked(s.state.SessionID)
	if session == nil {
		return domain.ErrNoActiveSession
	}
	list := s.questions[session.ID]
	next := s.state.QuestionIndex + 1
	if s.state.QuestionID == "" {
		// Nothing on display yet: a bare activation starts at the front.
		next = 0
	}
	if next < len(list) {
		if err := s.displayLocked(ctx, next); err != nil {
			return err
		}
		s.broadcastLocked(ctx, domain.UpdateState)
		return nil
	}
	if !session.Completed {
		s.completeLocked(ctx, session)
	}
	return nil
}

// PreviousQuestion steps the display back, clamping at the first question.
func (s *GameService) PreviousQuestion(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findSessionLocked(s.state.SessionID) == nil {
		return domain.ErrNoActiveSession
	}
	if s.state.QuestionIndex == 0 {
		return nil
	}
	if err := s.displayLocked(ctx, s.state.QuestionIndex-1); err != nil {
		return err
	}
	s.broadcastLocked(ctx, domain.UpdateState)
	return nil
}

func (s *GameService) displayLocked(ctx context.Context, index int) error {
	if s.state.SessionID == "" {
		return domain.ErrNoActiveSession
	}
	list := s.questions[s.state.SessionID]
	if index < 0 || index >= len(list) {
		return domain.ErrQuestionNotFound
	}
	question := list[index]
	s.state.QuestionID = question.ID
	s.state.QuestionText = question.Text
	s.state.ImageURL = question.ImageURL
	s.state.QuestionIndex = index
	s.purgeBuzzesLocked()
	return s.releaseLockLocked(ctx)
}

func (s *GameService) findQuestionLocked(questionID string) *domain.Question {
	for _, list := range s.questions {
		for _, q := range list {
			if q.ID == questionID {
				return q
			}
		}
	}
	return nil
}
