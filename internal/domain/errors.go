package domain

import "errors"

var (
	// ErrSlotTaken is returned when a registration targets an occupied slot.
	ErrSlotTaken = errors.New("team slot already taken")
	// ErrSessionFull is returned when a session already holds the maximum number of questions.
	ErrSessionFull = errors.New("session question limit reached")
	// ErrAlreadyLocked rejects a buzz that arrives after another team won the race.
	ErrAlreadyLocked = errors.New("buzzers are locked")
	// ErrAlreadyBuzzed rejects a repeat buzz from the same team in the current window.
	ErrAlreadyBuzzed = errors.New("team already buzzed")
	// ErrTeamNotFound is returned when a referenced team no longer exists.
	ErrTeamNotFound = errors.New("team not found")
	// ErrSessionNotFound is returned when a referenced session no longer exists.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuestionNotFound is returned when a referenced question no longer exists.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoActiveSession is returned by operations that need a session on display.
	ErrNoActiveSession = errors.New("no active session")
	// ErrNoTeams is returned by EndQuiz when there is nobody to win.
	ErrNoTeams = errors.New("no teams registered")
	// ErrSessionCompleted rejects activation of a completed session; completion is terminal.
	ErrSessionCompleted = errors.New("session already completed")
)
