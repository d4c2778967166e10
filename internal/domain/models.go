package domain

import "time"

// Team occupies one of the fixed buzzer slots. RegOrder is a monotonically
// increasing registration counter used as the deterministic tie-break when
// resolving the winner.
type Team struct {
	ID           string    `json:"id"`
	Slot         int       `json:"slot"`
	Name         string    `json:"name"`
	Score        int       `json:"score"`
	RegOrder     int       `json:"-"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Session is a named, ordered collection of up to MaxQuestions questions.
// At most one session is active at any time; completion is terminal.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Number    int       `json:"number"`
	Active    bool      `json:"active"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question belongs to a session. Positions form a dense 1..N sequence and
// are renumbered on deletion.
type Question struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Position  int    `json:"position"`
	Text      string `json:"text"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// GameState is the single shared record describing what is currently
// displayed and who holds the buzz lock. Locked is true exactly when
// FirstBuzzerID is set; WinnerID set implies QuizEnded.
type GameState struct {
	SessionID     string `json:"sessionId,omitempty"`
	QuestionID    string `json:"questionId,omitempty"`
	QuestionText  string `json:"questionText"`
	ImageURL      string `json:"imageUrl,omitempty"`
	QuestionIndex int    `json:"questionIndex"`
	Locked        bool   `json:"locked"`
	FirstBuzzerID string `json:"firstBuzzerId,omitempty"`
	WinnerID      string `json:"winnerId,omitempty"`
	QuizEnded     bool   `json:"quizEnded"`
}

// BuzzEvent records one buzz attempt, accepted or rejected. Team name and
// slot are denormalized so the host panel survives team deletion mid-display.
type BuzzEvent struct {
	ID       string    `json:"id"`
	TeamID   string    `json:"teamId"`
	TeamName string    `json:"teamName"`
	Slot     int       `json:"slot"`
	Accepted bool      `json:"accepted"`
	At       time.Time `json:"at"`
}

// Round is one scored answer attempt within a session, the raw material for
// per-session leaderboard aggregates.
type Round struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	TeamID    string    `json:"teamId"`
	Correct   bool      `json:"correct"`
	Points    int       `json:"points"`
	At        time.Time `json:"at"`
}

// RoundStats aggregates a team's rounds within one session.
type RoundStats struct {
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
}

// LeaderboardEntry is one row of the per-session final leaderboard.
type LeaderboardEntry struct {
	TeamID   string  `json:"teamId"`
	TeamName string  `json:"teamName"`
	Slot     int     `json:"slot"`
	Score    int     `json:"score"`
	Answered int     `json:"answered"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Leaderboard is the ordered final scoreboard for a session.
type Leaderboard struct {
	SessionID   string             `json:"sessionId"`
	SessionName string             `json:"sessionName"`
	Entries     []LeaderboardEntry `json:"entries"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// Update types pushed to subscribers on every state change.
const (
	UpdateState            = "state"
	UpdateWinner           = "winner"
	UpdateWinnerExpired    = "winnerExpired"
	UpdateSessionCompleted = "sessionCompleted"
	UpdateReset            = "reset"
)

// Update is the change notification fanned out to every observer (host
// dashboard, buzzer clients, public display).
type Update struct {
	Type   string      `json:"type"`
	State  GameState   `json:"state"`
	Teams  []Team      `json:"teams"`
	Buzzes []BuzzEvent `json:"buzzes,omitempty"`
	Winner *Team       `json:"winner,omitempty"`
}
