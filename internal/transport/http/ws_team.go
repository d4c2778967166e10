package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-buzzer-service/internal/app"
	"quiz-buzzer-service/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type buzzResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// TeamHandler serves the buzzer clients: they receive every state change and
// may only send buzz attempts.
type TeamHandler struct {
	service  *app.GameService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewTeamHandler(service *app.GameService, log *zap.Logger) *TeamHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TeamHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades a buzzer client connection. A team whose registration has
// vanished gets a teamRemoved message and the socket is closed, forcing it
// back to registration.
func (h *TeamHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("teamId")
	if teamID == "" {
		http.Error(w, "missing teamId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if _, err := h.service.Team(teamID); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "teamRemoved", Payload: errorPayload{Message: "team not found, register again"}})
		return
	}

	updates, cancel := h.service.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
			if msg.Type == "teamRemoved" {
				// Terminal for this client; closing unblocks the read loop.
				conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if !teamPresent(update.Teams, teamID) {
					select {
					case send <- outboundMessage[any]{Type: "teamRemoved", Payload: errorPayload{Message: "team was removed, register again"}}:
					case <-closeSignals:
					}
					return
				}
				select {
				case send <- outboundMessage[any]{Type: update.Type, Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "buzz":
			send <- h.handleBuzz(r, teamID)
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handleBuzz maps buzz outcomes onto quiet rejections: a late or repeated
// press is a "too late" indication, never a fatal error.
func (h *TeamHandler) handleBuzz(r *http.Request, teamID string) outboundMessage[any] {
	err := h.service.Buzz(r.Context(), teamID)
	switch {
	case err == nil:
		return outboundMessage[any]{Type: "buzzResult", Payload: buzzResult{Accepted: true}}
	case errors.Is(err, domain.ErrAlreadyLocked):
		return outboundMessage[any]{Type: "buzzResult", Payload: buzzResult{Reason: "locked"}}
	case errors.Is(err, domain.ErrAlreadyBuzzed):
		return outboundMessage[any]{Type: "buzzResult", Payload: buzzResult{Reason: "alreadyBuzzed"}}
	case errors.Is(err, domain.ErrTeamNotFound):
		return outboundMessage[any]{Type: "teamRemoved", Payload: errorPayload{Message: "team was removed, register again"}}
	default:
		// Fail closed: the buzzer goes inert rather than surfacing internals.
		h.log.Error("buzz failed", zap.String("team", teamID), zap.Error(err))
		return outboundMessage[any]{Type: "buzzResult", Payload: buzzResult{Reason: "unavailable"}}
	}
}

func teamPresent(teams []domain.Team, teamID string) bool {
	for _, team := range teams {
		if team.ID == teamID {
			return true
		}
	}
	return false
}
