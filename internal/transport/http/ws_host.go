package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-buzzer-service/internal/app"
)

// HostHandler serves the admin client: the full operation set as typed
// messages. Errors are surfaced as error payloads and never close the
// socket.
type HostHandler struct {
	service  *app.GameService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewHostHandler(service *app.GameService, log *zap.Logger) *HostHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HostHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type teamOpPayload struct {
	TeamID  string `json:"teamId"`
	Slot    int    `json:"slot"`
	Name    string `json:"name"`
	Delta   int    `json:"delta"`
	Correct bool   `json:"correct"`
	Points  int    `json:"points"`
}

type questionOpPayload struct {
	QuestionID string `json:"questionId"`
	SessionID  string `json:"sessionId"`
	Text       string `json:"text"`
	ImageURL   string `json:"imageUrl"`
	Index      int    `json:"index"`
}

type sessionOpPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

type ackPayload struct {
	Op string `json:"op"`
}

func (h *HostHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

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
		send <- h.dispatch(r.Context(), inbound)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *HostHandler) dispatch(ctx context.Context, inbound inboundMessage) outboundMessage[any] {
	reply, err := h.handle(ctx, inbound)
	if err != nil {
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}
	return reply
}

func (h *HostHandler) handle(ctx context.Context, inbound inboundMessage) (outboundMessage[any], error) {
	ack := outboundMessage[any]{Type: "ok", Payload: ackPayload{Op: inbound.Type}}

	switch inbound.Type {
	case "registerTeam":
		var p teamOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		team, err := h.service.RegisterTeam(ctx, p.Slot, p.Name)
		if err != nil {
			return ack, err
		}
		return outboundMessage[any]{Type: "teamRegistered", Payload: team}, nil
	case "deleteTeam":
		var p teamOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		return ack, h.service.DeleteTeam(ctx, p.TeamID)
	case "adjustScore":
		var p teamOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		_, err := h.service.AdjustScore(ctx, p.TeamID, p.Delta)
		return ack, err
	case "markAnswer":
		var p teamOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		return ack, h.service.MarkAnswer(ctx, p.TeamID, p.Correct, p.Points)
	case "listTeams":
		return outboundMessage[any]{Type: "teams", Payload: h.service.Teams()}, nil
	case "scoreboard":
		return outboundMessage[any]{Type: "scoreboard", Payload: h.service.Scoreboard()}, nil

	case "addQuestion":
		var p questionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		question, err := h.service.AddQuestion(ctx, p.SessionID, p.Text, p.ImageURL)
		if err != nil {
			return ack, err
		}
		return outboundMessage[any]{Type: "questionAdded", Payload: question}, nil
	case "updateQuestion":
		var p questionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		return ack, h.service.UpdateQuestion(ctx, p.QuestionID, p.Text, p.ImageURL)
	case "deleteQuestion":
		var p questionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		return ack, h.service.DeleteQuestion(ctx, p.QuestionID)
	case "listQuestions":
		var p questionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		questions, err := h.service.Questions(p.SessionID)
		if err != nil {
			return ack, err
		}
		return outboundMessage[any]{Type: "questions", Payload: questions}, nil

	case "createSession":
		var p sessionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		session, err := h.service.CreateSession(ctx, p.Name)
		if err != nil {
			return ack, err
		}
		return outboundMessage[any]{Type: "sessionCreated", Payload: session}, nil
	case "activateSession":
		var p sessionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		return ack, h.service.ActivateSession(ctx, p.SessionID)
	case "deactivateSession":
		var p sessionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		return ack, h.service.DeactivateSession(ctx, p.SessionID)
	case "deleteSession":
		var p sessionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		return ack, h.service.DeleteSession(ctx, p.SessionID)
	case "listSessions":
		return outboundMessage[any]{Type: "sessions", Payload: h.service.Sessions()}, nil
	case "startQuiz":
		var p sessionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		return ack, h.service.StartQuiz(ctx, p.SessionID)
	case "endSessionQuiz":
		return ack, h.service.EndSessionQuiz(ctx)

	case "displayQuestion":
		var p questionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		return ack, h.service.DisplayQuestion(ctx, p.Index)
	case "next":
		return ack, h.service.NextQuestion(ctx)
	case "previous":
		return ack, h.service.PreviousQuestion(ctx)
	case "unlock":
		return ack, h.service.Unlock(ctx)

	case "endQuiz":
		winner, err := h.service.EndQuiz(ctx)
		if err != nil {
			return ack, err
		}
		return outboundMessage[any]{Type: "winner", Payload: winner}, nil
	case "leaderboard":
		var p sessionOpPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return ack, err
		}
		lb, err := h.service.Leaderboard(ctx, p.SessionID)
		if err != nil {
			return ack, err
		}
		return outboundMessage[any]{Type: "leaderboard", Payload: lb}, nil
	case "resetGame":
		return ack, h.service.ResetGame(ctx)

	default:
		return ack, errUnsupported(inbound.Type)
	}
}

type errUnsupported string

func (e errUnsupported) Error() string { return "unsupported message type: " + string(e) }
