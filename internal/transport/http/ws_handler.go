package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *zap.Logger, checkOrigin func(r *http.Request) bool) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type summaryPayload struct {
	Summary  domain.AttemptSummary `json:"summary"`
	Recorded bool                  `json:"recorded"`
	Record   *domain.UserRecord    `json:"record,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// ServeWS runs one quiz session over a websocket. The session is dropped
// when the connection closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count < 0 {
		count = 0
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	snap, err := h.service.StartSession(r.Context(), userID, count)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	sessionID := snap.ID
	defer h.service.Abandon(r.Context(), sessionID)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer; gorilla connections allow one concurrent writer only.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", zap.String("session_id", sessionID), zap.Error(err))
				return
			}
		}
	}()

	if !enqueue(send, writerDone, outboundMessage[any]{Type: "question", Payload: snap}) {
		return
	}

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(r.Context(), sessionID, inbound) {
			if !enqueue(send, writerDone, msg) {
				break read
			}
		}
	}

	close(send)
	<-writerDone
}

// handle runs one inbound message against the session and returns the replies in order.
func (h *WSHandler) handle(ctx context.Context, sessionID string, inbound inboundMessage) []outboundMessage[any] {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}}
		}
		result, err := h.service.Answer(ctx, sessionID, payload.Option)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		out := []outboundMessage[any]{{Type: "answerResult", Payload: result.AnswerOutcome}}
		if result.Summary != nil {
			return append(out, outboundMessage[any]{Type: "summary", Payload: summaryPayload{
				Summary:  *result.Summary,
				Recorded: result.Recorded,
				Record:   result.Record,
			}})
		}
		next, err := h.service.Session(ctx, sessionID)
		if err != nil {
			return append(out, errorMessage(err))
		}
		return append(out, outboundMessage[any]{Type: "question", Payload: next})
	default:
		return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}}
	}
}

// enqueue hands msg to the writer. It reports false once the writer has
// stopped, so callers never block on a full buffer nobody drains.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}
