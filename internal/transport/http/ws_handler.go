package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ai-ops-scorecard/internal/app"
	"ai-ops-scorecard/internal/domain"
	"ai-ops-scorecard/internal/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler drives one scorecard session per websocket connection.
type WSHandler struct {
	service  *app.QuizService
	log      logger.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler accepts connections from allowedOrigins, or from anywhere when the list is empty.
func NewWSHandler(service *app.QuizService, log logger.Logger, allowedOrigins []string) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Score *int `json:"score"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
}

type noticePayload struct {
	Message string `json:"message"`
}

type errorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func errorMessage(err error) outboundMessage[any] {
	payload := errorPayload{Code: errorCode(err), Message: err.Error()}
	var verr ValidationError
	if errors.As(err, &verr) {
		payload.Fields = verr.Fields
	}
	return outboundMessage[any]{Type: "error", Payload: payload}
}

func noticeMessage(text string) outboundMessage[any] {
	return outboundMessage[any]{Type: "notice", Payload: noticePayload{Message: text}}
}

var errUnsupportedMessage = errors.New("unsupported message type")

// ServeWS upgrades HTTP requests to websockets and wires them into the scorecard use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	clientID := query.Get("clientId")
	if clientID == "" {
		clientID = uuid.NewString()
	}
	sessionID := uuid.NewString()
	ctx := r.Context()
	log := h.log.With(logger.String("session_id", sessionID), logger.String("client_id", clientID))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(ctx, "ws upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	session, err := h.service.Open(ctx, sessionID, clientID)
	if err != nil {
		log.Error(ctx, "failed to open session", logger.Error(err))
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer h.service.Close(context.WithoutCancel(ctx), sessionID)

	if sales, marketing, ops, ok := parseSharedScores(query.Get); ok {
		if _, err := session.LoadFromExternalScores(sales, marketing, ops); err != nil {
			log.Warn(ctx, "ignoring shared scores", logger.Error(err))
		}
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug(ctx, "ws write error", logger.Error(err))
				return
			}
		}
	}()

	enqueue(send, writerDone, outboundMessage[any]{Type: "session", Payload: sessionPayload{SessionID: sessionID, ClientID: clientID}})

	updates, cancel := session.Subscribe()
	defer cancel()

	go func() {
		defer close(updatesDone)
		var lastScreen domain.Screen
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: "state", Payload: update}}
				if update.Screen == domain.ScreenResults && lastScreen != domain.ScreenResults {
					msgs = append(msgs, outboundMessage[any]{Type: "results", Payload: session.Results()})
				}
				lastScreen = update.Screen
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					case <-writerDone:
						return
					}
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
		reply, err := h.handle(ctx, session, inbound)
		if err != nil {
			msg := errorMessage(err)
			reply = &msg
		}
		if reply != nil && !enqueue(send, writerDone, *reply) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer. It reports false once the writer has stopped draining send.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

// handle applies one inbound message. State changes reach the client through the subscription;
// the returned message is an extra reply such as a notice.
func (h *WSHandler) handle(ctx context.Context, session *app.Session, inbound inboundMessage) (*outboundMessage[any], error) {
	switch inbound.Type {
	case "start":
		session.Start(ctx)
	case "resume":
		session.Resume(ctx)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Score == nil {
			return nil, errors.New("invalid answer payload")
		}
		if _, err := session.Answer(ctx, *payload.Score); err != nil {
			return nil, err
		}
	case "back":
		session.GoBack()
	case "continue":
		if _, err := session.ContinueFromTransition(); err != nil {
			return nil, err
		}
	case "submitLead":
		var lead domain.LeadData
		if err := json.Unmarshal(inbound.Payload, &lead); err != nil {
			return nil, errors.New("invalid lead payload")
		}
		lead, err := validateLead(lead)
		if err != nil {
			return nil, err
		}
		if _, err := h.service.SubmitLead(ctx, session.ID(), lead); err != nil {
			return nil, err
		}
		msg := noticeMessage(app.LeadSentNotice)
		return &msg, nil
	case "skipLead":
		if _, err := session.SkipLead(); err != nil {
			return nil, err
		}
	case "restart":
		session.Restart(ctx)
	case "exit":
		session.ExitToLanding(ctx)
	case "consultation":
		var req domain.ConsultationRequest
		if err := json.Unmarshal(inbound.Payload, &req); err != nil {
			return nil, errors.New("invalid consultation payload")
		}
		req, err := validateConsultation(req)
		if err != nil {
			return nil, err
		}
		if err := h.service.RequestConsultation(ctx, session.ID(), req); err != nil {
			return nil, err
		}
		msg := noticeMessage(app.ConsultationSentNotice)
		return &msg, nil
	case "results":
		msg := outboundMessage[any]{Type: "results", Payload: session.Results()}
		return &msg, nil
	default:
		return nil, errUnsupportedMessage
	}
	return nil, nil
}
