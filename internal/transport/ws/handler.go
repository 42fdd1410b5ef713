package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"classy-quiz-bot/internal/bot"
	"classy-quiz-bot/internal/domain"
	"classy-quiz-bot/internal/imagegen"
	"classy-quiz-bot/internal/quiz"
	"github.com/gorilla/websocket"
)

// Handler bridges a chat-platform adapter to the bot over a websocket:
// commands and option interactions come in, render payloads and notices go
// out. One connection represents one adapter.
type Handler struct {
	service  *bot.Service
	upgrader websocket.Upgrader
}

func NewHandler(service *bot.Service) *Handler {
	return &Handler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type commandPayload struct {
	Name string      `json:"name"`
	User domain.User `json:"user"`
	Args struct {
		Prompt         string `json:"prompt"`
		NegativePrompt string `json:"negativePrompt"`
		AspectRatio    string `json:"aspectRatio"`
		Steps          int    `json:"steps"`
		Limit          int    `json:"limit"`
	} `json:"args"`
}

type interactPayload struct {
	SessionID string      `json:"sessionId"`
	Option    string      `json:"option"`
	User      domain.User `json:"user"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type sessionMessage struct {
	SessionID string       `json:"sessionId"`
	Message   quiz.Payload `json:"message"`
}

type noticePayload struct {
	Text      string `json:"text"`
	Ephemeral bool   `json:"ephemeral,omitempty"`
}

const (
	defaultAspectRatio     = "3:2"
	defaultSteps           = 30
	defaultLeaderboardSize = 10
)

// ServeWS upgrades the request and runs the command loop.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	done := make(chan struct{})

	// Session timers can fire after the reader loop ends, so send is never
	// closed; sinks race it against done instead.
	go func() {
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "command":
			var payload commandPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid command payload")
				continue
			}
			h.handleCommand(ctx, send, done, payload)
		case "interact":
			var payload interactPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid interact payload")
				continue
			}
			h.handleInteract(ctx, send, payload)
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(done)
}

func (h *Handler) handleCommand(ctx context.Context, send chan outboundMessage[any], done <-chan struct{}, cmd commandPayload) {
	switch cmd.Name {
	case "hello":
		send <- outboundMessage[any]{Type: "notice", Payload: noticePayload{Text: h.service.Hello()}}

	case "imagine":
		ratio := cmd.Args.AspectRatio
		if ratio == "" {
			ratio = defaultAspectRatio
		}
		steps := cmd.Args.Steps
		if steps == 0 {
			steps = defaultSteps
		}
		reply, err := h.service.Imagine(ctx, cmd.User, cmd.Args.Prompt, cmd.Args.NegativePrompt, ratio, steps)
		if errors.Is(err, imagegen.ErrNSFWRejected) {
			send <- outboundMessage[any]{Type: "notice", Payload: noticePayload{Text: "NSFW content detected"}}
			return
		}
		if err != nil {
			log.Printf("imagine failed: %v", err)
			send <- outboundMessage[any]{Type: "notice", Payload: noticePayload{Text: "Something went wrong"}}
			return
		}
		send <- outboundMessage[any]{Type: "image", Payload: reply}

	case "mathquiz", "codeguessr":
		kind := bot.KindMath
		if cmd.Name == "codeguessr" {
			kind = bot.KindCodeGuess
		}
		_, err := h.service.StartQuiz(ctx, kind, func(sessionID string) quiz.MessageSink {
			return &connSink{sessionID: sessionID, send: send, done: done}
		})
		if err != nil {
			log.Printf("start %s failed: %v", cmd.Name, err)
			send <- errorMessage("Something went wrong")
		}

	case "leaderboard":
		limit := cmd.Args.Limit
		if limit <= 0 {
			limit = defaultLeaderboardSize
		}
		text, err := h.service.Leaderboard(ctx, limit)
		if err != nil {
			log.Printf("leaderboard failed: %v", err)
			send <- errorMessage("Something went wrong")
			return
		}
		send <- outboundMessage[any]{Type: "notice", Payload: noticePayload{Text: text}}

	default:
		send <- errorMessage("unknown command")
	}
}

func (h *Handler) handleInteract(ctx context.Context, send chan<- outboundMessage[any], in interactPayload) {
	err := h.service.Answer(ctx, in.SessionID, in.User, in.Option, time.Now())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadySubmitted):
		send <- outboundMessage[any]{Type: "notice", Payload: noticePayload{
			Text:      "You have already submitted an answer",
			Ephemeral: true,
		}}
	case errors.Is(err, domain.ErrSessionNotFound):
		// quiz already finalized; stale button press, drop it
	default:
		log.Printf("interact failed: %v", err)
		send <- errorMessage("Something went wrong")
	}
}

func errorMessage(text string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: noticePayload{Text: text}}
}

var errConnClosed = errors.New("connection closed")

// connSink delivers one session's renders over the connection. The send
// channel serializes writes with every other outbound message.
type connSink struct {
	sessionID string
	send      chan<- outboundMessage[any]
	done      <-chan struct{}
}

func (s *connSink) Post(payload quiz.Payload) error {
	return s.deliver("message", payload)
}

func (s *connSink) Update(payload quiz.Payload) error {
	return s.deliver("messageUpdate", payload)
}

func (s *connSink) deliver(msgType string, payload quiz.Payload) error {
	msg := outboundMessage[any]{Type: msgType, Payload: sessionMessage{SessionID: s.sessionID, Message: payload}}
	select {
	case s.send <- msg:
		return nil
	case <-s.done:
		return errConnClosed
	}
}
