// Package chat implements the relay core: the session registry, the
// per-conversation history store, message routing, and connection lifecycle
// handling. The transport layer feeds it decoded events and delivers the
// payloads it produces; the core never touches a socket directly.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ConnID identifies one live transport channel. The transport mints it when
// the channel is established; the core treats it as opaque.
type ConnID string

// Wire event names shared with clients.
const (
	EventJoin        = "join"
	EventChatMessage = "chat message"
	EventPrivate     = "private message"
	EventTyping      = "typing"
	EventStopTyping  = "stop typing"
	EventGetHistory  = "get chat history"

	EventUserConnected    = "user connected"
	EventUserDisconnected = "user disconnected"
	EventOnlineUsers      = "online users"
	EventChatHistory      = "chat history"
	EventSessionReplaced  = "session replaced"
)

// ErrUnknownEvent reports an envelope whose event name is not part of the
// inbound protocol.
var ErrUnknownEvent = errors.New("unknown event")

// Event is the closed set of inbound client events. Exactly one concrete
// type exists per wire event, so dispatch is an exhaustive type switch.
type Event interface {
	isEvent()
}

// Join binds the connection to a self-declared username.
type Join struct {
	Username string
}

// Chat is a public message broadcast to every connected session.
type Chat struct {
	Text string
}

// Private is a point-to-point message addressed by username.
type Private struct {
	To      string
	Message string
}

// Typing signals that the sender started or stopped typing to one peer.
type Typing struct {
	To   string
	Stop bool
}

// HistoryRequest asks for the full conversation log with one peer.
type HistoryRequest struct {
	With string
}

func (Join) isEvent()           {}
func (Chat) isEvent()           {}
func (Private) isEvent()        {}
func (Typing) isEvent()         {}
func (HistoryRequest) isEvent() {}

// envelope mirrors the client frame format: {"event": ..., "payload": ...}.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEvent parses a raw client frame into a typed Event. Join and chat
// payloads are bare JSON strings; the remaining events carry objects.
func DecodeEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Event {
	case EventJoin:
		var username string
		if err := json.Unmarshal(env.Payload, &username); err != nil {
			return nil, fmt.Errorf("decode join payload: %w", err)
		}
		return Join{Username: username}, nil

	case EventChatMessage:
		var text string
		if err := json.Unmarshal(env.Payload, &text); err != nil {
			return nil, fmt.Errorf("decode chat payload: %w", err)
		}
		return Chat{Text: text}, nil

	case EventPrivate:
		var p struct {
			To      string `json:"to"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode private payload: %w", err)
		}
		return Private{To: p.To, Message: p.Message}, nil

	case EventTyping, EventStopTyping:
		var p struct {
			To string `json:"to"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode typing payload: %w", err)
		}
		return Typing{To: p.To, Stop: env.Event == EventStopTyping}, nil

	case EventGetHistory:
		var p struct {
			With string `json:"with"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode history payload: %w", err)
		}
		return HistoryRequest{With: p.With}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}
