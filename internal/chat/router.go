package chat

import (
	"fmt"
	"log/slog"
	"time"
)

// Display names used when the sender never joined.
const (
	anonymousName = "Anonymous"
	unknownName   = "Unknown"
	echoName      = "You"
)

// Sender delivers outbound events to connections. The transport hub
// implements it; tests substitute a recorder.
type Sender interface {
	Send(conn ConnID, event string, data any)
	Broadcast(event string, data any)
	BroadcastExcept(exclude ConnID, event string, data any)
}

// Moderator filters relayed message text before delivery and storage.
type Moderator interface {
	Censor(text string) string
}

// PrivatePayload is delivered twice per private message: once to the target
// and once back to the sender as an echo carrying the To field.
type PrivatePayload struct {
	From      string    `json:"from"`
	Message   string    `json:"message"`
	To        string    `json:"to,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryPayload answers a history request for one peer.
type HistoryPayload struct {
	With     string   `json:"with"`
	Messages []Record `json:"messages"`
}

// Router resolves broadcast and targeted deliveries for chat, private,
// typing, and history events. It holds no state of its own; everything lives
// in the injected registry and history store. Unresolvable targets and
// unjoined actors are soft failures handled by dropping the event.
type Router struct {
	registry *Registry
	history  *History
	sender   Sender
	mod      Moderator
	logger   *slog.Logger
}

// NewRouter wires the router to its collaborators. mod may be nil to relay
// text unfiltered.
func NewRouter(registry *Registry, history *History, sender Sender, mod Moderator, logger *slog.Logger) *Router {
	return &Router{
		registry: registry,
		history:  history,
		sender:   sender,
		mod:      mod,
		logger:   logger,
	}
}

// BroadcastChat formats a public message as "<username>: <text>" and
// delivers it to every connected session, the sender included. Broadcasts
// are never recorded in history.
func (rt *Router) BroadcastChat(sender ConnID, text string) {
	username, ok := rt.registry.Username(sender)
	if !ok {
		username = anonymousName
	}
	rt.sender.Broadcast(EventChatMessage, fmt.Sprintf("%s: %s", username, rt.censor(text)))
}

// PrivateMessage stores and delivers a point-to-point message. The target
// receives the message under the sender's name; the sender receives an echo
// attributed to "You". Both payloads carry the stored record's timestamp.
// Unknown targets drop the message without history mutation.
func (rt *Router) PrivateMessage(sender ConnID, to, message string) {
	from, ok := rt.registry.Username(sender)
	if !ok {
		from = unknownName
	}

	target, ok := rt.registry.Resolve(to)
	if !ok {
		rt.logger.Debug("dropping private message to unknown user", "to", to, "from", from)
		return
	}

	message = rt.censor(message)
	record := rt.history.Append(from, to, from, message)

	rt.sender.Send(target, EventPrivate, PrivatePayload{
		From:      from,
		Message:   message,
		Timestamp: record.Timestamp,
	})
	rt.sender.Send(sender, EventPrivate, PrivatePayload{
		From:      echoName,
		To:        to,
		Message:   message,
		Timestamp: record.Timestamp,
	})
}

// Typing forwards a typing or stop-typing notice carrying the sender's
// username to one target connection. Nothing is persisted. Notices from
// connections that never joined are dropped along with unknown targets.
func (rt *Router) Typing(sender ConnID, to string, stop bool) {
	from, ok := rt.registry.Username(sender)
	if !ok {
		return
	}
	target, ok := rt.registry.Resolve(to)
	if !ok {
		return
	}

	event := EventTyping
	if stop {
		event = EventStopTyping
	}
	rt.sender.Send(target, event, from)
}

// ChatHistory replies to the requester with the full conversation log for
// the (requester, with) pair. Requests from connections that never joined
// are dropped.
func (rt *Router) ChatHistory(requester ConnID, with string) {
	from, ok := rt.registry.Username(requester)
	if !ok {
		rt.logger.Debug("dropping history request from unjoined connection", "conn", string(requester))
		return
	}

	rt.sender.Send(requester, EventChatHistory, HistoryPayload{
		With:     with,
		Messages: rt.history.Fetch(from, with),
	})
}

func (rt *Router) censor(text string) string {
	if rt.mod == nil {
		return text
	}
	return rt.mod.Censor(text)
}
