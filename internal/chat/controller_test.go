package chat

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestController(sender *fakeSender) (*Controller, *Registry, *History) {
	registry := NewRegistry()
	history := NewHistory()
	logger := slog.New(slog.DiscardHandler)
	router := NewRouter(registry, history, sender, nil, logger)
	controller := NewController(registry, router, sender, logger)
	return controller, registry, history
}

func Test_Join_Announces_And_Broadcasts_Roster(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	controller, _, _ := newTestController(sender)

	controller.HandleConnect("conn-a")
	controller.HandleEvent("conn-a", Join{Username: "A"})
	controller.HandleEvent("conn-b", Join{Username: "B"})

	req.Len(sender.deliveries, 4)

	// A's join: notice to everyone but A, roster to all.
	req.Equal(delivery{Exclude: "conn-a", Event: EventUserConnected, Data: "A joined the chat"}, sender.deliveries[0])
	req.Equal(delivery{Event: EventOnlineUsers, Data: []string{"A"}}, sender.deliveries[1])

	// B's join: B is excluded from its own notice, roster includes both.
	req.Equal(delivery{Exclude: "conn-b", Event: EventUserConnected, Data: "B joined the chat"}, sender.deliveries[2])
	req.Equal(delivery{Event: EventOnlineUsers, Data: []string{"A", "B"}}, sender.deliveries[3])
}

func Test_Disconnect_After_Join_Broadcasts_Departure(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	controller, registry, _ := newTestController(sender)
	controller.HandleEvent("conn-a", Join{Username: "A"})
	controller.HandleEvent("conn-b", Join{Username: "B"})
	sender.deliveries = nil

	controller.HandleDisconnect("conn-a")

	req.Len(sender.deliveries, 2)
	req.Equal(delivery{Exclude: "conn-a", Event: EventUserDisconnected, Data: "A left the chat"}, sender.deliveries[0])
	req.Equal(delivery{Event: EventOnlineUsers, Data: []string{"B"}}, sender.deliveries[1])

	_, ok := registry.Resolve("A")
	req.False(ok)
}

func Test_Private_Message_To_Departed_User_Is_Dropped(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	controller, _, history := newTestController(sender)
	controller.HandleEvent("conn-a", Join{Username: "A"})
	controller.HandleEvent("conn-b", Join{Username: "B"})
	controller.HandleDisconnect("conn-a")
	sender.deliveries = nil

	controller.HandleEvent("conn-b", Private{To: "A", Message: "still there?"})

	req.Empty(sender.deliveries)
	req.Empty(history.Fetch("A", "B"))
}

func Test_Unjoined_Disconnect_Is_Silent(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	controller, _, _ := newTestController(sender)

	controller.HandleConnect("conn-a")
	controller.HandleDisconnect("conn-a")

	req.Empty(sender.deliveries)
}

func Test_Duplicate_Join_Notifies_Displaced_Connection(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	controller, registry, _ := newTestController(sender)
	controller.HandleEvent("conn-a", Join{Username: "A"})
	sender.deliveries = nil

	controller.HandleEvent("conn-b", Join{Username: "A"})

	notices := sender.sentTo("conn-a")
	req.Len(notices, 1)
	req.Equal(EventSessionReplaced, notices[0].Event)

	conn, ok := registry.Resolve("A")
	req.True(ok)
	req.Equal(ConnID("conn-b"), conn)
	req.Equal([]string{"A"}, registry.Presence())
}

func Test_Rejoin_Renames_Without_Departure_Notice(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	controller, registry, _ := newTestController(sender)
	controller.HandleEvent("conn-a", Join{Username: "A"})
	sender.deliveries = nil

	controller.HandleEvent("conn-a", Join{Username: "A2"})

	for _, d := range sender.deliveries {
		req.NotEqual(EventUserDisconnected, d.Event)
		req.NotEqual(EventSessionReplaced, d.Event)
	}
	req.Equal([]string{"A2"}, registry.Presence())
}

func Test_Chat_Event_Dispatches_To_Broadcast(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	controller, _, _ := newTestController(sender)
	controller.HandleEvent("conn-a", Join{Username: "A"})
	sender.deliveries = nil

	controller.HandleEvent("conn-a", Chat{Text: "hello"})

	req.Len(sender.deliveries, 1)
	req.Equal(delivery{Event: EventChatMessage, Data: "A: hello"}, sender.deliveries[0])
}

func Test_Full_Private_Conversation_Flow(t *testing.T) {
	req := require.New(t)
	sender := &fakeSender{}
	controller, _, _ := newTestController(sender)
	controller.HandleEvent("conn-a", Join{Username: "A"})
	controller.HandleEvent("conn-b", Join{Username: "B"})
	controller.HandleEvent("conn-a", Private{To: "B", Message: "hi"})
	sender.deliveries = nil

	controller.HandleEvent("conn-b", HistoryRequest{With: "A"})

	req.Len(sender.deliveries, 1)
	payload := sender.deliveries[0].Data.(HistoryPayload)
	req.Equal("A", payload.With)
	req.Len(payload.Messages, 1)
	req.Equal("A", payload.Messages[0].From)
	req.Equal("hi", payload.Messages[0].Message)
}
