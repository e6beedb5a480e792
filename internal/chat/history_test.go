package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func Test_Fetch_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	history := NewHistory()

	history.Append("alice", "bob", "alice", "hi")
	history.Append("bob", "alice", "bob", "hey")
	history.Append("alice", "bob", "alice", "how are you")

	forward := history.Fetch("alice", "bob")
	reverse := history.Fetch("bob", "alice")
	req.Equal(forward, reverse)
	req.Len(forward, 3)
}

func Test_Fetch_Preserves_Insertion_Order_On_Timestamp_Ties(t *testing.T) {
	req := require.New(t)
	history := NewHistory()
	history.now = fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	history.Append("alice", "bob", "alice", "first")
	history.Append("alice", "bob", "bob", "second")
	history.Append("alice", "bob", "alice", "third")

	records := history.Fetch("alice", "bob")
	req.Equal([]string{"first", "second", "third"},
		[]string{records[0].Message, records[1].Message, records[2].Message})
}

func Test_Fetch_Empty_Conversation(t *testing.T) {
	req := require.New(t)
	history := NewHistory()

	records := history.Fetch("alice", "bob")
	req.NotNil(records)
	req.Empty(records)
}

func Test_Conversations_Are_Isolated(t *testing.T) {
	req := require.New(t)
	history := NewHistory()

	history.Append("alice", "bob", "alice", "for bob")
	history.Append("alice", "carol", "alice", "for carol")

	req.Len(history.Fetch("alice", "bob"), 1)
	req.Len(history.Fetch("carol", "alice"), 1)
	req.Empty(history.Fetch("bob", "carol"))
}

func Test_Append_Returns_Stored_Record(t *testing.T) {
	req := require.New(t)
	history := NewHistory()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history.now = fixedClock(at)

	record := history.Append("alice", "bob", "alice", "hi")
	req.Equal(Record{From: "alice", Message: "hi", Timestamp: at}, record)
	req.Equal([]Record{record}, history.Fetch("bob", "alice"))
}

func Test_Fetch_Returns_A_Copy(t *testing.T) {
	req := require.New(t)
	history := NewHistory()
	history.Append("alice", "bob", "alice", "hi")

	records := history.Fetch("alice", "bob")
	records[0].Message = "tampered"

	req.Equal("hi", history.Fetch("alice", "bob")[0].Message)
}
