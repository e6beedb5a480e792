package chat

import (
	"sync"
	"time"
)

// Record is one stored private message. Records are immutable once appended;
// insertion order is authoritative for retrieval, timestamps are wall-clock
// and not required to be strictly increasing.
type Record struct {
	From      string    `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// History stores per-pair private conversation logs in memory, keyed by the
// unordered username pair. Logs grow for the lifetime of the process;
// eviction and persistence are explicitly out of scope.
type History struct {
	mu   sync.RWMutex
	logs map[string][]Record
	now  func() time.Time
}

// NewHistory returns an empty history store using the wall clock.
func NewHistory() *History {
	return &History{
		logs: make(map[string][]Record),
		now:  time.Now,
	}
}

// conversationKey canonicalizes the unordered username pair so (a, b) and
// (b, a) address the same log. A NUL separator keeps usernames containing
// ordinary punctuation from colliding across different pairs.
func conversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// Append adds a message from one member of the (userA, userB) conversation,
// creating the log on first use, and returns the stored record.
func (h *History) Append(userA, userB, from, message string) Record {
	record := Record{
		From:      from,
		Message:   message,
		Timestamp: h.now(),
	}

	key := conversationKey(userA, userB)

	h.mu.Lock()
	h.logs[key] = append(h.logs[key], record)
	h.mu.Unlock()

	return record
}

// Fetch returns the full conversation log for the pair in insertion order.
// The result is a copy and is never nil, so callers can hand it straight to
// a JSON encoder without producing null.
func (h *History) Fetch(userA, userB string) []Record {
	key := conversationKey(userA, userB)

	h.mu.RLock()
	defer h.mu.RUnlock()

	log := h.logs[key]
	out := make([]Record, len(log))
	copy(out, log)
	return out
}
