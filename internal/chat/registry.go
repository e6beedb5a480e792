package chat

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry owns the bidirectional connection↔username mapping and the
// presence set derived from it. Username collisions are last-write-wins: the
// new connection takes the name and the previous holder loses both mapping
// directions, so presence always matches the live bindings exactly. The
// caller learns about the displaced connection and decides how to notify it.
type Registry struct {
	mu         sync.RWMutex
	userByConn map[ConnID]string
	connByUser map[string]ConnID
}

// NewRegistry returns an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		userByConn: make(map[ConnID]string),
		connByUser: make(map[string]ConnID),
	}
}

// Register binds conn to username. It returns the connection that previously
// held the username (displaced) and the username conn itself was previously
// bound to (previous, when a joined connection re-joins under a new name).
// Both stale mappings are removed in the same critical section.
func (r *Registry) Register(conn ConnID, username string) (displaced ConnID, previous string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.userByConn[conn]; ok && old != username {
		previous = old
		delete(r.connByUser, old)
	}
	if holder, ok := r.connByUser[username]; ok && holder != conn {
		displaced = holder
		delete(r.userByConn, holder)
	}

	r.userByConn[conn] = username
	r.connByUser[username] = conn
	return displaced, previous
}

// Unregister removes both mapping directions for conn and reports the
// username that was bound, if any. Unknown connections are a no-op.
func (r *Registry) Unregister(conn ConnID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, ok := r.userByConn[conn]
	if !ok {
		return "", false
	}
	delete(r.userByConn, conn)
	if r.connByUser[username] == conn {
		delete(r.connByUser, username)
	}
	return username, true
}

// Resolve returns the live connection bound to username.
func (r *Registry) Resolve(username string) (ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connByUser[username]
	return conn, ok
}

// Username returns the username bound to conn.
func (r *Registry) Username(conn ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username, ok := r.userByConn[conn]
	return username, ok
}

// Presence returns a snapshot of all currently bound usernames, sorted so
// roster broadcasts are stable.
func (r *Registry) Presence() []string {
	r.mu.RLock()
	users := lo.Keys(r.connByUser)
	r.mu.RUnlock()

	sort.Strings(users)
	return users
}
