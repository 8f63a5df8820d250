// Package presence tracks which participants are currently connected to a
// conversation. The in-memory Registry is the single source of truth the
// coordinator consults before broadcasting; the optional Mirror publishes a
// best-effort copy to Redis for external readers.
package presence

import (
	"errors"
	"sync"
)

// ErrConnClosed is returned by Conn.Send when the transport reports the
// connection is no longer open.
var ErrConnClosed = errors.New("connection closed")

// Conn is one participant's live transport handle. The Registry entry for a
// user id is that handle's exclusive owner.
type Conn interface {
	Send(payload []byte) error
	IsOpen() bool
	Close() error
}

// Entry is one (userId, connection) pair from a snapshot.
type Entry struct {
	UserID string
	Conn   Conn
}

// Registry maps user ids to their live connections, one connection per user.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Join registers conn for userID, returning the displaced connection when the
// user was already present so the caller can close it.
func (r *Registry) Join(userID string, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	prior := r.conns[userID]
	r.conns[userID] = conn
	return prior
}

// Leave removes the entry if present. Idempotent.
func (r *Registry) Leave(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[userID]; !ok {
		return false
	}
	delete(r.conns, userID)
	return true
}

func (r *Registry) Get(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// All returns a point-in-time snapshot. Mutations after the call do not
// affect the returned slice, so callers can iterate while removing entries.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, 0, len(r.conns))
	for userID, conn := range r.conns {
		entries = append(entries, Entry{UserID: userID, Conn: conn})
	}
	return entries
}

// Users returns the current participant ids.
func (r *Registry) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
