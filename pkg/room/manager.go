package room

import (
	"sync"

	"github.com/myst-6/messaging/pkg/store"
)

// Manager routes room identifiers to live coordinator instances, creating
// them lazily on first access. The identifier is the sole routing key:
// exactly one instance exists per id at any time.
type Manager struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	backend store.Backend
	opts    Options
}

func NewManager(backend store.Backend, opts Options) *Manager {
	return &Manager{
		rooms:   make(map[string]*Room),
		backend: backend,
		opts:    opts,
	}
}

// Get returns the coordinator for roomID, creating it if needed.
func (m *Manager) Get(roomID string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		return r
	}
	r := New(roomID, m.backend.Room(roomID), m.opts)
	m.rooms[roomID] = r
	return r
}

// Len returns the number of live room instances.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
