package room

import (
	"log/slog"
	"sync"
)

// Room owns one State and applies every mutation to it in a single sequence.
type Room struct {
	id    string
	mu    sync.Mutex
	state *State
}

func New(id string) *Room {
	return &Room{id: id, state: NewState()}
}

func (r *Room) ID() string { return r.id }

// Do runs fn with exclusive access to the room state. fn must not block;
// anything it enqueues for connections is observed by all of them in the
// order the Do calls ran.
func (r *Room) Do(fn func(s *State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.state)
}

// Registry maps room ids to rooms. Rooms are created on first reference and
// never removed.
type Registry struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

func (g *Registry) Get(id string) *Room {
	g.mu.RLock()
	r, exists := g.rooms[id]
	g.mu.RUnlock()
	if exists {
		return r
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if r, exists = g.rooms[id]; exists {
		return r
	}
	r = New(id)
	g.rooms[id] = r
	slog.Info("room created", "room", id)
	return r
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
