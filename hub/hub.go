package hub

import (
	"log/slog"
	"sync"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
)

type room struct {
	clients map[string]domain.Connection
	mu      sync.RWMutex
}

// Hub tracks the open connections of every room and fans messages out to
// them. Sends never block: a connection whose queue is full is dropped.
type Hub struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
	}
}

func (h *Hub) Register(conn domain.Connection) {
	h.mu.Lock()
	r, exists := h.rooms[conn.Room()]
	if !exists {
		r = &room{clients: make(map[string]domain.Connection)}
		h.rooms[conn.Room()] = r
	}
	// Still holding h.mu so a concurrent Unregister cannot drop r as empty.
	r.mu.Lock()
	r.clients[conn.ID()] = conn
	count := len(r.clients)
	r.mu.Unlock()
	h.mu.Unlock()

	slog.Info("client connected", "room", conn.Room(), "clientId", conn.ID(), "clients", count)
}

func (h *Hub) Unregister(conn domain.Connection) {
	h.mu.RLock()
	r, exists := h.rooms[conn.Room()]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.Lock()
	if _, ok := r.clients[conn.ID()]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.clients, conn.ID())
	count := len(r.clients)
	r.mu.Unlock()

	slog.Info("client disconnected", "room", conn.Room(), "clientId", conn.ID(), "clients", count)

	if count == 0 {
		h.mu.Lock()
		if cur, ok := h.rooms[conn.Room()]; ok && cur == r {
			r.mu.RLock()
			empty := len(r.clients) == 0
			r.mu.RUnlock()
			if empty {
				delete(h.rooms, conn.Room())
			}
		}
		h.mu.Unlock()
	}
}

// Broadcast sends data to every connection in the sender's room except the
// sender.
func (h *Hub) Broadcast(sender domain.Connection, data []byte) {
	h.fanOut(sender.Room(), sender.ID(), data)
}

// BroadcastAll sends data to every connection in the room.
func (h *Hub) BroadcastAll(roomID string, data []byte) {
	h.fanOut(roomID, "", data)
}

func (h *Hub) fanOut(roomID, skipID string, data []byte) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, conn := range r.clients {
		if id == skipID {
			continue
		}
		if err := conn.Send(data); err != nil {
			slog.Warn("dropping slow client", "room", roomID, "clientId", id, "error", err)
			go h.drop(conn)
		}
	}
}

// drop disconnects a client that missed a message; it resynchronizes from a
// fresh init when it reconnects.
func (h *Hub) drop(conn domain.Connection) {
	h.Unregister(conn)
	conn.Close()
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		r.mu.RLock()
		clients += len(r.clients)
		r.mu.RUnlock()
	}
	return rooms, clients
}
