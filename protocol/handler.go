package protocol

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/metrics"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/room"
)

const tracerName = "github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/protocol"

type drawState int

const (
	stateIdle drawState = iota
	stateDrawing
)

func (s drawState) String() string {
	if s == stateDrawing {
		return "drawing"
	}
	return "idle"
}

// session is the per-connection half of the protocol. A connection owns at
// most one active stroke, strokeID, and only while state is stateDrawing.
type session struct {
	conn     domain.Connection
	user     domain.User
	state    drawState
	strokeID string
}

// Handler turns inbound frames into room mutations and broadcasts. Every
// mutation and the broadcasts it causes happen inside one Room.Do call, so
// all connections of a room see stroke events in the same order.
type Handler struct {
	broadcaster domain.Broadcaster
	rooms       *room.Registry
	metrics     *metrics.Metrics
	tracer      trace.Tracer

	sessions map[string]*session
	mu       sync.Mutex
}

func NewHandler(b domain.Broadcaster, rooms *room.Registry, m *metrics.Metrics) *Handler {
	return &Handler{
		broadcaster: b,
		rooms:       rooms,
		metrics:     m,
		tracer:      otel.Tracer(tracerName),
		sessions:    make(map[string]*session),
	}
}

// Join registers conn in its room and sends it the current canvas.
func (h *Handler) Join(conn domain.Connection) {
	h.metrics.Connected()
	h.rooms.Get(conn.Room()).Do(func(st *room.State) {
		user := st.Presence.Join(conn.ID(), conn.UserName())

		h.mu.Lock()
		h.sessions[conn.ID()] = &session{conn: conn, user: user}
		h.mu.Unlock()

		h.broadcaster.Register(conn)
		h.send(conn, domain.Init{
			UserID:    user.ID,
			UserColor: user.Color,
			UserName:  user.Name,
			Strokes:   st.Snapshot(),
			Users:     st.Presence.List(),
			CanUndo:   st.CanUndo(),
			CanRedo:   st.CanRedo(),
		})
		h.broadcast(conn, domain.UserJoined(user))
	})
}

// Leave removes conn from its room. A stroke it was still drawing stays
// active in the room and is never committed.
func (h *Handler) Leave(conn domain.Connection) {
	h.mu.Lock()
	s, ok := h.sessions[conn.ID()]
	delete(h.sessions, conn.ID())
	h.mu.Unlock()
	if !ok {
		return
	}

	h.rooms.Get(conn.Room()).Do(func(st *room.State) {
		st.Presence.Leave(conn.ID())
		if s.state == stateDrawing {
			slog.Warn("stroke abandoned", "room", conn.Room(), "clientId", conn.ID(), "strokeId", s.strokeID)
			h.metrics.StrokeAbandoned()
		}
		h.broadcaster.Unregister(conn)
		h.broadcast(conn, domain.UserLeft{UserID: conn.ID()})
	})
	h.metrics.Disconnected()
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	ev, err := domain.DecodeClient(data)
	if err != nil {
		slog.Debug("invalid message", "room", conn.Room(), "clientId", conn.ID(), "error", err)
		h.metrics.Event("invalid", metrics.OutcomeDropped)
		return
	}

	h.mu.Lock()
	s, ok := h.sessions[conn.ID()]
	h.mu.Unlock()
	if !ok {
		h.drop(conn, ev.Event(), "no session")
		return
	}

	_, span := h.tracer.Start(context.Background(), "canvas."+ev.Event(), trace.WithAttributes(
		attribute.String("canvas.room", conn.Room()),
		attribute.String("canvas.client_id", conn.ID()),
	))
	defer span.End()

	var reason string
	if cursor, ok := ev.(domain.CursorMove); ok {
		// Cursors are ephemeral and carry no ordering guarantee, so they
		// bypass the room sequence.
		h.broadcast(conn, domain.CursorMoved{
			UserID:    s.user.ID,
			UserColor: s.user.Color,
			UserName:  s.user.Name,
			X:         cursor.X,
			Y:         cursor.Y,
		})
	} else {
		h.rooms.Get(conn.Room()).Do(func(st *room.State) {
			reason = h.apply(st, s, ev)
		})
	}

	if reason != "" {
		span.SetAttributes(attribute.String("canvas.drop_reason", reason))
		h.drop(conn, ev.Event(), reason)
		return
	}
	h.metrics.Event(ev.Event(), metrics.OutcomeApplied)
}

// apply runs one stroke or history event against the room state. It returns
// a non-empty reason when the event was dropped.
func (h *Handler) apply(st *room.State, s *session, ev domain.ClientEvent) string {
	switch e := ev.(type) {
	case domain.DrawStart:
		return h.startStroke(st, s, e)
	case domain.DrawPoint:
		return h.appendPoints(st, s, e)
	case domain.DrawEnd:
		return h.endStroke(st, s, e)
	case domain.UndoRequest:
		return h.undo(st, s)
	case domain.RedoRequest:
		return h.redo(st, s)
	}
	return "unsupported event"
}

func (h *Handler) startStroke(st *room.State, s *session, e domain.DrawStart) string {
	if s.state != stateIdle {
		return "already drawing"
	}

	color := e.Color
	if color == "" {
		color = s.user.Color
	}
	stroke, ok := st.AddStroke(domain.Stroke{
		ID:        e.StrokeID,
		UserID:    s.user.ID,
		UserColor: s.user.Color,
		Tool:      e.Tool,
		Color:     color,
		Width:     domain.ClampWidth(e.Width),
	})
	if !ok {
		return "duplicate stroke id"
	}

	s.state, s.strokeID = stateDrawing, stroke.ID
	h.broadcast(s.conn, domain.StrokeStarted{
		StrokeID:  stroke.ID,
		UserID:    stroke.UserID,
		UserColor: stroke.UserColor,
		Tool:      stroke.Tool,
		Color:     stroke.Color,
		Width:     stroke.Width,
	})
	return ""
}

func (h *Handler) appendPoints(st *room.State, s *session, e domain.DrawPoint) string {
	if s.state != stateDrawing || e.StrokeID != s.strokeID {
		return "stroke not owned"
	}
	if !st.AppendPoints(e.StrokeID, e.Points) {
		return "stroke not active"
	}
	h.broadcast(s.conn, e)
	return ""
}

func (h *Handler) endStroke(st *room.State, s *session, e domain.DrawEnd) string {
	if s.state != stateDrawing || e.StrokeID != s.strokeID {
		return "stroke not owned"
	}
	if _, ok := st.PushToHistory(e.StrokeID); !ok {
		return "stroke not active"
	}

	s.state, s.strokeID = stateIdle, ""
	// Everyone, the drawer included, needs the new undo/redo availability.
	h.broadcastAll(s.conn.Room(), domain.StrokeEnded{
		StrokeID: e.StrokeID,
		CanUndo:  st.CanUndo(),
		CanRedo:  st.CanRedo(),
	})
	return ""
}

func (h *Handler) undo(st *room.State, s *session) string {
	removed, ok := st.Undo()
	if !ok {
		return "nothing to undo"
	}
	h.broadcastAll(s.conn.Room(), domain.Undone{
		StrokeID: removed.ID,
		CanUndo:  st.CanUndo(),
		CanRedo:  st.CanRedo(),
	})
	return ""
}

func (h *Handler) redo(st *room.State, s *session) string {
	restored, ok := st.Redo()
	if !ok {
		return "nothing to redo"
	}
	h.broadcastAll(s.conn.Room(), domain.Redone{
		Stroke:  restored,
		CanUndo: st.CanUndo(),
		CanRedo: st.CanRedo(),
	})
	return ""
}

func (h *Handler) drop(conn domain.Connection, event, reason string) {
	slog.Debug("event dropped", "room", conn.Room(), "clientId", conn.ID(), "event", event, "reason", reason)
	h.metrics.Event(event, metrics.OutcomeDropped)
}

func (h *Handler) send(conn domain.Connection, m domain.Message) {
	data, err := domain.Encode(m)
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Warn("send error", "clientId", conn.ID(), "error", err)
	}
}

func (h *Handler) broadcast(sender domain.Connection, m domain.Message) {
	data, err := domain.Encode(m)
	if err != nil {
		slog.Warn("marshal error", "clientId", sender.ID(), "error", err)
		return
	}
	h.broadcaster.Broadcast(sender, data)
}

func (h *Handler) broadcastAll(roomID string, m domain.Message) {
	data, err := domain.Encode(m)
	if err != nil {
		slog.Warn("marshal error", "room", roomID, "error", err)
		return
	}
	h.broadcaster.BroadcastAll(roomID, data)
}
