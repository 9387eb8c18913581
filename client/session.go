package client

import (
	"log/slog"
	"math"
	"time"

	"github.com/segmentio/ksuid"
	"golang.org/x/time/rate"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
)

const (
	DefaultBatchInterval  = 32 * time.Millisecond
	DefaultCursorInterval = 50 * time.Millisecond
	DefaultColor          = "#3498db"
)

// Sender delivers client events to the server.
type Sender interface {
	Send(ev domain.ClientEvent) error
}

// Session is one participant's side of the protocol: it turns pointer input
// into optimistic local strokes plus outgoing events, and folds server
// events into the Canvas and Roster.
//
// Session is not safe for concurrent use. Input and network events must be
// fed from a single goroutine, which is what Loop does.
type Session struct {
	canvas *Canvas
	roster *Roster
	out    Sender

	tool  domain.Tool
	color string
	width float64

	pending        []domain.Point
	flushScheduled bool
	schedule       func(flush func())

	cursorLimiter *rate.Limiter
	newID         func() string
}

type Option func(*Session)

// WithScheduler installs the function that arranges for a pending point
// batch to be flushed later. Without one, points queued by PointerMove are
// only sent by FlushPoints or PointerUp.
func WithScheduler(fn func(flush func())) Option {
	return func(s *Session) { s.schedule = fn }
}

func WithCursorInterval(d time.Duration) Option {
	return func(s *Session) { s.cursorLimiter = rate.NewLimiter(rate.Every(d), 1) }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

func NewSession(out Sender, opts ...Option) *Session {
	s := &Session{
		canvas:        NewCanvas(),
		roster:        NewRoster(),
		out:           out,
		tool:          domain.ToolBrush,
		color:         DefaultColor,
		width:         domain.DefaultWidth,
		cursorLimiter: rate.NewLimiter(rate.Every(DefaultCursorInterval), 1),
		newID:         func() string { return ksuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Canvas() *Canvas { return s.canvas }
func (s *Session) Roster() *Roster { return s.roster }

func (s *Session) Render() []domain.Stroke { return s.canvas.Render() }

func (s *Session) SetTool(t domain.Tool) {
	if t == domain.ToolEraser {
		s.tool = domain.ToolEraser
		return
	}
	s.tool = domain.ToolBrush
}

func (s *Session) SetColor(c string) { s.color = c }

// SetWidth clamps w to the accepted range. NaN leaves the width unchanged.
func (s *Session) SetWidth(w float64) {
	if math.IsNaN(w) {
		return
	}
	s.width = math.Max(domain.MinWidth, math.Min(domain.MaxWidth, w))
}

// Apply folds an event received from the server into local state.
func (s *Session) Apply(ev domain.ServerEvent) {
	if _, ok := ev.(domain.Init); ok {
		s.pending = nil
	}
	s.canvas.Apply(ev)
	s.roster.Apply(ev)
}

// PointerDown starts a local stroke at p. The first point is sent right
// away so other users see the stroke appear. Input before init is ignored
// because the stroke would have no author.
func (s *Session) PointerDown(p domain.Point) {
	self := s.roster.Self()
	if self.ID == "" {
		return
	}
	if _, drawing := s.canvas.Local(); drawing {
		return
	}
	p = clamp(p)

	stroke := domain.Stroke{
		ID:        s.newID(),
		UserID:    self.ID,
		UserColor: self.Color,
		Tool:      s.tool,
		Color:     s.color,
		Width:     s.width,
		Points:    []domain.Point{p},
	}
	s.canvas.BeginLocal(stroke)
	s.emit(domain.DrawStart{StrokeID: stroke.ID, Tool: stroke.Tool, Color: stroke.Color, Width: stroke.Width})

	s.pending = []domain.Point{p}
	s.FlushPoints()
}

// PointerMove extends the local stroke immediately; the point itself goes
// out with the next batch.
func (s *Session) PointerMove(p domain.Point) {
	p = clamp(p)
	if !s.canvas.ExtendLocal(p) {
		return
	}
	s.pending = append(s.pending, p)
	if !s.flushScheduled && s.schedule != nil {
		s.flushScheduled = true
		s.schedule(s.FlushPoints)
	}
}

// PointerUp finishes the local stroke and commits it optimistically.
func (s *Session) PointerUp() {
	local, drawing := s.canvas.Local()
	if !drawing {
		return
	}
	s.FlushPoints()
	s.emit(domain.DrawEnd{StrokeID: local.ID})
	s.canvas.CommitLocal()
}

// PointerLeave ends a stroke that runs off the drawing surface.
func (s *Session) PointerLeave() {
	s.PointerUp()
}

// FlushPoints sends queued points as one draw_point batch.
func (s *Session) FlushPoints() {
	s.flushScheduled = false
	if len(s.pending) == 0 {
		return
	}
	local, drawing := s.canvas.Local()
	if !drawing {
		s.pending = nil
		return
	}
	batch := make([]domain.Point, len(s.pending))
	copy(batch, s.pending)
	s.pending = s.pending[:0]
	s.emit(domain.DrawPoint{StrokeID: local.ID, Points: batch})
}

// MoveCursor reports the pointer position, at most once per cursor
// interval.
func (s *Session) MoveCursor(p domain.Point) {
	if !s.cursorLimiter.Allow() {
		return
	}
	p = clamp(p)
	s.emit(domain.CursorMove{X: p.X, Y: p.Y})
}

// Undo and Redo only ask; the canvas changes when the broadcast arrives.
func (s *Session) Undo() { s.emit(domain.UndoRequest{}) }
func (s *Session) Redo() { s.emit(domain.RedoRequest{}) }

func (s *Session) emit(ev domain.ClientEvent) {
	if err := s.out.Send(ev); err != nil {
		slog.Debug("send failed", "event", ev.Event(), "error", err)
	}
}

func clamp(p domain.Point) domain.Point {
	return domain.Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
