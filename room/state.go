package room

import "github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"

// StrokeStatus is where a stroke currently lives in a room.
type StrokeStatus int

const (
	StrokeActive StrokeStatus = iota + 1
	StrokeCommitted
	StrokeUndone
)

func (s StrokeStatus) String() string {
	switch s {
	case StrokeActive:
		return "active"
	case StrokeCommitted:
		return "committed"
	case StrokeUndone:
		return "undone"
	}
	return "unknown"
}

// State is the authoritative canvas of one room: committed history, redo
// stack, strokes still being drawn and the presence registry.
//
// State is not safe for concurrent use; Room serializes access to it.
type State struct {
	Presence *Presence

	history   []domain.Stroke
	redoStack []domain.Stroke
	active    map[string]*domain.Stroke
	status    map[string]StrokeStatus
}

func NewState() *State {
	return &State{
		Presence:  NewPresence(),
		history:   make([]domain.Stroke, 0),
		redoStack: make([]domain.Stroke, 0),
		active:    make(map[string]*domain.Stroke),
		status:    make(map[string]StrokeStatus),
	}
}

// AddStroke registers meta as an active stroke with no points. It reports
// false and changes nothing if the id was ever seen in this room.
func (s *State) AddStroke(meta domain.Stroke) (domain.Stroke, bool) {
	if meta.ID == "" {
		return domain.Stroke{}, false
	}
	if _, seen := s.status[meta.ID]; seen {
		return domain.Stroke{}, false
	}

	stroke := meta
	stroke.Points = make([]domain.Point, 0)
	s.active[stroke.ID] = &stroke
	s.status[stroke.ID] = StrokeActive
	return stroke.Clone(), true
}

// AppendPoints extends an active stroke. Ids that are unknown, committed or
// undone are ignored.
func (s *State) AppendPoints(strokeID string, pts []domain.Point) bool {
	stroke, ok := s.active[strokeID]
	if !ok || len(pts) == 0 {
		return false
	}
	stroke.Points = append(stroke.Points, pts...)
	return true
}

// PushToHistory commits an active stroke to the tail of history.
func (s *State) PushToHistory(strokeID string) (domain.Stroke, bool) {
	stroke, ok := s.active[strokeID]
	if !ok {
		return domain.Stroke{}, false
	}
	delete(s.active, strokeID)
	s.history = append(s.history, *stroke)
	s.status[strokeID] = StrokeCommitted
	return stroke.Clone(), true
}

func (s *State) Undo() (domain.Stroke, bool) {
	n := len(s.history)
	if n == 0 {
		return domain.Stroke{}, false
	}
	removed := s.history[n-1]
	s.history = s.history[:n-1]
	s.redoStack = append(s.redoStack, removed)
	s.status[removed.ID] = StrokeUndone
	return removed.Clone(), true
}

func (s *State) Redo() (domain.Stroke, bool) {
	n := len(s.redoStack)
	if n == 0 {
		return domain.Stroke{}, false
	}
	restored := s.redoStack[n-1]
	s.redoStack = s.redoStack[:n-1]
	s.history = append(s.history, restored)
	s.status[restored.ID] = StrokeCommitted
	return restored.Clone(), true
}

// Snapshot returns a deep copy of the committed history in z-order.
func (s *State) Snapshot() []domain.Stroke {
	out := make([]domain.Stroke, len(s.history))
	for i, stroke := range s.history {
		out[i] = stroke.Clone()
	}
	return out
}

func (s *State) CanUndo() bool { return len(s.history) > 0 }
func (s *State) CanRedo() bool { return len(s.redoStack) > 0 }

func (s *State) Status(strokeID string) (StrokeStatus, bool) {
	st, ok := s.status[strokeID]
	return st, ok
}

// Active returns a copy of an in-progress stroke.
func (s *State) Active(strokeID string) (domain.Stroke, bool) {
	stroke, ok := s.active[strokeID]
	if !ok {
		return domain.Stroke{}, false
	}
	return stroke.Clone(), true
}

// ActiveCount includes strokes abandoned by disconnected drawers.
func (s *State) ActiveCount() int { return len(s.active) }

func (s *State) HistoryLen() int { return len(s.history) }
