// Package client mirrors a room's canvas on the drawing side. It merges the
// server history, the stroke being drawn locally and strokes other users are
// still drawing into a single render set.
package client

import "github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"

// Canvas is the reconciled view of one room. It is not safe for concurrent
// use; Loop confines it to one goroutine.
type Canvas struct {
	committed []domain.Stroke
	local     *domain.Stroke

	remote      map[string]*domain.Stroke
	remoteOrder []string

	canUndo bool
	canRedo bool
}

func NewCanvas() *Canvas {
	return &Canvas{remote: make(map[string]*domain.Stroke)}
}

// Reset replaces everything with the history received on join.
func (c *Canvas) Reset(strokes []domain.Stroke, canUndo, canRedo bool) {
	c.committed = make([]domain.Stroke, len(strokes))
	for i, s := range strokes {
		c.committed[i] = s.Clone()
	}
	c.local = nil
	c.remote = make(map[string]*domain.Stroke)
	c.remoteOrder = nil
	c.canUndo, c.canRedo = canUndo, canRedo
}

// BeginLocal starts the local in-progress stroke. Only one may exist.
func (c *Canvas) BeginLocal(s domain.Stroke) bool {
	if c.local != nil {
		return false
	}
	stroke := s.Clone()
	c.local = &stroke
	return true
}

func (c *Canvas) ExtendLocal(p domain.Point) bool {
	if c.local == nil {
		return false
	}
	c.local.Points = append(c.local.Points, p)
	return true
}

// Local returns a copy of the stroke being drawn locally.
func (c *Canvas) Local() (domain.Stroke, bool) {
	if c.local == nil {
		return domain.Stroke{}, false
	}
	return c.local.Clone(), true
}

// CommitLocal moves the local stroke to the top of the committed list
// without waiting for the server.
func (c *Canvas) CommitLocal() (domain.Stroke, bool) {
	if c.local == nil {
		return domain.Stroke{}, false
	}
	stroke := *c.local
	c.local = nil
	c.committed = append(c.committed, stroke)
	return stroke.Clone(), true
}

func (c *Canvas) RemoteStart(s domain.Stroke) {
	if _, exists := c.remote[s.ID]; exists {
		return
	}
	stroke := s.Clone()
	c.remote[s.ID] = &stroke
	c.remoteOrder = append(c.remoteOrder, s.ID)
}

// RemotePoints extends a remote in-progress stroke. Batches for a stroke
// whose start has not arrived are dropped.
func (c *Canvas) RemotePoints(strokeID string, pts []domain.Point) bool {
	stroke, ok := c.remote[strokeID]
	if !ok {
		return false
	}
	stroke.Points = append(stroke.Points, pts...)
	return true
}

func (c *Canvas) RemoteEnd(strokeID string) bool {
	stroke, ok := c.remote[strokeID]
	if !ok {
		return false
	}
	c.removeRemote(strokeID)
	c.committed = append(c.committed, *stroke)
	return true
}

// Undo removes strokeID from the committed list, or from the remote
// in-progress strokes if it is not committed here.
func (c *Canvas) Undo(strokeID string) bool {
	for i, s := range c.committed {
		if s.ID == strokeID {
			c.committed = append(c.committed[:i], c.committed[i+1:]...)
			return true
		}
	}
	if _, ok := c.remote[strokeID]; ok {
		c.removeRemote(strokeID)
		return true
	}
	return false
}

// Redo appends the stroke restored by the server.
func (c *Canvas) Redo(s domain.Stroke) bool {
	for _, existing := range c.committed {
		if existing.ID == s.ID {
			return false
		}
	}
	c.committed = append(c.committed, s.Clone())
	return true
}

func (c *Canvas) SetFlags(canUndo, canRedo bool) {
	c.canUndo, c.canRedo = canUndo, canRedo
}

func (c *Canvas) Flags() (canUndo, canRedo bool) {
	return c.canUndo, c.canRedo
}

// Apply folds a stroke-related server event into the canvas. Presence and
// cursor events are ignored.
func (c *Canvas) Apply(ev domain.ServerEvent) {
	switch e := ev.(type) {
	case domain.Init:
		c.Reset(e.Strokes, e.CanUndo, e.CanRedo)
	case domain.StrokeStarted:
		c.RemoteStart(e.Stroke())
	case domain.DrawPoint:
		c.RemotePoints(e.StrokeID, e.Points)
	case domain.StrokeEnded:
		c.RemoteEnd(e.StrokeID)
		c.SetFlags(e.CanUndo, e.CanRedo)
	case domain.Undone:
		c.Undo(e.StrokeID)
		c.SetFlags(e.CanUndo, e.CanRedo)
	case domain.Redone:
		c.Redo(e.Stroke)
		c.SetFlags(e.CanUndo, e.CanRedo)
	}
}

// Render returns the strokes in paint order: committed history, then the
// local stroke, then remote strokes in the order they started.
func (c *Canvas) Render() []domain.Stroke {
	out := make([]domain.Stroke, 0, len(c.committed)+1+len(c.remote))
	for _, s := range c.committed {
		out = append(out, s.Clone())
	}
	if c.local != nil {
		out = append(out, c.local.Clone())
	}
	for _, id := range c.remoteOrder {
		out = append(out, c.remote[id].Clone())
	}
	return out
}

// Committed returns a copy of the committed list.
func (c *Canvas) Committed() []domain.Stroke {
	out := make([]domain.Stroke, len(c.committed))
	for i, s := range c.committed {
		out[i] = s.Clone()
	}
	return out
}

func (c *Canvas) RemoteCount() int { return len(c.remote) }

func (c *Canvas) removeRemote(strokeID string) {
	delete(c.remote, strokeID)
	for i, id := range c.remoteOrder {
		if id == strokeID {
			c.remoteOrder = append(c.remoteOrder[:i], c.remoteOrder[i+1:]...)
			return
		}
	}
}
