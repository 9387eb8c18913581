package client

import (
	"slices"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
)

// Cursor is the last known pointer position of another user.
type Cursor struct {
	X     float64
	Y     float64
	Name  string
	Color string
}

// Roster mirrors who is in the room and where their cursors are.
type Roster struct {
	self    domain.User
	users   []domain.User
	cursors map[string]Cursor
}

func NewRoster() *Roster {
	return &Roster{cursors: make(map[string]Cursor)}
}

func (r *Roster) Apply(ev domain.ServerEvent) {
	switch e := ev.(type) {
	case domain.Init:
		r.self = domain.User{ID: e.UserID, Name: e.UserName, Color: e.UserColor}
		r.users = slices.Clone(e.Users)
		r.cursors = make(map[string]Cursor)
	case domain.UserJoined:
		u := domain.User(e)
		if i := r.index(u.ID); i >= 0 {
			r.users[i] = u
			return
		}
		r.users = append(r.users, u)
	case domain.UserLeft:
		if i := r.index(e.UserID); i >= 0 {
			r.users = slices.Delete(r.users, i, i+1)
		}
		delete(r.cursors, e.UserID)
	case domain.CursorMoved:
		if e.UserID == r.self.ID {
			return
		}
		r.cursors[e.UserID] = Cursor{X: e.X, Y: e.Y, Name: e.UserName, Color: e.UserColor}
	}
}

// Self is the identity assigned by the server; zero until init arrives.
func (r *Roster) Self() domain.User { return r.self }

// Users lists everyone in the room in join order.
func (r *Roster) Users() []domain.User { return slices.Clone(r.users) }

func (r *Roster) Cursors() map[string]Cursor {
	out := make(map[string]Cursor, len(r.cursors))
	for id, c := range r.cursors {
		out[id] = c
	}
	return out
}

func (r *Roster) index(userID string) int {
	return slices.IndexFunc(r.users, func(u domain.User) bool { return u.ID == userID })
}
