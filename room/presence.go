package room

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
)

// Palette is the ordered list of user colors handed out on join.
var Palette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12", "#9b59b6",
	"#1abc9c", "#e67e22", "#34495e", "#e91e63", "#00bcd4",
}

const maxNameLength = 32

type Presence struct {
	users map[string]domain.User
	order []string
}

func NewPresence() *Presence {
	return &Presence{users: make(map[string]domain.User)}
}

// Join registers connID, picking the first palette color nobody in the room
// holds. Once the palette is exhausted colors wrap and may repeat.
func (p *Presence) Join(connID, requestedName string) domain.User {
	if existing, ok := p.users[connID]; ok {
		return existing
	}

	user := domain.User{
		ID:    connID,
		Name:  displayName(connID, requestedName),
		Color: p.nextColor(),
	}
	p.users[connID] = user
	p.order = append(p.order, connID)
	return user
}

func (p *Presence) Leave(connID string) (domain.User, bool) {
	user, ok := p.users[connID]
	if !ok {
		return domain.User{}, false
	}
	delete(p.users, connID)
	for i, id := range p.order {
		if id == connID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return user, true
}

func (p *Presence) Get(connID string) (domain.User, bool) {
	user, ok := p.users[connID]
	return user, ok
}

// List returns the connected users in join order.
func (p *Presence) List() []domain.User {
	out := make([]domain.User, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.users[id])
	}
	return out
}

func (p *Presence) Len() int { return len(p.users) }

func (p *Presence) nextColor() string {
	used := make(map[string]bool, len(p.users))
	for _, u := range p.users {
		used[u.Color] = true
	}
	for _, c := range Palette {
		if !used[c] {
			return c
		}
	}
	return Palette[len(p.users)%len(Palette)]
}

func displayName(connID, requested string) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		prefix := connID
		if len(prefix) > 6 {
			prefix = prefix[:6]
		}
		return fmt.Sprintf("User %s", prefix)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
