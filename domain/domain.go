package domain

import (
	"encoding/json"
	"errors"
)

var errIncompletePoint = errors.New("point needs both x and y")

type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
)

func (t Tool) Valid() bool {
	return t == ToolBrush || t == ToolEraser
}

const (
	DefaultWidth = 4.0
	MinWidth     = 1.0
	MaxWidth     = 40.0
)

// Point is a normalized canvas coordinate in [0,1]x[0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UnmarshalJSON rejects points that leave out a coordinate instead of
// reading the missing value as zero.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.X == nil || raw.Y == nil {
		return errIncompletePoint
	}
	p.X, p.Y = *raw.X, *raw.Y
	return nil
}

type Stroke struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	UserColor string  `json:"userColor"`
	Tool      Tool    `json:"tool"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	Points    []Point `json:"points"`
}

// Clone returns a copy whose Points slice does not alias s.Points.
func (s Stroke) Clone() Stroke {
	c := s
	c.Points = make([]Point, len(s.Points))
	copy(c.Points, s.Points)
	return c
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Connection interface {
	ID() string
	Room() string
	UserName() string
	Send(data []byte) error
	Close() error
}

type Broadcaster interface {
	Register(conn Connection)
	Unregister(conn Connection)
	Broadcast(sender Connection, data []byte)
	BroadcastAll(room string, data []byte)
	Stats() (rooms, clients int)
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
}

// SessionHandler is a MessageHandler that is also told when a connection
// opens and closes.
type SessionHandler interface {
	MessageHandler
	Join(conn Connection)
	Leave(conn Connection)
}

// ClampWidth maps a requested stroke width onto the accepted range. A
// non-positive width means "not given" and yields DefaultWidth.
func ClampWidth(w float64) float64 {
	switch {
	case w <= 0:
		return DefaultWidth
	case w < MinWidth:
		return MinWidth
	case w > MaxWidth:
		return MaxWidth
	}
	return w
}
