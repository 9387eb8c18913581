package domain

// Wire event names.
const (
	EventInit       = "init"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	EventCursor     = "cursor"
	EventDrawStart  = "draw_start"
	EventDrawPoint  = "draw_point"
	EventDrawEnd    = "draw_end"
	EventUndo       = "undo"
	EventRedo       = "redo"
)

// ClientEvent is the closed set of events a client may send.
type ClientEvent interface {
	Event() string
	clientEvent()
}

// ServerEvent is the closed set of events the server may send.
type ServerEvent interface {
	Event() string
	serverEvent()
}

type DrawStart struct {
	StrokeID string  `json:"strokeId"`
	Tool     Tool    `json:"tool"`
	Color    string  `json:"color,omitempty"`
	Width    float64 `json:"width,omitempty"`
}

type DrawPoint struct {
	StrokeID string  `json:"strokeId"`
	Points   []Point `json:"points"`
}

type DrawEnd struct {
	StrokeID string `json:"strokeId"`
}

type CursorMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type UndoRequest struct{}

type RedoRequest struct{}

type Init struct {
	UserID    string   `json:"userId"`
	UserColor string   `json:"userColor"`
	UserName  string   `json:"userName"`
	Strokes   []Stroke `json:"strokes"`
	Users     []User   `json:"users"`
	CanUndo   bool     `json:"canUndo"`
	CanRedo   bool     `json:"canRedo"`
}

type UserJoined User

type UserLeft struct {
	UserID string `json:"userId"`
}

type CursorMoved struct {
	UserID    string  `json:"userId"`
	UserColor string  `json:"userColor"`
	UserName  string  `json:"userName"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type StrokeStarted struct {
	StrokeID  string  `json:"strokeId"`
	UserID    string  `json:"userId"`
	UserColor string  `json:"userColor"`
	Tool      Tool    `json:"tool"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
}

// Stroke returns the empty active stroke described by the event.
func (e StrokeStarted) Stroke() Stroke {
	return Stroke{
		ID:        e.StrokeID,
		UserID:    e.UserID,
		UserColor: e.UserColor,
		Tool:      e.Tool,
		Color:     e.Color,
		Width:     e.Width,
		Points:    []Point{},
	}
}

type StrokeEnded struct {
	StrokeID string `json:"strokeId"`
	CanUndo  bool   `json:"canUndo"`
	CanRedo  bool   `json:"canRedo"`
}

type Undone struct {
	StrokeID string `json:"strokeId"`
	CanUndo  bool   `json:"canUndo"`
	CanRedo  bool   `json:"canRedo"`
}

type Redone struct {
	Stroke  Stroke `json:"stroke"`
	CanUndo bool   `json:"canUndo"`
	CanRedo bool   `json:"canRedo"`
}

func (DrawStart) Event() string   { return EventDrawStart }
func (DrawPoint) Event() string   { return EventDrawPoint }
func (DrawEnd) Event() string     { return EventDrawEnd }
func (CursorMove) Event() string  { return EventCursor }
func (UndoRequest) Event() string { return EventUndo }
func (RedoRequest) Event() string { return EventRedo }

func (Init) Event() string          { return EventInit }
func (UserJoined) Event() string    { return EventUserJoined }
func (UserLeft) Event() string      { return EventUserLeft }
func (CursorMoved) Event() string   { return EventCursor }
func (StrokeStarted) Event() string { return EventDrawStart }
func (StrokeEnded) Event() string   { return EventDrawEnd }
func (Undone) Event() string        { return EventUndo }
func (Redone) Event() string        { return EventRedo }

func (DrawStart) clientEvent()   {}
func (DrawPoint) clientEvent()   {}
func (DrawEnd) clientEvent()     {}
func (CursorMove) clientEvent()  {}
func (UndoRequest) clientEvent() {}
func (RedoRequest) clientEvent() {}

// draw_point travels unchanged in both directions.
func (DrawPoint) serverEvent() {}

func (Init) serverEvent()          {}
func (UserJoined) serverEvent()    {}
func (UserLeft) serverEvent()      {}
func (CursorMoved) serverEvent()   {}
func (StrokeStarted) serverEvent() {}
func (StrokeEnded) serverEvent()   {}
func (Undone) serverEvent()        {}
func (Redone) serverEvent()        {}
