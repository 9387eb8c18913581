package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	ErrMalformed    = errors.New("malformed payload")
	ErrUnknownEvent = errors.New("unknown event")
)

// Message is any event that can be put on the wire.
type Message interface {
	Event() string
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps m in the {"type","data"} envelope.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Event(), err)
	}
	return json.Marshal(envelope{Type: m.Event(), Data: data})
}

// DecodeClient parses and validates a frame sent by a client. Any payload
// that is missing a required field is rejected with ErrMalformed.
func DecodeClient(frame []byte) (ClientEvent, error) {
	env, err := decodeEnvelope(frame)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case EventDrawStart:
		var e DrawStart
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.StrokeID == "" {
			return nil, malformed(env.Type, "missing strokeId")
		}
		if !e.Tool.Valid() {
			return nil, malformed(env.Type, fmt.Sprintf("invalid tool %q", e.Tool))
		}
		if math.IsNaN(e.Width) || math.IsInf(e.Width, 0) {
			return nil, malformed(env.Type, "invalid width")
		}
		return e, nil

	case EventDrawPoint:
		var e DrawPoint
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if err := validateBatch(e); err != nil {
			return nil, err
		}
		return e, nil

	case EventDrawEnd:
		var e DrawEnd
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.StrokeID == "" {
			return nil, malformed(env.Type, "missing strokeId")
		}
		return e, nil

	case EventCursor:
		var raw struct {
			X *float64 `json:"x"`
			Y *float64 `json:"y"`
		}
		if err := decodeData(env, &raw); err != nil {
			return nil, err
		}
		if raw.X == nil || raw.Y == nil {
			return nil, malformed(env.Type, "missing coordinate")
		}
		if !finite(*raw.X) || !finite(*raw.Y) {
			return nil, malformed(env.Type, "invalid coordinate")
		}
		return CursorMove{X: *raw.X, Y: *raw.Y}, nil

	case EventUndo:
		return UndoRequest{}, nil

	case EventRedo:
		return RedoRequest{}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}

// DecodeServer parses a frame sent by the server.
func DecodeServer(frame []byte) (ServerEvent, error) {
	env, err := decodeEnvelope(frame)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case EventInit:
		var e Init
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.UserID == "" {
			return nil, malformed(env.Type, "missing userId")
		}
		return e, nil

	case EventUserJoined:
		var e UserJoined
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.ID == "" {
			return nil, malformed(env.Type, "missing id")
		}
		return e, nil

	case EventUserLeft:
		var e UserLeft
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.UserID == "" {
			return nil, malformed(env.Type, "missing userId")
		}
		return e, nil

	case EventCursor:
		var e CursorMoved
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.UserID == "" {
			return nil, malformed(env.Type, "missing userId")
		}
		return e, nil

	case EventDrawStart:
		var e StrokeStarted
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.StrokeID == "" {
			return nil, malformed(env.Type, "missing strokeId")
		}
		return e, nil

	case EventDrawPoint:
		var e DrawPoint
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if err := validateBatch(e); err != nil {
			return nil, err
		}
		return e, nil

	case EventDrawEnd:
		var e StrokeEnded
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.StrokeID == "" {
			return nil, malformed(env.Type, "missing strokeId")
		}
		return e, nil

	case EventUndo:
		var e Undone
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.StrokeID == "" {
			return nil, malformed(env.Type, "missing strokeId")
		}
		return e, nil

	case EventRedo:
		var e Redone
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		if e.Stroke.ID == "" {
			return nil, malformed(env.Type, "missing stroke")
		}
		return e, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}

func decodeEnvelope(frame []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env, nil
}

func decodeData(env envelope, v any) error {
	if len(env.Data) == 0 {
		return malformed(env.Type, "missing data")
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return malformed(env.Type, err.Error())
	}
	return nil
}

func validateBatch(e DrawPoint) error {
	if e.StrokeID == "" {
		return malformed(EventDrawPoint, "missing strokeId")
	}
	if len(e.Points) == 0 {
		return malformed(EventDrawPoint, "empty points")
	}
	for _, p := range e.Points {
		if !InBounds(p) {
			return malformed(EventDrawPoint, "point out of range")
		}
	}
	return nil
}

// InBounds reports whether p is a finite point inside the unit square.
func InBounds(p Point) bool {
	return finite(p.X) && finite(p.Y) && p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func malformed(event, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, event, reason)
}
