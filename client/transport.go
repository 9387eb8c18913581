package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
)

const writeWait = 10 * time.Second

var ErrClosed = errors.New("connection closed")

// Conn is a client websocket connection to a canvas server.
type Conn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// Dial connects to serverURL (for example ws://localhost:8080/ws) as
// userName in room. Empty values leave the choice to the server.
func Dial(ctx context.Context, serverURL, room, userName string) (*Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	q := u.Query()
	if userName != "" {
		q.Set("userName", userName)
	}
	if room != "" {
		q.Set("room", room)
	}
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	return &Conn{ws: ws}, nil
}

func (c *Conn) Send(ev domain.ClientEvent) error {
	data, err := domain.Encode(ev)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Listen reads server events and hands each one to deliver until the
// connection fails or ctx is cancelled. Frames that do not decode are
// skipped.
func (c *Conn) Listen(ctx context.Context, deliver func(domain.ServerEvent)) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		ev, err := domain.DecodeServer(data)
		if err != nil {
			slog.Debug("invalid server message", "error", err)
			continue
		}
		deliver(ev)
	}
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.ws.SetWriteDeadline(time.Now().Add(time.Second))
	c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}
