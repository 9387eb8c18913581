package client

import (
	"context"
	"time"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
)

// Loop runs a Session on a single goroutine. Network events, UI input and
// batch timers are all posted to it, so the session sees one ordered
// timeline.
type Loop struct {
	session  *Session
	ops      chan func(*Session)
	done     chan struct{}
	interval time.Duration
	onUpdate func(*Session)
}

func NewLoop(out Sender, batchInterval time.Duration, opts ...Option) *Loop {
	if batchInterval <= 0 {
		batchInterval = DefaultBatchInterval
	}
	l := &Loop{
		ops:      make(chan func(*Session), 256),
		done:     make(chan struct{}),
		interval: batchInterval,
	}
	opts = append(opts, WithScheduler(l.scheduleFlush))
	l.session = NewSession(out, opts...)
	return l
}

// OnUpdate registers fn to run on the loop goroutine after every operation.
// It must be called before Run.
func (l *Loop) OnUpdate(fn func(*Session)) {
	l.onUpdate = fn
}

// Post queues fn for the loop. It reports false once the loop has stopped.
func (l *Loop) Post(fn func(*Session)) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.ops <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Deliver posts an event received from the server.
func (l *Loop) Deliver(ev domain.ServerEvent) {
	l.Post(func(s *Session) { s.Apply(ev) })
}

func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.ops:
			fn(l.session)
			if l.onUpdate != nil {
				l.onUpdate(l.session)
			}
		}
	}
}

func (l *Loop) scheduleFlush(flush func()) {
	time.AfterFunc(l.interval, func() {
		l.Post(func(*Session) { flush() })
	})
}
