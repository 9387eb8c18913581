package protocol

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/hub"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/metrics"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/room"
)

type mockConn struct {
	id   string
	room string
	name string
	sent [][]byte
	mu   sync.Mutex
}

func (m *mockConn) ID() string       { return m.id }
func (m *mockConn) Room() string     { return m.room }
func (m *mockConn) UserName() string { return m.name }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

// events decodes and clears everything sent to the connection so far.
func (m *mockConn) events(t *testing.T) []domain.ServerEvent {
	t.Helper()
	m.mu.Lock()
	sent := m.sent
	m.sent = nil
	m.mu.Unlock()

	out := make([]domain.ServerEvent, 0, len(sent))
	for _, data := range sent {
		ev, err := domain.DecodeServer(data)
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

type fixture struct {
	handler *Handler
	hub     *hub.Hub
	rooms   *room.Registry
	metrics *metrics.Metrics
}

func newFixture() *fixture {
	h := hub.New()
	rooms := room.NewRegistry()
	m := metrics.New(prometheus.NewRegistry())
	return &fixture{handler: NewHandler(h, rooms, m), hub: h, rooms: rooms, metrics: m}
}

// join connects a client and discards its init payload.
func (f *fixture) join(t *testing.T, id, name string) *mockConn {
	t.Helper()
	conn := &mockConn{id: id, room: "default", name: name}
	f.handler.Join(conn)
	evs := conn.events(t)
	require.NotEmpty(t, evs)
	require.IsType(t, domain.Init{}, evs[0])
	return conn
}

func (f *fixture) send(t *testing.T, conn *mockConn, ev domain.ClientEvent) {
	t.Helper()
	data, err := domain.Encode(ev)
	require.NoError(t, err)
	f.handler.Handle(conn, data)
}

func (f *fixture) state(fn func(st *room.State)) {
	f.rooms.Get("default").Do(fn)
}

func (f *fixture) drawStroke(t *testing.T, conn *mockConn, id string, batches ...[]domain.Point) {
	t.Helper()
	f.send(t, conn, domain.DrawStart{StrokeID: id, Tool: domain.ToolBrush, Color: "#000000", Width: 4})
	for _, b := range batches {
		f.send(t, conn, domain.DrawPoint{StrokeID: id, Points: b})
	}
	f.send(t, conn, domain.DrawEnd{StrokeID: id})
}

func TestHandler_JoinSendsInitAndAnnounces(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	f.drawStroke(t, x, "s1", []domain.Point{{X: 0.1, Y: 0.1}})
	f.drawStroke(t, x, "s2", []domain.Point{{X: 0.2, Y: 0.2}})
	x.events(t)

	y := &mockConn{id: "y", room: "default", name: "yuri"}
	f.handler.Join(y)

	evs := y.events(t)
	require.Len(t, evs, 1)
	init, ok := evs[0].(domain.Init)
	require.True(t, ok)
	assert.Equal(t, "y", init.UserID)
	assert.Equal(t, "yuri", init.UserName)
	assert.Equal(t, room.Palette[1], init.UserColor)
	require.Len(t, init.Strokes, 2)
	assert.Equal(t, "s1", init.Strokes[0].ID)
	assert.Equal(t, "s2", init.Strokes[1].ID)
	assert.Len(t, init.Users, 2)
	assert.True(t, init.CanUndo)
	assert.False(t, init.CanRedo)

	assert.Equal(t, []domain.ServerEvent{
		domain.UserJoined{ID: "y", Name: "yuri", Color: room.Palette[1]},
	}, x.events(t))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ConnectionsGauge()))
}

func TestHandler_InitExcludesStrokesInProgress(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	f.send(t, x, domain.DrawStart{StrokeID: "wip", Tool: domain.ToolBrush})

	y := &mockConn{id: "y", room: "default"}
	f.handler.Join(y)

	init := y.events(t)[0].(domain.Init)
	assert.Empty(t, init.Strokes)
	assert.False(t, init.CanUndo)
}

func TestHandler_StrokeLifecycle(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	y := f.join(t, "y", "yuri")
	x.events(t)

	f.send(t, x, domain.DrawStart{StrokeID: "s1", Tool: domain.ToolBrush, Color: "#123456", Width: 8})
	assert.Empty(t, x.events(t), "the drawer does not get its own start")
	assert.Equal(t, []domain.ServerEvent{
		domain.StrokeStarted{StrokeID: "s1", UserID: "x", UserColor: room.Palette[0], Tool: domain.ToolBrush, Color: "#123456", Width: 8},
	}, y.events(t))

	batch := []domain.Point{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}}
	f.send(t, x, domain.DrawPoint{StrokeID: "s1", Points: batch})
	assert.Empty(t, x.events(t))
	assert.Equal(t, []domain.ServerEvent{domain.DrawPoint{StrokeID: "s1", Points: batch}}, y.events(t))

	f.send(t, x, domain.DrawEnd{StrokeID: "s1"})
	ended := domain.StrokeEnded{StrokeID: "s1", CanUndo: true, CanRedo: false}
	assert.Equal(t, []domain.ServerEvent{ended}, x.events(t), "end reaches the drawer too")
	assert.Equal(t, []domain.ServerEvent{ended}, y.events(t))

	f.state(func(st *room.State) {
		snap := st.Snapshot()
		require.Len(t, snap, 1)
		assert.Equal(t, batch, snap[0].Points)
		assert.Equal(t, "x", snap[0].UserID)
	})
}

func TestHandler_StartDefaults(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	y := f.join(t, "y", "yuri")

	f.send(t, x, domain.DrawStart{StrokeID: "s1", Tool: domain.ToolEraser})

	evs := y.events(t)
	require.Len(t, evs, 1)
	started := evs[0].(domain.StrokeStarted)
	assert.Equal(t, room.Palette[0], started.Color, "color falls back to the user color")
	assert.Equal(t, domain.DefaultWidth, started.Width)
}

func TestHandler_UndoRedoScenario(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	y := f.join(t, "y", "yuri")
	points := []domain.Point{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}, {X: 0.3, Y: 0.3}}
	f.drawStroke(t, x, "s1", points)
	x.events(t)
	y.events(t)

	var s1 domain.Stroke
	f.state(func(st *room.State) {
		snap := st.Snapshot()
		require.Len(t, snap, 1)
		s1 = snap[0]
		assert.True(t, st.CanUndo())
		assert.False(t, st.CanRedo())
	})

	f.send(t, y, domain.UndoRequest{})
	undone := domain.Undone{StrokeID: "s1", CanUndo: false, CanRedo: true}
	assert.Equal(t, []domain.ServerEvent{undone}, x.events(t))
	assert.Equal(t, []domain.ServerEvent{undone}, y.events(t))
	f.state(func(st *room.State) {
		assert.Empty(t, st.Snapshot())
		assert.True(t, st.CanRedo())
	})

	f.send(t, y, domain.RedoRequest{})
	redone := domain.Redone{Stroke: s1, CanUndo: true, CanRedo: false}
	assert.Equal(t, []domain.ServerEvent{redone}, x.events(t))
	assert.Equal(t, []domain.ServerEvent{redone}, y.events(t))
	assert.Equal(t, points, redone.Stroke.Points)
	f.state(func(st *room.State) {
		assert.Equal(t, []domain.Stroke{s1}, st.Snapshot())
	})
}

func TestHandler_EmptyUndoRedoIsSilent(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	y := f.join(t, "y", "yuri")
	x.events(t)

	f.send(t, x, domain.UndoRequest{})
	f.send(t, x, domain.RedoRequest{})

	assert.Empty(t, x.events(t))
	assert.Empty(t, y.events(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventCounter(domain.EventUndo, metrics.OutcomeDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventCounter(domain.EventRedo, metrics.OutcomeDropped)))
}

func TestHandler_DropsStaleAndIllegalEvents(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture, x, y *mockConn)
		from  func(x, y *mockConn) *mockConn
		event domain.ClientEvent
	}{
		{
			name:  "point for a stroke never started",
			setup: func(*testing.T, *fixture, *mockConn, *mockConn) {},
			from:  func(x, _ *mockConn) *mockConn { return x },
			event: domain.DrawPoint{StrokeID: "ghost", Points: []domain.Point{{X: 0.5, Y: 0.5}}},
		},
		{
			name: "point for an ended stroke",
			setup: func(t *testing.T, f *fixture, x, _ *mockConn) {
				f.drawStroke(t, x, "s1")
			},
			from:  func(x, _ *mockConn) *mockConn { return x },
			event: domain.DrawPoint{StrokeID: "s1", Points: []domain.Point{{X: 0.5, Y: 0.5}}},
		},
		{
			name: "point for another drawer's stroke",
			setup: func(t *testing.T, f *fixture, x, _ *mockConn) {
				f.send(t, x, domain.DrawStart{StrokeID: "s1", Tool: domain.ToolBrush})
			},
			from:  func(_, y *mockConn) *mockConn { return y },
			event: domain.DrawPoint{StrokeID: "s1", Points: []domain.Point{{X: 0.5, Y: 0.5}}},
		},
		{
			name: "second start while drawing",
			setup: func(t *testing.T, f *fixture, x, _ *mockConn) {
				f.send(t, x, domain.DrawStart{StrokeID: "s1", Tool: domain.ToolBrush})
			},
			from:  func(x, _ *mockConn) *mockConn { return x },
			event: domain.DrawStart{StrokeID: "s2", Tool: domain.ToolBrush},
		},
		{
			name: "start reusing a committed id",
			setup: func(t *testing.T, f *fixture, x, _ *mockConn) {
				f.drawStroke(t, x, "s1")
			},
			from:  func(_, y *mockConn) *mockConn { return y },
			event: domain.DrawStart{StrokeID: "s1", Tool: domain.ToolBrush},
		},
		{
			name: "end for another drawer's stroke",
			setup: func(t *testing.T, f *fixture, x, _ *mockConn) {
				f.send(t, x, domain.DrawStart{StrokeID: "s1", Tool: domain.ToolBrush})
			},
			from:  func(_, y *mockConn) *mockConn { return y },
			event: domain.DrawEnd{StrokeID: "s1"},
		},
		{
			name:  "end while idle",
			setup: func(*testing.T, *fixture, *mockConn, *mockConn) {},
			from:  func(x, _ *mockConn) *mockConn { return x },
			event: domain.DrawEnd{StrokeID: "s1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			x := f.join(t, "x", "xena")
			y := f.join(t, "y", "yuri")
			tt.setup(t, f, x, y)
			x.events(t)
			y.events(t)

			var before []domain.Stroke
			var activeBefore int
			f.state(func(st *room.State) {
				before = st.Snapshot()
				activeBefore = st.ActiveCount()
			})

			f.send(t, tt.from(x, y), tt.event)

			assert.Empty(t, x.events(t))
			assert.Empty(t, y.events(t))
			f.state(func(st *room.State) {
				assert.Equal(t, before, st.Snapshot())
				assert.Equal(t, activeBefore, st.ActiveCount())
			})
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventCounter(tt.event.Event(), metrics.OutcomeDropped)))
		})
	}
}

func TestHandler_InterleavedDrawers(t *testing.T) {
	f := newFixture()
	a := f.join(t, "a", "ann")
	b := f.join(t, "b", "ben")

	f.send(t, a, domain.DrawStart{StrokeID: "sa", Tool: domain.ToolBrush})
	f.send(t, b, domain.DrawStart{StrokeID: "sb", Tool: domain.ToolBrush})
	for i := 0; i < 5; i++ {
		v := float64(i) / 10
		f.send(t, a, domain.DrawPoint{StrokeID: "sa", Points: []domain.Point{{X: v, Y: 0}}})
		f.send(t, b, domain.DrawPoint{StrokeID: "sb", Points: []domain.Point{{X: 0, Y: v}}})
	}
	f.send(t, b, domain.DrawEnd{StrokeID: "sb"})
	f.send(t, a, domain.DrawEnd{StrokeID: "sa"})

	f.state(func(st *room.State) {
		snap := st.Snapshot()
		require.Len(t, snap, 2)
		assert.Equal(t, "sb", snap[0].ID, "history is in commit order")
		assert.Equal(t, "sa", snap[1].ID)
		for i := 0; i < 5; i++ {
			v := float64(i) / 10
			assert.Equal(t, domain.Point{X: 0, Y: v}, snap[0].Points[i])
			assert.Equal(t, domain.Point{X: v, Y: 0}, snap[1].Points[i])
		}
	})
}

func TestHandler_NewStrokeKeepsRedo(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	f.drawStroke(t, x, "s1")
	f.send(t, x, domain.UndoRequest{})
	f.drawStroke(t, x, "s2")

	evs := x.events(t)
	last := evs[len(evs)-1].(domain.StrokeEnded)
	assert.Equal(t, "s2", last.StrokeID)
	assert.True(t, last.CanRedo, "drawing does not clear the redo stack")
}

func TestHandler_LeaveMidStrokeAbandonsStroke(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	y := f.join(t, "y", "yuri")
	f.send(t, x, domain.DrawStart{StrokeID: "s1", Tool: domain.ToolBrush})
	f.send(t, x, domain.DrawPoint{StrokeID: "s1", Points: []domain.Point{{X: 0.5, Y: 0.5}}})
	y.events(t)

	f.handler.Leave(x)

	assert.Equal(t, []domain.ServerEvent{domain.UserLeft{UserID: "x"}}, y.events(t))
	f.state(func(st *room.State) {
		status, ok := st.Status("s1")
		require.True(t, ok)
		assert.Equal(t, room.StrokeActive, status, "abandoned strokes are neither committed nor discarded")
		assert.Empty(t, st.Snapshot())
		assert.Equal(t, 1, st.Presence.Len())
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AbandonedCounter()))
	_, clients := f.hub.Stats()
	assert.Equal(t, 1, clients)

	f.handler.Leave(x)
	assert.Empty(t, y.events(t), "leaving twice is a no-op")
}

func TestHandler_LeaveFreesColor(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "")
	f.handler.Leave(x)

	z := &mockConn{id: "z", room: "default"}
	f.handler.Join(z)
	init := z.events(t)[0].(domain.Init)
	assert.Equal(t, room.Palette[0], init.UserColor)
	assert.Equal(t, "User z", init.UserName)
}

func TestHandler_CursorRelay(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	y := f.join(t, "y", "yuri")
	x.events(t)

	f.send(t, x, domain.CursorMove{X: 0.25, Y: 0.75})

	assert.Empty(t, x.events(t))
	assert.Equal(t, []domain.ServerEvent{
		domain.CursorMoved{UserID: "x", UserColor: room.Palette[0], UserName: "xena", X: 0.25, Y: 0.75},
	}, y.events(t))
	f.state(func(st *room.State) {
		assert.Empty(t, st.Snapshot())
		assert.Equal(t, 0, st.ActiveCount())
	})
}

func TestHandler_InvalidFrames(t *testing.T) {
	f := newFixture()
	x := f.join(t, "x", "xena")
	y := f.join(t, "y", "yuri")
	x.events(t)

	for _, frame := range []string{
		"not json",
		`{"type":"draw_start","data":{"tool":"brush"}}`,
		`{"type":"draw_point","data":{"strokeId":"s1","points":[]}}`,
		`{"type":"explode"}`,
	} {
		f.handler.Handle(x, []byte(frame))
	}

	assert.Empty(t, x.events(t))
	assert.Empty(t, y.events(t))
	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.EventCounter("invalid", metrics.OutcomeDropped)))
}

func TestHandler_EventsFromUnknownConnection(t *testing.T) {
	f := newFixture()
	y := f.join(t, "y", "yuri")
	stranger := &mockConn{id: "stranger", room: "default"}

	f.send(t, stranger, domain.UndoRequest{})

	assert.Empty(t, y.events(t))
}
