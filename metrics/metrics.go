// Package metrics exposes Prometheus collectors for the canvas server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "canvas"

// Event outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeDropped = "dropped"
)

type Metrics struct {
	connections      prometheus.Gauge
	events           *prometheus.CounterVec
	abandonedStrokes prometheus.Counter
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Number of open canvas connections",
		}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound protocol events by type and outcome",
		}, []string{"event", "outcome"}),
		abandonedStrokes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abandoned_strokes_total",
			Help:      "Strokes left active by a drawer that disconnected mid-stroke",
		}),
	}
}

// RegisterRooms exposes the number of canvases held in memory.
func RegisterRooms(reg prometheus.Registerer, count func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms",
		Help:      "Number of rooms held in memory",
	}, func() float64 { return float64(count()) })
}

func (m *Metrics) Connected()    { m.connections.Inc() }
func (m *Metrics) Disconnected() { m.connections.Dec() }

func (m *Metrics) Event(event, outcome string) {
	m.events.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) StrokeAbandoned() { m.abandonedStrokes.Inc() }

// Collectors are exposed for tests.
func (m *Metrics) EventCounter(event, outcome string) prometheus.Counter {
	return m.events.WithLabelValues(event, outcome)
}

func (m *Metrics) ConnectionsGauge() prometheus.Gauge { return m.connections }

func (m *Metrics) AbandonedCounter() prometheus.Counter { return m.abandonedStrokes }
