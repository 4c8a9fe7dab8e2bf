package happenr

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes used as the "outcome" label.
const (
	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeStatus    = "status_error"
	outcomeParse     = "parse_error"
)

// Metrics holds the Prometheus collectors for Happenr calls.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	EventsMapped    prometheus.Counter
}

// NewMetrics creates the client metrics and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "happenr",
			Name:      "requests_total",
			Help:      "Happenr API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "happenr",
			Name:      "request_duration_seconds",
			Help:      "Duration of Happenr API round trips.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
		EventsMapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "happenr",
			Name:      "events_mapped_total",
			Help:      "Events converted from Happenr responses.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.RequestDuration, m.EventsMapped)
	}

	return m
}

func (m *Metrics) observeRequest(endpoint, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, outcome).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (m *Metrics) addEvents(n int) {
	if m == nil {
		return
	}
	m.EventsMapped.Add(float64(n))
}
