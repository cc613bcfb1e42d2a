package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// Submit counters
	Submissions atomic.Uint64 // accepted Submit calls
	Requests    atomic.Uint64 // calls that reached the network
	Rejected    atomic.Uint64 // Submit while pending
	Stale       atomic.Uint64 // responses discarded by the stale guard

	// Outcome counters
	Success          atomic.Uint64
	NotFound         atomic.Uint64
	ValidationErrors atomic.Uint64
	TransportErrors  atomic.Uint64

	// Request state
	InFlight      atomic.Uint64 // 0 or 1; Attach one controller per Metrics
	LastLatencyMs atomic.Uint64

	// Last controller snapshot seen by trackPending
	stateMu     sync.Mutex
	lastVersion uint64
	pending     bool

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) gauge(name, help string, v *atomic.Uint64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: name, Help: help},
		func() float64 { return float64(v.Load()) },
	))
}

// registerPrometheusMetrics registers all metrics with Prometheus
func (m *Metrics) registerPrometheusMetrics() {
	m.gauge("vidspot_submissions_total", "Total accepted submissions", &m.Submissions)
	m.gauge("vidspot_requests_total", "Total search requests sent to the detection API", &m.Requests)
	m.gauge("vidspot_rejected_total", "Total submissions rejected while a search was pending", &m.Rejected)
	m.gauge("vidspot_stale_total", "Total responses discarded because a newer selection superseded them", &m.Stale)

	m.gauge("vidspot_outcome_success_total", "Total successful searches", &m.Success)
	m.gauge("vidspot_outcome_not_found_total", "Total searches where the object was not found", &m.NotFound)
	m.gauge("vidspot_outcome_validation_error_total", "Total submissions failing local validation", &m.ValidationErrors)
	m.gauge("vidspot_outcome_transport_error_total", "Total searches failing at transport or server level", &m.TransportErrors)

	m.gauge("vidspot_search_in_flight", "Searches currently pending", &m.InFlight)
	m.gauge("vidspot_search_latency_ms", "Latency of the last completed search in milliseconds", &m.LastLatencyMs)
}

// Observe records one resolved submission.
func (m *Metrics) Observe(sub search.Submission) {
	m.Submissions.Add(1)
	if sub.Sent {
		m.Requests.Add(1)
		m.LastLatencyMs.Store(uint64(sub.Elapsed.Milliseconds()))
	}
	if sub.Stale {
		m.Stale.Add(1)
	}

	switch sub.Outcome.Kind {
	case search.KindSuccess:
		m.Success.Add(1)
	case search.KindNotFound:
		m.NotFound.Add(1)
	case search.KindValidationError:
		m.ValidationErrors.Add(1)
	case search.KindTransportError:
		m.TransportErrors.Add(1)
	}
}

// Attach wires the controller's state and resolution events into m.
func (m *Metrics) Attach(c *search.Controller) {
	c.Subscribe(m.trackPending)
	c.OnResolve(m.Observe)
}

// trackPending moves the in-flight gauge on pending transitions. Observers
// run outside the controller lock, so snapshots older than the last one seen
// are dropped.
func (m *Metrics) trackPending(st search.State) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if st.Version <= m.lastVersion {
		return
	}
	m.lastVersion = st.Version
	if st.Pending == m.pending {
		return
	}
	m.pending = st.Pending
	if st.Pending {
		m.InFlight.Add(1)
	} else {
		m.InFlight.Add(^uint64(0))
	}
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
