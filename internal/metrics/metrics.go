package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amana-transportation/fleetview/internal/selection"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveSessions prometheus.Gauge
	SessionsOpened prometheus.Counter

	Transitions  *prometheus.CounterVec // event label: load|select_bus|select_stop
	NoopEvents   *prometheus.CounterVec // event label, state unchanged
	Redraws      prometheus.Counter
	LoadFailures prometheus.Counter
	LoadedBuses  prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetview_active_sessions",
			Help: "Number of mounted dashboard sessions.",
		}),
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetview_sessions_opened_total",
			Help: "Total dashboard sessions created.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetview_selection_transitions_total",
			Help: "Selection events that changed the state.",
		}, []string{"event"}),
		NoopEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetview_selection_noop_events_total",
			Help: "Selection events that left the state unchanged.",
		}, []string{"event"}),
		Redraws: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetview_map_redraws_total",
			Help: "Total map redraws.",
		}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetview_load_failures_total",
			Help: "Initial fleet loads that failed.",
		}),
		LoadedBuses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetview_loaded_buses",
			Help:    "Buses per successful initial load.",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetview_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetview_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetview_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetview_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
	}

	reg.MustRegister(
		c.ActiveSessions, c.SessionsOpened,
		c.Transitions, c.NoopEvents, c.Redraws, c.LoadFailures, c.LoadedBuses,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Dashboard observer

func (c *Collector) SessionOpened(string) {
	c.SessionsOpened.Inc()
	c.ActiveSessions.Inc()
}

func (c *Collector) SessionClosed(string) {
	c.ActiveSessions.Dec()
}

func (c *Collector) Loaded(_ string, buses int, err error) {
	if err != nil {
		c.LoadFailures.Inc()
		return
	}
	c.LoadedBuses.Observe(float64(buses))
}

func (c *Collector) Transitioned(_ string, t selection.Transition) {
	if t.Changed() {
		c.Transitions.WithLabelValues(t.Event).Inc()
	} else {
		c.NoopEvents.WithLabelValues(t.Event).Inc()
	}
}

func (c *Collector) Redrawn(string) {
	c.Redraws.Inc()
}

// Publisher metrics

func (c *Collector) NATSPublishedInc()  { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc() { c.NATSPublishErrs.Inc() }

func (c *Collector) PublishObserve(d time.Duration) {
	c.PublishDuration.Observe(d.Seconds())
}

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}
