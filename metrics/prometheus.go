// Package metrics provides Prometheus instrumentation for the MiTanda
// API gateway and chain modules.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace is the metrics namespace for all MiTanda metrics
	Namespace = "mitanda"

	// Subsystem names
	SubsystemPool = "pool"
	SubsystemAPI  = "api"
	SubsystemWS   = "websocket"
)

// Collector holds all Prometheus metrics
type Collector struct {
	// Pool lifecycle metrics
	PoolsCreated       prometheus.Counter
	PoolsByStatus      *prometheus.GaugeVec
	ParticipantsJoined prometheus.Counter
	ContributionsTotal prometheus.Counter
	ContributionAmount *prometheus.CounterVec
	PayoutsTotal       prometheus.Counter
	PayoutAmount       *prometheus.CounterVec
	FeesCollected      *prometheus.CounterVec
	EvictionsTotal     prometheus.Counter
	PoolEventsTotal    *prometheus.CounterVec
	PendingRandomness  prometheus.Gauge
	PoolFunds          *prometheus.GaugeVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
	WSConnectionsTotal  prometheus.Counter
	WSMessagesTotal     *prometheus.CounterVec
	WSSubscriptions     prometheus.Gauge

	// Chain metrics
	BlockHeight     prometheus.Gauge
	EndBlockLatency prometheus.Histogram

	registry *prometheus.Registry
}

var (
	collector     *Collector
	collectorOnce sync.Once
)

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
		collector.registerAll()
	})
	return collector
}

func newCollector() *Collector {
	return &Collector{
		PoolsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "created_total",
			Help:      "Total number of pools created",
		}),
		PoolsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "by_status",
			Help:      "Number of pools by lifecycle status",
		}, []string{"status"}),
		ParticipantsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "participants_joined_total",
			Help:      "Total number of participant enrollments",
		}),
		ContributionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "contributions_total",
			Help:      "Total number of contributions received",
		}),
		ContributionAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "contribution_amount_total",
			Help:      "Cumulative contribution amount by denom",
		}, []string{"denom"}),
		PayoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "payouts_total",
			Help:      "Total number of payouts executed",
		}),
		PayoutAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "payout_amount_total",
			Help:      "Cumulative payout amount by denom",
		}, []string{"denom"}),
		FeesCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "fees_collected_total",
			Help:      "Cumulative fees collected by recipient type",
		}, []string{"recipient", "denom"}),
		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "evictions_total",
			Help:      "Total number of participants removed for delinquency",
		}),
		PoolEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "events_total",
			Help:      "Total pool lifecycle events by type",
		}, []string{"type"}),
		PendingRandomness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "pending_randomness",
			Help:      "Number of pools awaiting randomness fulfillment",
		}),
		PoolFunds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemPool,
			Name:      "funds",
			Help:      "Funds currently escrowed per pool",
		}, []string{"pool_id", "denom"}),

		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "requests_total",
			Help:      "Total API requests by endpoint, method and status",
		}, []string{"endpoint", "method", "status"}),
		APIRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "request_duration_seconds",
			Help:      "API request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"endpoint", "method"}),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "errors_total",
			Help:      "Total API errors by endpoint and error code",
		}, []string{"endpoint", "code"}),
		RateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "rate_limit_hits_total",
			Help:      "Total requests rejected by rate limiting",
		}, []string{"limit_type"}),

		WSConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemWS,
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		}),
		WSConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemWS,
			Name:      "connections_total",
			Help:      "Total WebSocket connections accepted",
		}),
		WSMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemWS,
			Name:      "messages_total",
			Help:      "Total WebSocket messages by direction and type",
		}, []string{"direction", "type"}),
		WSSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemWS,
			Name:      "subscriptions",
			Help:      "Number of active channel subscriptions",
		}),

		BlockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "block_height",
			Help:      "Current block height",
		}),
		EndBlockLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "endblock_duration_seconds",
			Help:      "EndBlock processing latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		registry: prometheus.NewRegistry(),
	}
}

func (c *Collector) registerAll() {
	c.registry.MustRegister(
		c.PoolsCreated,
		c.PoolsByStatus,
		c.ParticipantsJoined,
		c.ContributionsTotal,
		c.ContributionAmount,
		c.PayoutsTotal,
		c.PayoutAmount,
		c.FeesCollected,
		c.EvictionsTotal,
		c.PoolEventsTotal,
		c.PendingRandomness,
		c.PoolFunds,
		c.APIRequestsTotal,
		c.APIRequestLatency,
		c.APIErrorsTotal,
		c.RateLimitHits,
		c.WSConnectionsActive,
		c.WSConnectionsTotal,
		c.WSMessagesTotal,
		c.WSSubscriptions,
		c.BlockHeight,
		c.EndBlockLatency,
	)
}

// Handler returns an HTTP handler serving the metrics endpoint
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordPoolEvent records a pool lifecycle event and updates the
// derived counters for the event types that map to them.
func (c *Collector) RecordPoolEvent(eventType string) {
	c.PoolEventsTotal.WithLabelValues(eventType).Inc()

	switch eventType {
	case "pool_created":
		c.PoolsCreated.Inc()
	case "participant_joined":
		c.ParticipantsJoined.Inc()
	case "payment_made":
		c.ContributionsTotal.Inc()
	case "payout_sent":
		c.PayoutsTotal.Inc()
	case "participant_removed":
		c.EvictionsTotal.Inc()
	}
}

// RecordContribution records a contribution amount
func (c *Collector) RecordContribution(denom string, amount float64) {
	c.ContributionAmount.WithLabelValues(denom).Add(amount)
}

// RecordPayout records a payout amount
func (c *Collector) RecordPayout(denom string, amount float64) {
	c.PayoutAmount.WithLabelValues(denom).Add(amount)
}

// RecordFee records a fee split by recipient type (creator or treasury)
func (c *Collector) RecordFee(recipient, denom string, amount float64) {
	c.FeesCollected.WithLabelValues(recipient, denom).Add(amount)
}

// SetPoolsByStatus sets the pool count gauge for a status
func (c *Collector) SetPoolsByStatus(status string, count float64) {
	c.PoolsByStatus.WithLabelValues(status).Set(count)
}

// SetPendingRandomness sets the pending randomness gauge
func (c *Collector) SetPendingRandomness(count float64) {
	c.PendingRandomness.Set(count)
}

// SetPoolFunds sets the escrowed funds gauge for a pool
func (c *Collector) SetPoolFunds(poolID, denom string, amount float64) {
	c.PoolFunds.WithLabelValues(poolID, denom).Set(amount)
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPILatency records API request latency
func (c *Collector) RecordAPILatency(endpoint, method string, duration time.Duration) {
	c.APIRequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// RecordAPIError records an API error
func (c *Collector) RecordAPIError(endpoint, code string) {
	c.APIErrorsTotal.WithLabelValues(endpoint, code).Inc()
}

// RecordRateLimitHit records a rate limit rejection
func (c *Collector) RecordRateLimitHit(limitType string) {
	c.RateLimitHits.WithLabelValues(limitType).Inc()
}

// RecordWSConnection records a new WebSocket connection
func (c *Collector) RecordWSConnection() {
	c.WSConnectionsTotal.Inc()
	c.WSConnectionsActive.Inc()
}

// RecordWSDisconnection records a WebSocket disconnection
func (c *Collector) RecordWSDisconnection() {
	c.WSConnectionsActive.Dec()
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(direction, msgType string) {
	c.WSMessagesTotal.WithLabelValues(direction, msgType).Inc()
}

// SetBlockHeight sets the block height gauge
func (c *Collector) SetBlockHeight(height float64) {
	c.BlockHeight.Set(height)
}

// RecordEndBlockLatency records EndBlock processing latency
func (c *Collector) RecordEndBlockLatency(duration time.Duration) {
	c.EndBlockLatency.Observe(duration.Seconds())
}

// Timer measures elapsed time for a labeled API request
type Timer struct {
	start    time.Time
	endpoint string
	method   string
}

// NewTimer starts a timer for the given endpoint and method
func NewTimer(endpoint, method string) *Timer {
	return &Timer{
		start:    time.Now(),
		endpoint: endpoint,
		method:   method,
	}
}

// ObserveDuration records the elapsed time since the timer started
func (t *Timer) ObserveDuration() {
	GetCollector().RecordAPILatency(t.endpoint, t.method, time.Since(t.start))
}
