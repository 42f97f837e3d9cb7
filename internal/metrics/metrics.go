package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query types recorded by the database hooks
const (
	DBQueryTypeInsert = "insert"
	DBQueryTypeSelect = "select"
	DBQueryTypeUpdate = "update"
	DBQueryTypeDelete = "delete"
	DBQueryTypeRaw    = "raw"
)

// Metrics is the Prometheus collector for the service. A nil *Metrics is a
// valid no-op collector.
type Metrics struct {
	registry *prometheus.Registry

	ordersPlaced       *prometheus.CounterVec
	orderFailures      *prometheus.CounterVec
	stockDecremented   prometheus.Counter
	productionRuns     *prometheus.CounterVec
	transactionRetries *prometheus.CounterVec
	paymentPolls       *prometheus.CounterVec
	externalRequests   *prometheus.HistogramVec
	eventsPublished    *prometheus.CounterVec
	httpRequests       *prometheus.HistogramVec
	dbQueries          *prometheus.HistogramVec
	startTime          time.Time
}

// NewMetrics creates a collector backed by its own registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_placed_total",
			Help: "Orders committed, by sales channel.",
		}, []string{"channel"}),
		orderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "order_failures_total",
			Help: "Order placements that did not commit, by reason.",
		}, []string{"reason"}),
		stockDecremented: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "inventory_units_decremented_total",
			Help: "Finished-goods units removed from inventory by orders.",
		}),
		productionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "production_runs_total",
			Help: "Manufacturing runs, by outcome.",
		}, []string{"outcome"}),
		transactionRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transaction_retries_total",
			Help: "Database transactions retried after a serialization conflict.",
		}, []string{"operation"}),
		paymentPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "payment_polls_total",
			Help: "Gateway charge status polls, by reported status.",
		}, []string{"status"}),
		externalRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "external_request_duration_seconds",
			Help:    "Latency of calls to external providers.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "operation", "outcome"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_published_total",
			Help: "Domain events handed to the event bus.",
		}, []string{"type", "outcome"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		dbQueries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "db_query_duration_seconds",
			Help:    "Database statement latency.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"type", "outcome"}),
		startTime: time.Now(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersPlaced,
		m.orderFailures,
		m.stockDecremented,
		m.productionRuns,
		m.transactionRetries,
		m.paymentPolls,
		m.externalRequests,
		m.eventsPublished,
		m.httpRequests,
		m.dbQueries,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Uptime returns how long the collector has existed.
func (m *Metrics) Uptime() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime)
}

func (m *Metrics) RecordOrderPlaced(channel string, units int64) {
	if m == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(channel).Inc()
	m.stockDecremented.Add(float64(units))
}

func (m *Metrics) RecordOrderFailure(reason string) {
	if m == nil {
		return
	}
	m.orderFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordProductionRun(success bool) {
	if m == nil {
		return
	}
	m.productionRuns.WithLabelValues(outcome(success)).Inc()
}

func (m *Metrics) RecordTransactionRetry(operation string) {
	if m == nil {
		return
	}
	m.transactionRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordPaymentPoll(status string) {
	if m == nil {
		return
	}
	m.paymentPolls.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordExternalRequest(service, operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.externalRequests.WithLabelValues(service, operation, outcome(success)).Observe(duration.Seconds())
}

func (m *Metrics) RecordEventPublished(eventType string, success bool) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType, outcome(success)).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func (m *Metrics) RecordDatabaseQuery(queryType string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueries.WithLabelValues(queryType, outcome(success)).Observe(duration.Seconds())
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
