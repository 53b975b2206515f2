// Package metrics holds the Prometheus collectors of the weather server.
// All methods are safe on a nil *Metrics so callers can run without
// instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	mqttMessages      *prometheus.CounterVec
	statesIngested    *prometheus.CounterVec
	classifications   *prometheus.CounterVec
	warnings          *prometheus.CounterVec
	dbDuration        *prometheus.HistogramVec
	dbErrors          *prometheus.CounterVec
	retentionDeleted  prometheus.Counter
	retentionRuns     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		mqttMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mqtt_messages_total",
			Help: "MQTT messages received by outcome (stored, skipped, invalid, failed).",
		}, []string{"result"}),
		statesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensor_states_ingested_total",
			Help: "Sensor states stored by sensor kind.",
		}, []string{"kind"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classifications_total",
			Help: "Condition classifications by outcome (ok, no_data).",
		}, []string{"result"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_warnings_total",
			Help: "Warnings produced by the classifier by severity.",
		}, []string{"severity"}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_statement_duration_seconds",
			Help:    "Histogram of SQL statement durations by operation.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, 1},
		}, []string{"op"}),
		dbErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_statement_errors_total",
			Help: "SQL statements that returned an error by operation.",
		}, []string{"op"}),
		retentionDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retention_deleted_states_total",
			Help: "Sensor states removed by the retention job.",
		}),
		retentionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_runs_total",
			Help: "Retention job runs by outcome (ok, error).",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.mqttMessages,
		m.statesIngested,
		m.classifications,
		m.warnings,
		m.dbDuration,
		m.dbErrors,
		m.retentionDeleted,
		m.retentionRuns,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and duration labelled with the
// ServeMux pattern that served the request.
func (m *Metrics) WrapHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) MQTTMessage(result string) {
	if m == nil {
		return
	}
	m.mqttMessages.WithLabelValues(result).Inc()
}

func (m *Metrics) StateIngested(kind string) {
	if m == nil {
		return
	}
	m.statesIngested.WithLabelValues(kind).Inc()
}

func (m *Metrics) Classification(ok bool, severities []string) {
	if m == nil {
		return
	}
	if !ok {
		m.classifications.WithLabelValues("no_data").Inc()
		return
	}
	m.classifications.WithLabelValues("ok").Inc()
	for _, s := range severities {
		m.warnings.WithLabelValues(s).Inc()
	}
}

// ObserveQuery matches db.QueryObserver.
func (m *Metrics) ObserveQuery(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		m.dbErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) RetentionRun(deleted int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.retentionRuns.WithLabelValues("error").Inc()
		return
	}
	m.retentionRuns.WithLabelValues("ok").Inc()
	m.retentionDeleted.Add(float64(deleted))
}
