package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Prometheus struct {
	locationUpdates *prometheus.CounterVec
	suspiciousJumps prometheus.Counter
	approaching     *prometheus.CounterVec
	tokenOutcomes   *prometheus.CounterVec
	useCaseTotal    *prometheus.CounterVec
	useCaseDuration *prometheus.HistogramVec
	httpDuration    *prometheus.HistogramVec
	throttleEntries prometheus.Gauge
	duplicateEvents *prometheus.CounterVec
	outboxEvents    *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer, serviceName string) *Prometheus {
	constLabels := prometheus.Labels{"service": serviceName}
	m := &Prometheus{
		locationUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "geodispatch_location_updates_total",
			Help:        "Location reports by throttle outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		suspiciousJumps: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "geodispatch_location_suspicious_jumps_total",
			Help:        "Accepted location reports that moved further than the jump threshold.",
			ConstLabels: constLabels,
		}),
		approaching: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "geodispatch_approaching_notifications_total",
			Help:        "Driver approaching notification attempts.",
			ConstLabels: constLabels,
		}, []string{"status"}),
		tokenOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "geodispatch_notification_tokens_total",
			Help:        "Per device token send outcomes.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		useCaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_usecase_total",
			Help:        "Total number of Use Case executions.",
			ConstLabels: constLabels,
		}, []string{"use_case", "status"}),
		useCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_usecase_duration_seconds",
			Help:        "Use Case execution latency.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			ConstLabels: constLabels,
		}, []string{"use_case", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_http_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			ConstLabels: constLabels,
		}, []string{"method", "path", "status_code"}),
		throttleEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "geodispatch_throttle_entries",
			Help:        "Entities currently tracked by the location throttle.",
			ConstLabels: constLabels,
		}),
		duplicateEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_duplicate_events_total",
			Help:        "Events dropped by the idempotency guard.",
			ConstLabels: constLabels,
		}, []string{"handler"}),
		outboxEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_outbox_events_processed_total",
			Help:        "Total outbox events processed.",
			ConstLabels: constLabels,
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.locationUpdates,
		m.suspiciousJumps,
		m.approaching,
		m.tokenOutcomes,
		m.useCaseTotal,
		m.useCaseDuration,
		m.httpDuration,
		m.throttleEntries,
		m.duplicateEvents,
		m.outboxEvents,
	)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

func (p *Prometheus) RecordLocationUpdate(outcome string) {
	p.locationUpdates.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) RecordSuspiciousJump() {
	p.suspiciousJumps.Inc()
}

func (p *Prometheus) RecordApproachingNotification(status string) {
	p.approaching.WithLabelValues(status).Inc()
}

func (p *Prometheus) RecordNotificationToken(outcome string) {
	p.tokenOutcomes.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) RecordUseCaseExecution(useCase string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.useCaseTotal.WithLabelValues(useCase, status).Inc()
	p.useCaseDuration.WithLabelValues(useCase, status).Observe(duration.Seconds())
}

func (p *Prometheus) ObserveHTTPRequestDuration(method, path, code string, duration float64) {
	p.httpDuration.WithLabelValues(method, path, code).Observe(duration)
}

func (p *Prometheus) SetThrottleEntries(n int) {
	p.throttleEntries.Set(float64(n))
}

func (p *Prometheus) IncDuplicateEvent(handler string) {
	p.duplicateEvents.WithLabelValues(handler).Inc()
}

func (p *Prometheus) IncOutboxEventsProcessed(status string) {
	p.outboxEvents.WithLabelValues(status).Inc()
}
