package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notifier"

// Metrics exports dispatch, scheduler and webhook telemetry. A nil *Metrics records nothing.
type Metrics struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchSkipped  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	schedulerEntries prometheus.Gauge
	webhookEvents    *prometheus.CounterVec
}

// New registers the notifier collectors on reg, reusing collectors that are already registered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Dispatches that reached the log, by origin and status.",
		}, []string{"origin", "status"}),
		dispatchSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_skipped_total",
			Help:      "Dispatches skipped before resolution, by reason.",
		}, []string{"reason"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time from resolution start to log write.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"origin"}),
		schedulerEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_entries",
			Help:      "Calendar timers installed by the last registry rebuild.",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound webhook requests, by source and outcome.",
		}, []string{"source", "outcome"}),
	}

	var err error
	if m.dispatchTotal, err = register(reg, m.dispatchTotal); err != nil {
		return nil, err
	}
	if m.dispatchSkipped, err = register(reg, m.dispatchSkipped); err != nil {
		return nil, err
	}
	if m.dispatchDuration, err = register(reg, m.dispatchDuration); err != nil {
		return nil, err
	}
	if m.schedulerEntries, err = register(reg, m.schedulerEntries); err != nil {
		return nil, err
	}
	if m.webhookEvents, err = register(reg, m.webhookEvents); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register notifier metric: %w", err)
	}
	return c, nil
}

// Dispatched records a dispatch that wrote a log.
func (m *Metrics) Dispatched(origin, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(origin, status).Inc()
	m.dispatchDuration.WithLabelValues(origin).Observe(elapsed.Seconds())
}

// Skipped records a dispatch that ended in SKIPPED.
func (m *Metrics) Skipped(reason string) {
	if m == nil {
		return
	}
	m.dispatchSkipped.WithLabelValues(reason).Inc()
}

// SchedulerEntries sets the number of installed calendar timers.
func (m *Metrics) SchedulerEntries(n int) {
	if m == nil {
		return
	}
	m.schedulerEntries.Set(float64(n))
}

// WebhookEvent records one inbound webhook request.
func (m *Metrics) WebhookEvent(source, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(source, outcome).Inc()
}
