// Package metrics defines the Prometheus collectors exported by the admission
// controller and the task scheduler.
//
// Collectors are grouped per component and registered on a caller-supplied
// prometheus.Registerer, so tests can use a private registry. A nil *Admission
// or *Scheduler is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coursegen"

// Admission holds the collectors of the admission controller.
type Admission struct {
	active    prometheus.Gauge
	queued    prometheus.Gauge
	capacity  prometheus.Gauge
	admitted  prometheus.Counter
	waiting   prometheus.Counter
	dropped   prometheus.Counter
	abandoned prometheus.Counter
	stale     prometheus.Counter
}

// NewAdmission creates and registers the admission collectors.
func NewAdmission(reg prometheus.Registerer) *Admission {
	m := &Admission{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "active_requests",
			Help:      "Number of requests currently holding a generation slot.",
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "queued_requests",
			Help:      "Number of requests waiting for a generation slot.",
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "capacity",
			Help:      "Current global concurrency ceiling.",
		}),
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "admitted_total",
			Help:      "Requests promoted into the active set.",
		}),
		waiting: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "queued_total",
			Help:      "Requests that had to wait for a slot.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "dropped_total",
			Help:      "Requests dropped after exhausting their retries.",
		}),
		abandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "abandoned_total",
			Help:      "Requests released after a failure without being queued again.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "stale_total",
			Help:      "Active requests removed by stale cleanup.",
		}),
	}
	reg.MustRegister(m.active, m.queued, m.capacity, m.admitted, m.waiting, m.dropped, m.abandoned, m.stale)
	return m
}

// SetState records the current size of the active set, the queue and the ceiling.
func (m *Admission) SetState(active, queued, capacity int) {
	if m == nil {
		return
	}
	m.active.Set(float64(active))
	m.queued.Set(float64(queued))
	m.capacity.Set(float64(capacity))
}

// Admitted counts a promotion into the active set.
func (m *Admission) Admitted() {
	if m == nil {
		return
	}
	m.admitted.Inc()
}

// Queued counts a request that had to wait.
func (m *Admission) Queued() {
	if m == nil {
		return
	}
	m.waiting.Inc()
}

// Dropped counts a request dropped after its last retry.
func (m *Admission) Dropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// Abandoned counts a failed request released without a retry.
func (m *Admission) Abandoned() {
	if m == nil {
		return
	}
	m.abandoned.Inc()
}

// Stale counts active entries removed by cleanup.
func (m *Admission) Stale(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.stale.Add(float64(n))
}

// Scheduler holds the collectors of the task scheduler.
type Scheduler struct {
	pending    prometheus.Gauge
	processing prometheus.Gauge
	attempts   *prometheus.CounterVec
	retries    prometheus.Counter
	outcomes   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewScheduler creates and registers the scheduler collectors.
func NewScheduler(reg prometheus.Registerer) *Scheduler {
	m := &Scheduler{
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "pending_tasks",
			Help:      "Tasks queued and not in flight.",
		}),
		processing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "processing_tasks",
			Help:      "Tasks with a generation attempt in flight.",
		}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "attempts_total",
			Help:      "Generation attempts by kind and result.",
		}, []string{"kind", "result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "retries_total",
			Help:      "Failed attempts that were scheduled for a retry.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "outcomes_total",
			Help:      "Resolved tasks by kind and content source.",
		}, []string{"kind", "source"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "attempt_duration_seconds",
			Help:      "Latency of generation attempts.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"kind"}),
	}
	reg.MustRegister(m.pending, m.processing, m.attempts, m.retries, m.outcomes, m.latency)
	return m
}

// SetState records the number of pending and processing tasks.
func (m *Scheduler) SetState(pending, processing int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(pending))
	m.processing.Set(float64(processing))
}

// Attempt records a finished generation attempt.
func (m *Scheduler) Attempt(kind string, err error, took time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.attempts.WithLabelValues(kind, result).Inc()
	m.latency.WithLabelValues(kind).Observe(took.Seconds())
}

// Retry counts a scheduled retry.
func (m *Scheduler) Retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// Outcome counts a resolved task.
func (m *Scheduler) Outcome(kind, source string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(kind, source).Inc()
}
