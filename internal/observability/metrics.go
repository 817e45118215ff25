package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the relay.
type Metrics struct {
	QueueDepth    prometheus.Gauge
	TasksInFlight prometheus.Gauge
	TasksTotal    *prometheus.CounterVec
	TaskRetries   prometheus.Counter
	TaskDuration  prometheus.Histogram

	UpdatesReceived prometheus.Counter
	CommandsTotal   *prometheus.CounterVec
	PollErrors      prometheus.Counter
	SendErrors      prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of tasks waiting in the queue.",
		}),
		TasksInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_in_flight",
			Help:      "Tasks currently executing (0 or 1).",
		}),
		TasksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Finished tasks by intent and outcome.",
		}, []string{"intent", "outcome"}),
		TaskRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_retries_total",
			Help:      "Attempts beyond the first across all tasks.",
		}),
		TaskDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time of one task including retries and pacing between attempts.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		UpdatesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Updates received from the messaging platform.",
		}),
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Dispatch results for polled messages.",
		}, []string{"result"}),
		PollErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Transport errors while polling for updates.",
		}),
		SendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "Failed outbound chat messages.",
		}),
	}
}

func (m *Metrics) ObserveTaskDuration(d time.Duration) {
	m.TaskDuration.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
