package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		tasksSubmittedTotal,
		tasksFinishedTotal,
		sendsTotal,
		floodWaitsTotal,
		pacingWaitSeconds,
		queueDepth,
	)
}

var (
	tasksSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgauto_tasks_submitted_total",
			Help: "Tasks accepted by the scheduler.",
		},
		[]string{"account"},
	)

	tasksFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgauto_tasks_finished_total",
			Help: "Tasks reaching a terminal status.",
		},
		[]string{"status"}, // completed|failed|cancelled
	)

	sendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgauto_sends_total",
			Help: "Per-target results by account.",
		},
		[]string{"account", "result"}, // sent|failed|skipped
	)

	floodWaitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgauto_flood_waits_total",
			Help: "Flood-wait signals received from the provider.",
		},
		[]string{"account"},
	)

	pacingWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tgauto_pacing_wait_seconds",
			Help:    "Time spent waiting for the rate limiter before a send.",
			Buckets: []float64{0, 1, 5, 10, 20, 60, 300, 1800, 3600, 7200},
		},
		[]string{"account"},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tgauto_queue_depth",
			Help: "Pending tasks per account.",
		},
		[]string{"account"},
	)
)

func IncTaskSubmitted(account string) {
	tasksSubmittedTotal.WithLabelValues(account).Inc()
}

func IncTaskFinished(status string) {
	tasksFinishedTotal.WithLabelValues(norm(status)).Inc()
}

func IncSend(account, result string) {
	sendsTotal.WithLabelValues(account, norm(result)).Inc()
}

func IncFloodWait(account string) {
	floodWaitsTotal.WithLabelValues(account).Inc()
}

func ObservePacingWait(account string, seconds float64) {
	pacingWaitSeconds.WithLabelValues(account).Observe(seconds)
}

func SetQueueDepth(account string, n int) {
	queueDepth.WithLabelValues(account).Set(float64(n))
}
