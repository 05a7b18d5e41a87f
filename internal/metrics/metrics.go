// Package metrics exposes Prometheus counters for the polling pipeline and
// a lightweight sidecar HTTP server serving /metrics and /healthz.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CyclesTotal counts polling batches processed.
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopsignal_cycles_total",
		Help: "Number of polling cycles processed.",
	})

	// CycleFailures counts polling batches that failed before processing.
	CycleFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopsignal_cycle_failures_total",
		Help: "Number of polling cycles that failed to fetch or process.",
	})

	// SnapshotsSeen counts event snapshots received from the feed.
	SnapshotsSeen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopsignal_snapshots_seen_total",
		Help: "Number of event snapshots received from the upstream feed.",
	})

	// SamplesAccepted counts scoring-rate samples appended to event state.
	SamplesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopsignal_samples_accepted_total",
		Help: "Number of pace samples accepted into tracking state.",
	})

	// DecisionWindows counts one-time decision windows fired.
	DecisionWindows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopsignal_decision_windows_total",
		Help: "Number of betting decision windows fired.",
	})

	// NotificationsSent counts notification payloads delivered per destination.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopsignal_notifications_sent_total",
		Help: "Number of notifications delivered to destinations.",
	})

	// NotificationFailures counts per-destination delivery failures.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopsignal_notification_failures_total",
		Help: "Number of notification deliveries that failed.",
	})

	// SlotsReleased counts slot releases by cause.
	SlotsReleased = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoopsignal_slots_released_total",
		Help: "Number of tracking slot releases, by cause.",
	}, []string{"cause"})
)

// Serve starts the metrics sidecar on the given port in a goroutine and
// returns the server so the caller can shut it down.
func Serve(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
