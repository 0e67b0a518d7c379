// Package metrics defines and registers all custom Prometheus metrics for
// the attendance bot. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry via
// promauto and are served by the ops server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "attendance_bot"

// EventsReceivedTotal counts inbound transport events accepted by the
// dispatcher.
// Label:
//   - kind: "message" or "callback"
var EventsReceivedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_received_total",
		Help:      "Total number of inbound chat events enqueued for processing.",
	},
	[]string{"kind"},
)

// EventsDroppedTotal counts events that matched no registered route and were
// silently dropped.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of events that matched no route.",
	},
)

// HandlerErrorsTotal counts step handler failures.
// Label:
//   - route: the registered route name (e.g. "auth.password")
var HandlerErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_errors_total",
		Help:      "Total number of step handler invocations that returned an error.",
	},
	[]string{"route"},
)

// EventsQueueDepth tracks the number of events waiting in each dispatcher
// worker channel.
// Label:
//   - worker_id: numeric worker index ("0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// BackendRequestDuration measures directory service call latency.
// Label:
//   - op: the backend operation name (e.g. "lookup_by_identity")
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of REST calls to the directory service.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// BackendRequestTimer starts a timer for one backend operation. Call
// ObserveDuration on the returned timer when the request completes.
func BackendRequestTimer(op string) *prometheus.Timer {
	return prometheus.NewTimer(BackendRequestDuration.WithLabelValues(op))
}
