// Package metrics defines and registers all custom Prometheus metrics for the
// Sahafa app core. It is the single source of truth for metric names, labels,
// and help strings. Collectors register on the default registry at import
// time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "appcore"

// AuthOperationsTotal counts session mutations by operation and result.
// Labels:
//   - op: "signup", "signin", "local_signin", "verify_email", "resend_code",
//     "update_role", "signout"
//   - result: "ok", "validation_error", "auth_error", "remote_error"
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of session operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// BootstrapDuration measures wall time of a full bootstrap attempt.
// Label:
//   - outcome: the BootstrapOutcome tag the attempt ended with
var BootstrapDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bootstrap_duration_seconds",
		Help:      "Duration of bootstrap attempts from start to returned outcome.",
		Buckets:   []float64{.1, .25, .5, 1, 2, 4, 8, 10, 15},
	},
	[]string{"outcome"},
)

// BootstrapOutcomesTotal counts finished bootstrap attempts by outcome.
var BootstrapOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bootstrap_outcomes_total",
		Help:      "Total number of bootstrap attempts, by outcome.",
	},
	[]string{"outcome"},
)

// PreloadSlotFailuresTotal counts preload fetches that produced a null slot.
// Labels:
//   - slot: "home_articles", "journalists", "search_index", "headlines",
//     "recent_videos", "profile"
//   - kind: "network" or "server"
var PreloadSlotFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "preload_slot_failures_total",
		Help:      "Total number of failed preload fetches, by slot and fault kind.",
	},
	[]string{"slot", "kind"},
)
