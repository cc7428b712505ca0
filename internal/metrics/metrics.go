// Package metrics defines and registers the custom Prometheus metrics for the
// Postly API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto; HTTP request metrics come from the
// echoprometheus middleware installed by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "postly"

// ── Authentication ────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts accounts created.
// Label:
//   - role: role the new account received ("User", "Moderator", "Admin")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts registered, by assigned role.",
	},
	[]string{"role"},
)

// ── Authorization ─────────────────────────────────────────────────────────────

// AuthzDecisionsTotal counts authorization decisions.
// Labels:
//   - class: operation class ("public", "authenticated", "self_or_admin", "admin_only")
//   - reason: decision reason (e.g. "owner", "elevated_role", "anonymous", "not_admin")
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Total number of authorization decisions, by operation class and reason.",
	},
	[]string{"class", "reason"},
)

// ── Password hashing ──────────────────────────────────────────────────────────

// PasswordHashDuration measures how long a single derivation takes on a worker.
// Label:
//   - op: "hash" or "verify"
var PasswordHashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of a single Argon2id derivation on a hash worker.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8},
	},
	[]string{"op"},
)

// HashQueueDepth tracks the number of derivations waiting for a worker.
var HashQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hash_queue_depth",
		Help:      "Current number of password derivations waiting for a hash worker.",
	},
)
