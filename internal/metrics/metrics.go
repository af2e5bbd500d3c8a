// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "glymo"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeNotFound = "not_found"
)

var (
	// EntryMutations counts optimistic meal mutations by kind (add|remove)
	// and outcome (ok|failed).
	EntryMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entrystore",
			Name:      "mutations_total",
			Help:      "Optimistic meal mutations by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// Rollbacks counts optimistic changes undone after a durable failure.
	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entrystore",
			Name:      "rollbacks_total",
			Help:      "Optimistic changes rolled back after a failed durable write.",
		},
		[]string{"kind"},
	)

	// LoadFailures counts snapshot parts that kept stale data after a failed read.
	LoadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entrystore",
			Name:      "load_failures_total",
			Help:      "Snapshot loads that failed, by part (meals|weight|water).",
		},
		[]string{"part"},
	)

	// Scans counts barcode and photo lookups by source and outcome.
	Scans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "requests_total",
			Help:      "Product lookups by source (barcode|photo) and outcome.",
		},
		[]string{"source", "outcome"},
	)

	// AuditDropped counts audit records discarded because the queue was full
	// or the write failed.
	AuditDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "dropped_total",
			Help:      "Audit records not persisted, by reason (queue_full|write_failed).",
		},
		[]string{"reason"},
	)

	// ActiveSessions tracks per-user sessions held in memory.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Signed-in users with a loaded entry store.",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
