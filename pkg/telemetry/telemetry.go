// Package telemetry provides Prometheus instrumentation for Haven.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RiskDecisionsTotal counts risk policy decisions by surface and action.
	RiskDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "risk_decisions_total",
			Help:      "Total risk policy decisions by surface and action.",
		},
		[]string{"surface", "action"},
	)

	// EscalationsTotal counts behavioral escalations (ESCALATE verdicts
	// that upgraded a message).
	EscalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "escalations_total",
			Help:      "Total behavioral escalations applied to submissions.",
		},
	)

	// CrisisEventsTotal counts recorded crisis audit events by level.
	CrisisEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "crisis_events_total",
			Help:      "Total crisis events recorded, by risk level.",
		},
		[]string{"level"},
	)

	// SessionsStartedTotal counts game sessions begun by mode.
	SessionsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "sessions_started_total",
			Help:      "Total guided sessions started, by mode.",
		},
		[]string{"mode"},
	)

	// LevelUnlocksTotal counts level unlocks by level.
	LevelUnlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "level_unlocks_total",
			Help:      "Total level unlocks, by unlocked level.",
		},
		[]string{"level"},
	)

	// CommunityFetchFailures counts degraded community card fetches.
	CommunityFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "community_fetch_failures_total",
			Help:      "Total community card fetches that failed and degraded the pool.",
		},
	)

	// ActiveTrackers gauges currently tracked users.
	ActiveTrackers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "haven",
			Name:      "active_trackers",
			Help:      "Number of users with an active behavioral tracker.",
		},
	)
)

// registry holds all Haven collectors, kept separate from the global
// default registry so tests can re-register freely.
var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		RiskDecisionsTotal,
		EscalationsTotal,
		CrisisEventsTotal,
		SessionsStartedTotal,
		LevelUnlocksTotal,
		CommunityFetchFailures,
		ActiveTrackers,
	)
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
