// Package metrics exposes the coordination core's Prometheus counters and
// gauges. Everything registers on the default registry and is served on
// /metrics by the HTTP adapter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ConnectionsActive tracks currently registered realtime connections.
	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_connections_active",
		Help: "Number of live realtime connections.",
	})

	// LocationUpdates counts position reports by outcome: applied, discarded,
	// or rejected.
	LocationUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_location_updates_total",
		Help: "Agent position reports processed, by outcome.",
	}, []string{"outcome"})

	// MatchesServed counts nearby-order suggestion pushes to agents.
	MatchesServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_matches_served_total",
		Help: "Nearby-order suggestion messages pushed to agents.",
	})

	// Assignments counts assignment attempts by outcome: won or lost.
	Assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_assignments_total",
		Help: "Order assignment attempts, by outcome.",
	}, []string{"outcome"})

	// Confirmations counts delivery confirmations by outcome: confirmed,
	// invalid_code, or rejected.
	Confirmations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_confirmations_total",
		Help: "Delivery confirmation attempts, by outcome.",
	}, []string{"outcome"})

	// IgnoredMessages counts inbound envelopes dropped for an unknown type.
	IgnoredMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_ignored_messages_total",
		Help: "Inbound realtime messages ignored due to an unknown type.",
	})

	// IdleConnectionsReaped counts connections closed by the idle sweep.
	IdleConnectionsReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_idle_connections_reaped_total",
		Help: "Realtime connections closed for inactivity.",
	})
)

// MustRegister registers every collector on the default registry. Call once
// at startup.
func MustRegister() {
	prometheus.MustRegister(
		ConnectionsActive,
		LocationUpdates,
		MatchesServed,
		Assignments,
		Confirmations,
		IgnoredMessages,
		IdleConnectionsReaped,
	)
}
