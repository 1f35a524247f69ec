package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FlowResults counts resolved wallet flow invocations by flow and final status.
	FlowResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniapp_flow_results_total",
			Help: "Total number of wallet flow invocations by final status",
		},
		[]string{"flow", "status"},
	)

	// FlowDuration observes how long a wallet flow stays pending.
	FlowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "miniapp_flow_duration_seconds",
			Help:    "Wallet flow duration from pending to resolution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"flow"},
	)

	// HostEvents counts events received from the host bridge.
	HostEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniapp_host_events_total",
			Help: "Total number of host events received",
		},
		[]string{"kind"},
	)

	// HostBridgeConnected is 1 while a host bridge session is loaded.
	HostBridgeConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "miniapp_host_bridge_connected",
		Help: "Host bridge session status (1=loaded, 0=not loaded)",
	})

	// Notifications counts send-notification requests by outcome.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniapp_notifications_total",
			Help: "Total number of send-notification requests by outcome",
		},
		[]string{"outcome"},
	)

	// RPCChecks counts endpoint health checks by protocol and result.
	RPCChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniapp_rpc_checks_total",
			Help: "Total number of Solana RPC endpoint health checks",
		},
		[]string{"protocol", "result"},
	)
)
