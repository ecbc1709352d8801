package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessed counts chain events handled by the listener
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_events_processed_total",
			Help: "Total number of chain events processed",
		},
		[]string{"event_type", "status"},
	)

	// ChainWrites counts contract write attempts by method and status
	ChainWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_chain_writes_total",
			Help: "Total number of contract write transactions",
		},
		[]string{"method", "status"},
	)

	// ChainReadFailures counts degraded reads (safe default returned)
	ChainReadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_chain_read_failures_total",
			Help: "Total number of chain reads that fell back to a safe default",
		},
		[]string{"method"},
	)

	// RetryJobs counts retry queue job outcomes
	RetryJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_retry_jobs_total",
			Help: "Total number of retry queue job executions",
		},
		[]string{"job_type", "outcome"},
	)

	// RetryQueueDepth tracks the number of jobs waiting in the retry queue
	RetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_retry_queue_depth",
			Help: "Number of jobs currently in the retry queue",
		},
	)

	// WalletsProvisioned counts custodial wallets created
	WalletsProvisioned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_wallets_provisioned_total",
			Help: "Total number of custodial wallets created",
		},
	)

	// ReconciliationRuns counts reconciliation cycles by status
	ReconciliationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_reconciliation_runs_total",
			Help: "Total number of balance reconciliation cycles",
		},
		[]string{"status"},
	)

	// BalancesRefreshed counts per-wallet balance refreshes
	BalancesRefreshed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_balances_refreshed_total",
			Help: "Total number of wallet balance refreshes from chain state",
		},
	)
)
