// Package metrics provides Prometheus instrumentation for the quoting engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the metric set shared by the engine and the instrumented
// gateway. Construct it once per process.
type Collector struct {
	SnapshotsProcessed prometheus.Counter
	SnapshotsDeferred  prometheus.Counter
	ReportsApplied     prometheus.Counter
	OrdersSubmitted    *prometheus.CounterVec
	CancelRequests     prometheus.Counter
	Fills              prometheus.Counter
	Rearms             prometheus.Counter
	ForcedReconciles   prometheus.Counter
	QuoterState        prometheus.Gauge
	SpreadThreshold    prometheus.Gauge
	BuyRemaining       prometheus.Gauge
	SellRemaining      prometheus.Gauge
}

// NewCollector registers the metric set on the default registry.
func NewCollector() *Collector {
	return &Collector{
		SnapshotsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoter_snapshots_processed_total",
			Help: "Market snapshots consumed by the engine",
		}),
		SnapshotsDeferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoter_snapshots_deferred_total",
			Help: "Snapshots buffered while confirmations were outstanding",
		}),
		ReportsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoter_reports_total",
			Help: "Execution reports consumed by the engine",
		}),
		OrdersSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quoter_orders_submitted_total",
			Help: "Orders sent to the gateway",
		}, []string{"side"}),
		CancelRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoter_cancel_requests_total",
			Help: "Cancellation requests sent to the gateway",
		}),
		Fills: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoter_fills_total",
			Help: "Fill reports applied to the ledger",
		}),
		Rearms: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoter_inventory_rearms_total",
			Help: "Inventory cycles completed (both sides fully filled)",
		}),
		ForcedReconciles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoter_forced_reconciles_total",
			Help: "Confirm timeouts that forced a reconciliation pass",
		}),
		QuoterState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_state",
			Help: "Quoting state machine phase (0=md wait, 1=order confirm, 2=cancel confirm)",
		}),
		SpreadThreshold: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_spread_threshold",
			Help: "Effective minimum spread currently enforced",
		}),
		BuyRemaining: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_buy_remaining",
			Help: "Remaining buy-side inventory in the current cycle",
		}),
		SellRemaining: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_sell_remaining",
			Help: "Remaining sell-side inventory in the current cycle",
		}),
	}
}

// Serve exposes /metrics on addr.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
