package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the paper trading engine.
type Metrics struct {
	TicksTotal     prometheus.Counter
	OrdersPlaced   prometheus.Counter
	OrdersExecuted *prometheus.CounterVec // labels: side
	OrdersRejected *prometheus.CounterVec // labels: reason
	OrdersCanceled prometheus.Counter

	ConsistencyViolations prometheus.Counter

	MatchingPassDur prometheus.Histogram
	SnapshotSaveDur prometheus.Histogram

	MarketState prometheus.Gauge // 0=closed, 1=open
	CashBalance prometheus.Gauge // paise
	WSClients   prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "papertrade_ticks_total",
			Help: "Total simulated price ticks applied",
		}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "papertrade_orders_placed_total",
			Help: "Orders admitted into the book",
		}),
		OrdersExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrade_orders_executed_total",
			Help: "Orders executed by the matching pass (by side)",
		}, []string{"side"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrade_orders_rejected_total",
			Help: "Orders rejected at admission (by reason)",
		}, []string{"reason"}),
		OrdersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "papertrade_orders_canceled_total",
			Help: "Orders canceled before execution",
		}),
		ConsistencyViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "papertrade_consistency_violations_total",
			Help: "Execution-time invariant breaches (iteration skipped)",
		}),
		MatchingPassDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "papertrade_matching_pass_duration_seconds",
			Help:    "Matching pass latency",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		}),
		SnapshotSaveDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "papertrade_snapshot_save_duration_seconds",
			Help:    "State snapshot commit latency",
			Buckets: prometheus.DefBuckets,
		}),
		MarketState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "papertrade_market_state",
			Help: "Market session state (0=closed, 1=open)",
		}),
		CashBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "papertrade_cash_balance_paise",
			Help: "Current portfolio cash balance in paise",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "papertrade_ws_clients",
			Help: "Connected WebSocket clients",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.OrdersPlaced,
		m.OrdersExecuted,
		m.OrdersRejected,
		m.OrdersCanceled,
		m.ConsistencyViolations,
		m.MatchingPassDur,
		m.SnapshotSaveDur,
		m.MarketState,
		m.CashBalance,
		m.WSClients,
	)

	return m
}
