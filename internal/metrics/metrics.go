// Package metrics exposes Prometheus collectors for the trading scheduler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Trade outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePanic   = "panic"
	OutcomeSkipped = "skipped"
)

// TradingMetrics tracks schedule groups, ticks and per-trade outcomes.
// A nil *TradingMetrics is valid and records nothing.
type TradingMetrics struct {
	groups          prometheus.Gauge
	scheduledTrades prometheus.Gauge
	tickDuration    prometheus.Histogram
	trades          *prometheus.CounterVec
	leaderboards    *prometheus.CounterVec
}

// NewTradingMetrics constructs and registers trading metrics with the provided registerer.
func NewTradingMetrics(reg prometheus.Registerer) *TradingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &TradingMetrics{
		groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aitrader",
			Subsystem: "scheduler",
			Name:      "schedule_groups",
			Help:      "Number of distinct schedule expressions with a running job.",
		}),
		scheduledTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aitrader",
			Subsystem: "scheduler",
			Name:      "scheduled_trades",
			Help:      "Number of trade records registered across all schedule groups.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aitrader",
			Subsystem: "scheduler",
			Name:      "tick_seconds",
			Help:      "Time to process every trade of a schedule group tick.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aitrader",
				Subsystem: "scheduler",
				Name:      "trades_total",
				Help:      "Scheduled trade executions by outcome.",
			},
			[]string{"outcome"},
		),
		leaderboards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aitrader",
				Subsystem: "scheduler",
				Name:      "leaderboards_total",
				Help:      "Leaderboard posts by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.groups, m.scheduledTrades, m.tickDuration, m.trades, m.leaderboards)
	return m
}

// SetGroups records the current schedule table size
func (m *TradingMetrics) SetGroups(groups, trades int) {
	if m == nil {
		return
	}
	m.groups.Set(float64(groups))
	m.scheduledTrades.Set(float64(trades))
}

// ObserveTick records the duration of a completed tick. Expressions are
// user supplied, so they go to the log rather than a label.
func (m *TradingMetrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

// TradeOutcome counts one trade execution
func (m *TradingMetrics) TradeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.trades.WithLabelValues(outcome).Inc()
}

// LeaderboardPosted counts one leaderboard post attempt
func (m *TradingMetrics) LeaderboardPosted(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.leaderboards.WithLabelValues(result).Inc()
}
