// Package metrics exposes the trading bot's Prometheus metrics. A nil
// *Registry is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "papertrader"

type Registry struct {
	reg *prometheus.Registry

	TickDuration    prometheus.Histogram
	Ticks           prometheus.Counter
	SymbolErrors    *prometheus.CounterVec
	Trades          *prometheus.CounterVec
	TradeRejections *prometheus.CounterVec
	RulesFired      *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec

	Balance    prometheus.Gauge
	TotalValue prometheus.Gauge
	Running    prometheus.Gauge
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of one evaluation pass over every symbol",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of ticks run",
		}),
		SymbolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbol_errors_total",
			Help:      "Per-symbol failures recovered inside a tick",
		}, []string{"symbol"}),
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Executed trades by action and origin",
		}, []string{"action", "origin"}),
		TradeRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trade_rejections_total",
			Help:      "Trades the ledger refused, by action and reason",
		}, []string{"action", "reason"}),
		RulesFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_fired_total",
			Help:      "Decision rules that matched, by rule name",
		}, []string{"rule"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Failed or timed-out provider calls",
		}, []string{"provider"}),

		Balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "balance",
			Help:      "Current cash balance",
		}),
		TotalValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_value",
			Help:      "Cash plus holdings at current prices",
		}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running",
			Help:      "1 when automated trading is enabled",
		}),
	}

	r.reg.MustRegister(
		r.TickDuration, r.Ticks, r.SymbolErrors,
		r.Trades, r.TradeRejections, r.RulesFired, r.ProviderErrors,
		r.Balance, r.TotalValue, r.Running,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Gatherer returns the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) ObserveTick(d time.Duration) {
	if r == nil {
		return
	}
	r.Ticks.Inc()
	r.TickDuration.Observe(d.Seconds())
}

func (r *Registry) SymbolError(symbol string) {
	if r == nil {
		return
	}
	r.SymbolErrors.WithLabelValues(symbol).Inc()
}

// TradeExecuted counts a fill. origin is "auto" or "manual".
func (r *Registry) TradeExecuted(action, origin string) {
	if r == nil {
		return
	}
	r.Trades.WithLabelValues(action, origin).Inc()
}

func (r *Registry) TradeRejected(action, reason string) {
	if r == nil {
		return
	}
	r.TradeRejections.WithLabelValues(action, reason).Inc()
}

func (r *Registry) RuleFired(rule string) {
	if r == nil {
		return
	}
	r.RulesFired.WithLabelValues(rule).Inc()
}

func (r *Registry) ProviderError(provider string) {
	if r == nil {
		return
	}
	r.ProviderErrors.WithLabelValues(provider).Inc()
}

func (r *Registry) SetAccount(balance, total float64) {
	if r == nil {
		return
	}
	r.Balance.Set(balance)
	r.TotalValue.Set(total)
}

func (r *Registry) SetRunning(running bool) {
	if r == nil {
		return
	}
	if running {
		r.Running.Set(1)
	} else {
		r.Running.Set(0)
	}
}
