// Package metrics exposes Prometheus instrumentation for gate evaluations
// and trade lifecycle outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sawpanic/tradegate/internal/domain"
)

// Registry holds all tradegate metrics on a dedicated Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	GateEvaluations *prometheus.CounterVec
	SignalDecisions *prometheus.CounterVec
	TradesOpened    *prometheus.CounterVec
	TradesClosed    *prometheus.CounterVec
	TradePnL        prometheus.Histogram
	OpenTrades      prometheus.Gauge
	HTTPDuration    *prometheus.HistogramVec
}

// NewRegistry creates and registers all tradegate metrics.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		GateEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_gate_evaluations_total",
				Help: "Total number of individual gate checks by gate and outcome",
			},
			[]string{"gate", "outcome"},
		),

		SignalDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_signal_decisions_total",
				Help: "Total number of admission decisions",
			},
			[]string{"decision"},
		),

		TradesOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_trades_opened_total",
				Help: "Total number of trades opened by trading mode",
			},
			[]string{"mode"},
		),

		TradesClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_trades_closed_total",
				Help: "Total number of trades closed by trading mode",
			},
			[]string{"mode"},
		),

		TradePnL: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradegate_trade_pnl",
				Help:    "Realized P&L per closed trade",
				Buckets: []float64{-1000, -500, -250, -100, -50, -10, 0, 10, 50, 100, 250, 500, 1000},
			},
		),

		OpenTrades: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradegate_open_trades",
				Help: "Number of currently open trades",
			},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradegate_http_request_duration_seconds",
				Help:    "HTTP request duration by route and status code",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"route", "method", "code"},
		),
	}

	r.registry.MustRegister(
		r.GateEvaluations,
		r.SignalDecisions,
		r.TradesOpened,
		r.TradesClosed,
		r.TradePnL,
		r.OpenTrades,
		r.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveGate implements gates.Observer.
func (r *Registry) ObserveGate(gate int, passed bool) {
	outcome := "fail"
	if passed {
		outcome = "pass"
	}
	r.GateEvaluations.WithLabelValues(strconv.Itoa(gate), outcome).Inc()
}

// ObserveDecision counts an admission decision.
func (r *Registry) ObserveDecision(admitted bool) {
	decision := "rejected"
	if admitted {
		decision = "admitted"
	}
	r.SignalDecisions.WithLabelValues(decision).Inc()
}

// ObserveTradeOpened implements engine.Observer.
func (r *Registry) ObserveTradeOpened(mode domain.TradingMode) {
	r.TradesOpened.WithLabelValues(string(mode)).Inc()
	r.OpenTrades.Inc()
}

// ObserveTradeClosed implements engine.Observer.
func (r *Registry) ObserveTradeClosed(mode domain.TradingMode, pnl float64) {
	r.TradesClosed.WithLabelValues(string(mode)).Inc()
	r.TradePnL.Observe(pnl)
	r.OpenTrades.Dec()
}

// ObserveRejection implements engine.Observer.
func (r *Registry) ObserveRejection() {
	r.ObserveDecision(false)
}

// ObserveHTTP records one served request.
func (r *Registry) ObserveHTTP(route, method string, code int, duration time.Duration) {
	r.HTTPDuration.WithLabelValues(route, method, strconv.Itoa(code)).Observe(duration.Seconds())
}
