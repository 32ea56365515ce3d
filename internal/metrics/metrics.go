package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	cyclesTotal     prometheus.Counter
	cycleDuration   prometheus.Histogram
	cyclesSkipped   prometheus.Counter
	tradesTotal     *prometheus.CounterVec
	openPositions   *prometheus.GaugeVec
	symbolsSkipped  *prometheus.CounterVec
	fundsAvailable  *prometheus.GaugeVec
	notifyFailures  *prometheus.CounterVec
	snapshotsTotal  *prometheus.CounterVec
	universeSymbols prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		cyclesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "paperdesk_cycles_total",
				Help: "Total number of trading cycles completed",
			},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "paperdesk_cycle_duration_seconds",
				Help:    "Trading cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		cyclesSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "paperdesk_cycles_skipped_total",
				Help: "Cycles skipped because the previous one was still running",
			},
		),
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperdesk_trades_total",
				Help: "Total number of trades executed",
			},
			[]string{"side", "reason"},
		),
		openPositions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "paperdesk_open_positions",
				Help: "Number of open positions",
			},
			[]string{"engine"},
		),
		symbolsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperdesk_symbols_skipped_total",
				Help: "Symbols skipped during a cycle",
			},
			[]string{"cause"},
		),
		fundsAvailable: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "paperdesk_funds_available",
				Help: "Available funds per asset class",
			},
			[]string{"asset_class"},
		),
		notifyFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperdesk_notify_failures_total",
				Help: "Report deliveries that failed",
			},
			[]string{"notifier"},
		),
		snapshotsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperdesk_snapshots_total",
				Help: "Ledger snapshot saves",
			},
			[]string{"status"},
		),
		universeSymbols: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "paperdesk_universe_symbols",
				Help: "Number of symbols in the trading universe",
			},
		),
	}

	reg.MustRegister(r.cyclesTotal)
	reg.MustRegister(r.cycleDuration)
	reg.MustRegister(r.cyclesSkipped)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.openPositions)
	reg.MustRegister(r.symbolsSkipped)
	reg.MustRegister(r.fundsAvailable)
	reg.MustRegister(r.notifyFailures)
	reg.MustRegister(r.snapshotsTotal)
	reg.MustRegister(r.universeSymbols)

	return r
}

// RecordCycle records a completed trading cycle.
func (r *Registry) RecordCycle(duration float64) {
	r.cyclesTotal.Inc()
	r.cycleDuration.Observe(duration)
}

// RecordCycleSkipped records a cycle dropped due to overlap.
func (r *Registry) RecordCycleSkipped() {
	r.cyclesSkipped.Inc()
}

// RecordTrade records an executed trade.
func (r *Registry) RecordTrade(side, reason string) {
	r.tradesTotal.WithLabelValues(side, reason).Inc()
}

// SetOpenPositions sets the open position count for an engine.
func (r *Registry) SetOpenPositions(engine string, count int) {
	r.openPositions.WithLabelValues(engine).Set(float64(count))
}

// RecordSymbolSkipped records a symbol dropped from a cycle.
func (r *Registry) RecordSymbolSkipped(cause string) {
	r.symbolsSkipped.WithLabelValues(cause).Inc()
}

// SetFunds sets the available funds gauge for an asset class.
func (r *Registry) SetFunds(class string, amount float64) {
	r.fundsAvailable.WithLabelValues(class).Set(amount)
}

// RecordNotifyFailure records a failed report delivery.
func (r *Registry) RecordNotifyFailure(notifier string) {
	r.notifyFailures.WithLabelValues(notifier).Inc()
}

// RecordSnapshot records a snapshot save attempt.
func (r *Registry) RecordSnapshot(status string) {
	r.snapshotsTotal.WithLabelValues(status).Inc()
}

// SetUniverseSize sets the universe size.
func (r *Registry) SetUniverseSize(size int) {
	r.universeSymbols.Set(float64(size))
}
