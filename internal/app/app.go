// Package app wires the desk together: market data in, recommendations and
// engine decisions in the middle, orders, snapshots and reports out.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/paperdesk/paperdesk/internal/analyst"
	"github.com/paperdesk/paperdesk/internal/broker"
	"github.com/paperdesk/paperdesk/internal/config"
	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/engine"
	"github.com/paperdesk/paperdesk/internal/ledger"
	"github.com/paperdesk/paperdesk/internal/market"
	"github.com/paperdesk/paperdesk/internal/metrics"
	"github.com/paperdesk/paperdesk/internal/notifier"
	"github.com/paperdesk/paperdesk/internal/recommend"
	"github.com/paperdesk/paperdesk/internal/scorer"
	"github.com/paperdesk/paperdesk/internal/storage"
)

// CandleSource supplies candle history; market.Chain is the production
// implementation.
type CandleSource interface {
	FetchCandles(ctx context.Context, symbol string, class core.AssetClass, interval string) ([]core.Candle, error)
}

// Deps carries the collaborators the App orchestrates. Ledger, Source and
// Gateway are required; the rest degrade gracefully when nil.
type Deps struct {
	Ledger    *ledger.Ledger
	Source    CandleSource
	Gateway   broker.Gateway
	Calendar  market.Calendar
	Scorer    *scorer.Scorer
	Narrator  *analyst.Narrator
	Notifiers *notifier.Registry
	Snapshots *storage.SnapshotStore
	Metrics   *metrics.Registry
}

// App is the main application orchestrator
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	ledger    *ledger.Ledger
	source    CandleSource
	gateway   broker.Gateway
	calendar  market.Calendar
	filter    *recommend.Filter
	engine    *engine.Engine
	scalp     *engine.Scalp
	narrator  *analyst.Narrator
	notifiers *notifier.Registry
	snapshots *storage.SnapshotStore
	metrics   *metrics.Registry

	universe []recommend.Instrument

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	// busy is set while a cycle runs so a slow cycle drops the next tick
	// instead of stacking up.
	busy atomic.Bool
}

// New creates a new App instance
func New(cfg *config.Config, logger *zap.Logger, deps Deps) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := deps.Scorer
	if s == nil {
		s = scorer.New(nil)
	}

	cal := deps.Calendar
	if cal == nil {
		cal = market.AlwaysOpen{}
	}

	notifiers := deps.Notifiers
	if notifiers == nil {
		notifiers = notifier.NewRegistry()
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		ledger:    deps.Ledger,
		source:    deps.Source,
		gateway:   deps.Gateway,
		calendar:  cal,
		filter:    recommend.New(s),
		engine:    engine.New(s),
		scalp:     engine.NewScalp(s),
		narrator:  deps.Narrator,
		notifiers: notifiers,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
	}

	a.universe = make([]recommend.Instrument, 0, len(cfg.Universe))
	for _, item := range cfg.Universe {
		a.universe = append(a.universe, recommend.Instrument{
			Symbol:     item.Symbol,
			Name:       item.Name,
			AssetClass: core.AssetClass(item.AssetClass),
			LotSize:    item.LotSize,
		})
	}
	if a.metrics != nil {
		a.metrics.SetUniverseSize(len(a.universe))
	}

	return a
}

// Start runs trading cycles until the context is cancelled. A tick that
// lands while the previous cycle is still running is dropped.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.logger.Info("paper desk starting",
		zap.Int("universe", len(a.universe)),
		zap.Duration("interval", a.cfg.Desk.CycleInterval),
	)

	a.RunOnce(ctx)

	ticker := time.NewTicker(a.cfg.Desk.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("paper desk shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			go a.RunOnce(ctx)
		}
	}
}

// Stop stops the trading loop
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce performs a single trading cycle. Safe to call concurrently; only
// one cycle runs at a time and the rest return immediately.
func (a *App) RunOnce(ctx context.Context) {
	if !a.busy.CompareAndSwap(false, true) {
		if a.metrics != nil {
			a.metrics.RecordCycleSkipped()
		}
		a.logger.Warn("cycle still running, skipping tick")
		return
	}
	defer a.busy.Store(false)

	started := time.Now()
	a.runCycle(ctx)
	if a.metrics != nil {
		a.metrics.RecordCycle(time.Since(started).Seconds())
	}
}

func (a *App) runCycle(ctx context.Context) {
	if len(a.universe) == 0 {
		a.logger.Debug("universe is empty")
		return
	}

	data := a.fetchMarketData(ctx)
	if len(data) == 0 {
		a.logger.Warn("no market data this cycle")
		return
	}

	recs := a.buildRecommendations(ctx, data)

	var executed []core.Transaction
	if a.cfg.Engine.Enabled {
		executed = append(executed, a.runMainEngine(ctx, data, recs)...)
	}
	if a.cfg.Scalp.Enabled {
		executed = append(executed, a.runScalpEngine(ctx, data)...)
	}

	a.updateGauges()
	a.saveSnapshot(ctx)
	a.publishReport(ctx, data, executed)
}

// fetchMarketData pulls candles for the whole universe. A symbol that fails
// is dropped from this cycle only.
func (a *App) fetchMarketData(ctx context.Context) map[string]engine.MarketData {
	data := make(map[string]engine.MarketData, len(a.universe))

	for _, inst := range a.universe {
		if ctx.Err() != nil {
			return data
		}

		candles, err := a.source.FetchCandles(ctx, inst.Symbol, inst.AssetClass, a.cfg.Market.Interval)
		if err != nil || len(candles) == 0 {
			if a.metrics != nil {
				a.metrics.RecordSymbolSkipped("no_data")
			}
			a.logger.Debug("no data for symbol",
				zap.String("symbol", inst.Symbol),
				zap.Error(err),
			)
			continue
		}

		data[inst.Symbol] = engine.MarketData{
			Price:   candles[len(candles)-1].Close,
			Candles: candles,
		}
	}
	return data
}

func (a *App) buildRecommendations(ctx context.Context, data map[string]engine.MarketData) []core.Recommendation {
	candidates := make([]recommend.Candidate, 0, len(a.universe))
	for _, inst := range a.universe {
		md, ok := data[inst.Symbol]
		if !ok {
			continue
		}
		candidates = append(candidates, recommend.Candidate{
			Instrument: inst,
			Candles:    md.Candles,
		})
	}

	recs := a.filter.Build(candidates)
	if a.narrator != nil {
		recs = a.narrator.Annotate(ctx, recs)
	}

	if len(recs) > 0 {
		a.logger.Info("recommendations built",
			zap.Int("count", len(recs)),
			zap.String("top", recs[0].Symbol),
			zap.Float64("top_score", recs[0].Score),
		)
	}
	return recs
}

func (a *App) runMainEngine(ctx context.Context, data map[string]engine.MarketData, recs []core.Recommendation) []core.Transaction {
	holdings, err := a.gateway.Holdings(ctx)
	if err != nil {
		a.logger.Error("failed to read holdings", zap.Error(err))
		return nil
	}
	funds, err := a.gateway.Balance(ctx)
	if err != nil {
		a.logger.Error("failed to read balance", zap.Error(err))
		return nil
	}

	trades := a.engine.Evaluate(engine.Input{
		Settings:        a.engineSettings(),
		Holdings:        holdings,
		Market:          data,
		Funds:           funds,
		Recommendations: recs,
		IsMarketOpen:    a.calendar.IsOpen,
	})
	return a.execute(ctx, trades)
}

func (a *App) runScalpEngine(ctx context.Context, data map[string]engine.MarketData) []core.Transaction {
	holdings, err := a.gateway.Holdings(ctx)
	if err != nil {
		a.logger.Error("failed to read holdings", zap.Error(err))
		return nil
	}
	funds, err := a.gateway.Balance(ctx)
	if err != nil {
		a.logger.Error("failed to read balance", zap.Error(err))
		return nil
	}

	trades := a.scalp.Evaluate(engine.ScalpInput{
		Settings:     a.scalpSettings(),
		Holdings:     holdings,
		Market:       data,
		Funds:        funds,
		Instruments:  a.universe,
		IsMarketOpen: a.calendar.IsOpen,
	})
	return a.execute(ctx, trades)
}

// execute places the engine's trades through the gateway, in order. A
// rejected order is logged and skipped; the rest still go through.
func (a *App) execute(ctx context.Context, trades []engine.Trade) []core.Transaction {
	var executed []core.Transaction
	for _, t := range trades {
		tx, err := a.gateway.PlaceOrder(ctx, broker.OrderRequest{
			Symbol:     t.Symbol,
			AssetClass: t.AssetClass,
			Side:       t.Side,
			Quantity:   t.Quantity,
			Price:      t.Price,
			Brokerage:  t.Brokerage,
			Timeframe:  t.Timeframe,
			Reason:     t.Reason,
		})
		if err != nil {
			a.logger.Error("order rejected",
				zap.String("symbol", t.Symbol),
				zap.String("side", string(t.Side)),
				zap.Error(err),
			)
			continue
		}

		if a.metrics != nil {
			a.metrics.RecordTrade(string(t.Side), t.Reason)
		}
		a.logger.Info("order filled",
			zap.String("symbol", t.Symbol),
			zap.String("side", string(t.Side)),
			zap.Float64("quantity", t.Quantity),
			zap.Float64("price", t.Price),
			zap.String("reason", t.Reason),
		)
		executed = append(executed, tx)
	}
	return executed
}

func (a *App) updateGauges() {
	if a.metrics == nil {
		return
	}

	var main, scalp int
	for _, pos := range a.ledger.Holdings() {
		if pos.IsScalp() {
			scalp++
		} else {
			main++
		}
	}
	a.metrics.SetOpenPositions("main", main)
	a.metrics.SetOpenPositions("scalp", scalp)

	funds := a.ledger.Funds()
	for _, class := range core.AssetClasses {
		a.metrics.SetFunds(string(class), funds.Get(class))
	}
}

func (a *App) saveSnapshot(ctx context.Context) {
	if a.snapshots == nil {
		return
	}

	if err := a.snapshots.Save(ctx, a.ledger.Snapshot()); err != nil {
		if a.metrics != nil {
			a.metrics.RecordSnapshot("error")
		}
		a.logger.Error("snapshot save failed", zap.Error(err))
		return
	}
	if a.metrics != nil {
		a.metrics.RecordSnapshot("ok")
	}
}

func (a *App) publishReport(ctx context.Context, data map[string]engine.MarketData, executed []core.Transaction) {
	if len(a.notifiers.GetAll()) == 0 {
		return
	}

	prices := make(map[string]float64, len(data))
	for symbol, md := range data {
		prices[symbol] = md.Price
	}

	report := notifier.Report{
		GeneratedAt: time.Now(),
		Funds:       a.ledger.Funds(),
		Holdings:    a.ledger.Holdings(),
		Prices:      prices,
		Trades:      executed,
	}

	for name, err := range a.notifiers.Broadcast(ctx, report.Format()) {
		if a.metrics != nil {
			a.metrics.RecordNotifyFailure(name)
		}
		a.logger.Warn("report delivery failed",
			zap.String("notifier", name),
			zap.Error(err),
		)
	}
}

func (a *App) engineSettings() engine.Settings {
	s := engine.DefaultSettings()
	s.BrokerID = a.cfg.Desk.BrokerID
	if a.cfg.Engine.MaxPositions > 0 {
		s.MaxPositions = a.cfg.Engine.MaxPositions
	}
	if a.cfg.Engine.StopLossPercent > 0 {
		s.StopLossPercent = a.cfg.Engine.StopLossPercent
	}
	if a.cfg.Engine.TargetPercent > 0 {
		s.TargetPercent = a.cfg.Engine.TargetPercent
	}
	if a.cfg.Engine.BreakdownScore > 0 {
		s.BreakdownScore = a.cfg.Engine.BreakdownScore
	}
	if a.cfg.Engine.MinEntryScore > 0 {
		s.MinEntryScore = a.cfg.Engine.MinEntryScore
	}
	if a.cfg.Engine.TopPickAllocation > 0 {
		s.TopPickAllocation = a.cfg.Engine.TopPickAllocation
	}
	if a.cfg.Engine.BaseAllocation > 0 {
		s.BaseAllocation = a.cfg.Engine.BaseAllocation
	}
	return s
}

func (a *App) scalpSettings() engine.ScalpSettings {
	s := engine.DefaultScalpSettings()
	if a.cfg.Scalp.MaxPositions > 0 {
		s.MaxPositions = a.cfg.Scalp.MaxPositions
	}
	if a.cfg.Scalp.TargetPercent > 0 {
		s.TargetPercent = a.cfg.Scalp.TargetPercent
	}
	if a.cfg.Scalp.StopPercent > 0 {
		s.StopPercent = a.cfg.Scalp.StopPercent
	}
	if a.cfg.Scalp.Brokerage > 0 {
		s.Brokerage = a.cfg.Scalp.Brokerage
	}
	if a.cfg.Scalp.MinRSI > 0 {
		s.MinRSI = a.cfg.Scalp.MinRSI
	}
	if a.cfg.Scalp.MinRelVolume > 0 {
		s.MinRelVolume = a.cfg.Scalp.MinRelVolume
	}
	if a.cfg.Scalp.MinScore > 0 {
		s.MinScore = a.cfg.Scalp.MinScore
	}
	if a.cfg.Scalp.Allocation > 0 {
		s.Allocation = a.cfg.Scalp.Allocation
	}
	return s
}

// Universe returns the configured instruments.
func (a *App) Universe() []recommend.Instrument {
	out := make([]recommend.Instrument, len(a.universe))
	copy(out, a.universe)
	return out
}
