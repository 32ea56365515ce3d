package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/indicator"
	"github.com/paperdesk/paperdesk/internal/scorer"
)

// Backtester replays a candle series bar by bar, scoring each prefix of the
// data exactly as the live engine would have seen it. At every bar only
// candles up to and including that bar feed the indicators.
type Backtester struct {
	scorer *scorer.Scorer
}

// New creates a Backtester. A nil scorer gets the default estimator, which
// is nondeterministic; tests should inject a fixed one.
func New(s *scorer.Scorer) *Backtester {
	if s == nil {
		s = scorer.New(nil)
	}
	return &Backtester{scorer: s}
}

// position is the single open trade during a replay.
type position struct {
	trade  Trade
	stop   float64
	target float64
}

// Run replays candles for one symbol under the given rules. At most one
// position is open at a time; all available cash goes into each entry.
// Brokerage is charged on both legs.
func (b *Backtester) Run(ctx context.Context, symbol string, class core.AssetClass, candles []core.Candle, rules Rules) (*Result, error) {
	if len(candles) <= WarmupBars {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%d candles, need more than the %d bar warm-up", len(candles), WarmupBars))
	}

	result := &Result{
		Symbol:     symbol,
		AssetClass: class,
		Rules:      rules,
		StartTime:  candles[0].Time,
		EndTime:    candles[len(candles)-1].Time,
	}

	cash := rules.InitialCapital
	var open *position

	for i := WarmupBars; i < len(candles); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		window := candles[:i+1]
		bar := candles[i]

		if open != nil {
			if exitPrice, reason := open.check(bar); reason != "" {
				cash += b.close(result, open, exitPrice, bar.Time, reason, rules)
				open = nil
			} else {
				atr := indicator.ATR(window, indicator.DefaultATRPeriod)
				open.trail(bar.Close, atr, rules)
			}
		}

		if open == nil {
			open = b.tryEnter(window, bar, symbol, cash, rules)
			if open != nil {
				cash -= open.trade.Quantity*open.trade.EntryPrice + rules.Brokerage
			}
		}

		equity := cash
		if open != nil {
			equity += open.trade.Quantity * bar.Close
		}
		result.EquityCurve = append(result.EquityCurve, EquityPoint{Time: bar.Time, Equity: equity})
	}

	if open != nil {
		last := candles[len(candles)-1]
		cash += b.close(result, open, last.Close, last.Time, ExitEndOfData, rules)
		result.EquityCurve[len(result.EquityCurve)-1].Equity = cash
	}

	result.Stats = CalculateStats(result.Trades, result.EquityCurve, rules)
	return result, nil
}

// tryEnter opens a position when the bar clears every gate: composite score,
// trend strength, and a target far enough away to be worth the costs.
func (b *Backtester) tryEnter(window []core.Candle, bar core.Candle, symbol string, cash float64, rules Rules) *position {
	sig := b.scorer.Compute(window)
	if sig.Score < rules.MinScore {
		return nil
	}
	if sig.ADX <= rules.ADXThreshold {
		return nil
	}
	if sig.ATR <= 0 || bar.Close <= 0 {
		return nil
	}
	if sig.ATR*rules.TargetATRMultiple/bar.Close*100 < rules.MinTargetPercent {
		return nil
	}

	qty := math.Floor((cash - rules.Brokerage) / bar.Close)
	if qty <= 0 {
		return nil
	}

	return &position{
		trade: Trade{
			Symbol:     symbol,
			Quantity:   qty,
			EntryPrice: bar.Close,
			EntryTime:  bar.Time,
		},
		stop:   bar.Close - sig.ATR*rules.StopATRMultiple,
		target: bar.Close + sig.ATR*rules.TargetATRMultiple,
	}
}

// check tests the bar against the stop and target. The stop wins when the
// bar's range spans both. Fills are taken at the level, not the close.
func (p *position) check(bar core.Candle) (float64, string) {
	if bar.Low <= p.stop {
		return p.stop, ExitStopLoss
	}
	if bar.High >= p.target {
		return p.target, ExitTakeProfit
	}
	return 0, ""
}

// trail ratchets the stop upward behind the close. The target stays where
// entry placed it.
func (p *position) trail(close, atr float64, rules Rules) {
	if atr <= 0 {
		return
	}
	if next := close - atr*rules.StopATRMultiple; next > p.stop {
		p.stop = next
	}
}

// close books the exit and returns the cash released.
func (b *Backtester) close(result *Result, open *position, price float64, at time.Time, reason string, rules Rules) float64 {
	t := open.trade
	t.ExitPrice = price
	t.ExitTime = at
	t.ExitReason = reason
	t.PnL = (price - t.EntryPrice) * t.Quantity
	t.ReturnPercent = (price - t.EntryPrice) / t.EntryPrice * 100
	result.Trades = append(result.Trades, t)
	return t.Quantity*price - rules.Brokerage
}
