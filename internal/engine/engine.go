package engine

import (
	"math"
	"sort"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/scorer"
)

// Engine is the main auto-trade decision loop, invoked on a fixed interval
// by the scheduler.
type Engine struct {
	scorer *scorer.Scorer
}

// New creates an Engine over the given scorer.
func New(s *scorer.Scorer) *Engine {
	return &Engine{scorer: s}
}

// Evaluate runs one decision cycle: every held position is checked for exit
// first, then at most one entry is selected from the recommendations using
// the post-exit fund state. Scalp-tagged positions belong to the scalp
// engine and are left alone.
func (e *Engine) Evaluate(in Input) []Trade {
	var trades []Trade

	funds := in.Funds
	held := make(map[string]bool, len(in.Holdings))
	var remaining []core.Position

	for _, pos := range in.Holdings {
		if pos.IsScalp() {
			held[pos.Symbol] = true
			remaining = append(remaining, pos)
			continue
		}

		exit, ok := e.evaluateExit(in, pos)
		if !ok {
			held[pos.Symbol] = true
			remaining = append(remaining, pos)
			continue
		}

		// A symbol exited this cycle cannot be re-entered from its own freed
		// capital until the next cycle.
		held[pos.Symbol] = true
		funds.Add(pos.AssetClass, exit.Quantity*exit.Price)
		trades = append(trades, exit)
	}

	openCount := 0
	for _, pos := range remaining {
		if !pos.IsScalp() {
			openCount++
		}
	}
	if openCount >= in.Settings.MaxPositions {
		return trades
	}

	if entry, ok := e.selectEntry(in, funds, remaining, held); ok {
		trades = append(trades, entry)
	}
	return trades
}

// evaluateExit applies the exclusive exit rules in order: stop loss, target,
// technical breakdown. The first matching rule wins.
func (e *Engine) evaluateExit(in Input, pos core.Position) (Trade, bool) {
	if !in.marketOpen(pos.AssetClass) {
		return Trade{}, false
	}

	data, ok := in.Market[pos.Symbol]
	if !ok || data.Price <= 0 {
		return Trade{}, false
	}

	pnl := pos.UnrealizedPLPercent(data.Price)

	var reason string
	switch {
	case pnl <= -in.Settings.StopLossPercent:
		reason = ReasonStopLoss
	case pnl >= in.Settings.TargetPercent:
		reason = ReasonTargetHit
	default:
		sig := e.scorer.Compute(data.Candles)
		if sig.Score >= in.Settings.BreakdownScore {
			return Trade{}, false
		}
		reason = ReasonTechnicalBreakdown
	}

	return Trade{
		Side:       core.SideSell,
		Symbol:     pos.Symbol,
		AssetClass: pos.AssetClass,
		Quantity:   pos.Quantity,
		Price:      data.Price,
		Reason:     reason,
	}, true
}

// selectEntry picks the single entry for this cycle: top picks first, then
// score descending, first candidate whose sized quantity fits the cash pool.
func (e *Engine) selectEntry(in Input, funds core.Funds, holdings []core.Position, held map[string]bool) (Trade, bool) {
	candidates := make([]core.Recommendation, 0, len(in.Recommendations))
	for _, rec := range in.Recommendations {
		if rec.Score < in.Settings.MinEntryScore {
			continue
		}
		if held[rec.Symbol] {
			continue
		}
		if !in.marketOpen(rec.AssetClass) {
			continue
		}
		if _, ok := in.Market[rec.Symbol]; !ok {
			continue
		}
		candidates = append(candidates, rec)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].IsTopPick != candidates[j].IsTopPick {
			return candidates[i].IsTopPick
		}
		return candidates[i].Score > candidates[j].Score
	})

	for _, rec := range candidates {
		price := in.Market[rec.Symbol].Price
		if price <= 0 {
			continue
		}

		allocation := in.Settings.BaseAllocation
		if rec.IsTopPick {
			allocation = in.Settings.TopPickAllocation
		}

		// Size against total class equity: free cash plus capital already
		// deployed in the class.
		equity := funds.Get(rec.AssetClass) + holdingsCost(holdings, rec.AssetClass)
		qty := math.Floor(equity * allocation / price)
		if lot := float64(rec.LotSize); lot > 1 {
			qty = math.Floor(qty/lot) * lot
		}
		if qty <= 0 {
			continue
		}
		if qty*price > funds.Get(rec.AssetClass) {
			continue
		}

		return Trade{
			Side:       core.SideBuy,
			Symbol:     rec.Symbol,
			AssetClass: rec.AssetClass,
			Quantity:   qty,
			Price:      price,
			Reason:     ReasonAutoEntry,
			IsTopPick:  rec.IsTopPick,
		}, true
	}
	return Trade{}, false
}

func holdingsCost(holdings []core.Position, class core.AssetClass) float64 {
	var sum float64
	for _, p := range holdings {
		if p.AssetClass == class && !p.IsScalp() {
			sum += p.TotalCost
		}
	}
	return sum
}
