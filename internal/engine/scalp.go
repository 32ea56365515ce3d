package engine

import (
	"math"
	"sort"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/recommend"
	"github.com/paperdesk/paperdesk/internal/scorer"
)

// ScalpSettings are the read-only knobs for the scalp engine. The bands are
// much tighter than the main engine's and every leg pays flat brokerage.
type ScalpSettings struct {
	BrokerID string
	// MaxPositions caps concurrent scalp holdings.
	MaxPositions int
	// TargetPercent / StopPercent are the exit bands.
	TargetPercent float64
	StopPercent   float64
	// Brokerage is the flat charge deducted per trade leg.
	Brokerage float64
	// Entry gate: super-momentum only.
	MinRSI       float64
	MinRelVolume float64
	MinScore     float64
	// Allocation is the fraction of the class cash pool used per entry.
	Allocation float64
}

// DefaultScalpSettings returns the tuned production values.
func DefaultScalpSettings() ScalpSettings {
	return ScalpSettings{
		BrokerID:      "paper",
		MaxPositions:  2,
		TargetPercent: 0.5,
		StopPercent:   0.3,
		Brokerage:     20,
		MinRSI:        65,
		MinRelVolume:  2.0,
		MinScore:      110,
		Allocation:    0.10,
	}
}

// ScalpInput is the state snapshot for one scalp cycle. Instruments is the
// scan universe; only INTRADAY-tagged positions are touched.
type ScalpInput struct {
	Settings     ScalpSettings
	Holdings     []core.Position
	Market       map[string]MarketData
	Funds        core.Funds
	Instruments  []recommend.Instrument
	IsMarketOpen func(core.AssetClass) bool
}

func (in ScalpInput) marketOpen(class core.AssetClass) bool {
	if in.IsMarketOpen == nil {
		return true
	}
	return in.IsMarketOpen(class)
}

// Scalp is the higher-frequency sibling of Engine, tuned for very short
// holding periods on a disjoint position subset.
type Scalp struct {
	scorer *scorer.Scorer
}

// NewScalp creates a Scalp engine over the given scorer.
func NewScalp(s *scorer.Scorer) *Scalp {
	return &Scalp{scorer: s}
}

// Evaluate runs one scalp cycle: exits over the scalp subset first, then at
// most one super-momentum entry against the post-exit cash pool.
func (s *Scalp) Evaluate(in ScalpInput) []Trade {
	var trades []Trade

	funds := in.Funds
	held := make(map[string]bool)
	openCount := 0

	for _, pos := range in.Holdings {
		// Symbols the main engine holds stay off-limits; buying into them
		// would merge the lot into the main book and lose the scalp tag.
		if !pos.IsScalp() {
			held[pos.Symbol] = true
			continue
		}

		exit, ok := s.evaluateExit(in, pos)
		if !ok {
			held[pos.Symbol] = true
			openCount++
			continue
		}

		// No re-entry in the cycle that exited the symbol.
		held[pos.Symbol] = true
		funds.Add(pos.AssetClass, exit.Quantity*exit.Price-exit.Brokerage)
		trades = append(trades, exit)
	}

	if openCount >= in.Settings.MaxPositions {
		return trades
	}

	if entry, ok := s.selectEntry(in, funds, held); ok {
		trades = append(trades, entry)
	}
	return trades
}

// evaluateExit applies the tight scalp bands, stop first. Exclusive like the
// main engine's exit rules.
func (s *Scalp) evaluateExit(in ScalpInput, pos core.Position) (Trade, bool) {
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
	case pnl <= -in.Settings.StopPercent:
		reason = ReasonScalpStop
	case pnl >= in.Settings.TargetPercent:
		reason = ReasonScalpTarget
	default:
		return Trade{}, false
	}

	return Trade{
		Side:       core.SideSell,
		Symbol:     pos.Symbol,
		AssetClass: pos.AssetClass,
		Quantity:   pos.Quantity,
		Price:      data.Price,
		Reason:     reason,
		Timeframe:  core.TimeframeIntraday,
		Brokerage:  in.Settings.Brokerage,
	}, true
}

// selectEntry scans the universe for the strongest super-momentum symbol:
// RSI above the gate, relative volume above the gate, score at or above the
// gate. One entry per cycle.
func (s *Scalp) selectEntry(in ScalpInput, funds core.Funds, held map[string]bool) (Trade, bool) {
	type scored struct {
		inst  recommend.Instrument
		price float64
		score float64
	}
	var candidates []scored

	for _, inst := range in.Instruments {
		if held[inst.Symbol] {
			continue
		}
		if !in.marketOpen(inst.AssetClass) {
			continue
		}
		data, ok := in.Market[inst.Symbol]
		if !ok || data.Price <= 0 || len(data.Candles) == 0 {
			continue
		}

		sig := s.scorer.Compute(data.Candles)
		if sig.RSI <= in.Settings.MinRSI {
			continue
		}
		if relativeVolume(data.Candles) <= in.Settings.MinRelVolume {
			continue
		}
		if sig.Score < in.Settings.MinScore {
			continue
		}

		candidates = append(candidates, scored{inst: inst, price: data.Price, score: sig.Score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, c := range candidates {
		qty := math.Floor(funds.Get(c.inst.AssetClass) * in.Settings.Allocation / c.price)
		if lot := float64(c.inst.LotSize); lot > 1 {
			qty = math.Floor(qty/lot) * lot
		}
		if qty <= 0 {
			continue
		}
		cost := qty*c.price + in.Settings.Brokerage
		if cost > funds.Get(c.inst.AssetClass) {
			continue
		}

		return Trade{
			Side:       core.SideBuy,
			Symbol:     c.inst.Symbol,
			AssetClass: c.inst.AssetClass,
			Quantity:   qty,
			Price:      c.price,
			Reason:     ReasonScalpEntry,
			Timeframe:  core.TimeframeIntraday,
			Brokerage:  in.Settings.Brokerage,
		}, true
	}
	return Trade{}, false
}

// relativeVolume is the last bar's volume against the trailing 20-bar mean.
func relativeVolume(candles []core.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}
	period := 20
	if len(candles) < period {
		period = len(candles)
	}
	var sum float64
	for _, c := range candles[len(candles)-period:] {
		sum += c.Volume
	}
	avg := sum / float64(period)
	if avg <= 0 {
		return 0
	}
	return candles[len(candles)-1].Volume / avg
}
