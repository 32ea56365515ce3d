// Package recommend turns per-symbol scored technicals into a ranked,
// capital-aware list of trade ideas across asset classes.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/scorer"
)

// TopPickThreshold marks a recommendation as highest-conviction.
const TopPickThreshold = 100

// Instrument identifies one tradeable symbol in the scan universe.
type Instrument struct {
	Symbol     string
	Name       string
	AssetClass core.AssetClass
	LotSize    int
}

// Candidate pairs an instrument with its current candle history.
type Candidate struct {
	Instrument
	Candles []core.Candle
}

// minProfitPercent is the projected-profit floor per asset class; forex has
// no floor.
var minProfitPercent = map[core.AssetClass]float64{
	core.AssetStock:  3.0,
	core.AssetCrypto: 4.0,
	core.AssetMCX:    2.5,
	core.AssetForex:  0,
}

// atrTargetMultiplier widens the price target with the holding period.
var atrTargetMultiplier = map[core.Timeframe]float64{
	core.TimeframeIntraday: 1.5,
	core.TimeframeBTST:     2.0,
	core.TimeframeWeekly:   2.5,
	core.TimeframeMonthly:  3.5,
}

// Filter scores candidates and ranks the survivors.
type Filter struct {
	scorer *scorer.Scorer
}

// New creates a Filter over the given scorer.
func New(s *scorer.Scorer) *Filter {
	return &Filter{scorer: s}
}

// Build classifies each candidate into a timeframe bucket, prices a target
// from ATR, discards anything under the class profit floor and returns the
// survivors sorted by score descending. The sort is stable so scan order
// breaks ties.
func (f *Filter) Build(candidates []Candidate) []core.Recommendation {
	recs := make([]core.Recommendation, 0, len(candidates))

	for _, c := range candidates {
		if len(c.Candles) == 0 {
			continue
		}

		sig := f.scorer.Compute(c.Candles)
		timeframe, ok := classify(sig)
		if !ok {
			continue
		}

		price := c.Candles[len(c.Candles)-1].Close
		target := price + sig.ATR*atrTargetMultiplier[timeframe]

		rec := core.Recommendation{
			Symbol:       c.Symbol,
			Name:         c.Name,
			AssetClass:   c.AssetClass,
			CurrentPrice: price,
			Reason:       reason(sig),
			RiskLevel:    riskLevel(sig.Score),
			TargetPrice:  target,
			LotSize:      max(c.LotSize, 1),
			Timeframe:    timeframe,
			Score:        sig.Score,
			IsTopPick:    sig.Score >= TopPickThreshold,
		}

		if rec.ProjectedProfitPercent() < minProfitPercent[c.AssetClass] {
			continue
		}

		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	return recs
}

// classify applies the fixed priority cascade; first match wins.
func classify(sig scorer.TechnicalSignals) (core.Timeframe, bool) {
	switch {
	case sig.Strength == core.StrengthStrongBuy:
		return core.TimeframeBTST, true
	case sig.EMA.EMA9 > sig.EMA.EMA21 && sig.ADX > 25:
		// Supertrend-like bullish composite.
		return core.TimeframeIntraday, true
	case sig.RSI < 40 && sig.EMA.EMA9 > sig.EMA.EMA21:
		// Oversold inside an uptrend: accumulation candidate.
		return core.TimeframeMonthly, true
	case sig.MACD.Histogram > 0 && sig.MACD.MACD > sig.MACD.Signal:
		return core.TimeframeBTST, true
	case sig.Bollinger.PercentB < 0.1 && sig.Bollinger.Upper > sig.Bollinger.Lower:
		return core.TimeframeWeekly, true
	case sig.Score >= 50:
		return core.TimeframeWeekly, true
	default:
		return "", false
	}
}

func reason(sig scorer.TechnicalSignals) string {
	if len(sig.ActiveSignals) == 0 {
		return fmt.Sprintf("Composite technical score %.0f", sig.Score)
	}
	return strings.Join(sig.ActiveSignals, ", ")
}

func riskLevel(score float64) core.RiskLevel {
	switch {
	case score >= scorer.StrongBuyThreshold:
		return core.RiskLow
	case score >= scorer.BuyThreshold:
		return core.RiskMedium
	default:
		return core.RiskHigh
	}
}
