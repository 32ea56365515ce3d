// Package scorer combines indicator outputs into a composite conviction
// score, a set of human-readable signal tags and a coarse strength
// classification. The score feeds every downstream trade-eligibility gate.
package scorer

import (
	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/indicator"
)

// Classification thresholds. Reproduced exactly: this is the sole gate used
// downstream for trade eligibility.
const (
	StrongBuyThreshold = 90
	BuyThreshold       = 60
	SellThreshold      = 20
)

// TechnicalSignals is the derived per-symbol snapshot, recomputed on every
// evaluation and never persisted.
type TechnicalSignals struct {
	RSI           float64
	MACD          indicator.MACDResult
	Stochastic    indicator.StochasticResult
	Bollinger     indicator.BollingerResult
	EMA           indicator.EMACrossResult
	ADX           float64
	ATR           float64
	OBV           float64
	Score         float64
	ActiveSignals []string
	Strength      core.SignalStrength
}

// Scorer computes TechnicalSignals from candle sequences. The trend
// estimator is injected so the simulated default can be replaced or pinned
// for deterministic cycles.
type Scorer struct {
	trend indicator.TrendStrengthEstimator
}

// New creates a Scorer. A nil estimator falls back to the simulated default.
func New(trend indicator.TrendStrengthEstimator) *Scorer {
	if trend == nil {
		trend = indicator.NewSimulatedTrend(nil)
	}
	return &Scorer{trend: trend}
}

// Compute evaluates every indicator once and accumulates the composite
// score. Fewer than two candles yields an all-neutral result with score 0
// and strength HOLD.
func (s *Scorer) Compute(candles []core.Candle) TechnicalSignals {
	if len(candles) < 2 {
		return TechnicalSignals{
			RSI:        50,
			Stochastic: indicator.StochasticResult{K: 50, D: 50},
			Strength:   core.StrengthHold,
		}
	}

	sig := TechnicalSignals{
		RSI:        indicator.RSI(candles, indicator.DefaultRSIPeriod),
		MACD:       indicator.MACD(candles),
		Stochastic: indicator.Stochastic(candles, indicator.DefaultStochasticPeriod),
		Bollinger:  indicator.Bollinger(candles, indicator.DefaultBollingerPeriod),
		EMA:        indicator.EMACross(candles),
		ADX:        s.trend.Estimate(candles, indicator.DefaultATRPeriod),
		ATR:        indicator.ATR(candles, indicator.DefaultATRPeriod),
	}

	obv := indicator.OBV(candles)
	sig.OBV = obv.Latest

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]
	vol := volumeContext{
		volume:         last.Volume,
		avgVolume:      averageVolume(candles, 20),
		priceChangePct: priceChangePercent(last.Close, prev.Close),
		obvLatest:      obv.Latest,
		obvSMA10:       lastOrZero(indicator.SMA(obv.Series, 10)),
	}

	sig.Score, sig.ActiveSignals = accumulate(sig, vol)
	sig.Strength = Classify(sig.Score)
	return sig
}

// volumeContext carries the volume-derived inputs to score accumulation.
type volumeContext struct {
	volume         float64
	avgVolume      float64
	priceChangePct float64
	obvLatest      float64
	obvSMA10       float64
}

// accumulate sums the independent indicator bonuses and penalties. Each
// condition is evaluated on its own; the score is unbounded and may exceed
// 160 when many conditions fire at once.
func accumulate(sig TechnicalSignals, vol volumeContext) (float64, []string) {
	var score float64
	var tags []string

	add := func(delta float64, tag string) {
		score += delta
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	switch {
	case sig.RSI < 30:
		add(35, "RSI Oversold")
	case sig.RSI < 40:
		add(25, "RSI Buy Zone")
	case sig.RSI > 70:
		add(-20, "RSI Overbought")
	}

	if sig.MACD.Histogram > 0 && sig.MACD.MACD > sig.MACD.Signal {
		add(30, "MACD Bullish")
	}

	if sig.Stochastic.K < 20 {
		add(25, "Stoch Oversold")
	}

	if sig.Bollinger.PercentB < 0.1 && sig.Bollinger.Upper > sig.Bollinger.Lower {
		add(25, "BB Support")
	}

	if sig.EMA.EMA9 > sig.EMA.EMA21 {
		add(28, "EMA Uptrend")
	}

	if sig.ADX > 25 {
		add(30, "Strong Trend")
	}

	if vol.obvLatest > vol.obvSMA10 {
		add(22, "OBV Accumulation")
	}

	if vol.avgVolume > 0 && vol.volume > 1.5*vol.avgVolume && vol.priceChangePct > 1 {
		add(30, "Vol Spike + Price")
	}

	return score, tags
}

// Classify maps a composite score onto a signal strength.
func Classify(score float64) core.SignalStrength {
	switch {
	case score >= StrongBuyThreshold:
		return core.StrengthStrongBuy
	case score >= BuyThreshold:
		return core.StrengthBuy
	case score <= SellThreshold:
		return core.StrengthSell
	default:
		return core.StrengthHold
	}
}

// averageVolume is the mean volume over the trailing window, shrinking the
// window when the series is shorter.
func averageVolume(candles []core.Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if len(candles) < period {
		period = len(candles)
	}
	var sum float64
	for _, c := range candles[len(candles)-period:] {
		sum += c.Volume
	}
	return sum / float64(period)
}

func priceChangePercent(close, prevClose float64) float64 {
	if prevClose <= 0 {
		return 0
	}
	return (close - prevClose) / prevClose * 100
}

func lastOrZero(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
