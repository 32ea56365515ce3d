// Package indicator provides pure technical indicator computations over
// candle sequences. Every function tolerates sequences shorter than its
// minimum window by returning a documented neutral default instead of
// failing; early-lifecycle symbols depend on this.
package indicator

import (
	"math"

	"github.com/paperdesk/paperdesk/internal/core"
)

// Default lookback periods.
const (
	DefaultRSIPeriod        = 14
	DefaultBollingerPeriod  = 20
	DefaultStochasticPeriod = 14
	DefaultATRPeriod        = 14
)

// MACDResult holds the MACD line, its signal line and their difference.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// BollingerResult holds the band levels and the close position within them.
type BollingerResult struct {
	Upper    float64
	Middle   float64
	Lower    float64
	PercentB float64
}

// StochasticResult holds the %K/%D oscillator pair.
type StochasticResult struct {
	K float64
	D float64
}

// EMACrossResult holds the trailing fast/slow EMA pair.
type EMACrossResult struct {
	EMA9  float64
	EMA21 float64
}

// OBVResult holds the cumulative signed-volume series and its latest value.
// The full series is returned so callers can run a moving average over it.
type OBVResult struct {
	Series []float64
	Latest float64
}

// RSI computes Wilder's Relative Strength Index over the close series.
// Returns 50 (neutral) when fewer than period+1 candles are available.
// A zero average loss yields 100.
func RSI(candles []core.Candle, period int) float64 {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(candles) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remainder of the series.
	for i := period + 1; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD computes EMA(12)-EMA(26) as the MACD line and EMA(9) of that line as
// the signal. Returns an all-zero result when fewer than 26 candles are
// available. With fewer than 9 MACD points the signal collapses to the MACD
// line itself, making the histogram zero.
func MACD(candles []core.Candle) MACDResult {
	if len(candles) < 26 {
		return MACDResult{}
	}

	closes := Closes(candles)
	ema12 := EMA(closes, 12)
	ema26 := EMA(closes, 26)

	// Align the fast series to the slow one before differencing.
	offset := len(ema12) - len(ema26)
	macdLine := make([]float64, len(ema26))
	for i := range ema26 {
		macdLine[i] = ema12[i+offset] - ema26[i]
	}

	macd := macdLine[len(macdLine)-1]
	signal := last(EMA(macdLine, 9), macd)

	return MACDResult{
		MACD:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}
}

// Bollinger computes SMA +/- 2 standard deviations over the trailing window.
// PercentB is the close position within the bands; a zero-width band yields
// PercentB 0. Returns an all-zero result with insufficient data.
func Bollinger(candles []core.Candle, period int) BollingerResult {
	if period <= 0 {
		period = DefaultBollingerPeriod
	}
	if len(candles) < period {
		return BollingerResult{}
	}

	window := candles[len(candles)-period:]
	var sum float64
	for _, c := range window {
		sum += c.Close
	}
	mean := sum / float64(period)

	var variance float64
	for _, c := range window {
		variance += (c.Close - mean) * (c.Close - mean)
	}
	stddev := math.Sqrt(variance / float64(period))

	upper := mean + 2*stddev
	lower := mean - 2*stddev
	close := candles[len(candles)-1].Close

	percentB := 0.0
	if upper != lower {
		percentB = (close - lower) / (upper - lower)
	}

	return BollingerResult{
		Upper:    upper,
		Middle:   mean,
		Lower:    lower,
		PercentB: percentB,
	}
}

// Stochastic computes %K over the trailing window. %D currently equals %K,
// not a true 3-period smoothing; downstream thresholds were validated
// against this behavior, so it is preserved as-is.
func Stochastic(candles []core.Candle, period int) StochasticResult {
	if period <= 0 {
		period = DefaultStochasticPeriod
	}
	if len(candles) < period {
		return StochasticResult{K: 50, D: 50}
	}

	window := candles[len(candles)-period:]
	lowest := window[0].Low
	highest := window[0].High
	for _, c := range window[1:] {
		if c.Low < lowest {
			lowest = c.Low
		}
		if c.High > highest {
			highest = c.High
		}
	}

	if highest == lowest {
		return StochasticResult{K: 50, D: 50}
	}

	k := (candles[len(candles)-1].Close - lowest) / (highest - lowest) * 100
	return StochasticResult{K: k, D: k}
}

// EMACross computes the trailing EMA(9)/EMA(21) pair of closes.
// Returns zeros when fewer than 21 candles are available.
func EMACross(candles []core.Candle) EMACrossResult {
	if len(candles) < 21 {
		return EMACrossResult{}
	}
	closes := Closes(candles)
	return EMACrossResult{
		EMA9:  last(EMA(closes, 9), 0),
		EMA21: last(EMA(closes, 21), 0),
	}
}

// OBV computes the cumulative signed-volume series, signed by close over or
// under the previous close.
func OBV(candles []core.Candle) OBVResult {
	if len(candles) == 0 {
		return OBVResult{Series: []float64{}}
	}

	series := make([]float64, len(candles))
	series[0] = 0
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			series[i] = series[i-1] + candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			series[i] = series[i-1] - candles[i].Volume
		default:
			series[i] = series[i-1]
		}
	}

	return OBVResult{Series: series, Latest: series[len(series)-1]}
}

// ATR computes the simple moving average of true range over the trailing
// window. Returns 0 with insufficient data.
func ATR(candles []core.Candle, period int) float64 {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	if len(candles) < period+1 {
		return 0
	}

	var sum float64
	start := len(candles) - period
	for i := start; i < len(candles); i++ {
		sum += trueRange(candles[i], candles[i-1])
	}
	return sum / float64(period)
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(c, prev core.Candle) float64 {
	tr := c.High - c.Low
	if hc := math.Abs(c.High - prev.Close); hc > tr {
		tr = hc
	}
	if lc := math.Abs(c.Low - prev.Close); lc > tr {
		tr = lc
	}
	return tr
}
