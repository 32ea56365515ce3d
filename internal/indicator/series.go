package indicator

import "github.com/paperdesk/paperdesk/internal/core"

// SMA calculates Simple Moving Average
// Returns slice of length: len(values) - period + 1
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(values); i++ {
		sum = sum - values[i-period] + values[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// EMA calculates Exponential Moving Average, seeded with the SMA of the
// first period values.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-period+1)
	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	result = append(result, ema)

	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		result = append(result, ema)
	}

	return result
}

// Closes extracts the close series from a candle sequence.
func Closes(candles []core.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// last returns the final value of a series, or fallback when empty.
func last(series []float64, fallback float64) float64 {
	if len(series) == 0 {
		return fallback
	}
	return series[len(series)-1]
}
