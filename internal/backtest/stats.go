package backtest

import (
	"math"
)

// CalculateStats summarizes a finished replay. Net PnL subtracts brokerage
// for both legs of every trade.
func CalculateStats(trades []Trade, curve []EquityPoint, rules Rules) Stats {
	var winning, losing int
	var grossPnL float64

	for _, t := range trades {
		grossPnL += t.PnL
		if t.IsWin() {
			winning++
		} else {
			losing++
		}
	}

	var winRate float64
	if len(trades) > 0 {
		winRate = float64(winning) / float64(len(trades)) * 100
	}

	netPnL := grossPnL - float64(len(trades))*2*rules.Brokerage

	stats := Stats{
		TotalTrades:   len(trades),
		WinningTrades: winning,
		LosingTrades:  losing,
		WinRate:       winRate,
		TotalPnL:      netPnL,
		FinalEquity:   rules.InitialCapital + netPnL,
		MaxDrawdown:   maxDrawdown(curve) * 100,
		SharpeRatio:   sharpeRatio(trades),
	}
	if rules.InitialCapital > 0 {
		stats.ReturnPercent = netPnL / rules.InitialCapital * 100
	}
	if len(curve) > 0 {
		stats.FinalEquity = curve[len(curve)-1].Equity
	}
	return stats
}

// maxDrawdown finds the largest peak-to-trough decline on the equity curve.
func maxDrawdown(curve []EquityPoint) float64 {
	var maxDD float64
	var peak float64

	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio computes the annualized risk-adjusted return over per-trade
// returns. Risk-free rate is taken as zero.
func sharpeRatio(trades []Trade) float64 {
	if len(trades) < 2 {
		return 0
	}

	var sum float64
	for _, t := range trades {
		sum += t.ReturnPercent / 100
	}
	mean := sum / float64(len(trades))

	var variance float64
	for _, t := range trades {
		r := t.ReturnPercent / 100
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(trades)-1))
	if stdDev == 0 {
		return 0
	}

	// Annualize assuming ~252 trading days.
	return (mean * 252) / (stdDev * math.Sqrt(252))
}
