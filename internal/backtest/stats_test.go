package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateStats(t *testing.T) {
	rules := DefaultRules()
	rules.InitialCapital = 10000
	rules.Brokerage = 10

	trades := []Trade{
		{EntryPrice: 100, ExitPrice: 110, Quantity: 10, PnL: 100, ReturnPercent: 10},
		{EntryPrice: 100, ExitPrice: 95, Quantity: 10, PnL: -50, ReturnPercent: -5},
		{EntryPrice: 100, ExitPrice: 108, Quantity: 10, PnL: 80, ReturnPercent: 8},
	}
	curve := []EquityPoint{
		{Equity: 10000},
		{Equity: 10100},
		{Equity: 10050},
		{Equity: 10130},
	}

	stats := CalculateStats(trades, curve, rules)

	assert.Equal(t, 3, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 1, stats.LosingTrades)
	assert.InDelta(t, 200.0/3.0, stats.WinRate, 1e-9)

	// 130 gross, minus 3 trades * 2 legs * 10 brokerage.
	assert.InDelta(t, 70, stats.TotalPnL, 1e-9)
	assert.InDelta(t, 0.7, stats.ReturnPercent, 1e-9)
	assert.InDelta(t, 10130, stats.FinalEquity, 1e-9)
}

func TestCalculateStats_Empty(t *testing.T) {
	stats := CalculateStats(nil, nil, DefaultRules())

	assert.Zero(t, stats.TotalTrades)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.MaxDrawdown)
	assert.InDelta(t, DefaultRules().InitialCapital, stats.FinalEquity, 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	at := time.Now()
	curve := []EquityPoint{
		{Time: at, Equity: 100},
		{Time: at, Equity: 120},
		{Time: at, Equity: 90}, // 25% off the 120 peak
		{Time: at, Equity: 130},
		{Time: at, Equity: 117}, // 10% off the 130 peak
	}

	assert.InDelta(t, 0.25, maxDrawdown(curve), 1e-9)
	assert.Zero(t, maxDrawdown(nil))
}

func TestSharpeRatio_DegenerateCases(t *testing.T) {
	assert.Zero(t, sharpeRatio(nil))
	assert.Zero(t, sharpeRatio([]Trade{{ReturnPercent: 5}}))

	// Identical returns have zero variance.
	same := []Trade{{ReturnPercent: 3}, {ReturnPercent: 3}}
	assert.Zero(t, sharpeRatio(same))
}
