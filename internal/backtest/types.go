package backtest

import (
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
)

// Exit reasons recorded on closed trades.
const (
	ExitTakeProfit = "Take Profit (ATR)"
	ExitStopLoss   = "Stop Loss (ATR)"
	ExitEndOfData  = "End of Backtest"
)

// WarmupBars is the number of leading candles consumed before the replay
// starts taking signals. Indicators shorter than this are unreliable.
const WarmupBars = 30

// Rules parameterizes a single-position replay.
type Rules struct {
	// InitialCapital is the starting cash for the run.
	InitialCapital float64

	// MinScore is the composite score an entry bar must reach.
	MinScore float64

	// ADXThreshold gates entries on trend strength.
	ADXThreshold float64

	// TargetATRMultiple sets the take-profit distance from entry in ATRs.
	TargetATRMultiple float64

	// StopATRMultiple sets the trailing stop distance below the close in ATRs.
	StopATRMultiple float64

	// MinTargetPercent rejects entries whose ATR target is too close to the
	// entry price to clear costs.
	MinTargetPercent float64

	// Brokerage is the flat charge per trade leg.
	Brokerage float64
}

// DefaultRules returns the standard replay parameters.
func DefaultRules() Rules {
	return Rules{
		InitialCapital:    100000,
		MinScore:          40,
		ADXThreshold:      20,
		TargetATRMultiple: 3.5,
		StopATRMultiple:   2.0,
		MinTargetPercent:  1.0,
		Brokerage:         20,
	}
}

// Trade is one completed round trip in the replay.
type Trade struct {
	Symbol     string
	Quantity   float64
	EntryPrice float64
	EntryTime  time.Time
	ExitPrice  float64
	ExitTime   time.Time
	ExitReason string

	// PnL is the gross profit before brokerage.
	PnL float64

	// ReturnPercent is the gross return on the entry price.
	ReturnPercent float64
}

// IsWin reports whether the trade closed above its entry price.
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// EquityPoint samples the account value after one bar of the replay.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// Result is the complete output of a replay.
type Result struct {
	Symbol     string
	AssetClass core.AssetClass
	Rules      Rules
	StartTime  time.Time
	EndTime    time.Time

	Trades      []Trade
	EquityCurve []EquityPoint
	Stats       Stats
}

// Stats summarizes replay performance.
type Stats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percentage of profitable trades
	TotalPnL      float64 // net of brokerage
	FinalEquity   float64
	ReturnPercent float64 // net return on initial capital
	MaxDrawdown   float64 // largest peak-to-trough equity decline, percent
	SharpeRatio   float64 // annualized, risk-free rate 0
}
