// Package engine contains the autonomous trade-decision loops. Both engines
// are pure functions of their inputs: they perform no I/O, never fail for
// valid inputs, and silently skip symbols with missing market data. The
// caller applies the returned intents to the ledger.
package engine

import "github.com/paperdesk/paperdesk/internal/core"

// Exit reasons emitted by the engines.
const (
	ReasonStopLoss           = "Stop Loss Hit"
	ReasonTargetHit          = "Target Hit"
	ReasonTechnicalBreakdown = "Technical Breakdown"
	ReasonScalpTarget        = "Scalp Target Hit"
	ReasonScalpStop          = "Scalp Stop Hit"
	ReasonAutoEntry          = "Auto Entry"
	ReasonScalpEntry         = "Scalp Momentum Entry"
)

// MarketData is the live snapshot for one symbol.
type MarketData struct {
	Price   float64
	Candles []core.Candle
}

// Trade is one intent produced by an engine cycle.
type Trade struct {
	Side       core.Side
	Symbol     string
	AssetClass core.AssetClass
	Quantity   float64
	Price      float64
	Reason     string
	Timeframe  core.Timeframe
	Brokerage  float64
	IsTopPick  bool
}

// Settings are the read-only tuning knobs for the main engine.
type Settings struct {
	// BrokerID is the paper broker all intents target.
	BrokerID string
	// MaxPositions caps concurrent non-scalp holdings.
	MaxPositions int
	// StopLossPercent exits when unrealized P&L falls to -StopLossPercent.
	StopLossPercent float64
	// TargetPercent exits when unrealized P&L reaches +TargetPercent.
	TargetPercent float64
	// BreakdownScore exits when the technical score drops below it.
	BreakdownScore float64
	// MinEntryScore gates candidate entries.
	MinEntryScore float64
	// TopPickAllocation and BaseAllocation are the equity fractions used to
	// size an entry.
	TopPickAllocation float64
	BaseAllocation    float64
}

// DefaultSettings returns the tuned production values.
func DefaultSettings() Settings {
	return Settings{
		BrokerID:          "paper",
		MaxPositions:      5,
		StopLossPercent:   3.0,
		TargetPercent:     8.0,
		BreakdownScore:    25,
		MinEntryScore:     60,
		TopPickAllocation: 0.25,
		BaseAllocation:    0.15,
	}
}

// Input is the full state snapshot one engine cycle decides on.
type Input struct {
	Settings        Settings
	Holdings        []core.Position
	Market          map[string]MarketData
	Funds           core.Funds
	Recommendations []core.Recommendation
	// IsMarketOpen reports whether the asset class is tradeable right now.
	// Nil means every market is treated as open.
	IsMarketOpen func(core.AssetClass) bool
}

func (in Input) marketOpen(class core.AssetClass) bool {
	if in.IsMarketOpen == nil {
		return true
	}
	return in.IsMarketOpen(class)
}
