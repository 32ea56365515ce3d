package engine_test

import (
	"testing"
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/engine"
	"github.com/paperdesk/paperdesk/internal/indicator"
	"github.com/paperdesk/paperdesk/internal/recommend"
	"github.com/paperdesk/paperdesk/internal/scorer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// momentumCandles is a strong advance with a volume blow-off on the last
// bar: RSI pegged high, relative volume above 2, score through the scalp
// gate. The ramp compounds so the MACD line keeps pulling away from its
// signal line and the histogram stays positive.
func momentumCandles(n int, start float64) []core.Candle {
	base := time.Date(2024, 5, 6, 9, 15, 0, 0, time.UTC)
	price := start
	candles := make([]core.Candle, n)
	for i := range candles {
		price *= 1.02
		candles[i] = core.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   price * 0.99,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1000,
		}
	}
	candles[n-1].Volume = 10000
	return candles
}

func newScalp() *engine.Scalp {
	return engine.NewScalp(scorer.New(indicator.FixedTrend{Value: 30}))
}

func scalpPosition(symbol string, qty, avgCost float64) core.Position {
	return core.Position{
		Symbol:     symbol,
		AssetClass: core.AssetStock,
		Quantity:   qty,
		AvgCost:    avgCost,
		TotalCost:  qty * avgCost,
		BrokerID:   "paper",
		Timeframe:  core.TimeframeIntraday,
	}
}

func TestScalp_TargetExit(t *testing.T) {
	s := newScalp()

	in := engine.ScalpInput{
		Settings: engine.DefaultScalpSettings(),
		Holdings: []core.Position{scalpPosition("SBIN", 100, 100)},
		Market: map[string]engine.MarketData{
			"SBIN": {Price: 100.6, Candles: momentumCandles(40, 100)},
		},
		Funds: core.Funds{Stock: 1000},
	}

	trades := s.Evaluate(in)

	require.Len(t, trades, 1)
	assert.Equal(t, core.SideSell, trades[0].Side)
	assert.Equal(t, engine.ReasonScalpTarget, trades[0].Reason)
	assert.Equal(t, engine.DefaultScalpSettings().Brokerage, trades[0].Brokerage)
}

func TestScalp_StopExit(t *testing.T) {
	s := newScalp()

	in := engine.ScalpInput{
		Settings: engine.DefaultScalpSettings(),
		Holdings: []core.Position{scalpPosition("SBIN", 100, 100)},
		Market: map[string]engine.MarketData{
			"SBIN": {Price: 99.6, Candles: momentumCandles(40, 100)},
		},
		Funds: core.Funds{Stock: 1000},
	}

	trades := s.Evaluate(in)

	require.Len(t, trades, 1)
	assert.Equal(t, engine.ReasonScalpStop, trades[0].Reason)
}

func TestScalp_StopPrecedesTarget(t *testing.T) {
	s := newScalp()

	// Degenerate band configuration: both rules could match at a deep loss;
	// the stop is checked first.
	settings := engine.DefaultScalpSettings()
	settings.TargetPercent = -1.0

	in := engine.ScalpInput{
		Settings: settings,
		Holdings: []core.Position{scalpPosition("SBIN", 100, 100)},
		Market: map[string]engine.MarketData{
			"SBIN": {Price: 98, Candles: momentumCandles(40, 98)},
		},
		Funds: core.Funds{Stock: 1000},
	}

	trades := s.Evaluate(in)

	require.Len(t, trades, 1)
	assert.Equal(t, engine.ReasonScalpStop, trades[0].Reason)
}

func TestScalp_IgnoresMainEnginePositions(t *testing.T) {
	s := newScalp()

	pos := scalpPosition("SBIN", 100, 100)
	pos.Timeframe = "" // main-engine position

	in := engine.ScalpInput{
		Settings: engine.DefaultScalpSettings(),
		Holdings: []core.Position{pos},
		Market: map[string]engine.MarketData{
			"SBIN": {Price: 90, Candles: momentumCandles(40, 90)},
		},
		Funds: core.Funds{Stock: 1000},
	}

	assert.Empty(t, s.Evaluate(in))
}

func TestScalp_NoEntryIntoMainBookSymbol(t *testing.T) {
	s := newScalp()

	// SBIN is held by the main engine (no INTRADAY tag). Buying it here
	// would merge the lot into that position and strip the scalp bands.
	pos := scalpPosition("SBIN", 100, 100)
	pos.Timeframe = core.TimeframeBTST

	in := engine.ScalpInput{
		Settings: engine.DefaultScalpSettings(),
		Holdings: []core.Position{pos},
		Market: map[string]engine.MarketData{
			"SBIN": {Price: 100, Candles: momentumCandles(40, 50)},
		},
		Funds: core.Funds{Stock: 100000},
		Instruments: []recommend.Instrument{
			{Symbol: "SBIN", AssetClass: core.AssetStock},
		},
	}

	assert.Empty(t, s.Evaluate(in))
}

func TestScalp_NoReentryAfterExitSameCycle(t *testing.T) {
	s := newScalp()

	in := engine.ScalpInput{
		Settings: engine.DefaultScalpSettings(),
		Holdings: []core.Position{scalpPosition("SBIN", 100, 100)},
		Market: map[string]engine.MarketData{
			// Up 0.6%: target exit fires, and the same candles would pass
			// the entry gate if SBIN were still eligible.
			"SBIN": {Price: 100.6, Candles: momentumCandles(40, 50)},
		},
		Funds: core.Funds{Stock: 100000},
		Instruments: []recommend.Instrument{
			{Symbol: "SBIN", AssetClass: core.AssetStock},
		},
	}

	trades := s.Evaluate(in)

	require.Len(t, trades, 1)
	assert.Equal(t, core.SideSell, trades[0].Side)
}

func TestScalp_EntryGate(t *testing.T) {
	s := newScalp()

	in := engine.ScalpInput{
		Settings: engine.DefaultScalpSettings(),
		Market: map[string]engine.MarketData{
			"ROCKET": {Price: 100, Candles: momentumCandles(40, 50)},
		},
		Funds: core.Funds{Stock: 100000},
		Instruments: []recommend.Instrument{
			{Symbol: "ROCKET", AssetClass: core.AssetStock},
		},
	}

	trades := s.Evaluate(in)

	require.Len(t, trades, 1)
	assert.Equal(t, core.SideBuy, trades[0].Side)
	assert.Equal(t, engine.ReasonScalpEntry, trades[0].Reason)
	assert.Equal(t, core.TimeframeIntraday, trades[0].Timeframe)

	// floor(100000 * 0.10 / 100) = 100
	assert.Equal(t, 100.0, trades[0].Quantity)
}

func TestScalp_EntryRejectedWithoutVolumeSpike(t *testing.T) {
	s := newScalp()

	candles := momentumCandles(40, 50)
	candles[len(candles)-1].Volume = 1000 // relative volume ~1

	in := engine.ScalpInput{
		Settings: engine.DefaultScalpSettings(),
		Market: map[string]engine.MarketData{
			"SLOW": {Price: 100, Candles: candles},
		},
		Funds: core.Funds{Stock: 100000},
		Instruments: []recommend.Instrument{
			{Symbol: "SLOW", AssetClass: core.AssetStock},
		},
	}

	assert.Empty(t, s.Evaluate(in))
}

func TestScalp_ConcurrencyCap(t *testing.T) {
	s := newScalp()

	in := engine.ScalpInput{
		Settings: engine.DefaultScalpSettings(),
		Holdings: []core.Position{
			scalpPosition("A", 10, 100),
			scalpPosition("B", 10, 100),
		},
		Market: map[string]engine.MarketData{
			// Both holdings flat: no exits.
			"A":      {Price: 100, Candles: momentumCandles(40, 100)},
			"B":      {Price: 100, Candles: momentumCandles(40, 100)},
			"ROCKET": {Price: 100, Candles: momentumCandles(40, 50)},
		},
		Funds: core.Funds{Stock: 100000},
		Instruments: []recommend.Instrument{
			{Symbol: "ROCKET", AssetClass: core.AssetStock},
		},
	}

	assert.Empty(t, s.Evaluate(in))
}

func TestScalp_ClosedMarketNoEntries(t *testing.T) {
	s := newScalp()

	in := engine.ScalpInput{
		Settings: engine.DefaultScalpSettings(),
		Market: map[string]engine.MarketData{
			"ROCKET": {Price: 100, Candles: momentumCandles(40, 50)},
		},
		Funds: core.Funds{Stock: 100000},
		Instruments: []recommend.Instrument{
			{Symbol: "ROCKET", AssetClass: core.AssetStock},
		},
		IsMarketOpen: func(core.AssetClass) bool { return false },
	}

	assert.Empty(t, s.Evaluate(in))
}
