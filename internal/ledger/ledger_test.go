package ledger_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(funds core.Funds) *ledger.Ledger {
	seq := 0
	return ledger.New(funds,
		ledger.WithClock(func() time.Time {
			return time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
		}),
		ledger.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("tx-%d", seq)
		}),
	)
}

func TestBuy_WeightedAverageCost(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000})

	_, err := l.Buy("TATASTEEL", core.AssetStock, 10, 100, "paper")
	require.NoError(t, err)
	_, err = l.Buy("TATASTEEL", core.AssetStock, 10, 200, "paper")
	require.NoError(t, err)

	pos, ok := l.Position("TATASTEEL", "paper")
	require.True(t, ok)
	assert.Equal(t, 20.0, pos.Quantity)
	assert.Equal(t, 150.0, pos.AvgCost)
	assert.Equal(t, 3000.0, pos.TotalCost)

	// 10000 - 1000 - 2000
	assert.Equal(t, 7000.0, l.Funds().Stock)
	assert.Len(t, l.Transactions(), 2)
}

func TestBuy_InsufficientFunds(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 500})

	_, err := l.Buy("RELIANCE", core.AssetStock, 10, 100, "paper")
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)

	assert.Empty(t, l.Holdings())
	assert.Empty(t, l.Transactions())
	assert.Equal(t, 500.0, l.Funds().Stock)
}

func TestBuySell_RejectNonPositiveOrders(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000})

	_, err := l.Buy("RELIANCE", core.AssetStock, 0, 100, "paper")
	assert.ErrorIs(t, err, core.ErrInvalidOrder)

	_, err = l.Buy("RELIANCE", core.AssetStock, 10, -100, "paper")
	assert.ErrorIs(t, err, core.ErrInvalidOrder)

	_, err = l.Sell("RELIANCE", core.AssetStock, -10, 100, "paper")
	assert.ErrorIs(t, err, core.ErrInvalidOrder)

	assert.Empty(t, l.Holdings())
	assert.Empty(t, l.Transactions())
	assert.Equal(t, 10000.0, l.Funds().Stock)
}

func TestSell_PartialKeepsAvgCost(t *testing.T) {
	l := newTestLedger(core.Funds{Crypto: 50000})

	_, err := l.Buy("BTCUSDT", core.AssetCrypto, 2, 20000, "paper")
	require.NoError(t, err)

	_, err = l.Sell("BTCUSDT", core.AssetCrypto, 1, 22000, "paper")
	require.NoError(t, err)

	pos, ok := l.Position("BTCUSDT", "paper")
	require.True(t, ok)
	assert.Equal(t, 1.0, pos.Quantity)
	assert.Equal(t, 20000.0, pos.AvgCost)
	assert.Equal(t, 20000.0, pos.TotalCost)

	// 50000 - 40000 + 22000
	assert.Equal(t, 32000.0, l.Funds().Crypto)
}

func TestSell_FullRemovesPosition(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000})

	_, err := l.Buy("INFY", core.AssetStock, 5, 1000, "paper")
	require.NoError(t, err)
	_, err = l.Sell("INFY", core.AssetStock, 5, 1100, "paper")
	require.NoError(t, err)

	_, ok := l.Position("INFY", "paper")
	assert.False(t, ok)
	assert.Empty(t, l.Holdings())
	assert.Equal(t, 10500.0, l.Funds().Stock)
}

func TestSell_Oversell(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000})

	_, err := l.Buy("INFY", core.AssetStock, 5, 1000, "paper")
	require.NoError(t, err)

	fundsBefore := l.Funds()
	_, err = l.Sell("INFY", core.AssetStock, 6, 1100, "paper")
	assert.ErrorIs(t, err, core.ErrInsufficientHoldings)

	// Rejection must not mutate anything.
	pos, ok := l.Position("INFY", "paper")
	require.True(t, ok)
	assert.Equal(t, 5.0, pos.Quantity)
	assert.Equal(t, fundsBefore, l.Funds())
	assert.Len(t, l.Transactions(), 1)
}

func TestSell_UnknownSymbol(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000})

	_, err := l.Sell("NOPE", core.AssetStock, 1, 100, "paper")
	assert.ErrorIs(t, err, core.ErrInsufficientHoldings)
}

func TestFunds_PoolsAreIndependent(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000, MCX: 5000})

	_, err := l.Buy("GOLDM", core.AssetMCX, 1, 4000, "paper")
	require.NoError(t, err)

	funds := l.Funds()
	assert.Equal(t, 10000.0, funds.Stock)
	assert.Equal(t, 1000.0, funds.MCX)
}

func TestBuy_SeparateBrokerPositions(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000})

	_, err := l.Buy("SBIN", core.AssetStock, 2, 500, "paper")
	require.NoError(t, err)
	_, err = l.Buy("SBIN", core.AssetStock, 3, 500, "zerodha")
	require.NoError(t, err)

	assert.Len(t, l.Holdings(), 2)

	paper, ok := l.Position("SBIN", "paper")
	require.True(t, ok)
	assert.Equal(t, 2.0, paper.Quantity)
}

func TestTradeOptions_ReasonAndTimeframe(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000})

	tx, err := l.Buy("SBIN", core.AssetStock, 2, 500, "paper",
		ledger.WithReason("Momentum Entry"),
		ledger.WithTimeframe(core.TimeframeIntraday),
	)
	require.NoError(t, err)
	assert.Equal(t, "Momentum Entry", tx.Reason)

	pos, ok := l.Position("SBIN", "paper")
	require.True(t, ok)
	assert.True(t, pos.IsScalp())
}

func TestSnapshot_Roundtrip(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000})
	_, err := l.Buy("SBIN", core.AssetStock, 2, 500, "paper")
	require.NoError(t, err)

	snap := l.Snapshot()

	restored := newTestLedger(core.Funds{})
	restored.Restore(snap)

	assert.Equal(t, l.Funds(), restored.Funds())
	assert.Equal(t, l.Holdings(), restored.Holdings())
	assert.Equal(t, l.Transactions(), restored.Transactions())
}

func TestHoldingsCost_ExcludesScalp(t *testing.T) {
	l := newTestLedger(core.Funds{Stock: 10000})

	_, err := l.Buy("SBIN", core.AssetStock, 2, 500, "paper")
	require.NoError(t, err)
	_, err = l.Buy("INFY", core.AssetStock, 1, 1500, "paper",
		ledger.WithTimeframe(core.TimeframeIntraday))
	require.NoError(t, err)

	assert.Equal(t, 2500.0, l.HoldingsCost(core.AssetStock, false))
	assert.Equal(t, 1000.0, l.HoldingsCost(core.AssetStock, true))
}
