package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	name string
	err  error
	sent []string
}

func (f *fakeNotifier) Name() string           { return f.name }
func (f *fakeNotifier) Init(cfg Config) error  { return nil }
func (f *fakeNotifier) Send(ctx context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&fakeNotifier{name: "a"}))
	assert.Error(t, r.Register(&fakeNotifier{name: "a"}), "duplicate name must be rejected")

	n, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", n.Name())

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestRegistry_BroadcastContinuesPastFailures(t *testing.T) {
	r := NewRegistry()
	good := &fakeNotifier{name: "good"}
	bad := &fakeNotifier{name: "bad", err: errors.New("boom")}
	require.NoError(t, r.Register(good))
	require.NoError(t, r.Register(bad))

	failures := r.Broadcast(context.Background(), "hello")

	assert.Len(t, failures, 1)
	assert.Contains(t, failures, "bad")
	assert.Equal(t, []string{"hello"}, good.sent)
}

func TestReport_Format(t *testing.T) {
	r := Report{
		GeneratedAt: time.Date(2024, 5, 7, 15, 30, 0, 0, time.UTC),
		Funds:       core.Funds{Stock: 9000, Crypto: 500},
		Holdings: []core.Position{
			{Symbol: "TCS", AssetClass: core.AssetStock, Quantity: 10, AvgCost: 100, TotalCost: 1000},
		},
		Prices: map[string]float64{"TCS": 110},
		Trades: []core.Transaction{
			{Type: core.SideBuy, Symbol: "TCS", Quantity: 10, Price: 100, Reason: "Auto Entry"},
		},
	}

	out := r.Format()

	assert.Contains(t, out, "2024-05-07 15:30")
	assert.Contains(t, out, "TCS")
	assert.Contains(t, out, "+100.00") // 10 shares, 10 points up
	assert.Contains(t, out, "+10.00%")
	assert.Contains(t, out, "Auto Entry")
	assert.Contains(t, out, "9000.00")
}

func TestReport_Format_NoPositions(t *testing.T) {
	out := Report{GeneratedAt: time.Now()}.Format()

	assert.True(t, strings.Contains(out, "No open positions"))
}

func TestReport_Format_MissingPriceFallsBackToCost(t *testing.T) {
	r := Report{
		GeneratedAt: time.Now(),
		Holdings: []core.Position{
			{Symbol: "INFY", Quantity: 5, AvgCost: 200, TotalCost: 1000},
		},
	}

	out := r.Format()

	assert.Contains(t, out, "+0.00")
}
