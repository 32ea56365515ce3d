package market

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
)

// MemoryProvider serves candles from memory. Seed it with fixtures, or let
// it synthesize a random walk per symbol so the desk can run without any
// live feed.
type MemoryProvider struct {
	mu      sync.RWMutex
	candles map[string][]core.Candle
	rng     *rand.Rand
	bars    int
}

// NewMemoryProvider creates a provider that synthesizes history on demand.
// A nil rng gets a time-seeded one.
func NewMemoryProvider(rng *rand.Rand) *MemoryProvider {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MemoryProvider{
		candles: make(map[string][]core.Candle),
		rng:     rng,
		bars:    120,
	}
}

func (m *MemoryProvider) Name() string { return "memory" }

func (m *MemoryProvider) Supports(core.AssetClass) bool { return true }

// Seed installs a fixed series for a symbol, replacing any synthesized one.
func (m *MemoryProvider) Seed(symbol string, candles []core.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candles[symbol] = candles
}

// FetchCandles returns the seeded series for the symbol, synthesizing and
// caching a random walk on first request.
func (m *MemoryProvider) FetchCandles(ctx context.Context, symbol string, class core.AssetClass, interval string) ([]core.Candle, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if series, ok := m.candles[symbol]; ok {
		return append([]core.Candle(nil), series...), nil
	}

	series := m.walk()
	m.candles[symbol] = series
	return append([]core.Candle(nil), series...), nil
}

// walk synthesizes a plausible OHLCV series: a random drift with bar ranges
// proportional to price and volume noise around a base level.
func (m *MemoryProvider) walk() []core.Candle {
	base := time.Now().Add(-time.Duration(m.bars) * 24 * time.Hour)
	price := 100 + m.rng.Float64()*900

	series := make([]core.Candle, m.bars)
	for i := range series {
		drift := (m.rng.Float64() - 0.5) * 0.04 * price
		open := price
		close := price + drift
		high := max(open, close) * (1 + m.rng.Float64()*0.01)
		low := min(open, close) * (1 - m.rng.Float64()*0.01)

		series[i] = core.Candle{
			Time:   base.Add(time.Duration(i) * 24 * time.Hour),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: 500 + m.rng.Float64()*1500,
		}
		price = close
	}
	return series
}
