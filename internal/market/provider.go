package market

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/paperdesk/paperdesk/internal/core"
)

// DefaultFetchTimeout bounds a single provider call so one slow feed cannot
// stall a trading cycle.
const DefaultFetchTimeout = 5 * time.Second

// Provider defines a source of candle history for one or more asset classes.
type Provider interface {
	Name() string
	Supports(class core.AssetClass) bool

	// FetchCandles returns history for the symbol, oldest first. The last
	// candle's close doubles as the current price.
	FetchCandles(ctx context.Context, symbol string, class core.AssetClass, interval string) ([]core.Candle, error)
}

// Chain tries providers in rank order and returns the first non-empty
// result. A provider that errors or times out is skipped, not fatal.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	log       *zap.Logger
}

// NewChain builds a fallback chain. Order is rank: earlier providers are
// preferred.
func NewChain(log *zap.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		timeout:   DefaultFetchTimeout,
		log:       log,
	}
}

// WithTimeout overrides the per-provider fetch timeout.
func (c *Chain) WithTimeout(d time.Duration) *Chain {
	c.timeout = d
	return c
}

// FetchCandles walks the chain until a provider returns data.
func (c *Chain) FetchCandles(ctx context.Context, symbol string, class core.AssetClass, interval string) ([]core.Candle, error) {
	var lastErr error

	for _, p := range c.providers {
		if !p.Supports(class) {
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
		candles, err := p.FetchCandles(fetchCtx, symbol, class, interval)
		cancel()

		if err != nil {
			lastErr = err
			if c.log != nil {
				c.log.Warn("provider fetch failed, trying next",
					zap.String("provider", p.Name()),
					zap.String("symbol", symbol),
					zap.Error(err))
			}
			continue
		}
		if len(candles) == 0 {
			continue
		}
		return candles, nil
	}

	if lastErr != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, lastErr)
	}
	return nil, core.ErrDataUnavailable
}
