package broker

import (
	"context"
	"fmt"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/ledger"
)

// Paper settles orders instantly against a local ledger. Every fill is at
// the requested price; brokerage is debited from the same fund pool.
type Paper struct {
	name   string
	ledger *ledger.Ledger
}

// NewPaper wraps a ledger as a gateway.
func NewPaper(name string, l *ledger.Ledger) *Paper {
	if name == "" {
		name = "paper"
	}
	return &Paper{name: name, ledger: l}
}

func (p *Paper) Name() string { return p.name }

// PlaceOrder books the trade on the ledger and debits flat brokerage.
func (p *Paper) PlaceOrder(ctx context.Context, req OrderRequest) (core.Transaction, error) {
	select {
	case <-ctx.Done():
		return core.Transaction{}, ctx.Err()
	default:
	}

	opts := []ledger.TradeOption{ledger.WithReason(req.Reason)}
	if req.Timeframe != "" {
		opts = append(opts, ledger.WithTimeframe(req.Timeframe))
	}

	var tx core.Transaction
	var err error
	switch req.Side {
	case core.SideBuy:
		tx, err = p.ledger.Buy(req.Symbol, req.AssetClass, req.Quantity, req.Price, p.name, opts...)
	case core.SideSell:
		tx, err = p.ledger.Sell(req.Symbol, req.AssetClass, req.Quantity, req.Price, p.name, opts...)
	default:
		return core.Transaction{}, fmt.Errorf("unknown order side %q", req.Side)
	}
	if err != nil {
		return core.Transaction{}, err
	}

	if req.Brokerage > 0 {
		p.ledger.Credit(req.AssetClass, -req.Brokerage)
	}
	return tx, nil
}

// Holdings returns the positions booked at this gateway.
func (p *Paper) Holdings(ctx context.Context) ([]core.Position, error) {
	var mine []core.Position
	for _, pos := range p.ledger.Holdings() {
		if pos.BrokerID == p.name {
			mine = append(mine, pos)
		}
	}
	return mine, nil
}

// Balance reports the ledger's fund pools.
func (p *Paper) Balance(ctx context.Context) (core.Funds, error) {
	return p.ledger.Funds(), nil
}
