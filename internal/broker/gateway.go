package broker

import (
	"context"

	"github.com/paperdesk/paperdesk/internal/core"
)

// OrderRequest is a fill-or-reject market order. The desk trades at the
// price the engine observed; a gateway may fill at a better one.
type OrderRequest struct {
	Symbol     string
	AssetClass core.AssetClass
	Side       core.Side
	Quantity   float64
	Price      float64
	Brokerage  float64
	Timeframe  core.Timeframe
	Reason     string
}

// Gateway is the execution surface of a broker. The paper gateway settles
// against the local ledger; a live gateway would forward to a real broker
// API behind the same interface.
type Gateway interface {
	Name() string

	// PlaceOrder executes the request and returns the booked transaction.
	PlaceOrder(ctx context.Context, req OrderRequest) (core.Transaction, error)

	// Holdings returns the open positions held at this broker.
	Holdings(ctx context.Context) ([]core.Position, error)

	// Balance returns the available funds per asset class.
	Balance(ctx context.Context) (core.Funds, error)
}
