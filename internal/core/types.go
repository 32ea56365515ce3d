package core

import "time"

// AssetClass identifies which cash pool and market calendar a symbol belongs to.
type AssetClass string

const (
	AssetStock  AssetClass = "STOCK"
	AssetMCX    AssetClass = "MCX"
	AssetForex  AssetClass = "FOREX"
	AssetCrypto AssetClass = "CRYPTO"
)

// AssetClasses lists every supported class in a stable order.
var AssetClasses = []AssetClass{AssetStock, AssetMCX, AssetForex, AssetCrypto}

// Timeframe is the holding-period bucket assigned to a recommendation.
type Timeframe string

const (
	TimeframeIntraday Timeframe = "INTRADAY"
	TimeframeBTST     Timeframe = "BTST"
	TimeframeWeekly   Timeframe = "WEEKLY"
	TimeframeMonthly  Timeframe = "MONTHLY"
)

// RiskLevel is a coarse risk grade attached to a recommendation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// SignalStrength classifies a composite technical score.
type SignalStrength string

const (
	StrengthStrongBuy SignalStrength = "STRONG BUY"
	StrengthBuy       SignalStrength = "BUY"
	StrengthHold      SignalStrength = "HOLD"
	StrengthSell      SignalStrength = "SELL"
)

// Side is the direction of a transaction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Candle is one OHLCV bar. Sequences are ordered ascending by Time with no
// duplicate timestamps per symbol; only the live bar may be revised in place.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IsValid checks that the candle carries a usable price range.
func (c Candle) IsValid() bool {
	return c.Open > 0 && c.High > 0 && c.Low > 0 && c.Close > 0 && c.Volume >= 0
}

// Recommendation is one scored trade idea. Created fresh each scan cycle and
// never mutated, only replaced.
type Recommendation struct {
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name"`
	AssetClass   AssetClass `json:"asset_class"`
	CurrentPrice float64    `json:"current_price"`
	Reason       string     `json:"reason"`
	RiskLevel    RiskLevel  `json:"risk_level"`
	TargetPrice  float64    `json:"target_price"`
	LotSize      int        `json:"lot_size"`
	Timeframe    Timeframe  `json:"timeframe"`
	Score        float64    `json:"score"`
	IsTopPick    bool       `json:"is_top_pick"`
}

// ProjectedProfitPercent returns the profit percentage implied by the target.
func (r Recommendation) ProjectedProfitPercent() float64 {
	if r.CurrentPrice <= 0 {
		return 0
	}
	return (r.TargetPrice - r.CurrentPrice) / r.CurrentPrice * 100
}

// Position is a paper holding for a (symbol, broker) pair.
//
// TotalCost is always AvgCost*Quantity; the ledger re-derives it on every
// mutation. Timeframe is set only for scalp entries so the two engines
// operate on disjoint position subsets.
type Position struct {
	Symbol     string     `json:"symbol"`
	AssetClass AssetClass `json:"asset_class"`
	Quantity   float64    `json:"quantity"`
	AvgCost    float64    `json:"avg_cost"`
	TotalCost  float64    `json:"total_cost"`
	BrokerID   string     `json:"broker_id"`
	Timeframe  Timeframe  `json:"timeframe,omitempty"`
}

// UnrealizedPLPercent returns the position P&L percentage at the given price.
func (p Position) UnrealizedPLPercent(price float64) float64 {
	if p.AvgCost <= 0 {
		return 0
	}
	return (price - p.AvgCost) / p.AvgCost * 100
}

// IsScalp reports whether the position belongs to the scalp engine.
func (p Position) IsScalp() bool {
	return p.Timeframe == TimeframeIntraday
}

// Funds holds one independent cash pool per asset class so commodity P&L
// cannot fund equity trades and vice versa.
type Funds struct {
	Stock  float64 `json:"stock"`
	MCX    float64 `json:"mcx"`
	Forex  float64 `json:"forex"`
	Crypto float64 `json:"crypto"`
}

// Get returns the pool balance for an asset class.
func (f Funds) Get(class AssetClass) float64 {
	switch class {
	case AssetStock:
		return f.Stock
	case AssetMCX:
		return f.MCX
	case AssetForex:
		return f.Forex
	case AssetCrypto:
		return f.Crypto
	}
	return 0
}

// Add adjusts the pool for an asset class by delta (negative to debit).
func (f *Funds) Add(class AssetClass, delta float64) {
	switch class {
	case AssetStock:
		f.Stock += delta
	case AssetMCX:
		f.MCX += delta
	case AssetForex:
		f.Forex += delta
	case AssetCrypto:
		f.Crypto += delta
	}
}

// Total returns the combined balance across all pools.
func (f Funds) Total() float64 {
	return f.Stock + f.MCX + f.Forex + f.Crypto
}

// Transaction is an immutable append-only ledger record.
type Transaction struct {
	ID         string     `json:"id"`
	Type       Side       `json:"type"`
	Symbol     string     `json:"symbol"`
	AssetClass AssetClass `json:"asset_class"`
	Quantity   float64    `json:"quantity"`
	Price      float64    `json:"price"`
	Timestamp  time.Time  `json:"timestamp"`
	BrokerID   string     `json:"broker_id"`
	Reason     string     `json:"reason,omitempty"`
}
