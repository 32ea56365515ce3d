package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	e := &Error{Code: "DATA_UNAVAILABLE", Message: "market data unavailable"}
	if got := e.Error(); got != "[DATA_UNAVAILABLE] market data unavailable" {
		t.Errorf("unexpected error string: %s", got)
	}

	wrapped := WrapError(e, fmt.Errorf("connection refused"))
	if got := wrapped.Error(); got != "[DATA_UNAVAILABLE] market data unavailable: connection refused" {
		t.Errorf("unexpected wrapped error string: %s", got)
	}
}

func TestError_Is(t *testing.T) {
	cause := fmt.Errorf("boom")
	wrapped := WrapError(ErrInsufficientFunds, cause)

	if !errors.Is(wrapped, ErrInsufficientFunds) {
		t.Error("wrapped error should match its base by code")
	}
	if errors.Is(wrapped, ErrInsufficientHoldings) {
		t.Error("wrapped error should not match a different code")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
}

func TestFunds_Pools(t *testing.T) {
	f := Funds{Stock: 1000, MCX: 500, Forex: 250, Crypto: 100}

	if got := f.Get(AssetMCX); got != 500 {
		t.Errorf("Get(MCX) = %f, want 500", got)
	}
	if got := f.Total(); got != 1850 {
		t.Errorf("Total() = %f, want 1850", got)
	}

	f.Add(AssetStock, -400)
	if f.Stock != 600 {
		t.Errorf("Stock pool = %f after debit, want 600", f.Stock)
	}
	// Debiting one pool must not touch the others.
	if f.MCX != 500 || f.Forex != 250 || f.Crypto != 100 {
		t.Errorf("other pools changed: %+v", f)
	}
}

func TestPosition_UnrealizedPLPercent(t *testing.T) {
	p := Position{Symbol: "RELIANCE", AvgCost: 100, Quantity: 10}

	if got := p.UnrealizedPLPercent(108); got != 8 {
		t.Errorf("PL%% at 108 = %f, want 8", got)
	}
	if got := p.UnrealizedPLPercent(97); got != -3 {
		t.Errorf("PL%% at 97 = %f, want -3", got)
	}
	if got := (Position{}).UnrealizedPLPercent(50); got != 0 {
		t.Errorf("PL%% with zero cost = %f, want 0", got)
	}
}

func TestRecommendation_ProjectedProfitPercent(t *testing.T) {
	r := Recommendation{CurrentPrice: 200, TargetPrice: 210}
	if got := r.ProjectedProfitPercent(); got != 5 {
		t.Errorf("projected profit = %f, want 5", got)
	}
}
