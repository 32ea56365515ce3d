package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors. None of these is fatal to an engine cycle; the worst
// case is that the cycle makes no trade.
var (
	// Market data errors
	ErrDataUnavailable = &Error{Code: "DATA_UNAVAILABLE", Message: "market data unavailable"}
	ErrProviderTimeout = &Error{Code: "PROVIDER_TIMEOUT", Message: "market data fetch timed out"}

	// Ledger errors
	ErrInvalidOrder         = &Error{Code: "INVALID_ORDER", Message: "order quantity and price must be positive"}
	ErrInsufficientFunds    = &Error{Code: "INSUFFICIENT_FUNDS", Message: "insufficient funds"}
	ErrInsufficientHoldings = &Error{Code: "INSUFFICIENT_HOLDINGS", Message: "insufficient holdings"}
	ErrPositionNotFound     = &Error{Code: "POSITION_NOT_FOUND", Message: "position not found"}

	// Computation errors
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Collaborator errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}
	ErrAnalystFailed  = &Error{Code: "ANALYST_FAILED", Message: "analyst request failed"}
	ErrSnapshotFailed = &Error{Code: "SNAPSHOT_FAILED", Message: "snapshot persistence failed"}
)
