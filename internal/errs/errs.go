// Package errs defines the error taxonomy shared by every stateful and
// pure component in the engine. Every externally callable operation
// either succeeds or fails with exactly one of these kinds — there is
// no partial success and no panic-as-control-flow.
package errs

import "fmt"

// Kind enumerates the error taxonomy from the engine's failure
// semantics tables. It is a classification, not a type name: callers
// switch on Kind, never on the concrete error's Go type.
type Kind string

const (
	InvalidParams      Kind = "invalid_params"
	AlreadyInitialized Kind = "already_initialized"
	NotInitialized     Kind = "not_initialized"
	DeadlineExpired    Kind = "deadline_expired"
	SlippageExceeded   Kind = "slippage_exceeded"
	InsufficientLiquidity Kind = "insufficient_liquidity"
	InvalidAsset       Kind = "invalid_asset"
	InvalidRange       Kind = "invalid_range"
	InvalidProposal    Kind = "invalid_proposal"
	RebalanceTooSoon   Kind = "rebalance_too_soon"
	Rejected           Kind = "rejected"
	InternalError      Kind = "internal_error"
)

// Error is the concrete error type every component returns. Reason
// carries a human-readable detail; Kind is what callers branch on.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// New builds an *Error with the given kind and formatted reason.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Is reports whether err carries the given Kind. It is the idiomatic
// way to branch on error taxonomy without a type assertion:
//
//	if errs.Is(err, errs.SlippageExceeded) { ... }
func Is(err error, kind Kind) bool {
	var e *Error
	if err == nil {
		return false
	}
	if ae, ok := err.(*Error); ok {
		e = ae
	} else {
		return false
	}
	return e.Kind == kind
}
