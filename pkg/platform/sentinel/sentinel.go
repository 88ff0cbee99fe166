package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Clients and stores return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states reported by external systems, not validation
// failures:
// - ErrNotFound: entity does not exist on the remote ledger
// - ErrUnavailable: service or resource temporarily unavailable
// - ErrNoRoute: no Lightning route to the destination
// - ErrInvoiceExpired: the fetched invoice expired before payment
// - ErrInsufficientBalance: the sending wallet cannot cover the payment
// - ErrAccountLocked: the ledger rejected a concurrent payment for the account
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnavailable         = errors.New("unavailable")
	ErrNoRoute             = errors.New("no route")
	ErrInvoiceExpired      = errors.New("invoice expired")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountLocked       = errors.New("account locked")
)
