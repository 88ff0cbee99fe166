// Package models defines the data model for the batch payment pipeline.
// Records flow parser → validator → estimator → orchestrator; each stage
// produces its own immutable result type.
package models

import (
	"github.com/google/uuid"
)

// RecipientKind classifies how a recipient identifier is settled.
type RecipientKind string

const (
	// KindIntraLedger is an account handle on the home ledger, settled
	// wallet-to-wallet with zero fee.
	KindIntraLedger RecipientKind = "INTRALEDGER"
	// KindLightningAddress is a user@domain identifier resolving to a LUD-16
	// payment endpoint.
	KindLightningAddress RecipientKind = "LIGHTNING_ADDRESS"
	// KindLNURL is a bech32-encoded LNURL-pay bootstrap URL.
	KindLNURL RecipientKind = "LNURL"
)

func (k RecipientKind) String() string { return string(k) }

func (k RecipientKind) IsValid() bool {
	switch k {
	case KindIntraLedger, KindLightningAddress, KindLNURL:
		return true
	}
	return false
}

// Currency is the unit the amount column was expressed in.
type Currency string

const (
	CurrencySats Currency = "SATS"
	CurrencyBTC  Currency = "BTC"
	CurrencyUSD  Currency = "USD"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencySats, CurrencyBTC, CurrencyUSD:
		return true
	}
	return false
}

// ParsedRecipient is one data row of the uploaded CSV after normalization.
// AmountSats is nil when the row was priced in USD and still needs a live
// exchange-rate conversion.
type ParsedRecipient struct {
	RowNumber       int           `json:"row_number"`
	Original        string        `json:"original"`
	Kind            RecipientKind `json:"kind"`
	Identifier      string        `json:"identifier"`
	RequestedAmount float64       `json:"requested_amount"`
	AmountSats      *int64        `json:"amount_sats,omitempty"`
	Currency        Currency      `json:"currency"`
	Memo            string        `json:"memo,omitempty"`
}

// ParseError records a row that was excluded from the batch.
type ParseError struct {
	RowNumber int    `json:"row_number"`
	Message   string `json:"message"`
}

// ParseSummary counts accepted records by kind.
type ParseSummary struct {
	Total             int `json:"total"`
	IntraLedger       int `json:"intraledger"`
	LightningAddress  int `json:"lightning_address"`
	LNURL             int `json:"lnurl"`
	PendingConversion int `json:"pending_conversion"`
}

// ParseResult is the parser output: accepted records plus row-level errors.
type ParseResult struct {
	Records []ParsedRecipient `json:"records"`
	Errors  []ParseError      `json:"errors"`
	Summary ParseSummary      `json:"summary"`
}

// LnurlPayDescriptor is the validated LUD-06 callback for an external route.
// Sendable bounds are in millisatoshi, as on the wire.
type LnurlPayDescriptor struct {
	Callback    string `json:"callback"`
	MinSendable int64  `json:"min_sendable"`
	MaxSendable int64  `json:"max_sendable"`
	Metadata    string `json:"metadata,omitempty"`
}

// RecipientError carries a machine-readable code alongside the human message
// so callers can offer per-code handling such as "retry failed only".
type RecipientError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ValidationResult is produced exactly once per recipient.
//
// Invariant: Valid implies exactly one of WalletID (internal route) or
// Callback (external route) is populated, never both.
type ValidationResult struct {
	Recipient ParsedRecipient     `json:"recipient"`
	Valid     bool                `json:"valid"`
	WalletID  string              `json:"wallet_id,omitempty"`
	Callback  *LnurlPayDescriptor `json:"callback,omitempty"`
	Err       *RecipientError     `json:"error,omitempty"`
}

// InternalRoute reports whether the recipient settles on the home ledger.
func (v ValidationResult) InternalRoute() bool { return v.WalletID != "" }

// ValidationSummary groups outcomes by error code and recipient kind.
type ValidationSummary struct {
	Total   int                   `json:"total"`
	Valid   int                   `json:"valid"`
	Invalid int                   `json:"invalid"`
	ByCode  map[ErrorCode]int     `json:"by_code,omitempty"`
	ByKind  map[RecipientKind]int `json:"by_kind,omitempty"`
}

// ValidationReport aggregates per-recipient results for one batch.
type ValidationReport struct {
	Results []ValidationResult `json:"results"`
	Summary ValidationSummary  `json:"summary"`
}

// FeeEstimate is a heuristic projection, never a quote. Real routing fees are
// learned at payment time and are not fed back into the estimate.
type FeeEstimate struct {
	Recipient  ParsedRecipient `json:"recipient"`
	Internal   bool            `json:"internal"`
	FeeSats    int64           `json:"fee_sats"`
	FeePercent float64         `json:"fee_percent"`
	Estimate   bool            `json:"estimate"`
}

// FeeBreakdown aggregates estimates by route class.
type FeeBreakdown struct {
	InternalCount     int     `json:"internal_count"`
	InternalSats      int64   `json:"internal_sats"`
	ExternalCount     int     `json:"external_count"`
	ExternalSats      int64   `json:"external_sats"`
	ExternalFeeSats   int64   `json:"external_fee_sats"`
	TotalSats         int64   `json:"total_sats"`
	TotalFeeSats      int64   `json:"total_fee_sats"`
	AverageFeePercent float64 `json:"average_fee_percent"`
}

// BalanceCheck is the balance guard verdict. Shortfall is set only when the
// available balance cannot cover amounts plus estimated fees.
type BalanceCheck struct {
	RequiredSats  int64 `json:"required_sats"`
	AvailableSats int64 `json:"available_sats"`
	Sufficient    bool  `json:"sufficient"`
	RemainingSats int64 `json:"remaining_sats"`
	ShortfallSats int64 `json:"shortfall_sats,omitempty"`
}

// PaymentOutcome is the terminal record for one attempted recipient, written
// exactly once.
type PaymentOutcome struct {
	Recipient ParsedRecipient `json:"recipient"`
	Success   bool            `json:"success"`
	Status    string          `json:"status,omitempty"`
	FeeSats   int64           `json:"fee_sats"`
	Err       *RecipientError `json:"error,omitempty"`
}

// BatchSummary carries counters and totals for a completed batch. Totals are
// derived from successful outcomes only.
type BatchSummary struct {
	Total      int   `json:"total"`
	Successful int   `json:"successful"`
	Failed     int   `json:"failed"`
	SatsSent   int64 `json:"sats_sent"`
	FeesPaid   int64 `json:"fees_paid"`
}

// BatchResult aggregates all outcomes of one execution run. It is created
// fresh per invocation and never persisted as resumable state.
type BatchResult struct {
	ID       uuid.UUID        `json:"id"`
	Outcomes []PaymentOutcome `json:"outcomes"`
	Summary  BatchSummary     `json:"summary"`
}

// Progress is handed to the caller's callback after every payment attempt.
// It is the only externally observable intermediate state of a running batch.
type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Successful int     `json:"successful"`
	Failed     int     `json:"failed"`
	Percent    float64 `json:"percent"`
}
