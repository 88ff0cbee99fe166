// Package ports defines shared interfaces for the batch module. Interfaces
// live here when consumed by more than one service to avoid duplication.
package ports

import (
	"context"
	"time"

	"satpay/internal/batch/models"
)

// LedgerClient is the remote GraphQL ledger at its interface boundary. Its
// internal consistency guarantees are assumed, not designed here.
type LedgerClient interface {
	// DefaultWalletID resolves an account handle to its default settlement
	// wallet. Returns sentinel.ErrNotFound when the handle does not exist.
	DefaultWalletID(ctx context.Context, handle string) (string, error)

	// SendIntraLedger settles wallet-to-wallet on the home ledger. Zero fee,
	// memo supported.
	SendIntraLedger(ctx context.Context, walletID string, sats int64, memo string) (status string, err error)

	// SendToLnAddress pays a LUD-16 Lightning Address.
	SendToLnAddress(ctx context.Context, address string, sats int64) (status string, err error)

	// PayInvoice pays a BOLT-11 payment request.
	PayInvoice(ctx context.Context, paymentRequest string) (status string, err error)
}

// LnurlFetcher performs the LUD-06 flow against external services.
type LnurlFetcher interface {
	// FetchPayParams GETs a LNURL-pay endpoint and returns its descriptor.
	FetchPayParams(ctx context.Context, url string) (*models.LnurlPayDescriptor, error)

	// FetchInvoice requests a one-time invoice from a validated callback,
	// amount in millisatoshi.
	FetchInvoice(ctx context.Context, callback string, msat int64) (paymentRequest string, err error)
}

// OutcomeStore persists terminal payment outcomes for audit. Append-only;
// never consulted to resume a batch.
type OutcomeStore interface {
	Append(ctx context.Context, batchID string, outcome models.PaymentOutcome) error
	ListByBatch(ctx context.Context, batchID string) ([]models.PaymentOutcome, error)
}

// RateSource provides the live BTC/USD exchange rate.
type RateSource interface {
	// SatsPerUSD returns how many satoshis one US dollar buys right now.
	SatsPerUSD(ctx context.Context) (float64, error)
}

// Clock abstracts sleeping so delay behavior is testable without real waits.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Sleep waits for d or until ctx is done, whichever comes first.
func (RealClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ProgressFunc receives progress after every completed payment attempt.
type ProgressFunc func(models.Progress)
