// Package config holds the injected tunables for the batch payment pipeline.
// Everything that used to be a module-level constant lives here so tests can
// vary behavior without process-wide side effects.
package config

import "time"

// Config carries pipeline tunables. Zero values are not usable; construct via
// DefaultConfig and override fields as needed.
type Config struct {
	// Fee estimation.
	ExternalFeeRate float64 // flat estimated rate for external routes
	MinFeeSats      int64   // floor per external payment
	MaxFeeRate      float64 // ceiling as a fraction of the amount

	// Validation fan-out.
	ValidationWidth int           // concurrent adapter calls per chunk
	ValidationDelay time.Duration // pause between chunks

	// Execution.
	PaymentDelay time.Duration // pause between sequential payments

	// Network.
	HTTPTimeout time.Duration // per-call timeout for LNURL and ledger calls

	// CSV limits. Exceeding any of these aborts the whole batch.
	MaxFileBytes int64
	MaxRows      int

	// HomeDomains are Lightning Address domains settled as internal routes.
	HomeDomains []string

	// LenientLnurl disables bech32 checksum verification, matching wallets
	// that emit LNURLs with corrupt trailing characters.
	LenientLnurl bool

	// FXCacheTTL bounds how long a fetched USD/BTC rate is reused.
	FXCacheTTL time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ExternalFeeRate: 0.003,
		MinFeeSats:      1,
		MaxFeeRate:      0.01,
		ValidationWidth: 10,
		ValidationDelay: 100 * time.Millisecond,
		PaymentDelay:    100 * time.Millisecond,
		HTTPTimeout:     10 * time.Second,
		MaxFileBytes:    5 * 1024 * 1024,
		MaxRows:         1000,
		HomeDomains:     []string{"pay.satpay.io"},
		FXCacheTTL:      time.Minute,
	}
}

// IsHomeDomain reports whether addresses on domain settle internally.
func (c Config) IsHomeDomain(domain string) bool {
	for _, d := range c.HomeDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// HomeDomain returns the primary home domain used to synthesize Lightning
// Addresses for intraledger handles. Empty when none configured.
func (c Config) HomeDomain() string {
	if len(c.HomeDomains) == 0 {
		return ""
	}
	return c.HomeDomains[0]
}
