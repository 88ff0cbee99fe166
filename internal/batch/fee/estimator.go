// Package fee projects routing costs for validated recipients. Estimates are
// heuristics: internal routes are always free, external routes use a flat
// rate clamped between a floor and a ceiling. Real routing fees are learned
// only at payment time.
package fee

import (
	"math"

	"satpay/internal/batch/config"
	"satpay/internal/batch/models"
)

// Estimator computes per-recipient and aggregate fee projections.
type Estimator struct {
	cfg config.Config
}

func NewEstimator(cfg config.Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate projects the fee for one validated recipient. The recipient's
// AmountSats must be resolved by this point.
func (e *Estimator) Estimate(result models.ValidationResult) models.FeeEstimate {
	est := models.FeeEstimate{
		Recipient: result.Recipient,
		Internal:  result.InternalRoute(),
		Estimate:  true,
	}

	var amount int64
	if result.Recipient.AmountSats != nil {
		amount = *result.Recipient.AmountSats
	}

	if est.Internal || amount == 0 {
		return est
	}

	fee := int64(math.Ceil(float64(amount) * e.cfg.ExternalFeeRate))
	if fee < e.cfg.MinFeeSats {
		fee = e.cfg.MinFeeSats
	}
	if ceiling := int64(math.Ceil(float64(amount) * e.cfg.MaxFeeRate)); fee > ceiling {
		fee = ceiling
	}

	est.FeeSats = fee
	est.FeePercent = float64(fee) / float64(amount) * 100
	return est
}

// EstimateAll projects fees for every valid recipient and aggregates a
// breakdown by route class.
func (e *Estimator) EstimateAll(results []models.ValidationResult) ([]models.FeeEstimate, models.FeeBreakdown) {
	estimates := make([]models.FeeEstimate, 0, len(results))
	var breakdown models.FeeBreakdown

	for _, r := range results {
		if !r.Valid {
			continue
		}
		est := e.Estimate(r)
		estimates = append(estimates, est)

		var amount int64
		if r.Recipient.AmountSats != nil {
			amount = *r.Recipient.AmountSats
		}
		if est.Internal {
			breakdown.InternalCount++
			breakdown.InternalSats += amount
		} else {
			breakdown.ExternalCount++
			breakdown.ExternalSats += amount
			breakdown.ExternalFeeSats += est.FeeSats
		}
	}

	breakdown.TotalSats = breakdown.InternalSats + breakdown.ExternalSats
	breakdown.TotalFeeSats = breakdown.ExternalFeeSats
	if breakdown.TotalSats > 0 {
		breakdown.AverageFeePercent = float64(breakdown.TotalFeeSats) / float64(breakdown.TotalSats) * 100
	}
	return estimates, breakdown
}
