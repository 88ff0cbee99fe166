// Package balance compares a batch's total requirement against the sending
// wallet's available balance before any payment is attempted.
package balance

import (
	"satpay/internal/batch/models"
)

// Check compares amounts plus estimated fees against the available balance.
// A balance exactly equal to the requirement is sufficient.
func Check(breakdown models.FeeBreakdown, availableSats int64) models.BalanceCheck {
	required := breakdown.TotalSats + breakdown.TotalFeeSats
	check := models.BalanceCheck{
		RequiredSats:  required,
		AvailableSats: availableSats,
	}
	if availableSats >= required {
		check.Sufficient = true
		check.RemainingSats = availableSats - required
		return check
	}
	check.ShortfallSats = required - availableSats
	return check
}
