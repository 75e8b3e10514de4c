package domain

import "math"

// RoundCurrency rounds to two decimal places for currency display.
// CTC figures are expressed in lakhs per annum, so two decimals is the
// finest granularity any client contract uses.
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeRevenue derives placement revenue from the offer's fixed CTC and
// the client's agreed fee percentage. The result is never negative.
// Callers must guard against a missing offer: joining without one is a data
// integrity error, not a zero-revenue placement.
func ComputeRevenue(fixedCTC, feePercentage float64) float64 {
	revenue := RoundCurrency(fixedCTC * feePercentage / 100)
	if revenue < 0 {
		return 0
	}
	return revenue
}
