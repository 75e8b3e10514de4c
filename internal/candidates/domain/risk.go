package domain

import "time"

// RiskBand classifies how urgently a guarantee window needs attention.
type RiskBand string

// Risk bands with inclusive day thresholds. Banding lives here so every
// view uses the same thresholds; callers must not re-derive it.
const (
	RiskBandCritical RiskBand = "critical" // <= 7 days remaining
	RiskBandHigh     RiskBand = "high"     // <= 15 days
	RiskBandElevated RiskBand = "elevated" // <= 30 days
	RiskBandNormal   RiskBand = "normal"
)

// BandFor returns the risk band for the given days remaining.
func BandFor(daysRemaining int) RiskBand {
	switch {
	case daysRemaining <= 7:
		return RiskBandCritical
	case daysRemaining <= 15:
		return RiskBandHigh
	case daysRemaining <= 30:
		return RiskBandElevated
	default:
		return RiskBandNormal
	}
}

// DaysRemaining computes max(0, guaranteeEnds − now) in whole calendar days.
// This is always derived at query time and never stored.
func DaysRemaining(guaranteeEnds, now time.Time) int {
	end := toDate(guaranteeEnds)
	today := toDate(now)
	days := int(end.Sub(today) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

func toDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
