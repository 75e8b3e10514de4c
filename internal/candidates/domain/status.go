package domain

// Offer statuses. An offer's renege status is set in lockstep with the
// candidate's renege fields by the renege processor.
const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
	OfferStatusRenege   = "renege"
)

// Renege types distinguish a candidate who backed out of an accepted offer
// from one who left after joining, inside the guarantee period.
const (
	RenegeTypeOfferDrop   = "offer_drop"
	RenegeTypePostJoining = "post_joining"
)

// IsKnownRenegeType reports whether t is one of the recognised renege types.
func IsKnownRenegeType(t string) bool {
	return t == RenegeTypeOfferDrop || t == RenegeTypePostJoining
}

// Placement statuses on the candidate record.
const (
	PlacementStatusNone   = "none"
	PlacementStatusActive = "active"
	PlacementStatusLost   = "lost"
)

// Safety statuses on a placement safety record. Lost and safe are terminal:
// lost is only reachable via the renege processor, safe only via natural
// guarantee expiry with no renege.
const (
	SafetyStatusMonitoring = "monitoring"
	SafetyStatusAtRisk     = "at_risk"
	SafetyStatusLost       = "lost"
	SafetyStatusSafe       = "safe"
)

// IsTerminalSafetyStatus reports whether a safety record can no longer change.
func IsTerminalSafetyStatus(status string) bool {
	return status == SafetyStatusLost || status == SafetyStatusSafe
}
