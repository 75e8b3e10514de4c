package domain

import "errors"

// Sentinel errors for lifecycle rule violations. Services wrap these into
// typed apperr errors for HTTP mapping; callers test with errors.Is.
var (
	// ErrInvalidTransition means the requested stage is not reachable from
	// the candidate's current stage.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrNoActivePlacement means a renege was requested for a candidate
	// without an associated offer or placement.
	ErrNoActivePlacement = errors.New("no active placement")

	// ErrAlreadyReneged means the candidate was reneged before. Reneging is
	// irreversible and must not be re-applied.
	ErrAlreadyReneged = errors.New("candidate already reneged")

	// ErrConcurrentModification means a mutation lost a version race and the
	// caller should retry against fresh state.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrDataIntegrity means the stored state violates a lifecycle
	// precondition, e.g. joining without a recorded offer.
	ErrDataIntegrity = errors.New("data integrity violation")
)
