package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is what the lifecycle and safety services need from persistence.
// *Repository is the pgx implementation; tests substitute an in-memory fake.
type Store interface {
	CreateCandidate(ctx context.Context, params CreateCandidateParams) (Candidate, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (Candidate, error)
	ListCandidates(ctx context.Context, params ListParams) ([]Candidate, error)
	ApplyTransition(ctx context.Context, params TransitionParams) (Candidate, error)
	ApplyRenege(ctx context.Context, params RenegeParams) (Candidate, error)

	CreateOffer(ctx context.Context, params CreateOfferParams) (Offer, error)
	GetOfferByCandidate(ctx context.Context, candidateID uuid.UUID) (Offer, error)

	GetSafetyRecord(ctx context.Context, candidateID uuid.UUID) (SafetyRecord, error)
	ListActiveSafety(ctx context.Context, scope SafetyScope) ([]ActiveSafetyRow, error)
	ExpireGuarantees(ctx context.Context, now time.Time) ([]GuaranteeOutcome, error)
	FlagAtRisk(ctx context.Context, now time.Time, thresholdDays int) ([]GuaranteeOutcome, error)
	RecordFollowUp(ctx context.Context, params FollowUpParams) (SafetyRecord, error)

	AppendTimelineEntry(ctx context.Context, params TimelineParams) (TimelineEntry, error)
	ListTimeline(ctx context.Context, candidateID uuid.UUID) ([]TimelineEntry, error)
}

var _ Store = (*Repository)(nil)
