// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"talenttrack_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Candidate Lifecycle Events
// =============================================================================

// CandidateCreated is published when a candidate enters the pipeline.
type CandidateCreated struct {
	BaseEvent
	CandidateID   uuid.UUID `json:"candidateId"`
	JobID         uuid.UUID `json:"jobId"`
	RecruiterID   uuid.UUID `json:"recruiterId"`
	CandidateName string    `json:"candidateName"`
}

func (e CandidateCreated) EventName() string { return "candidates.candidate.created" }

// CandidateStageChanged is published after every successful stage transition.
type CandidateStageChanged struct {
	BaseEvent
	CandidateID   uuid.UUID `json:"candidateId"`
	CandidateName string    `json:"candidateName"`
	RecruiterID   uuid.UUID `json:"recruiterId"`
	FromStage     string    `json:"fromStage"`
	ToStage       string    `json:"toStage"`
}

func (e CandidateStageChanged) EventName() string { return "candidates.stage.changed" }

// PlacementConfirmed is published when a candidate reaches joined and the
// guarantee period opens.
type PlacementConfirmed struct {
	BaseEvent
	CandidateID   uuid.UUID `json:"candidateId"`
	CandidateName string    `json:"candidateName"`
	RecruiterID   uuid.UUID `json:"recruiterId"`
	RevenueEarned float64   `json:"revenueEarned"`
	GuaranteeEnds time.Time `json:"guaranteeEnds"`
}

func (e PlacementConfirmed) EventName() string { return "candidates.placement.confirmed" }

// CandidateReneged is published when a joined candidate backs out inside the
// guarantee period.
type CandidateReneged struct {
	BaseEvent
	CandidateID    uuid.UUID `json:"candidateId"`
	CandidateName  string    `json:"candidateName"`
	RecruiterID    uuid.UUID `json:"recruiterId"`
	Reason         string    `json:"reason"`
	RevenueCleared float64   `json:"revenueCleared"`
}

func (e CandidateReneged) EventName() string { return "candidates.placement.reneged" }

// =============================================================================
// Placement Safety Events
// =============================================================================

// PlacementAtRisk is published when a sweep flags a placement approaching the
// end of its guarantee period without a recent follow-up.
type PlacementAtRisk struct {
	BaseEvent
	CandidateID   uuid.UUID `json:"candidateId"`
	CandidateName string    `json:"candidateName"`
	RecruiterID   uuid.UUID `json:"recruiterId"`
	GuaranteeEnds time.Time `json:"guaranteeEnds"`
}

func (e PlacementAtRisk) EventName() string { return "placements.safety.at_risk" }

// PlacementFollowUpDue is published when a scheduled follow-up reminder
// fires for a placement still inside its guarantee period.
type PlacementFollowUpDue struct {
	BaseEvent
	CandidateID   uuid.UUID `json:"candidateId"`
	CandidateName string    `json:"candidateName"`
	RecruiterID   uuid.UUID `json:"recruiterId"`
	GuaranteeEnds time.Time `json:"guaranteeEnds"`
}

func (e PlacementFollowUpDue) EventName() string { return "placements.followup.due" }

// GuaranteeCompleted is published when a placement survives its full
// guarantee period and the revenue is secured.
type GuaranteeCompleted struct {
	BaseEvent
	CandidateID   uuid.UUID `json:"candidateId"`
	CandidateName string    `json:"candidateName"`
	RecruiterID   uuid.UUID `json:"recruiterId"`
}

func (e GuaranteeCompleted) EventName() string { return "placements.safety.guarantee_completed" }

// =============================================================================
// Resume Events
// =============================================================================

// ResumeProcessed is published after a resume upload is parsed and a candidate
// record is created from it.
type ResumeProcessed struct {
	BaseEvent
	CandidateID uuid.UUID `json:"candidateId"`
	JobID       uuid.UUID `json:"jobId"`
	ObjectKey   string    `json:"objectKey"`
	FileName    string    `json:"fileName"`
}

func (e ResumeProcessed) EventName() string { return "resumes.resume.processed" }
