// Package transport defines the request and response shapes for the
// candidates HTTP API.
package transport

import (
	"time"

	"talenttrack_backend/internal/candidates/repository"

	"github.com/google/uuid"
)

type CreateCandidateRequest struct {
	JobID                string   `json:"jobId" validate:"required,uuid"`
	TeamID               *string  `json:"teamId" validate:"omitempty,uuid"`
	FirstName            string   `json:"firstName" validate:"required,min=1,max=100"`
	LastName             string   `json:"lastName" validate:"required,min=1,max=100"`
	Email                *string  `json:"email" validate:"omitempty,email"`
	Phone                string   `json:"phone" validate:"required,min=7,max=20"`
	TotalExperienceYears float64  `json:"totalExperienceYears" validate:"gte=0,lte=50"`
	CurrentCTC           *float64 `json:"currentCtc" validate:"omitempty,gte=0"`
	ExpectedCTC          *float64 `json:"expectedCtc" validate:"omitempty,gte=0"`
}

type TransitionRequest struct {
	ToStage string `json:"toStage" validate:"required"`
	// ExpectedVersion pins the version the client last saw. Omit to apply
	// against the latest state.
	ExpectedVersion *int64 `json:"expectedVersion" validate:"omitempty,gte=1"`
	Note            string `json:"note" validate:"max=2000"`
}

type RecordOfferRequest struct {
	FixedCTC float64 `json:"fixedCtc" validate:"required,gt=0"`
	Notes    string  `json:"notes" validate:"max=2000"`
}

type RenegeRequest struct {
	RenegeType string `json:"renegeType" validate:"required,oneof=offer_drop post_joining"`
	Reason     string `json:"reason" validate:"required,min=3,max=2000"`
	// RenegeDate defaults to the time of the request when omitted.
	RenegeDate      *time.Time `json:"renegeDate"`
	ExpectedVersion *int64     `json:"expectedVersion" validate:"omitempty,gte=1"`
}

type FollowUpRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=2000"`
}

type AddNoteRequest struct {
	Note string `json:"note" validate:"required,min=1,max=2000"`
}

type ListCandidatesQuery struct {
	JobID  string `form:"jobId"`
	Stage  string `form:"stage"`
	Mine   bool   `form:"mine"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

type AtRiskQuery struct {
	// Scope is "mine" (default) or "all".
	Scope  string `form:"scope"`
	TeamID string `form:"teamId"`
}

type CandidateResponse struct {
	ID                   uuid.UUID  `json:"id"`
	JobID                uuid.UUID  `json:"jobId"`
	RecruiterID          uuid.UUID  `json:"recruiterId"`
	TeamID               *uuid.UUID `json:"teamId,omitempty"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Email                *string    `json:"email,omitempty"`
	Phone                string     `json:"phone"`
	TotalExperienceYears float64    `json:"totalExperienceYears"`
	CurrentCTC           *float64   `json:"currentCtc,omitempty"`
	ExpectedCTC          *float64   `json:"expectedCtc,omitempty"`
	CurrentStage         string     `json:"currentStage"`
	PlacementStatus      string     `json:"placementStatus"`
	RevenueEarned        float64    `json:"revenueEarned"`
	IsRenege             bool       `json:"isRenege"`
	RenegeDate           *time.Time `json:"renegeDate,omitempty"`
	RenegeReason         *string    `json:"renegeReason,omitempty"`
	IsPlacementSafe      bool       `json:"isPlacementSafe"`
	StageDates           StageDates `json:"stageDates"`
	LastActivityAt       time.Time  `json:"lastActivityAt"`
	Version              int64      `json:"version"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// StageDates exposes when each stage was reached; unvisited stages are null.
type StageDates struct {
	Sourced            time.Time  `json:"sourced"`
	Screening          *time.Time `json:"screening,omitempty"`
	InterviewScheduled *time.Time `json:"interviewScheduled,omitempty"`
	InterviewCompleted *time.Time `json:"interviewCompleted,omitempty"`
	OfferMade          *time.Time `json:"offerMade,omitempty"`
	OfferAccepted      *time.Time `json:"offerAccepted,omitempty"`
	Joined             *time.Time `json:"joined,omitempty"`
	Rejected           *time.Time `json:"rejected,omitempty"`
	Dropped            *time.Time `json:"dropped,omitempty"`
}

func ToCandidateResponse(c repository.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:                   c.ID,
		JobID:                c.JobID,
		RecruiterID:          c.RecruiterID,
		TeamID:               c.TeamID,
		FirstName:            c.FirstName,
		LastName:             c.LastName,
		Email:                c.Email,
		Phone:                c.Phone,
		TotalExperienceYears: c.TotalExperienceYears,
		CurrentCTC:           c.CurrentCTC,
		ExpectedCTC:          c.ExpectedCTC,
		CurrentStage:         c.CurrentStage,
		PlacementStatus:      c.PlacementStatus,
		RevenueEarned:        c.RevenueEarned,
		IsRenege:             c.IsRenege,
		RenegeDate:           c.RenegeDate,
		RenegeReason:         c.RenegeReason,
		IsPlacementSafe:      c.IsPlacementSafe,
		StageDates: StageDates{
			Sourced:            c.SourcedAt,
			Screening:          c.ScreeningAt,
			InterviewScheduled: c.InterviewScheduledAt,
			InterviewCompleted: c.InterviewCompletedAt,
			OfferMade:          c.OfferMadeAt,
			OfferAccepted:      c.OfferAcceptedAt,
			Joined:             c.JoinedAt,
			Rejected:           c.RejectedAt,
			Dropped:            c.DroppedAt,
		},
		LastActivityAt: c.LastActivityAt,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func ToCandidateResponses(items []repository.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, len(items))
	for i, c := range items {
		out[i] = ToCandidateResponse(c)
	}
	return out
}

type OfferResponse struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidateId"`
	FixedCTC    float64   `json:"fixedCtc"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ToOfferResponse(o repository.Offer) OfferResponse {
	return OfferResponse{
		ID:          o.ID,
		CandidateID: o.CandidateID,
		FixedCTC:    o.FixedCTC,
		Status:      o.Status,
		Notes:       o.Notes,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

type SafetyRecordResponse struct {
	ID                  uuid.UUID  `json:"id"`
	CandidateID         uuid.UUID  `json:"candidateId"`
	PlacementDate       time.Time  `json:"placementDate"`
	GuaranteePeriodDays int        `json:"guaranteePeriodDays"`
	GuaranteePeriodEnds time.Time  `json:"guaranteePeriodEnds"`
	SafetyStatus        string     `json:"safetyStatus"`
	DaysRemaining       int        `json:"daysRemaining"`
	RiskBand            string     `json:"riskBand"`
	LastFollowupDate    *time.Time `json:"lastFollowupDate,omitempty"`
	RiskNotes           *string    `json:"riskNotes,omitempty"`
}

type TimelineEntryResponse struct {
	ID           uuid.UUID      `json:"id"`
	CandidateID  uuid.UUID      `json:"candidateId"`
	ActivityType string         `json:"activityType"`
	Title        string         `json:"title"`
	Description  *string        `json:"description,omitempty"`
	ActorType    string         `json:"actorType"`
	ActorName    string         `json:"actorName"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func ToTimelineResponses(entries []repository.TimelineEntry) []TimelineEntryResponse {
	out := make([]TimelineEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = TimelineEntryResponse{
			ID:           e.ID,
			CandidateID:  e.CandidateID,
			ActivityType: e.ActivityType,
			Title:        e.Title,
			Description:  e.Description,
			ActorType:    e.ActorType,
			ActorName:    e.ActorName,
			Metadata:     e.Metadata,
			CreatedAt:    e.CreatedAt,
		}
	}
	return out
}
