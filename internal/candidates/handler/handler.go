// Package handler exposes the candidate lifecycle and placement safety HTTP
// endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"talenttrack_backend/internal/candidates/domain"
	"talenttrack_backend/internal/candidates/lifecycle"
	"talenttrack_backend/internal/candidates/repository"
	"talenttrack_backend/internal/candidates/safety"
	"talenttrack_backend/internal/candidates/transport"
	"talenttrack_backend/platform/httpkit"
	"talenttrack_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid candidate ID"
)

type Handler struct {
	lifecycle *lifecycle.Service
	safety    *safety.Service
	val       *validator.Validator
}

func New(lc *lifecycle.Service, sf *safety.Service, val *validator.Validator) *Handler {
	return &Handler{lifecycle: lc, safety: sf, val: val}
}

func actorFrom(identity httpkit.Identity) lifecycle.Actor {
	return lifecycle.Actor{ID: identity.UserID(), Name: identity.Name()}
}

// Create adds a candidate to the pipeline.
// POST /api/v1/candidates
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid job ID", nil)
		return
	}
	var teamID *uuid.UUID
	if req.TeamID != nil {
		parsed, err := uuid.Parse(*req.TeamID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid team ID", nil)
			return
		}
		teamID = &parsed
	}

	candidate, err := h.lifecycle.Create(c.Request.Context(), lifecycle.CreateParams{
		JobID:                jobID,
		TeamID:               teamID,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		Phone:                req.Phone,
		TotalExperienceYears: req.TotalExperienceYears,
		CurrentCTC:           req.CurrentCTC,
		ExpectedCTC:          req.ExpectedCTC,
	}, actorFrom(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToCandidateResponse(candidate))
}

// List returns candidates matching the query filters.
// GET /api/v1/candidates
func (h *Handler) List(c *gin.Context) {
	var query transport.ListCandidatesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	params := repository.ListParams{Limit: query.Limit, Offset: query.Offset}
	if query.Mine {
		recruiterID := identity.UserID()
		params.RecruiterID = &recruiterID
	}
	if query.JobID != "" {
		jobID, err := uuid.Parse(query.JobID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid job ID", nil)
			return
		}
		params.JobID = &jobID
	}
	if query.Stage != "" {
		if !domain.IsKnownStage(query.Stage) {
			httpkit.Error(c, http.StatusBadRequest, "unknown stage", nil)
			return
		}
		stage := query.Stage
		params.Stage = &stage
	}

	items, err := h.lifecycle.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"candidates": transport.ToCandidateResponses(items)})
}

// Get returns one candidate.
// GET /api/v1/candidates/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	candidate, err := h.lifecycle.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCandidateResponse(candidate))
}

// Transition moves a candidate to the next stage.
// POST /api/v1/candidates/:id/transition
func (h *Handler) Transition(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	candidate, err := h.lifecycle.Transition(c.Request.Context(), lifecycle.TransitionParams{
		CandidateID:     id,
		ToStage:         req.ToStage,
		ExpectedVersion: req.ExpectedVersion,
		Note:            req.Note,
	}, actorFrom(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCandidateResponse(candidate))
}

// RecordOffer stores the offer terms for a candidate at the offer_made stage.
// POST /api/v1/candidates/:id/offer
func (h *Handler) RecordOffer(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	var req transport.RecordOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	offer, err := h.lifecycle.RecordOffer(c.Request.Context(), lifecycle.RecordOfferParams{
		CandidateID: id,
		FixedCTC:    req.FixedCTC,
		Notes:       req.Notes,
	}, actorFrom(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToOfferResponse(offer))
}

// Renege processes a candidate backing out of an offered or joined placement.
// POST /api/v1/candidates/:id/renege
func (h *Handler) Renege(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	var req transport.RenegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	candidate, err := h.lifecycle.Renege(c.Request.Context(), lifecycle.RenegeParams{
		CandidateID:     id,
		RenegeType:      req.RenegeType,
		Reason:          req.Reason,
		RenegeDate:      req.RenegeDate,
		ExpectedVersion: req.ExpectedVersion,
	}, actorFrom(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCandidateResponse(candidate))
}

// Timeline returns a candidate's activity history.
// GET /api/v1/candidates/:id/timeline
func (h *Handler) Timeline(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	entries, err := h.lifecycle.Timeline(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"timeline": transport.ToTimelineResponses(entries)})
}

// AddNote appends a free-form note to the candidate timeline.
// POST /api/v1/candidates/:id/notes
func (h *Handler) AddNote(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	var req transport.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	entry, err := h.lifecycle.AddNote(c.Request.Context(), id, req.Note, actorFrom(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, entry)
}

// GetSafety returns the placement safety record with derived risk fields.
// GET /api/v1/candidates/:id/safety
func (h *Handler) GetSafety(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	rec, err := h.safety.GetRecord(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSafetyResponse(rec))
}

// RecordFollowUp stamps a check-in on an open placement.
// POST /api/v1/candidates/:id/safety/follow-up
func (h *Handler) RecordFollowUp(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	var req transport.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	rec, err := h.safety.RecordFollowUp(c.Request.Context(), safety.FollowUpParams{
		CandidateID: id,
		Notes:       req.Notes,
		ActorName:   identity.Name(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSafetyResponse(rec))
}

// ListAtRisk returns open placements ordered by urgency.
// GET /api/v1/placements/at-risk
func (h *Handler) ListAtRisk(c *gin.Context) {
	var query transport.AtRiskQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	scope := repository.SafetyScope{}
	if query.Scope != "all" {
		recruiterID := identity.UserID()
		scope.RecruiterID = &recruiterID
	}
	if query.TeamID != "" {
		teamID, err := uuid.Parse(query.TeamID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid team ID", nil)
			return
		}
		scope.TeamID = &teamID
		scope.RecruiterID = nil
	}

	items, err := h.safety.ListAtRisk(c.Request.Context(), scope)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"placements": items})
}

func (h *Handler) candidateID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func toSafetyResponse(rec repository.SafetyRecord) transport.SafetyRecordResponse {
	days := domain.DaysRemaining(rec.GuaranteePeriodEnds, time.Now())
	return transport.SafetyRecordResponse{
		ID:                  rec.ID,
		CandidateID:         rec.CandidateID,
		PlacementDate:       rec.PlacementDate,
		GuaranteePeriodDays: rec.GuaranteePeriodDays,
		GuaranteePeriodEnds: rec.GuaranteePeriodEnds,
		SafetyStatus:        rec.SafetyStatus,
		DaysRemaining:       days,
		RiskBand:            string(domain.BandFor(days)),
		LastFollowupDate:    rec.LastFollowupDate,
		RiskNotes:           rec.RiskNotes,
	}
}
