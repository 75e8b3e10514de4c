// Package lifecycle implements the candidate stage machine: guarded
// transitions, offer registration, placement confirmation and renege
// processing, with optimistic concurrency against the store.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talenttrack_backend/internal/candidates/domain"
	"talenttrack_backend/internal/candidates/ports"
	"talenttrack_backend/internal/candidates/repository"
	ievents "talenttrack_backend/internal/events"
	"talenttrack_backend/platform/apperr"
	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/logger"
	"talenttrack_backend/platform/phone"

	"github.com/google/uuid"
)

// retryAttempts bounds the automatic retry loop for version conflicts when the
// caller did not pin an expected version. Conflicts with a pinned version are
// surfaced immediately.
const retryAttempts = 3

// Actor identifies who performed a mutation, for timeline attribution.
type Actor struct {
	ID   uuid.UUID
	Name string
}

type Service struct {
	store     repository.Store
	feeTerms  ports.FeeTermsReader
	followups ports.FollowUpScheduler
	bus       ievents.Bus
	log       *logger.Logger
	cfg       config.PlacementConfig
	now       func() time.Time
}

func NewService(
	store repository.Store,
	feeTerms ports.FeeTermsReader,
	followups ports.FollowUpScheduler,
	bus ievents.Bus,
	log *logger.Logger,
	cfg config.PlacementConfig,
) *Service {
	return &Service{
		store:     store,
		feeTerms:  feeTerms,
		followups: followups,
		bus:       bus,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

type CreateParams struct {
	JobID                uuid.UUID
	TeamID               *uuid.UUID
	FirstName            string
	LastName             string
	Email                *string
	Phone                string
	TotalExperienceYears float64
	CurrentCTC           *float64
	ExpectedCTC          *float64
}

// Create adds a candidate to the pipeline at the sourced stage. The phone
// number is normalized to E.164 before storage.
func (s *Service) Create(ctx context.Context, params CreateParams, actor Actor) (repository.Candidate, error) {
	const op = "lifecycle.Create"

	normalized := phone.NormalizeE164(params.Phone)
	if normalized == "" {
		return repository.Candidate{}, apperr.Validation("phone number is required").WithOp(op)
	}

	candidate, err := s.store.CreateCandidate(ctx, repository.CreateCandidateParams{
		JobID:                params.JobID,
		RecruiterID:          actor.ID,
		TeamID:               params.TeamID,
		FirstName:            params.FirstName,
		LastName:             params.LastName,
		Email:                params.Email,
		Phone:                normalized,
		TotalExperienceYears: params.TotalExperienceYears,
		CurrentCTC:           params.CurrentCTC,
		ExpectedCTC:          params.ExpectedCTC,
		Timeline: repository.TimelineParams{
			ActivityType: repository.ActivityCandidateCreated,
			Title:        repository.TitleCandidateCreated,
			ActorType:    repository.ActorTypeRecruiter,
			ActorName:    actor.Name,
			Metadata:     map[string]any{"stage": domain.StageSourced},
		},
	})
	if err != nil {
		return repository.Candidate{}, apperr.Wrap(apperr.KindInternal, "failed to create candidate", err).WithOp(op)
	}

	s.bus.Publish(ctx, ievents.CandidateCreated{
		BaseEvent:     ievents.NewBaseEvent(),
		CandidateID:   candidate.ID,
		JobID:         candidate.JobID,
		RecruiterID:   candidate.RecruiterID,
		CandidateName: candidate.FullName(),
	})
	return candidate, nil
}

// Get returns one candidate.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Candidate, error) {
	candidate, err := s.store.GetCandidate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Candidate{}, apperr.NotFound("candidate not found")
	}
	if err != nil {
		return repository.Candidate{}, apperr.Wrap(apperr.KindInternal, "failed to load candidate", err)
	}
	return candidate, nil
}

// List returns candidates matching the filters.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Candidate, error) {
	items, err := s.store.ListCandidates(ctx, params)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list candidates", err)
	}
	return items, nil
}

type RecordOfferParams struct {
	CandidateID uuid.UUID
	FixedCTC    float64
	Notes       string
}

// RecordOffer stores the commercial terms of an offer. The candidate must
// already be at the offer_made stage; the fixed CTC is the fee base when the
// placement lands.
func (s *Service) RecordOffer(ctx context.Context, params RecordOfferParams, actor Actor) (repository.Offer, error) {
	const op = "lifecycle.RecordOffer"

	if params.FixedCTC <= 0 {
		return repository.Offer{}, apperr.Validation("fixed CTC must be positive").WithOp(op)
	}

	candidate, err := s.Get(ctx, params.CandidateID)
	if err != nil {
		return repository.Offer{}, err
	}
	if candidate.CurrentStage != domain.StageOfferMade {
		return repository.Offer{}, apperr.Validation(
			fmt.Sprintf("offer terms can only be recorded at the %s stage, candidate is at %s", domain.StageOfferMade, candidate.CurrentStage),
		).WithOp(op)
	}

	offer, err := s.store.CreateOffer(ctx, repository.CreateOfferParams{
		CandidateID: params.CandidateID,
		FixedCTC:    params.FixedCTC,
		Notes:       params.Notes,
		Timeline: repository.TimelineParams{
			ActivityType: repository.ActivityOfferRecorded,
			Title:        repository.TitleOfferRecorded,
			Description:  repository.TruncateDescription(params.Notes, repository.TimelineDescriptionMaxLen),
			ActorType:    repository.ActorTypeRecruiter,
			ActorName:    actor.Name,
			Metadata:     map[string]any{"fixedCtc": params.FixedCTC},
		},
	})
	if err != nil {
		return repository.Offer{}, apperr.Wrap(apperr.KindInternal, "failed to record offer", err).WithOp(op)
	}
	return offer, nil
}

type TransitionParams struct {
	CandidateID uuid.UUID
	ToStage     string
	// ExpectedVersion pins the candidate version the caller last observed.
	// Nil means "latest": the service resolves the version itself and retries
	// a bounded number of times on conflict.
	ExpectedVersion *int64
	Note            string
}

// Transition moves a candidate one step through the pipeline. Reaching joined
// computes the placement revenue from the recorded offer and the job's fee
// terms, opens the guarantee-period safety record and schedules a follow-up
// reminder.
func (s *Service) Transition(ctx context.Context, params TransitionParams, actor Actor) (repository.Candidate, error) {
	const op = "lifecycle.Transition"

	if !domain.IsKnownStage(params.ToStage) {
		return repository.Candidate{}, apperr.Validation(fmt.Sprintf("unknown stage %q", params.ToStage)).WithOp(op)
	}

	var candidate repository.Candidate
	err := s.withVersionRetry(ctx, params.ExpectedVersion, func(current repository.Candidate) error {
		if err := domain.ValidateTransition(current.CurrentStage, params.ToStage); err != nil {
			return apperr.Wrap(apperr.KindValidation, err.Error(), err).WithOp(op)
		}

		txn := repository.TransitionParams{
			CandidateID:     current.ID,
			ExpectedVersion: current.Version,
			ToStage:         params.ToStage,
			OccurredAt:      s.now().UTC(),
			Timeline: repository.TimelineParams{
				ActivityType: repository.ActivityStageChanged,
				Title:        repository.TitleStageChanged,
				Description:  repository.TruncateDescription(params.Note, repository.TimelineDescriptionMaxLen),
				ActorType:    repository.ActorTypeRecruiter,
				ActorName:    actor.Name,
				Metadata:     map[string]any{"fromStage": current.CurrentStage, "toStage": params.ToStage},
			},
		}

		var confirmed *ievents.PlacementConfirmed
		switch params.ToStage {
		case domain.StageOfferAccepted:
			if _, err := s.store.GetOfferByCandidate(ctx, current.ID); err != nil {
				if errors.Is(err, repository.ErrOfferNotFound) {
					return apperr.Validation("cannot accept an offer before its terms are recorded").WithOp(op)
				}
				return apperr.Wrap(apperr.KindInternal, "failed to load offer", err).WithOp(op)
			}
			accepted := domain.OfferStatusAccepted
			txn.OfferStatus = &accepted

		case domain.StageJoined:
			offer, err := s.store.GetOfferByCandidate(ctx, current.ID)
			if errors.Is(err, repository.ErrOfferNotFound) {
				return apperr.Validation("cannot mark joined without a recorded offer").WithOp(op)
			}
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to load offer", err).WithOp(op)
			}

			terms, err := s.feeTerms.FeeTermsForJob(ctx, current.JobID)
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to resolve fee terms", err).WithOp(op)
			}

			revenue := domain.ComputeRevenue(offer.FixedCTC, terms.FeePercentage)
			placementDate := txn.OccurredAt
			guaranteeEnds := placementDate.AddDate(0, 0, terms.GuaranteePeriodDays)
			active := domain.PlacementStatusActive

			txn.RevenueEarned = &revenue
			txn.PlacementStatus = &active
			txn.Safety = &repository.NewSafetyRecord{
				GuaranteePeriodDays: terms.GuaranteePeriodDays,
				GuaranteePeriodEnds: guaranteeEnds,
			}
			txn.Timeline.ActivityType = repository.ActivityPlacementConfirmed
			txn.Timeline.Title = repository.TitlePlacementConfirmed
			txn.Timeline.Metadata["revenueEarned"] = revenue
			txn.Timeline.Metadata["guaranteeEnds"] = guaranteeEnds

			confirmed = &ievents.PlacementConfirmed{
				BaseEvent:     ievents.NewBaseEvent(),
				CandidateID:   current.ID,
				CandidateName: current.FullName(),
				RecruiterID:   current.RecruiterID,
				RevenueEarned: revenue,
				GuaranteeEnds: guaranteeEnds,
			}
		}

		updated, err := s.store.ApplyTransition(ctx, txn)
		if err != nil {
			return err
		}
		candidate = updated

		s.bus.Publish(ctx, ievents.CandidateStageChanged{
			BaseEvent:     ievents.NewBaseEvent(),
			CandidateID:   updated.ID,
			CandidateName: updated.FullName(),
			RecruiterID:   updated.RecruiterID,
			FromStage:     current.CurrentStage,
			ToStage:       params.ToStage,
		})
		if confirmed != nil {
			s.bus.Publish(ctx, *confirmed)
			s.scheduleFollowUp(ctx, updated, confirmed.GuaranteeEnds)
		}
		return nil
	}, params.CandidateID)
	if err != nil {
		return repository.Candidate{}, err
	}
	return candidate, nil
}

type RenegeParams struct {
	CandidateID     uuid.UUID
	RenegeType      string
	Reason          string
	RenegeDate      *time.Time
	ExpectedVersion *int64
}

// Renege records that a candidate holding an offer backed out, before or after
// joining: revenue is cleared, the placement is lost and the candidate lands
// in the dropped terminal stage. Irreversible.
func (s *Service) Renege(ctx context.Context, params RenegeParams, actor Actor) (repository.Candidate, error) {
	const op = "lifecycle.Renege"

	if params.Reason == "" {
		return repository.Candidate{}, apperr.Validation("renege reason is required").WithOp(op)
	}
	if !domain.IsKnownRenegeType(params.RenegeType) {
		return repository.Candidate{}, apperr.Validation("unknown renege type: " + params.RenegeType).WithOp(op)
	}
	renegeDate := s.now().UTC()
	if params.RenegeDate != nil {
		renegeDate = params.RenegeDate.UTC()
	}

	var candidate repository.Candidate
	err := s.withVersionRetry(ctx, params.ExpectedVersion, func(current repository.Candidate) error {
		if current.IsRenege {
			return apperr.Wrap(apperr.KindConflict, "candidate has already reneged", domain.ErrAlreadyReneged).WithOp(op)
		}
		// A renege needs a placement to reverse: at minimum a recorded offer.
		if _, err := s.store.GetOfferByCandidate(ctx, current.ID); err != nil {
			if errors.Is(err, repository.ErrOfferNotFound) {
				return apperr.Wrap(apperr.KindValidation, "candidate has no placement to renege", domain.ErrNoActivePlacement).WithOp(op)
			}
			return apperr.Wrap(apperr.KindInternal, "failed to load offer", err).WithOp(op)
		}

		clearedRevenue := current.RevenueEarned
		updated, err := s.store.ApplyRenege(ctx, repository.RenegeParams{
			CandidateID:     current.ID,
			ExpectedVersion: current.Version,
			RenegeType:      params.RenegeType,
			RenegeDate:      renegeDate,
			Reason:          params.Reason,
			Timeline: repository.TimelineParams{
				ActivityType: repository.ActivityCandidateReneged,
				Title:        repository.TitleCandidateReneged,
				Description:  repository.TruncateDescription(params.Reason, repository.TimelineDescriptionMaxLen),
				ActorType:    repository.ActorTypeRecruiter,
				ActorName:    actor.Name,
				Metadata: map[string]any{
					"revenue_reversed": true,
					"renege_type":      params.RenegeType,
					"revenue_cleared":  clearedRevenue,
				},
			},
		})
		if err != nil {
			return err
		}
		candidate = updated

		s.bus.Publish(ctx, ievents.CandidateReneged{
			BaseEvent:      ievents.NewBaseEvent(),
			CandidateID:    updated.ID,
			CandidateName:  updated.FullName(),
			RecruiterID:    updated.RecruiterID,
			Reason:         params.Reason,
			RevenueCleared: clearedRevenue,
		})
		return nil
	}, params.CandidateID)
	if err != nil {
		return repository.Candidate{}, err
	}
	return candidate, nil
}

// Timeline returns a candidate's activity history, newest first.
func (s *Service) Timeline(ctx context.Context, candidateID uuid.UUID) ([]repository.TimelineEntry, error) {
	if _, err := s.Get(ctx, candidateID); err != nil {
		return nil, err
	}
	entries, err := s.store.ListTimeline(ctx, candidateID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load timeline", err)
	}
	return entries, nil
}

// AddNote appends a free-form note to the candidate's timeline.
func (s *Service) AddNote(ctx context.Context, candidateID uuid.UUID, note string, actor Actor) (repository.TimelineEntry, error) {
	if note == "" {
		return repository.TimelineEntry{}, apperr.Validation("note text is required")
	}
	if _, err := s.Get(ctx, candidateID); err != nil {
		return repository.TimelineEntry{}, err
	}
	entry, err := s.store.AppendTimelineEntry(ctx, repository.TimelineParams{
		CandidateID:  candidateID,
		ActivityType: repository.ActivityNoteAdded,
		Title:        repository.TitleNoteAdded,
		Description:  repository.TruncateDescription(note, repository.TimelineDescriptionMaxLen),
		ActorType:    repository.ActorTypeRecruiter,
		ActorName:    actor.Name,
	})
	if err != nil {
		return repository.TimelineEntry{}, apperr.Wrap(apperr.KindInternal, "failed to add note", err)
	}
	return entry, nil
}

// withVersionRetry runs fn against the candidate's current row. When the
// caller pinned an expected version, a conflict surfaces immediately; when
// the caller asked for "latest", a lost race re-reads and retries up to
// retryAttempts times before giving up.
func (s *Service) withVersionRetry(ctx context.Context, pinned *int64, fn func(current repository.Candidate) error, candidateID uuid.UUID) error {
	attempts := retryAttempts
	if pinned != nil {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		current, err := s.Get(ctx, candidateID)
		if err != nil {
			return err
		}
		if pinned != nil && current.Version != *pinned {
			return apperr.Wrap(apperr.KindConflict, "candidate was modified by another request", domain.ErrConcurrentModification)
		}

		err = fn(current)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("candidate not found")
			}
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				return err
			}
			return apperr.Wrap(apperr.KindInternal, "candidate mutation failed", err)
		}
		if attempt >= attempts {
			return apperr.Wrap(apperr.KindConflict, "candidate was modified by another request", domain.ErrConcurrentModification)
		}
		s.log.Warn("retrying candidate mutation after version conflict",
			"candidateId", candidateID, "attempt", attempt)
	}
}

func (s *Service) scheduleFollowUp(ctx context.Context, candidate repository.Candidate, guaranteeEnds time.Time) {
	if s.followups == nil {
		return
	}
	remindAt := guaranteeEnds.AddDate(0, 0, -s.cfg.GetFollowupLeadDays())
	err := s.followups.ScheduleFollowUp(ctx, ports.FollowUpRequest{
		CandidateID:   candidate.ID,
		CandidateName: candidate.FullName(),
		RecruiterID:   candidate.RecruiterID,
		GuaranteeEnds: guaranteeEnds,
		RemindAt:      remindAt,
	})
	if err != nil {
		// The placement itself is committed; a missed reminder is recoverable
		// via the sweep, so log and move on.
		s.log.Error("failed to schedule placement follow-up", "candidateId", candidate.ID, "error", err)
	}
}
