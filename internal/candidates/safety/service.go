// Package safety monitors placements through their guarantee period: the
// at-risk dashboard, follow-up tracking and the expiry sweep.
package safety

import (
	"context"
	"errors"
	"sort"
	"time"

	"talenttrack_backend/internal/candidates/domain"
	"talenttrack_backend/internal/candidates/repository"
	ievents "talenttrack_backend/internal/events"
	"talenttrack_backend/platform/apperr"
	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	store repository.Store
	bus   ievents.Bus
	log   *logger.Logger
	cfg   config.PlacementConfig
	now   func() time.Time
}

func NewService(store repository.Store, bus ievents.Bus, log *logger.Logger, cfg config.PlacementConfig) *Service {
	return &Service{
		store: store,
		bus:   bus,
		log:   log,
		cfg:   cfg,
		now:   time.Now,
	}
}

// PlacementRisk is one row of the at-risk dashboard. DaysRemaining and
// RiskBand are derived from the guarantee deadline at read time, never stored.
type PlacementRisk struct {
	CandidateID      uuid.UUID  `json:"candidateId"`
	CandidateName    string     `json:"candidateName"`
	RecruiterID      uuid.UUID  `json:"recruiterId"`
	JobTitle         string     `json:"jobTitle"`
	ClientName       string     `json:"clientName"`
	PlacementDate    time.Time  `json:"placementDate"`
	GuaranteeEnds    time.Time  `json:"guaranteeEnds"`
	DaysRemaining    int        `json:"daysRemaining"`
	RiskBand         string     `json:"riskBand"`
	SafetyStatus     string     `json:"safetyStatus"`
	LastFollowupDate *time.Time `json:"lastFollowupDate,omitempty"`
	RiskNotes        *string    `json:"riskNotes,omitempty"`
}

// ListAtRisk returns the open placements in scope ordered by urgency: fewest
// days remaining first, candidate name as the tie-break.
func (s *Service) ListAtRisk(ctx context.Context, scope repository.SafetyScope) ([]PlacementRisk, error) {
	rows, err := s.store.ListActiveSafety(ctx, scope)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list placements", err)
	}

	now := s.now()
	items := make([]PlacementRisk, 0, len(rows))
	for _, row := range rows {
		days := domain.DaysRemaining(row.GuaranteePeriodEnds, now)
		items = append(items, PlacementRisk{
			CandidateID:      row.CandidateID,
			CandidateName:    row.CandidateName,
			RecruiterID:      row.RecruiterID,
			JobTitle:         row.JobTitle,
			ClientName:       row.ClientName,
			PlacementDate:    row.PlacementDate,
			GuaranteeEnds:    row.GuaranteePeriodEnds,
			DaysRemaining:    days,
			RiskBand:         string(domain.BandFor(days)),
			SafetyStatus:     row.SafetyStatus,
			LastFollowupDate: row.LastFollowupDate,
			RiskNotes:        row.RiskNotes,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].DaysRemaining != items[j].DaysRemaining {
			return items[i].DaysRemaining < items[j].DaysRemaining
		}
		return items[i].CandidateName < items[j].CandidateName
	})
	return items, nil
}

// GetRecord returns the safety record for one candidate's placement.
func (s *Service) GetRecord(ctx context.Context, candidateID uuid.UUID) (repository.SafetyRecord, error) {
	rec, err := s.store.GetSafetyRecord(ctx, candidateID)
	if errors.Is(err, repository.ErrSafetyRecordNotFound) {
		return repository.SafetyRecord{}, apperr.NotFound("no placement safety record for candidate")
	}
	if err != nil {
		return repository.SafetyRecord{}, apperr.Wrap(apperr.KindInternal, "failed to load safety record", err)
	}
	return rec, nil
}

type FollowUpParams struct {
	CandidateID uuid.UUID
	Notes       *string
	ActorName   string
}

// RecordFollowUp stamps a recruiter check-in on an open placement.
func (s *Service) RecordFollowUp(ctx context.Context, params FollowUpParams) (repository.SafetyRecord, error) {
	rec, err := s.store.RecordFollowUp(ctx, repository.FollowUpParams{
		CandidateID:  params.CandidateID,
		FollowUpDate: s.now().UTC(),
		Notes:        params.Notes,
		Timeline: repository.TimelineParams{
			ActivityType: repository.ActivityFollowUpRecorded,
			Title:        repository.TitleFollowUpRecorded,
			Description:  derefOrNil(params.Notes),
			ActorType:    repository.ActorTypeRecruiter,
			ActorName:    params.ActorName,
		},
	})
	if errors.Is(err, repository.ErrSafetyRecordNotFound) {
		return repository.SafetyRecord{}, apperr.NotFound("no open placement to follow up on")
	}
	if err != nil {
		return repository.SafetyRecord{}, apperr.Wrap(apperr.KindInternal, "failed to record follow-up", err)
	}
	return rec, nil
}

// SweepResult summarizes one guarantee sweep pass.
type SweepResult struct {
	Flagged int
	Secured int
}

// Sweep runs one pass of guarantee-period maintenance: placements nearing
// their deadline are flagged at risk, lapsed guarantees are closed as safe.
// Both steps publish events for each placement they touch.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.now().UTC()
	var result SweepResult

	flagged, err := s.store.FlagAtRisk(ctx, now, s.cfg.GetAtRiskThresholdDays())
	if err != nil {
		return result, apperr.Wrap(apperr.KindInternal, "at-risk flagging failed", err)
	}
	result.Flagged = len(flagged)
	for _, out := range flagged {
		s.bus.Publish(ctx, ievents.PlacementAtRisk{
			BaseEvent:     ievents.NewBaseEvent(),
			CandidateID:   out.CandidateID,
			CandidateName: out.CandidateName,
			RecruiterID:   out.RecruiterID,
			GuaranteeEnds: out.GuaranteePeriodEnds,
		})
	}

	secured, err := s.store.ExpireGuarantees(ctx, now)
	if err != nil {
		return result, apperr.Wrap(apperr.KindInternal, "guarantee expiry failed", err)
	}
	result.Secured = len(secured)
	for _, out := range secured {
		s.bus.Publish(ctx, ievents.GuaranteeCompleted{
			BaseEvent:     ievents.NewBaseEvent(),
			CandidateID:   out.CandidateID,
			CandidateName: out.CandidateName,
			RecruiterID:   out.RecruiterID,
		})
	}

	if result.Flagged > 0 || result.Secured > 0 {
		s.log.Info("guarantee sweep completed", "flagged", result.Flagged, "secured", result.Secured)
	}
	return result, nil
}

func derefOrNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
