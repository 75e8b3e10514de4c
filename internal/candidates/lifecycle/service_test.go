package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"talenttrack_backend/internal/candidates/domain"
	"talenttrack_backend/internal/candidates/ports"
	"talenttrack_backend/internal/candidates/repository"
	ievents "talenttrack_backend/internal/events"
	"talenttrack_backend/platform/apperr"
	"talenttrack_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore is an in-memory repository.Store for service tests.
type fakeStore struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]repository.Candidate
	offers     map[uuid.UUID]repository.Offer
	safety     map[uuid.UUID]repository.SafetyRecord
	timeline   []repository.TimelineEntry

	// conflicts makes the next n transition/renege attempts lose the version
	// race, to exercise the retry loop.
	conflicts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		candidates: make(map[uuid.UUID]repository.Candidate),
		offers:     make(map[uuid.UUID]repository.Offer),
		safety:     make(map[uuid.UUID]repository.SafetyRecord),
	}
}

func (f *fakeStore) CreateCandidate(_ context.Context, params repository.CreateCandidateParams) (repository.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	c := repository.Candidate{
		ID:                   uuid.New(),
		JobID:                params.JobID,
		RecruiterID:          params.RecruiterID,
		TeamID:               params.TeamID,
		FirstName:            params.FirstName,
		LastName:             params.LastName,
		Email:                params.Email,
		Phone:                params.Phone,
		TotalExperienceYears: params.TotalExperienceYears,
		CurrentCTC:           params.CurrentCTC,
		ExpectedCTC:          params.ExpectedCTC,
		CurrentStage:         domain.StageSourced,
		PlacementStatus:      domain.PlacementStatusNone,
		SourcedAt:            now,
		LastActivityAt:       now,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	f.candidates[c.ID] = c
	f.appendTimelineLocked(params.Timeline, c.ID)
	return c, nil
}

func (f *fakeStore) GetCandidate(_ context.Context, id uuid.UUID) (repository.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok {
		return repository.Candidate{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCandidates(_ context.Context, _ repository.ListParams) ([]repository.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]repository.Candidate, 0, len(f.candidates))
	for _, c := range f.candidates {
		items = append(items, c)
	}
	return items, nil
}

func (f *fakeStore) ApplyTransition(_ context.Context, params repository.TransitionParams) (repository.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts > 0 {
		f.conflicts--
		// Simulate a concurrent writer winning the race.
		c := f.candidates[params.CandidateID]
		c.Version++
		f.candidates[params.CandidateID] = c
		return repository.Candidate{}, repository.ErrVersionConflict
	}
	c, ok := f.candidates[params.CandidateID]
	if !ok {
		return repository.Candidate{}, repository.ErrNotFound
	}
	if c.Version != params.ExpectedVersion {
		return repository.Candidate{}, repository.ErrVersionConflict
	}
	c.CurrentStage = params.ToStage
	c.LastActivityAt = params.OccurredAt
	if params.RevenueEarned != nil {
		c.RevenueEarned = *params.RevenueEarned
	}
	if params.PlacementStatus != nil {
		c.PlacementStatus = *params.PlacementStatus
	}
	switch params.ToStage {
	case domain.StageJoined:
		t := params.OccurredAt
		c.JoinedAt = &t
	case domain.StageRejected:
		t := params.OccurredAt
		c.RejectedAt = &t
	case domain.StageDropped:
		t := params.OccurredAt
		c.DroppedAt = &t
	}
	c.Version++
	f.candidates[params.CandidateID] = c
	if params.OfferStatus != nil {
		o := f.offers[params.CandidateID]
		o.Status = *params.OfferStatus
		f.offers[params.CandidateID] = o
	}
	if params.Safety != nil {
		f.safety[params.CandidateID] = repository.SafetyRecord{
			ID:                  uuid.New(),
			CandidateID:         params.CandidateID,
			PlacementDate:       params.OccurredAt,
			GuaranteePeriodDays: params.Safety.GuaranteePeriodDays,
			GuaranteePeriodEnds: params.Safety.GuaranteePeriodEnds,
			SafetyStatus:        domain.SafetyStatusMonitoring,
		}
	}
	f.appendTimelineLocked(params.Timeline, params.CandidateID)
	return c, nil
}

func (f *fakeStore) ApplyRenege(_ context.Context, params repository.RenegeParams) (repository.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts > 0 {
		f.conflicts--
		c := f.candidates[params.CandidateID]
		c.Version++
		f.candidates[params.CandidateID] = c
		return repository.Candidate{}, repository.ErrVersionConflict
	}
	c, ok := f.candidates[params.CandidateID]
	if !ok {
		return repository.Candidate{}, repository.ErrNotFound
	}
	if c.Version != params.ExpectedVersion {
		return repository.Candidate{}, repository.ErrVersionConflict
	}
	t := params.RenegeDate
	reason := params.Reason
	c.CurrentStage = domain.StageDropped
	c.DroppedAt = &t
	c.IsRenege = true
	c.RenegeDate = &t
	c.RenegeReason = &reason
	c.RevenueEarned = 0
	c.PlacementStatus = domain.PlacementStatusLost
	c.IsPlacementSafe = false
	c.LastActivityAt = t
	c.Version++
	f.candidates[params.CandidateID] = c
	if o, ok := f.offers[params.CandidateID]; ok {
		o.Status = domain.OfferStatusRenege
		note := fmt.Sprintf("Reneged (%s): %s", params.RenegeType, params.Reason)
		if o.Notes == "" {
			o.Notes = note
		} else {
			o.Notes += "\n" + note
		}
		f.offers[params.CandidateID] = o
	}
	if rec, ok := f.safety[params.CandidateID]; ok {
		rec.SafetyStatus = domain.SafetyStatusLost
		rec.RiskNotes = &reason
		f.safety[params.CandidateID] = rec
	}
	f.appendTimelineLocked(params.Timeline, params.CandidateID)
	return c, nil
}

func (f *fakeStore) CreateOffer(_ context.Context, params repository.CreateOfferParams) (repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Re-recording revises the offer in place, like the upsert in the real store.
	o, ok := f.offers[params.CandidateID]
	if !ok {
		o = repository.Offer{ID: uuid.New(), CandidateID: params.CandidateID}
	}
	o.FixedCTC = params.FixedCTC
	o.Status = domain.OfferStatusPending
	o.Notes = params.Notes
	f.offers[params.CandidateID] = o
	f.appendTimelineLocked(params.Timeline, params.CandidateID)
	return o, nil
}

func (f *fakeStore) GetOfferByCandidate(_ context.Context, candidateID uuid.UUID) (repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[candidateID]
	if !ok {
		return repository.Offer{}, repository.ErrOfferNotFound
	}
	return o, nil
}

func (f *fakeStore) GetSafetyRecord(_ context.Context, candidateID uuid.UUID) (repository.SafetyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.safety[candidateID]
	if !ok {
		return repository.SafetyRecord{}, repository.ErrSafetyRecordNotFound
	}
	return rec, nil
}

func (f *fakeStore) ListActiveSafety(_ context.Context, _ repository.SafetyScope) ([]repository.ActiveSafetyRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]repository.ActiveSafetyRow, 0)
	for id, rec := range f.safety {
		if rec.SafetyStatus != domain.SafetyStatusMonitoring && rec.SafetyStatus != domain.SafetyStatusAtRisk {
			continue
		}
		c := f.candidates[id]
		if c.IsRenege {
			continue
		}
		items = append(items, repository.ActiveSafetyRow{
			SafetyRecord:  rec,
			CandidateName: c.FullName(),
			RecruiterID:   c.RecruiterID,
		})
	}
	return items, nil
}

func (f *fakeStore) ExpireGuarantees(_ context.Context, now time.Time) ([]repository.GuaranteeOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outcomes := make([]repository.GuaranteeOutcome, 0)
	for id, rec := range f.safety {
		c := f.candidates[id]
		open := rec.SafetyStatus == domain.SafetyStatusMonitoring || rec.SafetyStatus == domain.SafetyStatusAtRisk
		if !open || c.IsRenege || !rec.GuaranteePeriodEnds.Before(now) {
			continue
		}
		rec.SafetyStatus = domain.SafetyStatusSafe
		f.safety[id] = rec
		c.IsPlacementSafe = true
		f.candidates[id] = c
		outcomes = append(outcomes, repository.GuaranteeOutcome{
			SafetyRecordID:      rec.ID,
			CandidateID:         id,
			CandidateName:       c.FullName(),
			RecruiterID:         c.RecruiterID,
			GuaranteePeriodEnds: rec.GuaranteePeriodEnds,
		})
	}
	return outcomes, nil
}

func (f *fakeStore) FlagAtRisk(_ context.Context, now time.Time, thresholdDays int) ([]repository.GuaranteeOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := now.AddDate(0, 0, thresholdDays)
	outcomes := make([]repository.GuaranteeOutcome, 0)
	for id, rec := range f.safety {
		c := f.candidates[id]
		if rec.SafetyStatus != domain.SafetyStatusMonitoring || c.IsRenege {
			continue
		}
		if rec.GuaranteePeriodEnds.Before(now) || rec.GuaranteePeriodEnds.After(cutoff) {
			continue
		}
		rec.SafetyStatus = domain.SafetyStatusAtRisk
		f.safety[id] = rec
		outcomes = append(outcomes, repository.GuaranteeOutcome{
			SafetyRecordID:      rec.ID,
			CandidateID:         id,
			CandidateName:       c.FullName(),
			RecruiterID:         c.RecruiterID,
			GuaranteePeriodEnds: rec.GuaranteePeriodEnds,
		})
	}
	return outcomes, nil
}

func (f *fakeStore) RecordFollowUp(_ context.Context, params repository.FollowUpParams) (repository.SafetyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.safety[params.CandidateID]
	if !ok || (rec.SafetyStatus != domain.SafetyStatusMonitoring && rec.SafetyStatus != domain.SafetyStatusAtRisk) {
		return repository.SafetyRecord{}, repository.ErrSafetyRecordNotFound
	}
	t := params.FollowUpDate
	rec.LastFollowupDate = &t
	if params.Notes != nil {
		rec.RiskNotes = params.Notes
	}
	f.safety[params.CandidateID] = rec
	f.appendTimelineLocked(params.Timeline, params.CandidateID)
	return rec, nil
}

func (f *fakeStore) AppendTimelineEntry(_ context.Context, params repository.TimelineParams) (repository.TimelineEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendTimelineLocked(params, params.CandidateID), nil
}

func (f *fakeStore) ListTimeline(_ context.Context, candidateID uuid.UUID) ([]repository.TimelineEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]repository.TimelineEntry, 0)
	for i := len(f.timeline) - 1; i >= 0; i-- {
		if f.timeline[i].CandidateID == candidateID {
			items = append(items, f.timeline[i])
		}
	}
	return items, nil
}

func (f *fakeStore) appendTimelineLocked(params repository.TimelineParams, candidateID uuid.UUID) repository.TimelineEntry {
	entry := repository.TimelineEntry{
		ID:           uuid.New(),
		CandidateID:  candidateID,
		ActivityType: params.ActivityType,
		Title:        params.Title,
		Description:  params.Description,
		ActorType:    params.ActorType,
		ActorName:    params.ActorName,
		Metadata:     params.Metadata,
		CreatedAt:    time.Now().UTC(),
	}
	f.timeline = append(f.timeline, entry)
	return entry
}

var _ repository.Store = (*fakeStore)(nil)

// recordingBus captures published events synchronously for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []ievents.Event
}

func (b *recordingBus) Publish(_ context.Context, event ievents.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event ievents.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, ievents.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, len(b.events))
	for i, e := range b.events {
		names[i] = e.EventName()
	}
	return names
}

type fixedFeeTerms struct {
	terms ports.FeeTerms
}

func (f fixedFeeTerms) FeeTermsForJob(context.Context, uuid.UUID) (ports.FeeTerms, error) {
	return f.terms, nil
}

type recordingScheduler struct {
	mu       sync.Mutex
	requests []ports.FollowUpRequest
}

func (s *recordingScheduler) ScheduleFollowUp(_ context.Context, req ports.FollowUpRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return nil
}

type placementCfg struct {
	guaranteeDays int
	feePercent    float64
	atRiskDays    int
	followupLead  int
}

func (c placementCfg) GetGuaranteePeriodDays() int   { return c.guaranteeDays }
func (c placementCfg) GetDefaultFeePercent() float64 { return c.feePercent }
func (c placementCfg) GetAtRiskThresholdDays() int   { return c.atRiskDays }
func (c placementCfg) GetFollowupLeadDays() int      { return c.followupLead }

func defaultPlacementCfg() placementCfg {
	return placementCfg{guaranteeDays: 90, feePercent: 8.33, atRiskDays: 15, followupLead: 7}
}

type fixture struct {
	service   *Service
	store     *fakeStore
	bus       *recordingBus
	scheduler *recordingScheduler
}

func newFixture(t *testing.T, terms ports.FeeTerms) fixture {
	t.Helper()
	store := newFakeStore()
	bus := &recordingBus{}
	scheduler := &recordingScheduler{}
	svc := NewService(store, fixedFeeTerms{terms: terms}, scheduler, bus, logger.New("development"), defaultPlacementCfg())
	return fixture{service: svc, store: store, bus: bus, scheduler: scheduler}
}

var testActor = Actor{ID: uuid.New(), Name: "Priya Sharma"}

func defaultTerms() ports.FeeTerms {
	return ports.FeeTerms{FeePercentage: 8.33, GuaranteePeriodDays: 90}
}

func createCandidate(t *testing.T, fx fixture) repository.Candidate {
	t.Helper()
	candidate, err := fx.service.Create(context.Background(), CreateParams{
		JobID:                uuid.New(),
		FirstName:            "Arjun",
		LastName:             "Mehta",
		Phone:                "+919876543210",
		TotalExperienceYears: 6,
	}, testActor)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return candidate
}

// advanceTo walks the candidate along the mainline to the target stage,
// recording offer terms at offer_made.
func advanceTo(t *testing.T, fx fixture, id uuid.UUID, target string, fixedCTC float64) repository.Candidate {
	t.Helper()
	steps := []string{
		domain.StageScreening, domain.StageInterviewScheduled, domain.StageInterviewCompleted,
		domain.StageOfferMade, domain.StageOfferAccepted, domain.StageJoined,
	}
	var candidate repository.Candidate
	var err error
	for _, stage := range steps {
		candidate, err = fx.service.Transition(context.Background(), TransitionParams{CandidateID: id, ToStage: stage}, testActor)
		if err != nil {
			t.Fatalf("Transition(%s) error = %v", stage, err)
		}
		if stage == domain.StageOfferMade {
			if _, err := fx.service.RecordOffer(context.Background(), RecordOfferParams{CandidateID: id, FixedCTC: fixedCTC}, testActor); err != nil {
				t.Fatalf("RecordOffer() error = %v", err)
			}
		}
		if stage == target {
			return candidate
		}
	}
	return candidate
}

func TestCreateStartsAtSourced(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)

	if candidate.CurrentStage != domain.StageSourced {
		t.Errorf("CurrentStage = %q, want %q", candidate.CurrentStage, domain.StageSourced)
	}
	if candidate.Version != 1 {
		t.Errorf("Version = %d, want 1", candidate.Version)
	}
	if candidate.PlacementStatus != domain.PlacementStatusNone {
		t.Errorf("PlacementStatus = %q, want %q", candidate.PlacementStatus, domain.PlacementStatusNone)
	}

	entries, err := fx.service.Timeline(context.Background(), candidate.ID)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(entries) != 1 || entries[0].ActivityType != repository.ActivityCandidateCreated {
		t.Errorf("timeline = %+v, want single candidate_created entry", entries)
	}
}

func TestTransitionRejectsStageSkip(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)

	_, err := fx.service.Transition(context.Background(), TransitionParams{
		CandidateID: candidate.ID,
		ToStage:     domain.StageInterviewScheduled,
	}, testActor)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Transition() error = %v, want validation error", err)
	}

	got, _ := fx.service.Get(context.Background(), candidate.ID)
	if got.CurrentStage != domain.StageSourced || got.Version != 1 {
		t.Errorf("candidate mutated by rejected transition: stage=%q version=%d", got.CurrentStage, got.Version)
	}
}

func TestTransitionRejectsUnknownStage(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)

	_, err := fx.service.Transition(context.Background(), TransitionParams{
		CandidateID: candidate.ID,
		ToStage:     "onboarding",
	}, testActor)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Transition() error = %v, want validation error", err)
	}
}

func TestTransitionFromTerminalStageFails(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)

	if _, err := fx.service.Transition(context.Background(), TransitionParams{CandidateID: candidate.ID, ToStage: domain.StageRejected}, testActor); err != nil {
		t.Fatalf("Transition(rejected) error = %v", err)
	}
	_, err := fx.service.Transition(context.Background(), TransitionParams{CandidateID: candidate.ID, ToStage: domain.StageScreening}, testActor)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Transition() from terminal error = %v, want validation error", err)
	}
}

func TestJoinedComputesRevenueAndOpensSafetyRecord(t *testing.T) {
	fx := newFixture(t, ports.FeeTerms{FeePercentage: 8.33, GuaranteePeriodDays: 90})
	candidate := createCandidate(t, fx)

	joined := advanceTo(t, fx, candidate.ID, domain.StageJoined, 12)

	if joined.RevenueEarned != 1.00 {
		t.Errorf("RevenueEarned = %v, want 1.00", joined.RevenueEarned)
	}
	if joined.PlacementStatus != domain.PlacementStatusActive {
		t.Errorf("PlacementStatus = %q, want %q", joined.PlacementStatus, domain.PlacementStatusActive)
	}
	if joined.JoinedAt == nil {
		t.Fatal("JoinedAt not stamped")
	}

	rec, err := fx.store.GetSafetyRecord(context.Background(), candidate.ID)
	if err != nil {
		t.Fatalf("GetSafetyRecord() error = %v", err)
	}
	if rec.SafetyStatus != domain.SafetyStatusMonitoring {
		t.Errorf("SafetyStatus = %q, want %q", rec.SafetyStatus, domain.SafetyStatusMonitoring)
	}
	wantEnds := joined.JoinedAt.AddDate(0, 0, 90)
	if !rec.GuaranteePeriodEnds.Equal(wantEnds) {
		t.Errorf("GuaranteePeriodEnds = %v, want %v", rec.GuaranteePeriodEnds, wantEnds)
	}

	if len(fx.scheduler.requests) != 1 {
		t.Fatalf("follow-up requests = %d, want 1", len(fx.scheduler.requests))
	}
	wantRemind := wantEnds.AddDate(0, 0, -7)
	if !fx.scheduler.requests[0].RemindAt.Equal(wantRemind) {
		t.Errorf("RemindAt = %v, want %v", fx.scheduler.requests[0].RemindAt, wantRemind)
	}
}

func TestJoinedWithoutOfferFails(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)

	for _, stage := range []string{domain.StageScreening, domain.StageInterviewScheduled, domain.StageInterviewCompleted, domain.StageOfferMade} {
		if _, err := fx.service.Transition(context.Background(), TransitionParams{CandidateID: candidate.ID, ToStage: stage}, testActor); err != nil {
			t.Fatalf("Transition(%s) error = %v", stage, err)
		}
	}
	_, err := fx.service.Transition(context.Background(), TransitionParams{CandidateID: candidate.ID, ToStage: domain.StageOfferAccepted}, testActor)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Transition(offer_accepted) without offer error = %v, want validation error", err)
	}
}

// Walking the full pipeline writes exactly one timeline entry per mutation:
// the creation entry, one per stage transition (six, with joined recorded as
// the placement confirmation), and one for the offer registration.
func TestPipelineWritesOneTimelineEntryPerMutation(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	advanceTo(t, fx, candidate.ID, domain.StageJoined, 12)

	entries, err := fx.service.Timeline(context.Background(), candidate.ID)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("timeline entries = %d, want 8", len(entries))
	}

	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.ActivityType]++
	}
	want := map[string]int{
		repository.ActivityCandidateCreated:   1,
		repository.ActivityStageChanged:       5,
		repository.ActivityPlacementConfirmed: 1,
		repository.ActivityOfferRecorded:      1,
	}
	for activity, n := range want {
		if counts[activity] != n {
			t.Errorf("entries of type %q = %d, want %d", activity, counts[activity], n)
		}
	}
}

func TestRecordOfferRequiresOfferMadeStage(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)

	_, err := fx.service.RecordOffer(context.Background(), RecordOfferParams{CandidateID: candidate.ID, FixedCTC: 10}, testActor)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("RecordOffer() at sourced error = %v, want validation error", err)
	}

	_, err = fx.service.RecordOffer(context.Background(), RecordOfferParams{CandidateID: candidate.ID, FixedCTC: -1}, testActor)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("RecordOffer() with negative CTC error = %v, want validation error", err)
	}
}

func TestRecordOfferAgainRevisesTerms(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	advanceTo(t, fx, candidate.ID, domain.StageOfferMade, 10)

	first, _ := fx.store.GetOfferByCandidate(context.Background(), candidate.ID)
	revised, err := fx.service.RecordOffer(context.Background(), RecordOfferParams{CandidateID: candidate.ID, FixedCTC: 12}, testActor)
	if err != nil {
		t.Fatalf("RecordOffer() revision error = %v", err)
	}
	if revised.ID != first.ID {
		t.Errorf("revision created a new offer row: id %v != %v", revised.ID, first.ID)
	}
	if revised.FixedCTC != 12 || revised.Status != domain.OfferStatusPending {
		t.Errorf("revised offer = %v/%q, want 12 pending", revised.FixedCTC, revised.Status)
	}
}

func TestRenegeClearsRevenueAndClosesPlacement(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	advanceTo(t, fx, candidate.ID, domain.StageJoined, 20)

	reneged, err := fx.service.Renege(context.Background(), RenegeParams{
		CandidateID: candidate.ID,
		RenegeType:  domain.RenegeTypePostJoining,
		Reason:      "accepted a counter-offer",
	}, testActor)
	if err != nil {
		t.Fatalf("Renege() error = %v", err)
	}
	if reneged.RevenueEarned != 0 {
		t.Errorf("RevenueEarned = %v, want 0", reneged.RevenueEarned)
	}
	if reneged.CurrentStage != domain.StageDropped {
		t.Errorf("CurrentStage = %q, want %q", reneged.CurrentStage, domain.StageDropped)
	}
	if reneged.PlacementStatus != domain.PlacementStatusLost {
		t.Errorf("PlacementStatus = %q, want %q", reneged.PlacementStatus, domain.PlacementStatusLost)
	}
	if !reneged.IsRenege || reneged.RenegeDate == nil {
		t.Error("renege flags not set")
	}

	rec, err := fx.store.GetSafetyRecord(context.Background(), candidate.ID)
	if err != nil {
		t.Fatalf("GetSafetyRecord() error = %v", err)
	}
	if rec.SafetyStatus != domain.SafetyStatusLost {
		t.Errorf("SafetyStatus = %q, want %q", rec.SafetyStatus, domain.SafetyStatusLost)
	}

	offer, _ := fx.store.GetOfferByCandidate(context.Background(), candidate.ID)
	if offer.Status != domain.OfferStatusRenege {
		t.Errorf("offer status = %q, want %q", offer.Status, domain.OfferStatusRenege)
	}
	if offer.Notes != "Reneged (post_joining): accepted a counter-offer" {
		t.Errorf("offer notes = %q, want the renege reason appended", offer.Notes)
	}

	entries, err := fx.service.Timeline(context.Background(), candidate.ID)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	var renegeEntries []repository.TimelineEntry
	for _, e := range entries {
		if e.ActivityType == repository.ActivityCandidateReneged {
			renegeEntries = append(renegeEntries, e)
		}
	}
	if len(renegeEntries) != 1 {
		t.Fatalf("renege timeline entries = %d, want 1", len(renegeEntries))
	}
	if reversed, _ := renegeEntries[0].Metadata["revenue_reversed"].(bool); !reversed {
		t.Errorf("renege entry metadata = %v, want revenue_reversed: true", renegeEntries[0].Metadata)
	}
}

func TestRenegeTwiceFails(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	advanceTo(t, fx, candidate.ID, domain.StageJoined, 20)

	if _, err := fx.service.Renege(context.Background(), RenegeParams{CandidateID: candidate.ID, RenegeType: domain.RenegeTypePostJoining, Reason: "counter-offer"}, testActor); err != nil {
		t.Fatalf("first Renege() error = %v", err)
	}
	entriesBefore, err := fx.service.Timeline(context.Background(), candidate.ID)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}

	_, err = fx.service.Renege(context.Background(), RenegeParams{CandidateID: candidate.ID, RenegeType: domain.RenegeTypePostJoining, Reason: "again"}, testActor)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second Renege() error = %v, want conflict", err)
	}
	if !errors.Is(err, domain.ErrAlreadyReneged) {
		t.Errorf("second Renege() error = %v, want ErrAlreadyReneged in chain", err)
	}

	entriesAfter, err := fx.service.Timeline(context.Background(), candidate.ID)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(entriesAfter) != len(entriesBefore) {
		t.Errorf("timeline entries = %d after rejected renege, want %d", len(entriesAfter), len(entriesBefore))
	}
}

// A candidate can renege as soon as an offer is on record, joined or not.
func TestRenegeAtOfferAcceptedSucceeds(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	advanceTo(t, fx, candidate.ID, domain.StageOfferAccepted, 15)

	reneged, err := fx.service.Renege(context.Background(), RenegeParams{
		CandidateID: candidate.ID,
		RenegeType:  domain.RenegeTypeOfferDrop,
		Reason:      "changed mind before joining",
	}, testActor)
	if err != nil {
		t.Fatalf("Renege() at offer_accepted error = %v", err)
	}
	if reneged.CurrentStage != domain.StageDropped || !reneged.IsRenege {
		t.Errorf("candidate = stage %q, isRenege %v; want dropped renege", reneged.CurrentStage, reneged.IsRenege)
	}
	if reneged.RevenueEarned != 0 || reneged.PlacementStatus != domain.PlacementStatusLost {
		t.Errorf("revenue = %v, placement = %q; want 0 and lost", reneged.RevenueEarned, reneged.PlacementStatus)
	}

	offer, _ := fx.store.GetOfferByCandidate(context.Background(), candidate.ID)
	if offer.Status != domain.OfferStatusRenege {
		t.Errorf("offer status = %q, want %q", offer.Status, domain.OfferStatusRenege)
	}
	// No safety record exists before joining, and none is created by the renege.
	if _, err := fx.store.GetSafetyRecord(context.Background(), candidate.ID); !errors.Is(err, repository.ErrSafetyRecordNotFound) {
		t.Errorf("GetSafetyRecord() error = %v, want ErrSafetyRecordNotFound", err)
	}
}

func TestRenegeWithoutOfferFails(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)

	_, err := fx.service.Renege(context.Background(), RenegeParams{
		CandidateID: candidate.ID,
		RenegeType:  domain.RenegeTypeOfferDrop,
		Reason:      "changed mind",
	}, testActor)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Renege() without offer error = %v, want validation error", err)
	}
	if !errors.Is(err, domain.ErrNoActivePlacement) {
		t.Errorf("Renege() error = %v, want ErrNoActivePlacement in chain", err)
	}
}

func TestRenegeRejectsUnknownType(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	advanceTo(t, fx, candidate.ID, domain.StageJoined, 20)

	_, err := fx.service.Renege(context.Background(), RenegeParams{
		CandidateID: candidate.ID,
		RenegeType:  "ghosted",
		Reason:      "stopped answering calls",
	}, testActor)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Renege() with unknown type error = %v, want validation error", err)
	}
}

func TestRenegeHonoursSuppliedDate(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	advanceTo(t, fx, candidate.ID, domain.StageJoined, 20)

	backdated := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	reneged, err := fx.service.Renege(context.Background(), RenegeParams{
		CandidateID: candidate.ID,
		RenegeType:  domain.RenegeTypePostJoining,
		Reason:      "resigned mid-guarantee",
		RenegeDate:  &backdated,
	}, testActor)
	if err != nil {
		t.Fatalf("Renege() error = %v", err)
	}
	if reneged.RenegeDate == nil || !reneged.RenegeDate.Equal(backdated) {
		t.Errorf("RenegeDate = %v, want %v", reneged.RenegeDate, backdated)
	}
}

func TestTransitionRetriesOnVersionConflict(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	fx.store.conflicts = 2

	got, err := fx.service.Transition(context.Background(), TransitionParams{CandidateID: candidate.ID, ToStage: domain.StageScreening}, testActor)
	if err != nil {
		t.Fatalf("Transition() error = %v, want retry to succeed", err)
	}
	if got.CurrentStage != domain.StageScreening {
		t.Errorf("CurrentStage = %q, want %q", got.CurrentStage, domain.StageScreening)
	}
}

func TestTransitionGivesUpAfterRetryBudget(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	fx.store.conflicts = retryAttempts

	_, err := fx.service.Transition(context.Background(), TransitionParams{CandidateID: candidate.ID, ToStage: domain.StageScreening}, testActor)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("Transition() error = %v, want conflict after retries exhausted", err)
	}
	if !errors.Is(err, domain.ErrConcurrentModification) {
		t.Errorf("Transition() error = %v, want ErrConcurrentModification in chain", err)
	}
}

func TestPinnedVersionConflictSurfacesImmediately(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)

	stale := candidate.Version - 1
	_, err := fx.service.Transition(context.Background(), TransitionParams{
		CandidateID:     candidate.ID,
		ToStage:         domain.StageScreening,
		ExpectedVersion: &stale,
	}, testActor)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("Transition() with stale version error = %v, want conflict", err)
	}
}

func TestLifecycleEventsPublished(t *testing.T) {
	fx := newFixture(t, defaultTerms())
	candidate := createCandidate(t, fx)
	advanceTo(t, fx, candidate.ID, domain.StageJoined, 10)
	if _, err := fx.service.Renege(context.Background(), RenegeParams{CandidateID: candidate.ID, RenegeType: domain.RenegeTypePostJoining, Reason: "left for another role"}, testActor); err != nil {
		t.Fatalf("Renege() error = %v", err)
	}

	names := fx.bus.names()
	want := map[string]bool{
		"candidates.candidate.created":   false,
		"candidates.placement.confirmed": false,
		"candidates.placement.reneged":   false,
	}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("event %q not published; got %v", name, names)
		}
	}
}
