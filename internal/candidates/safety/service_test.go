package safety

import (
	"context"
	"sync"
	"testing"
	"time"

	"talenttrack_backend/internal/candidates/domain"
	"talenttrack_backend/internal/candidates/repository"
	ievents "talenttrack_backend/internal/events"
	"talenttrack_backend/platform/apperr"
	"talenttrack_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore embeds the Store interface and overrides only what the safety
// service touches; calling anything else panics, which is what we want.
type fakeStore struct {
	repository.Store

	rows    []repository.ActiveSafetyRow
	flagged []repository.GuaranteeOutcome
	secured []repository.GuaranteeOutcome

	followUps []repository.FollowUpParams
	noRecord  bool
}

func (f *fakeStore) ListActiveSafety(context.Context, repository.SafetyScope) ([]repository.ActiveSafetyRow, error) {
	return f.rows, nil
}

func (f *fakeStore) FlagAtRisk(context.Context, time.Time, int) ([]repository.GuaranteeOutcome, error) {
	return f.flagged, nil
}

func (f *fakeStore) ExpireGuarantees(context.Context, time.Time) ([]repository.GuaranteeOutcome, error) {
	return f.secured, nil
}

func (f *fakeStore) RecordFollowUp(_ context.Context, params repository.FollowUpParams) (repository.SafetyRecord, error) {
	if f.noRecord {
		return repository.SafetyRecord{}, repository.ErrSafetyRecordNotFound
	}
	f.followUps = append(f.followUps, params)
	now := params.FollowUpDate
	return repository.SafetyRecord{CandidateID: params.CandidateID, LastFollowupDate: &now, SafetyStatus: domain.SafetyStatusMonitoring}, nil
}

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

type placementCfg struct{}

func (placementCfg) GetGuaranteePeriodDays() int   { return 90 }
func (placementCfg) GetDefaultFeePercent() float64 { return 8.33 }
func (placementCfg) GetAtRiskThresholdDays() int   { return 15 }
func (placementCfg) GetFollowupLeadDays() int      { return 7 }

func newService(store *fakeStore, bus *recordingBus) *Service {
	return NewService(store, bus, logger.New("development"), placementCfg{})
}

func activeRow(name string, endsInDays int, now time.Time) repository.ActiveSafetyRow {
	return repository.ActiveSafetyRow{
		SafetyRecord: repository.SafetyRecord{
			ID:                  uuid.New(),
			CandidateID:         uuid.New(),
			PlacementDate:       now.AddDate(0, 0, endsInDays-90),
			GuaranteePeriodDays: 90,
			GuaranteePeriodEnds: now.AddDate(0, 0, endsInDays),
			SafetyStatus:        domain.SafetyStatusMonitoring,
		},
		CandidateName: name,
		RecruiterID:   uuid.New(),
	}
}

func TestListAtRiskOrdersByUrgency(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: []repository.ActiveSafetyRow{
		activeRow("Rohan Gupta", 45, now),
		activeRow("Sneha Iyer", 3, now),
		activeRow("Aditya Rao", 12, now),
	}}
	svc := newService(store, &recordingBus{})
	svc.now = func() time.Time { return now }

	items, err := svc.ListAtRisk(context.Background(), repository.SafetyScope{})
	if err != nil {
		t.Fatalf("ListAtRisk() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}

	wantOrder := []string{"Sneha Iyer", "Aditya Rao", "Rohan Gupta"}
	wantBands := []string{string(domain.RiskBandCritical), string(domain.RiskBandHigh), string(domain.RiskBandNormal)}
	wantDays := []int{3, 12, 45}
	for i := range items {
		if items[i].CandidateName != wantOrder[i] {
			t.Errorf("items[%d].CandidateName = %q, want %q", i, items[i].CandidateName, wantOrder[i])
		}
		if items[i].RiskBand != wantBands[i] {
			t.Errorf("items[%d].RiskBand = %q, want %q", i, items[i].RiskBand, wantBands[i])
		}
		if items[i].DaysRemaining != wantDays[i] {
			t.Errorf("items[%d].DaysRemaining = %d, want %d", i, items[i].DaysRemaining, wantDays[i])
		}
	}
}

func TestListAtRiskTieBreaksByName(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: []repository.ActiveSafetyRow{
		activeRow("Zara Khan", 5, now),
		activeRow("Amit Patel", 5, now),
	}}
	svc := newService(store, &recordingBus{})
	svc.now = func() time.Time { return now }

	items, err := svc.ListAtRisk(context.Background(), repository.SafetyScope{})
	if err != nil {
		t.Fatalf("ListAtRisk() error = %v", err)
	}
	if items[0].CandidateName != "Amit Patel" || items[1].CandidateName != "Zara Khan" {
		t.Errorf("tie-break order = %q, %q; want Amit Patel first", items[0].CandidateName, items[1].CandidateName)
	}
}

func TestSweepPublishesEvents(t *testing.T) {
	flaggedID, securedID := uuid.New(), uuid.New()
	store := &fakeStore{
		flagged: []repository.GuaranteeOutcome{{CandidateID: flaggedID, CandidateName: "Sneha Iyer"}},
		secured: []repository.GuaranteeOutcome{{CandidateID: securedID, CandidateName: "Rohan Gupta"}},
	}
	bus := &recordingBus{}
	svc := newService(store, bus)

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if result.Flagged != 1 || result.Secured != 1 {
		t.Errorf("Sweep() = %+v, want 1 flagged and 1 secured", result)
	}

	if len(bus.events) != 2 {
		t.Fatalf("published events = %d, want 2", len(bus.events))
	}
	atRisk, ok := bus.events[0].(ievents.PlacementAtRisk)
	if !ok || atRisk.CandidateID != flaggedID {
		t.Errorf("events[0] = %+v, want PlacementAtRisk for flagged candidate", bus.events[0])
	}
	completed, ok := bus.events[1].(ievents.GuaranteeCompleted)
	if !ok || completed.CandidateID != securedID {
		t.Errorf("events[1] = %+v, want GuaranteeCompleted for secured candidate", bus.events[1])
	}
}

func TestSweepNoWorkIsQuiet(t *testing.T) {
	bus := &recordingBus{}
	svc := newService(&fakeStore{}, bus)

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if result.Flagged != 0 || result.Secured != 0 || len(bus.events) != 0 {
		t.Errorf("Sweep() = %+v with %d events, want nothing", result, len(bus.events))
	}
}

// sweepStore keeps safety records in memory so consecutive sweeps observe the
// status changes the previous pass made, like the real store does.
type sweepStore struct {
	repository.Store

	mu      sync.Mutex
	records []repository.ActiveSafetyRow
}

func (s *sweepStore) FlagAtRisk(_ context.Context, now time.Time, thresholdDays int) ([]repository.GuaranteeOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.AddDate(0, 0, thresholdDays)
	outcomes := make([]repository.GuaranteeOutcome, 0)
	for i := range s.records {
		rec := &s.records[i].SafetyRecord
		if rec.SafetyStatus != domain.SafetyStatusMonitoring {
			continue
		}
		if rec.GuaranteePeriodEnds.Before(now) || rec.GuaranteePeriodEnds.After(cutoff) {
			continue
		}
		rec.SafetyStatus = domain.SafetyStatusAtRisk
		outcomes = append(outcomes, s.outcomeLocked(i))
	}
	return outcomes, nil
}

func (s *sweepStore) ExpireGuarantees(_ context.Context, now time.Time) ([]repository.GuaranteeOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcomes := make([]repository.GuaranteeOutcome, 0)
	for i := range s.records {
		rec := &s.records[i].SafetyRecord
		if domain.IsTerminalSafetyStatus(rec.SafetyStatus) || !rec.GuaranteePeriodEnds.Before(now) {
			continue
		}
		rec.SafetyStatus = domain.SafetyStatusSafe
		outcomes = append(outcomes, s.outcomeLocked(i))
	}
	return outcomes, nil
}

func (s *sweepStore) outcomeLocked(i int) repository.GuaranteeOutcome {
	row := s.records[i]
	return repository.GuaranteeOutcome{
		SafetyRecordID:      row.ID,
		CandidateID:         row.CandidateID,
		CandidateName:       row.CandidateName,
		RecruiterID:         row.RecruiterID,
		GuaranteePeriodEnds: row.GuaranteePeriodEnds,
	}
}

func (s *sweepStore) status(candidateID uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.records {
		if row.CandidateID == candidateID {
			return row.SafetyStatus
		}
	}
	return ""
}

// An expired guarantee settles as safe on the first sweep; the record is then
// terminal and later sweeps leave it alone.
func TestSweepSettlesExpiredGuaranteeOnce(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	expired := activeRow("Sneha Iyer", -1, now)
	store := &sweepStore{records: []repository.ActiveSafetyRow{expired}}
	bus := &recordingBus{}
	svc := NewService(store, bus, logger.New("development"), placementCfg{})
	svc.now = func() time.Time { return now }

	first, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if first.Flagged != 0 || first.Secured != 1 {
		t.Fatalf("first Sweep() = %+v, want 1 secured", first)
	}
	if got := store.status(expired.CandidateID); got != domain.SafetyStatusSafe {
		t.Errorf("safety status = %q, want %q", got, domain.SafetyStatusSafe)
	}

	second, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second Sweep() error = %v", err)
	}
	if second.Flagged != 0 || second.Secured != 0 {
		t.Errorf("second Sweep() = %+v, want nothing touched", second)
	}
	if len(bus.events) != 1 {
		t.Errorf("published events = %d after two sweeps, want 1", len(bus.events))
	}
}

// A record already flagged at risk is not re-flagged, and once it expires it
// still settles exactly once.
func TestSweepDoesNotReflagAtRiskRecords(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	nearDeadline := activeRow("Aditya Rao", 5, now)
	store := &sweepStore{records: []repository.ActiveSafetyRow{nearDeadline}}
	bus := &recordingBus{}
	svc := NewService(store, bus, logger.New("development"), placementCfg{})
	svc.now = func() time.Time { return now }

	first, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if first.Flagged != 1 {
		t.Fatalf("first Sweep() = %+v, want 1 flagged", first)
	}

	second, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second Sweep() error = %v", err)
	}
	if second.Flagged != 0 || second.Secured != 0 {
		t.Errorf("second Sweep() = %+v, want nothing touched", second)
	}

	svc.now = func() time.Time { return now.AddDate(0, 0, 6) }
	third, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("third Sweep() error = %v", err)
	}
	if third.Secured != 1 {
		t.Errorf("third Sweep() = %+v, want 1 secured after expiry", third)
	}
	if got := store.status(nearDeadline.CandidateID); got != domain.SafetyStatusSafe {
		t.Errorf("safety status = %q, want %q", got, domain.SafetyStatusSafe)
	}
	if len(bus.events) != 2 {
		t.Errorf("published events = %d, want 2 (one flag, one completion)", len(bus.events))
	}
}

func TestRecordFollowUpWritesTimelineEntry(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, &recordingBus{})

	notes := "spoke with candidate, all good"
	rec, err := svc.RecordFollowUp(context.Background(), FollowUpParams{
		CandidateID: uuid.New(),
		Notes:       &notes,
		ActorName:   "Priya Sharma",
	})
	if err != nil {
		t.Fatalf("RecordFollowUp() error = %v", err)
	}
	if rec.LastFollowupDate == nil {
		t.Error("LastFollowupDate not set")
	}
	if len(store.followUps) != 1 {
		t.Fatalf("follow-ups recorded = %d, want 1", len(store.followUps))
	}
	tl := store.followUps[0].Timeline
	if tl.ActivityType != repository.ActivityFollowUpRecorded || tl.ActorName != "Priya Sharma" {
		t.Errorf("timeline params = %+v, want follow_up_recorded by Priya Sharma", tl)
	}
}

func TestRecordFollowUpWithoutOpenPlacement(t *testing.T) {
	svc := newService(&fakeStore{noRecord: true}, &recordingBus{})

	_, err := svc.RecordFollowUp(context.Background(), FollowUpParams{CandidateID: uuid.New()})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("RecordFollowUp() error = %v, want not found", err)
	}
}
