package scheduler

import (
	"context"
	"errors"
	"fmt"

	"talenttrack_backend/internal/candidates/domain"
	"talenttrack_backend/internal/candidates/repository"
	"talenttrack_backend/internal/events"
	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskPlacementFollowUpDue, w.handlePlacementFollowUpDue)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handlePlacementFollowUpDue fires when a placement's follow-up reminder comes
// due. The reminder was scheduled at join time; the placement may have reneged
// or completed since, so it re-checks state before publishing.
func (w *Worker) handlePlacementFollowUpDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePlacementFollowUpDuePayload(task)
	if err != nil {
		return err
	}

	candidateID, err := uuid.Parse(payload.CandidateID)
	if err != nil {
		return err
	}

	candidate, err := w.repo.GetCandidate(ctx, candidateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if candidate.IsRenege || candidate.PlacementStatus != domain.PlacementStatusActive {
		return nil
	}

	rec, err := w.repo.GetSafetyRecord(ctx, candidateID)
	if errors.Is(err, repository.ErrSafetyRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if domain.IsTerminalSafetyStatus(rec.SafetyStatus) {
		return nil
	}

	if w.bus == nil {
		return nil
	}
	return w.bus.PublishSync(ctx, events.PlacementFollowUpDue{
		BaseEvent:     events.NewBaseEvent(),
		CandidateID:   candidate.ID,
		CandidateName: candidate.FullName(),
		RecruiterID:   candidate.RecruiterID,
		GuaranteeEnds: rec.GuaranteePeriodEnds,
	})
}
