package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FollowUpRequest schedules one reminder ahead of a guarantee deadline.
type FollowUpRequest struct {
	CandidateID   uuid.UUID
	CandidateName string
	RecruiterID   uuid.UUID
	GuaranteeEnds time.Time
	RemindAt      time.Time
}

// FollowUpScheduler enqueues placement follow-up reminders. The scheduler
// module provides the asynq-backed implementation; a no-op is acceptable when
// background processing is disabled.
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, req FollowUpRequest) error
}
