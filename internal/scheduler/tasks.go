package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskPlacementFollowUpDue = "placements.followup.due"

type PlacementFollowUpDuePayload struct {
	CandidateID   string    `json:"candidateId"`
	CandidateName string    `json:"candidateName"`
	RecruiterID   string    `json:"recruiterId"`
	GuaranteeEnds time.Time `json:"guaranteeEnds"`
}

func NewPlacementFollowUpDueTask(payload PlacementFollowUpDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPlacementFollowUpDue, data), nil
}

func ParsePlacementFollowUpDuePayload(task *asynq.Task) (PlacementFollowUpDuePayload, error) {
	var payload PlacementFollowUpDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PlacementFollowUpDuePayload{}, err
	}
	return payload, nil
}
