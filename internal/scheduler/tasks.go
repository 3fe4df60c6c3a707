package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskFollowUpTick fans out one task per due lead.
const TaskFollowUpTick = "followup.tick"

// TaskFollowUpLead sends the next follow-up for a single lead.
const TaskFollowUpLead = "followup.lead"

type FollowUpLeadPayload struct {
	LeadID string `json:"leadId"`
	Step   int    `json:"step"`
}

func NewFollowUpTickTask() *asynq.Task {
	return asynq.NewTask(TaskFollowUpTick, nil)
}

func NewFollowUpLeadTask(payload FollowUpLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpLead, data), nil
}

func ParseFollowUpLeadPayload(task *asynq.Task) (FollowUpLeadPayload, error) {
	var payload FollowUpLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpLeadPayload{}, err
	}
	return payload, nil
}
