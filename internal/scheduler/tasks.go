package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDistributeLeads = "leadpool.distribute"

const TaskUnlockStaleLeads = "leadpool.unlock_stale"

type DistributeLeadsPayload struct {
	Force       bool   `json:"force"`
	Mode        string `json:"mode,omitempty"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

type UnlockStaleLeadsPayload struct {
	OlderThanSeconds int64 `json:"olderThanSeconds"`
}

func NewDistributeLeadsTask(payload DistributeLeadsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDistributeLeads, data), nil
}

func ParseDistributeLeadsPayload(task *asynq.Task) (DistributeLeadsPayload, error) {
	var payload DistributeLeadsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DistributeLeadsPayload{}, err
	}
	return payload, nil
}

func NewUnlockStaleLeadsTask(payload UnlockStaleLeadsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUnlockStaleLeads, data), nil
}

func ParseUnlockStaleLeadsPayload(task *asynq.Task) (UnlockStaleLeadsPayload, error) {
	var payload UnlockStaleLeadsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return UnlockStaleLeadsPayload{}, err
	}
	return payload, nil
}
