package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskContactFollowup = "contacts.followup"

// ContactFollowupPayload identifies a contact to re-check after the
// follow-up delay.
type ContactFollowupPayload struct {
	ContactID  string `json:"contactId"`
	SourceCode string `json:"sourceCode"`
}

func NewContactFollowupTask(payload ContactFollowupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContactFollowup, data), nil
}

func ParseContactFollowupPayload(task *asynq.Task) (ContactFollowupPayload, error) {
	var payload ContactFollowupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ContactFollowupPayload{}, err
	}
	return payload, nil
}
