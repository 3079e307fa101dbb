package scheduler

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskAutomationBatch = "leads.automation.batch"

// AutomationBatchPayload scopes a batch run. An empty TenantID means every
// tenant.
type AutomationBatchPayload struct {
	TenantID string `json:"tenantId,omitempty"`
}

func NewAutomationBatchTask(payload AutomationBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAutomationBatch, data), nil
}

func ParseAutomationBatchPayload(task *asynq.Task) (AutomationBatchPayload, error) {
	var payload AutomationBatchPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AutomationBatchPayload{}, err
	}
	return payload, nil
}

// Tenant returns the parsed tenant filter, nil for an unscoped run.
func (p AutomationBatchPayload) Tenant() (*uuid.UUID, error) {
	if p.TenantID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(p.TenantID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func payloadFor(tenantID *uuid.UUID) AutomationBatchPayload {
	if tenantID == nil {
		return AutomationBatchPayload{}
	}
	return AutomationBatchPayload{TenantID: tenantID.String()}
}
