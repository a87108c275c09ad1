package mailer

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// TaskType discriminates email task payloads on the wire.
type TaskType string

const (
	TaskConfirmEmail  TaskType = "confirm_email"
	TaskLowStockAlert TaskType = "low_stock_alert"
)

// attrTaskType is the message attribute carrying the task type so consumers
// can route without decoding the body.
const attrTaskType = "task_type"

// Envelope wraps every email task published to the queue.
type Envelope struct {
	TaskID uuid.UUID       `json:"task_id"`
	Type   TaskType        `json:"type"`
	Data   json.RawMessage `json:"data"`
}

// ConfirmEmailTask asks the worker to send the account confirmation email.
type ConfirmEmailTask struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	ConfirmURL string    `json:"confirm_url"`
}

// LowStockAlertTask asks the worker to alert operations about a variation
// running low.
type LowStockAlertTask struct {
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	QtyInStock  int    `json:"qty_in_stock"`
}

func newEnvelope(taskType TaskType, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s task: %w", taskType, err)
	}
	return &Envelope{
		TaskID: uuid.New(),
		Type:   taskType,
		Data:   data,
	}, nil
}
