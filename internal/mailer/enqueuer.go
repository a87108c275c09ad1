package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/ateliermoda/moda-backend/internal/catalog"
	"github.com/ateliermoda/moda-backend/pkg/logger"
)

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// Enqueuer publishes email tasks to the queue. Sending happens in the
// email worker, never inline with a request.
type Enqueuer struct {
	pub  publisher
	logg *logger.Logger
}

// NewEnqueuer builds an enqueuer. The logger is optional.
func NewEnqueuer(pub publisher, logg *logger.Logger) (*Enqueuer, error) {
	if pub == nil {
		return nil, fmt.Errorf("email publisher required")
	}
	return &Enqueuer{pub: pub, logg: logg}, nil
}

// EnqueueConfirmEmail queues the account confirmation email.
func (e *Enqueuer) EnqueueConfirmEmail(ctx context.Context, task ConfirmEmailTask) error {
	return e.publish(ctx, TaskConfirmEmail, task)
}

// NotifyLowStock queues a low-stock alert. Satisfies the stock checker's
// notifier contract.
func (e *Enqueuer) NotifyLowStock(ctx context.Context, line catalog.LowStockLine) error {
	return e.publish(ctx, TaskLowStockAlert, LowStockAlertTask{
		SKU:         line.SKU,
		ProductName: line.ProductName,
		Color:       line.Color,
		Size:        line.Size,
		QtyInStock:  line.QtyInStock,
	})
}

func (e *Enqueuer) publish(ctx context.Context, taskType TaskType, payload any) error {
	envelope, err := newEnvelope(taskType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	result := e.pub.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{attrTaskType: string(taskType)},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish %s task: %w", taskType, err)
	}

	if e.logg != nil {
		logCtx := e.logg.WithFields(ctx, map[string]any{
			"task_id":   envelope.TaskID.String(),
			"task_type": string(taskType),
		})
		e.logg.Info(logCtx, "email task enqueued")
	}
	return nil
}
