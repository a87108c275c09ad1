package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/ateliermoda/moda-backend/pkg/metrics"
)

const emailJobName = "email-task"

// Worker consumes the email task queue and hands each task to the sender.
type Worker struct {
	subscription *pubsub.Subscriber
	sender       Sender
	logg         *logger.Logger
	jobs         *metrics.JobMetrics
}

// NewWorker builds an email worker. Metrics are optional.
func NewWorker(subscription *pubsub.Subscriber, sender Sender, logg *logger.Logger, jobs *metrics.JobMetrics) (*Worker, error) {
	if subscription == nil {
		return nil, fmt.Errorf("email subscription required")
	}
	if sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Worker{
		subscription: subscription,
		sender:       sender,
		logg:         logg,
		jobs:         jobs,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	return w.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if w.process(ctx, msg.Data, msg.Attributes, msg.ID) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process handles one message and reports whether it should be acked.
// Undecodable messages are acked: redelivery cannot fix them.
func (w *Worker) process(ctx context.Context, data []byte, attributes map[string]string, msgID string) bool {
	start := time.Now()
	logCtx := w.logg.WithFields(ctx, map[string]any{
		"message_id": msgID,
		"task_type":  attributes[attrTaskType],
	})

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		w.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}
	logCtx = w.logg.WithField(logCtx, "task_id", envelope.TaskID.String())

	if envelope.Type != TaskConfirmEmail && envelope.Type != TaskLowStockAlert {
		w.logg.Info(logCtx, "skipping unknown task type")
		return true
	}

	err := w.handle(ctx, envelope)
	w.jobs.ObserveDuration(emailJobName, time.Since(start))
	if err != nil {
		w.jobs.IncFailure(emailJobName)
		w.logg.Error(logCtx, "email task failed", err)
		return false
	}

	w.jobs.IncSuccess(emailJobName)
	w.logg.Info(logCtx, "email task processed")
	return true
}

func (w *Worker) handle(ctx context.Context, envelope Envelope) error {
	switch envelope.Type {
	case TaskConfirmEmail:
		var task ConfirmEmailTask
		if err := json.Unmarshal(envelope.Data, &task); err != nil {
			return fmt.Errorf("decode confirm email task: %w", err)
		}
		return w.sender.SendConfirmEmail(ctx, task)
	case TaskLowStockAlert:
		var task LowStockAlertTask
		if err := json.Unmarshal(envelope.Data, &task); err != nil {
			return fmt.Errorf("decode low stock task: %w", err)
		}
		return w.sender.SendLowStockAlert(ctx, task)
	default:
		return fmt.Errorf("unknown task type %q", envelope.Type)
	}
}
