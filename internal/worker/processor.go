// Package worker plugs notification deliveries into the asynq worker loop.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/hyunjae-dev/prooflink/internal/app/service"
	"github.com/hyunjae-dev/prooflink/internal/queue"
)

// Processor handles delivery tasks dequeued by the asynq server.
type Processor struct {
	logger        *zap.Logger
	notifications *service.NotificationService
}

// NewProcessor constructs a worker processor.
func NewProcessor(logger *zap.Logger, notifications *service.NotificationService) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{logger: logger, notifications: notifications}
}

// Handler registers the delivery task handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskDeliverNotification, p.handleDeliver)
	return mux
}

func (p *Processor) handleDeliver(ctx context.Context, task *asynq.Task) error {
	var payload queue.DeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	// Deliver records its own FAILED audit row; an error returned here is
	// terminal because the task is enqueued with MaxRetry(0).
	if err := p.notifications.Deliver(ctx, payload.OrderID, payload.Role); err != nil {
		p.logger.Error("notification delivery failed",
			zap.Uint("order_id", payload.OrderID),
			zap.String("role", string(payload.Role)),
			zap.Error(err))
		return err
	}

	p.logger.Info("notification delivered",
		zap.Uint("order_id", payload.OrderID),
		zap.String("role", string(payload.Role)))
	return nil
}
