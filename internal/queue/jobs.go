// Package queue defines the asynq tasks that carry notification deliveries
// out of the request path. Payloads hold only identifiers; phone numbers
// are re-decrypted inside the worker so no PII transits Redis.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hyunjae-dev/prooflink/internal/app/model"
)

const (
	// TaskDeliverNotification is scheduled once per recipient per dispatch.
	TaskDeliverNotification = "notification:deliver"
)

// DeliverPayload identifies one delivery unit of work.
type DeliverPayload struct {
	OrderID uint                   `json:"order_id"`
	Role    model.NotificationRole `json:"role"`
}

// Enqueuer schedules delivery tasks. Satisfied by Client; services depend
// on the interface so tests can capture enqueues in memory.
type Enqueuer interface {
	EnqueueDeliver(ctx context.Context, payload DeliverPayload) error
}

// Client wraps an asynq client with the task vocabulary above.
type Client struct {
	inner *asynq.Client
}

// NewClient wraps an asynq client.
func NewClient(inner *asynq.Client) *Client {
	return &Client{inner: inner}
}

// EnqueueDeliver enqueues a notification delivery. MaxRetry is zero on
// purpose: the in-process backoff executor owns retries, and a redelivered
// task would duplicate audit rows.
func (c *Client) EnqueueDeliver(ctx context.Context, payload DeliverPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TaskDeliverNotification, data)
	if _, err := c.inner.EnqueueContext(ctx, task, asynq.MaxRetry(0), asynq.Timeout(5*time.Minute)); err != nil {
		return fmt.Errorf("enqueue deliver task: %w", err)
	}
	return nil
}

var _ Enqueuer = (*Client)(nil)
