package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/inftyart/inftyart/internal/usecase"
)

// TaskSettlementPayout is the task type for seller payouts.
const TaskSettlementPayout = "settlement:payout"

// Client wraps asynq.Client for enqueuing tasks
type Client struct {
	client *asynq.Client
}

// NewClient creates a new queue client
func NewClient(redisAddr string, redisPassword string) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
	})

	return &Client{
		client: client,
	}
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueSettlement queues a seller payout for the worker. Payouts go on
// the critical queue so a backlog of exports cannot delay them.
func (c *Client) EnqueueSettlement(ctx context.Context, payload usecase.SettlementPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TaskSettlementPayout, payloadBytes)

	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue("critical"), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	fmt.Printf("[Queue] Enqueued task: id=%s queue=%s\n", info.ID, info.Queue)
	return nil
}
