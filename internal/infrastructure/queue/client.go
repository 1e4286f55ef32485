package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/shared"
)

const (
	publishMaxRetry = 3
	publishTimeout  = 5 * time.Minute
)

// Client enqueues background publishing work for the worker process.
type Client struct {
	client *asynq.Client
}

func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

// EnqueuePublish schedules an asynchronous multi-platform publish and returns
// the task id.
func (c *Client) EnqueuePublish(ctx context.Context, payload shared.PublishContentPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal publish payload: %w", err)
	}

	task := asynq.NewTask(shared.TypePublishContent, data)
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueuePublishing),
		asynq.MaxRetry(publishMaxRetry),
		asynq.Timeout(publishTimeout),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue publish task: %w", err)
	}

	log.Info().
		Str("task_id", info.ID).
		Str("content_id", payload.ContentID).
		Strs("platforms", payload.Platforms).
		Msg("[Queue] Publish task enqueued")
	return info.ID, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
