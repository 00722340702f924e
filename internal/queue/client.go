package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/voicekit/indextts-server/internal/config"
)

// Client enqueues synthesis tasks.
type Client struct {
	client *asynq.Client
}

// NewClient creates a queue client against the configured Redis.
func NewClient(cfg config.ServerConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
	}
}

// Close releases the underlying Redis connections.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueSynthesize queues one synthesis job. Synthesis can take minutes for
// long inputs, hence the generous timeout.
func (c *Client) EnqueueSynthesize(payload SynthesizePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeSynthesize, data)
	_, err = c.client.Enqueue(task, asynq.MaxRetry(2), asynq.Timeout(15*time.Minute))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeSynthesize, err)
	}
	return nil
}
